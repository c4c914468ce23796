package service

import (
	"context"
	"fmt"
	"time"

	"playzone/internal/billing"
	"playzone/internal/dto"
	"playzone/internal/model"
	"playzone/internal/repository"
	"playzone/internal/summary"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	Create(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	// Correct rewrites quantity and discount; stock moves by the difference.
	Correct(ctx context.Context, id uuid.UUID, req dto.CorrectSaleRequest) (*dto.SaleResponse, error)
	// Void deletes the sale and puts its quantity back in stock.
	Void(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.SaleFilter) ([]dto.SaleResponse, error)
}

type saleService struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	summaries SummaryRefresher
	loc       *time.Location
	clock     Clock
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	summaries SummaryRefresher,
	loc *time.Location,
	clock Clock,
) SaleService {
	return &saleService{sales: sales, products: products, summaries: summaries, loc: loc, clock: clock}
}

// price fills the derived money columns of a sale from its unit price.
func price(sale *model.Sale, quantity int, discountPercent decimal.Decimal) error {
	total := sale.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	final, err := billing.ApplyDiscount(total, discountPercent)
	if err != nil {
		return err
	}
	sale.Quantity = quantity
	sale.TotalPrice = total
	sale.DiscountAmount = total.Sub(final)
	sale.FinalAmount = final
	return nil
}

func (s *saleService) Create(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: product_id", ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	var sale *model.Sale
	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		p, err := s.products.FindByIDForUpdateTx(tx, productID)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		sale = &model.Sale{
			ID:        uuid.New(),
			ProductID: productID,
			UnitPrice: p.Price,
			CreatedAt: s.clock.Now(),
			Product:   p,
		}
		if err := price(sale, req.Quantity, req.DiscountPercent); err != nil {
			return err
		}

		ok, err := s.products.AdjustStockTx(tx, productID, -req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientStock
		}
		return s.sales.CreateTx(tx, sale)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("product_id", productID.String()).
		Int("quantity", sale.Quantity).
		Str("final", sale.FinalAmount.StringFixed(2)).
		Msg("sale recorded")

	s.summaries.Refresh(ctx, "sale_create", sale.CreatedAt)
	out := saleResponse(sale)
	return &out, nil
}

func (s *saleService) Correct(ctx context.Context, id uuid.UUID, req dto.CorrectSaleRequest) (*dto.SaleResponse, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	var sale *model.Sale
	err := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, ErrSaleNotFound)
		}

		if delta := req.Quantity - sale.Quantity; delta != 0 {
			ok, err := s.products.AdjustStockTx(tx, sale.ProductID, -delta)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientStock
			}
		}
		if err := price(sale, req.Quantity, req.DiscountPercent); err != nil {
			return err
		}
		return s.sales.UpdateAmountsTx(tx, sale)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("sale_id", id.String()).Int("quantity", sale.Quantity).Msg("sale corrected")
	s.summaries.Refresh(ctx, "sale_correct", sale.CreatedAt)
	out := saleResponse(sale)
	return &out, nil
}

func (s *saleService) Void(ctx context.Context, id uuid.UUID) error {
	var sale *model.Sale
	err := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, ErrSaleNotFound)
		}
		if _, err := s.products.AdjustStockTx(tx, sale.ProductID, sale.Quantity); err != nil {
			return err
		}
		return s.sales.DeleteTx(tx, id)
	})
	if err != nil {
		return err
	}

	log.Info().Str("sale_id", id.String()).Int("restocked", sale.Quantity).Msg("sale voided")
	s.summaries.Refresh(ctx, "sale_void", sale.CreatedAt)
	return nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) ([]dto.SaleResponse, error) {
	day := s.clock.Now()
	if filter.Date != "" {
		d, err := summary.ParseDate(filter.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date", ErrInvalidInput)
		}
		day = d
	}
	start, end := summary.DayBounds(day, s.loc)
	sales, err := s.sales.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, saleResponse(&sales[i]))
	}
	return out, nil
}

func saleResponse(s *model.Sale) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:             s.ID.String(),
		ProductID:      s.ProductID.String(),
		Quantity:       s.Quantity,
		UnitPrice:      s.UnitPrice,
		TotalPrice:     s.TotalPrice,
		DiscountAmount: s.DiscountAmount,
		FinalAmount:    s.FinalAmount,
		CreatedAt:      s.CreatedAt,
	}
	if s.Product != nil {
		out.ProductName = s.Product.Name
	}
	return out
}
