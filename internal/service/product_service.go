package service

import (
	"context"
	"errors"

	"playzone/internal/dto"
	"playzone/internal/model"
	"playzone/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		ID:       uuid.New(),
		Name:     req.Name,
		Price:    req.Price.Round(2),
		Stock:    req.Stock,
		Category: req.Category,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	out := productResponse(p)
	return &out, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	out := productResponse(p)
	return &out, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, productResponse(&products[i]))
	}
	return out, nil
}

// Update is the administrative edit; it is the only way stock goes up.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = req.Price.Round(2)
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	out := productResponse(p)
	return &out, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrProductHasSales
	}
	return notFound(err, ErrProductNotFound)
}

func productResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:       p.ID.String(),
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
	}
}
