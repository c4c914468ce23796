package service_test

import (
	"context"
	"testing"
	"time"

	"playzone/internal/dto"
	"playzone/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	svc       service.SaleService
	sales     *stubSaleRepo
	products  *stubProductRepo
	refresher *recordingRefresher
	clock     *fakeClock
}

func newSaleFixture() *saleFixture {
	f := &saleFixture{
		sales:     newStubSaleRepo(),
		products:  newStubProductRepo(),
		refresher: &recordingRefresher{},
		clock:     &fakeClock{now: t0},
	}
	f.svc = service.NewSaleService(f.sales, f.products, f.refresher, time.UTC, f.clock)
	return f
}

func TestSaleCreate_SnapshotsPriceAndDecrementsStock(t *testing.T) {
	f := newSaleFixture()
	p := f.products.add("2.45", 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{
		ProductID: p.ID.String(), Quantity: 3, DiscountPercent: dec("15"),
	})

	require.NoError(t, err)
	assert.Equal(t, "2.45", resp.UnitPrice.StringFixed(2))
	assert.Equal(t, "7.35", resp.TotalPrice.StringFixed(2))
	assert.Equal(t, "6.25", resp.FinalAmount.StringFixed(2))
	assert.Equal(t, "1.10", resp.DiscountAmount.StringFixed(2))
	assert.Equal(t, "Cola", resp.ProductName)
	assert.Equal(t, 7, f.products.products[p.ID].Stock)
	require.Len(t, f.refresher.calls, 1)
	assert.Equal(t, []string{"2026-03-14"}, f.refresher.calls[0].days)

	// later price edits do not touch recorded sales
	f.products.products[p.ID].Price = dec("9.99")
	stored := f.sales.sales[uuid.MustParse(resp.ID)]
	assert.Equal(t, "2.45", stored.UnitPrice.StringFixed(2))
}

func TestSaleCreate_InsufficientStock(t *testing.T) {
	f := newSaleFixture()
	p := f.products.add("1", 2)

	_, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 3})

	assert.ErrorIs(t, err, service.ErrInsufficientStock)
	assert.Equal(t, 2, f.products.products[p.ID].Stock)
	assert.Empty(t, f.sales.sales)
	assert.Empty(t, f.refresher.calls)
}

func TestSaleCreate_ExactStockDrainsToZero(t *testing.T) {
	f := newSaleFixture()
	p := f.products.add("1", 2)

	_, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 2})

	require.NoError(t, err)
	assert.Zero(t, f.products.products[p.ID].Stock)
}

func TestSaleCreate_UnknownProduct(t *testing.T) {
	f := newSaleFixture()
	_, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: uuid.NewString(), Quantity: 1})
	assert.ErrorIs(t, err, service.ErrProductNotFound)
}

func TestSaleCreate_InvalidDiscount(t *testing.T) {
	f := newSaleFixture()
	p := f.products.add("1", 5)

	for _, pct := range []string{"-5", "10.125"} {
		_, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{
			ProductID: p.ID.String(), Quantity: 1, DiscountPercent: dec(pct),
		})
		assert.ErrorIs(t, err, service.ErrInvalidDiscount, pct)
	}

	assert.Equal(t, 5, f.products.products[p.ID].Stock)
}

func TestSaleCorrect_MovesStockByDifference(t *testing.T) {
	f := newSaleFixture()
	p := f.products.add("2", 10)
	resp, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 4})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	// price change after the sale must not leak into the correction
	f.products.products[p.ID].Price = dec("5")
	got, err := f.svc.Correct(context.Background(), id, dto.CorrectSaleRequest{Quantity: 1, DiscountPercent: dec("50")})

	require.NoError(t, err)
	assert.Equal(t, 9, f.products.products[p.ID].Stock)
	assert.Equal(t, "2.00", got.TotalPrice.StringFixed(2))
	assert.Equal(t, "1.00", got.FinalAmount.StringFixed(2))
	assert.Equal(t, "sale_correct", f.refresher.calls[len(f.refresher.calls)-1].trigger)
}

func TestSaleCorrect_IncreaseBeyondStock(t *testing.T) {
	f := newSaleFixture()
	p := f.products.add("2", 5)
	resp, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 4})
	require.NoError(t, err)

	_, err = f.svc.Correct(context.Background(), uuid.MustParse(resp.ID), dto.CorrectSaleRequest{Quantity: 6})

	assert.ErrorIs(t, err, service.ErrInsufficientStock)
	assert.Equal(t, 1, f.products.products[p.ID].Stock)
}

func TestSaleVoid_RestoresStock(t *testing.T) {
	f := newSaleFixture()
	p := f.products.add("2", 5)
	resp, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, f.svc.Void(context.Background(), uuid.MustParse(resp.ID)))

	assert.Equal(t, 5, f.products.products[p.ID].Stock)
	assert.Empty(t, f.sales.sales)
	assert.ErrorIs(t, f.svc.Void(context.Background(), uuid.MustParse(resp.ID)), service.ErrSaleNotFound)
}

func TestSaleList_ByDate(t *testing.T) {
	f := newSaleFixture()
	p := f.products.add("1", 10)
	_, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 2})
	require.NoError(t, err)

	today, err := f.svc.List(context.Background(), dto.SaleFilter{})
	require.NoError(t, err)
	yesterday, err := f.svc.List(context.Background(), dto.SaleFilter{Date: "2026-03-14"})
	require.NoError(t, err)

	require.Len(t, today, 1)
	assert.Equal(t, 2, today[0].Quantity)
	require.Len(t, yesterday, 1)
	assert.Equal(t, 1, yesterday[0].Quantity)
}

func TestProductDelete_WithSales(t *testing.T) {
	f := newSaleFixture()
	f.products.sales = f.sales
	p := f.products.add("1.00", 5)
	_, err := f.svc.Create(context.Background(), dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 1})
	require.NoError(t, err)

	err = service.NewProductService(f.products).Delete(context.Background(), p.ID)

	assert.ErrorIs(t, err, service.ErrProductHasSales)
	assert.Contains(t, f.products.products, p.ID)
}
