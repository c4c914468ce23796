package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"playzone/internal/dto"
	"playzone/internal/model"
	"playzone/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type venue struct {
	summaries *stubSummaryRepo
	summary   service.SummaryService
	sessions  service.SessionService
	sales     service.SaleService
	expenses  service.ExpenseService
	devices   *stubDeviceRepo
	products  *stubProductRepo
	clock     *fakeClock
}

// newVenue wires the write services to a real summary service over stubs.
func newVenue() *venue {
	clock := &fakeClock{now: t0}
	sessions := newStubSessionRepo()
	devices := newStubDeviceRepo()
	devices.sessions = sessions
	products := newStubProductRepo()
	sales := newStubSaleRepo()
	expenses := newStubExpenseRepo()
	summaries := newStubSummaryRepo()
	locker := newFakeLocker()

	sum := service.NewSummaryService(sessions, sales, expenses, summaries, locker, nil, time.UTC, clock)
	return &venue{
		summaries: summaries,
		summary:   sum,
		sessions:  service.NewSessionService(sessions, devices, sum, locker, nil, time.UTC, clock),
		sales:     service.NewSaleService(sales, products, sum, time.UTC, clock),
		expenses:  service.NewExpenseService(expenses, sum, time.UTC),
		devices:   devices,
		products:  products,
		clock:     clock,
	}
}

func TestSummary_FollowsWrites(t *testing.T) {
	v := newVenue()
	ctx := context.Background()
	d := v.devices.add("1.50", "0.25")
	p := v.products.add("1.00", 10)

	started, err := v.sessions.Start(ctx, dto.StartSessionRequest{DeviceID: d.ID.String(), Mode: model.BillingOpen, ExtraControllers: 1})
	require.NoError(t, err)
	_, err = v.sales.Create(ctx, dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 3, DiscountPercent: dec("10")})
	require.NoError(t, err)
	_, err = v.expenses.Create(ctx, dto.CreateExpenseRequest{Description: "ice", Amount: dec("0.25"), Category: model.ExpenseOther, Date: "2026-03-14"})
	require.NoError(t, err)

	v.clock.Advance(90 * time.Minute)
	_, err = v.sessions.End(ctx, mustUUID(t, started.ID), dto.EndSessionRequest{DiscountPercent: dec("10")})
	require.NoError(t, err)

	row := v.summaries.rows["2026-03-14"]
	assert.Equal(t, "2.37", row.SessionsRevenue.StringFixed(2))
	assert.Equal(t, "2.70", row.SalesRevenue.StringFixed(2))
	assert.Equal(t, "0.25", row.ExpensesTotal.StringFixed(2))
	assert.Equal(t, "0.56", row.DiscountsTotal.StringFixed(2))
	assert.Equal(t, "4.82", row.NetIncome.StringFixed(2))
}

func TestSummary_RebuildMatchesIncremental(t *testing.T) {
	v := newVenue()
	ctx := context.Background()
	p := v.products.add("2.00", 10)
	for i := 0; i < 3; i++ {
		_, err := v.sales.Create(ctx, dto.CreateSaleRequest{ProductID: p.ID.String(), Quantity: 1, DiscountPercent: dec("50")})
		require.NoError(t, err)
	}
	incremental := v.summaries.rows["2026-03-14"]

	delete(v.summaries.rows, "2026-03-14")
	n, err := v.summary.RebuildRange(ctx, t0, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rebuilt := v.summaries.rows["2026-03-14"]
	assert.True(t, incremental.NetIncome.Equal(rebuilt.NetIncome))
	assert.True(t, incremental.DiscountsTotal.Equal(rebuilt.DiscountsTotal))
	assert.Equal(t, "3.00", rebuilt.DiscountsTotal.StringFixed(2))
}

func TestSummary_GetUnrecordedDateIsZero(t *testing.T) {
	v := newVenue()

	got, err := v.summary.Get(context.Background(), t0.AddDate(0, 0, -30))

	require.NoError(t, err)
	assert.Equal(t, "2026-02-12", got.Date)
	assert.True(t, got.NetIncome.IsZero())
	assert.Zero(t, v.summaries.upserts)
}

func TestSummary_RangeZeroFillsAndTotals(t *testing.T) {
	v := newVenue()
	ctx := context.Background()
	for _, day := range []string{"2026-03-14", "2026-03-16"} {
		_, err := v.expenses.Create(ctx, dto.CreateExpenseRequest{Description: "x", Amount: dec("10"), Category: model.ExpenseOther, Date: day})
		require.NoError(t, err)
	}

	got, err := v.summary.Range(ctx, t0, t0.AddDate(0, 0, 2))

	require.NoError(t, err)
	require.Len(t, got.Days, 3)
	assert.Equal(t, "2026-03-15", got.Days[1].Date)
	assert.True(t, got.Days[1].ExpensesTotal.IsZero())
	assert.Equal(t, "20.00", got.Totals.ExpensesTotal.StringFixed(2))
	assert.Equal(t, "-20.00", got.Totals.NetIncome.StringFixed(2))
}

func TestSummary_InvalidRange(t *testing.T) {
	v := newVenue()

	_, err := v.summary.Range(context.Background(), t0, t0.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, service.ErrInvalidRange)

	_, err = v.summary.RebuildRange(context.Background(), t0, t0.AddDate(2, 0, 0))
	assert.ErrorIs(t, err, service.ErrInvalidRange)
}

func TestSummary_ExportXLSX(t *testing.T) {
	v := newVenue()

	data, err := v.summary.ExportXLSX(context.Background(), t0, t0.AddDate(0, 0, 6))

	require.NoError(t, err)
	// xlsx is a zip container
	require.Greater(t, len(data), 4)
	assert.Equal(t, "PK", string(data[:2]))
}

func TestSummary_FailedRefreshQueuesRebuild(t *testing.T) {
	summaries := newStubSummaryRepo()
	summaries.upsertErr = errors.New("connection reset")
	queue := &recordingQueue{}
	sum := service.NewSummaryService(newStubSessionRepo(), newStubSaleRepo(), newStubExpenseRepo(),
		summaries, newFakeLocker(), queue, time.UTC, &fakeClock{now: t0})

	sum.Refresh(context.Background(), "sale_create", t0, t0.Add(time.Hour), t0.AddDate(0, 0, 1))

	assert.Equal(t, []string{"2026-03-14", "2026-03-15"}, queue.days)
}
