package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"playzone/internal/dto"
	"playzone/internal/infra"
	"playzone/internal/model"
	"playzone/internal/repository"
	"playzone/internal/service"
	"playzone/internal/summary"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Clock ─────────────────────────────────────────────────────────────────────

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Locker ────────────────────────────────────────────────────────────────────

// fakeLocker holds keys in memory; held keys make Acquire fail like Redis would.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	down bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]bool{}} }

func (l *fakeLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down {
		return nil, context.DeadlineExceeded
	}
	if l.held[key] {
		return nil, infra.ErrLockHeld
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}

func (l *fakeLocker) Wait(ctx context.Context, key string) (func(), error) {
	return l.Acquire(ctx, key)
}

var _ service.Locker = (*fakeLocker)(nil)

// ── Summary refresher ────────────────────────────────────────────────────────

type recordingRefresher struct {
	calls []refreshCall
}

type refreshCall struct {
	trigger string
	days    []string
}

func (r *recordingRefresher) Refresh(_ context.Context, trigger string, days ...time.Time) {
	c := refreshCall{trigger: trigger}
	for _, d := range days {
		c.days = append(c.days, d.Format(summary.DateLayout))
	}
	r.calls = append(r.calls, c)
}

var _ service.SummaryRefresher = (*recordingRefresher)(nil)

// ── Devices ───────────────────────────────────────────────────────────────────

type stubDeviceRepo struct {
	devices  map[uuid.UUID]*model.Device
	sessions *stubSessionRepo // consulted by ReleaseIfIdle
}

func newStubDeviceRepo() *stubDeviceRepo {
	return &stubDeviceRepo{devices: map[uuid.UUID]*model.Device{}}
}

func (r *stubDeviceRepo) add(rate, extra string) *model.Device {
	d := &model.Device{
		ID:                  uuid.New(),
		Name:                "PS5 #1",
		Type:                model.DeviceTypeExternal,
		Status:              model.DeviceAvailable,
		HourlyRate:          dec(rate),
		ExtraControllerRate: dec(extra),
	}
	r.devices[d.ID] = d
	return d
}

func (r *stubDeviceRepo) Create(_ context.Context, d *model.Device) error {
	cp := *d
	r.devices[d.ID] = &cp
	return nil
}

func (r *stubDeviceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Device, error) {
	d, ok := r.devices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *stubDeviceRepo) List(_ context.Context, f dto.DeviceFilter) ([]model.Device, error) {
	var out []model.Device
	for _, d := range r.devices {
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *stubDeviceRepo) Update(_ context.Context, d *model.Device) error {
	cur, ok := r.devices[d.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	status := cur.Status
	cp := *d
	cp.Status = status
	r.devices[d.ID] = &cp
	return nil
}

func (r *stubDeviceRepo) DeleteIfNotOccupied(_ context.Context, id uuid.UUID) (bool, error) {
	d, ok := r.devices[id]
	if !ok || d.Status == model.DeviceOccupied {
		return false, nil
	}
	if r.sessions != nil && r.sessions.references(id) {
		return false, gorm.ErrForeignKeyViolated
	}
	delete(r.devices, id)
	return true, nil
}

func (r *stubDeviceRepo) SetStatusTx(_ *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	d, ok := r.devices[id]
	if !ok || d.Status != from {
		return false, nil
	}
	d.Status = to
	return true, nil
}

func (r *stubDeviceRepo) ReleaseIfIdle(_ context.Context, id uuid.UUID) (bool, error) {
	d, ok := r.devices[id]
	if !ok || d.Status != model.DeviceOccupied {
		return false, nil
	}
	if r.sessions != nil && r.sessions.hasActive(id) {
		return false, nil
	}
	d.Status = model.DeviceAvailable
	return true, nil
}

func (r *stubDeviceRepo) DB() *gorm.DB { return nil }

var _ repository.DeviceRepository = (*stubDeviceRepo)(nil)

// ── Sessions ──────────────────────────────────────────────────────────────────

type stubSessionRepo struct {
	sessions   map[uuid.UUID]*model.Session
	createErr  error
	costWrites int
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: map[uuid.UUID]*model.Session{}}
}

func (r *stubSessionRepo) hasActive(deviceID uuid.UUID) bool {
	for _, s := range r.sessions {
		if s.DeviceID == deviceID && s.Status == model.SessionActive {
			return true
		}
	}
	return false
}

func (r *stubSessionRepo) references(deviceID uuid.UUID) bool {
	for _, s := range r.sessions {
		if s.DeviceID == deviceID {
			return true
		}
	}
	return false
}

func (r *stubSessionRepo) CreateTx(_ *gorm.DB, s *model.Session) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.hasActive(s.DeviceID) {
		return gorm.ErrDuplicatedKey
	}
	cp := *s
	cp.Device = nil
	r.sessions[s.ID] = &cp
	return nil
}

func (r *stubSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSessionRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Session, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSessionRepo) List(_ context.Context, q repository.SessionQuery) ([]model.Session, int64, error) {
	var out []model.Session
	for _, s := range r.sessions {
		if !q.From.IsZero() && s.StartTime.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !s.StartTime.Before(q.To) {
			continue
		}
		if q.Status != "" && s.Status != q.Status {
			continue
		}
		if q.DeviceID != nil && s.DeviceID != *q.DeviceID {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, int64(len(out)), nil
}

func (r *stubSessionRepo) ListActive(_ context.Context) ([]model.Session, error) {
	var out []model.Session
	for _, s := range r.sessions {
		if s.Status == model.SessionActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) UpdateCost(_ context.Context, id uuid.UUID, total, final decimal.Decimal) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionActive {
		return false, nil
	}
	r.costWrites++
	s.TotalCost, s.FinalAmount = total, final
	return true, nil
}

func (r *stubSessionRepo) UpdateControllers(_ context.Context, id uuid.UUID, n int) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionActive {
		return false, nil
	}
	s.ExtraControllers = n
	return true, nil
}

func (r *stubSessionRepo) CompleteTx(_ *gorm.DB, s *model.Session) (bool, error) {
	cur, ok := r.sessions[s.ID]
	if !ok || cur.Status != model.SessionActive {
		return false, nil
	}
	cp := *s
	cp.Device = nil
	r.sessions[s.ID] = &cp
	return true, nil
}

func (r *stubSessionRepo) AmountsBetween(_ context.Context, start, end time.Time) ([]summary.SessionAmounts, error) {
	var out []summary.SessionAmounts
	for _, s := range r.sessions {
		if !s.StartTime.Before(start) && s.StartTime.Before(end) {
			out = append(out, summary.SessionAmounts{Status: s.Status, TotalCost: s.TotalCost, FinalAmount: s.FinalAmount})
		}
	}
	return out, nil
}

func (r *stubSessionRepo) DB() *gorm.DB { return nil }

var _ repository.SessionRepository = (*stubSessionRepo)(nil)

// ── Products & sales ─────────────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	sales    *stubSaleRepo // consulted by Delete, like the sales foreign key
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: map[uuid.UUID]*model.Product{}}
}

func (r *stubProductRepo) add(price string, stock int) *model.Product {
	p := &model.Product{ID: uuid.New(), Name: "Cola", Price: dec(price), Stock: stock, Category: model.ProductMarket}
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	if r.sales != nil {
		for _, sale := range r.sales.sales {
			if sale.ProductID == id {
				return gorm.ErrForeignKeyViolated
			}
		}
	}
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) AdjustStockTx(_ *gorm.DB, id uuid.UUID, delta int) (bool, error) {
	p, ok := r.products[id]
	if !ok || p.Stock+delta < 0 {
		return false, nil
	}
	p.Stock += delta
	return true, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

type stubSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
}

func newStubSaleRepo() *stubSaleRepo { return &stubSaleRepo{sales: map[uuid.UUID]*model.Sale{}} }

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	cp := *s
	cp.Product = nil
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSaleRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSaleRepo) UpdateAmountsTx(_ *gorm.DB, s *model.Sale) error {
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.sales, id)
	return nil
}

func (r *stubSaleRepo) ListBetween(_ context.Context, start, end time.Time) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if !s.CreatedAt.Before(start) && s.CreatedAt.Before(end) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) AmountsBetween(ctx context.Context, start, end time.Time) ([]summary.SaleAmounts, error) {
	sales, _ := r.ListBetween(ctx, start, end)
	out := make([]summary.SaleAmounts, 0, len(sales))
	for _, s := range sales {
		out = append(out, summary.SaleAmounts{TotalPrice: s.TotalPrice, FinalAmount: s.FinalAmount})
	}
	return out, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Expenses, summaries, debts, users ────────────────────────────────────────

type stubExpenseRepo struct {
	expenses map[uuid.UUID]*model.Expense
}

func newStubExpenseRepo() *stubExpenseRepo {
	return &stubExpenseRepo{expenses: map[uuid.UUID]*model.Expense{}}
}

func (r *stubExpenseRepo) Create(_ context.Context, e *model.Expense) error {
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *stubExpenseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *stubExpenseRepo) List(_ context.Context, q repository.ExpenseQuery) ([]model.Expense, error) {
	var out []model.Expense
	for _, e := range r.expenses {
		day := e.Date.Format(summary.DateLayout)
		if (q.From != "" && day < q.From) || (q.To != "" && day > q.To) {
			continue
		}
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *stubExpenseRepo) Update(_ context.Context, e *model.Expense) error {
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *stubExpenseRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.expenses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.expenses, id)
	return nil
}

func (r *stubExpenseRepo) AmountsOn(_ context.Context, day string) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, e := range r.expenses {
		if e.Date.Format(summary.DateLayout) == day {
			out = append(out, e.Amount)
		}
	}
	return out, nil
}

var _ repository.ExpenseRepository = (*stubExpenseRepo)(nil)

type stubSummaryRepo struct {
	rows      map[string]model.DailySummary
	upserts   int
	upsertErr error
}

func newStubSummaryRepo() *stubSummaryRepo {
	return &stubSummaryRepo{rows: map[string]model.DailySummary{}}
}

func (r *stubSummaryRepo) Upsert(_ context.Context, s *model.DailySummary) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	r.rows[s.Date.Format(summary.DateLayout)] = *s
	return nil
}

func (r *stubSummaryRepo) FindByDate(_ context.Context, day string) (*model.DailySummary, error) {
	row, ok := r.rows[day]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *stubSummaryRepo) ListRange(_ context.Context, from, to string) ([]model.DailySummary, error) {
	var out []model.DailySummary
	for day, row := range r.rows {
		if day >= from && day <= to {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

var _ repository.SummaryRepository = (*stubSummaryRepo)(nil)

type stubDebtRepo struct {
	debts map[uuid.UUID]*model.Debt
}

func newStubDebtRepo() *stubDebtRepo { return &stubDebtRepo{debts: map[uuid.UUID]*model.Debt{}} }

func (r *stubDebtRepo) Create(_ context.Context, d *model.Debt) error {
	cp := *d
	r.debts[d.ID] = &cp
	return nil
}

func (r *stubDebtRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Debt, error) {
	d, ok := r.debts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *stubDebtRepo) List(_ context.Context, status string) ([]model.Debt, error) {
	var out []model.Debt
	for _, d := range r.debts {
		if status == "" || status == "all" || d.Status == status {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubDebtRepo) MarkPaid(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	d, ok := r.debts[id]
	if !ok || d.Status != model.DebtPending {
		return false, nil
	}
	d.Status = model.DebtPaid
	d.PaidAt = &at
	return true, nil
}

func (r *stubDebtRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.debts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.debts, id)
	return nil
}

var _ repository.DebtRepository = (*stubDebtRepo)(nil)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo { return &stubUserRepo{users: map[uuid.UUID]*model.User{}} }

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for other, o := range r.users {
		if other != id && o.Email == email {
			return gorm.ErrDuplicatedKey
		}
	}
	u.Email = email
	return nil
}

func (r *stubUserRepo) Upsert(_ context.Context, u *model.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", s, err)
	}
	return id
}

// recordingQueue collects rebuild jobs instead of pushing them to Redis.
type recordingQueue struct{ days []string }

func (q *recordingQueue) EnqueueSummaryRebuild(_ context.Context, day string) error {
	q.days = append(q.days, day)
	return nil
}
