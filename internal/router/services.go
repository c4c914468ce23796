package router

import (
	"playzone/internal/config"
	"playzone/internal/infra"
	"playzone/internal/repository"
	"playzone/internal/service"
	"playzone/internal/worker"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the composition root shared by the HTTP layer and the
// background workers.
type Services struct {
	Devices  service.DeviceService
	Sessions service.SessionService
	Products service.ProductService
	Sales    service.SaleService
	Expenses service.ExpenseService
	Debts    service.DebtService
	Users    service.UserService
	Summary  service.SummaryService

	Dispatcher *worker.Dispatcher
	Mailer     *infra.Mailer
}

// NewServices wires Service ← Repository ← DB/Redis. rdb may be nil, in
// which case locks, the rate cache and async rebuilds are disabled.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clock := service.SystemClock{}

	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		locker     service.Locker
		queue      service.RebuildQueue
		dispatcher *worker.Dispatcher
	)
	if rdb != nil {
		locker = infra.NewLocker(rdb, cfg.DeviceLockTTL())
		dispatcher = worker.NewDispatcher(rdb)
		queue = dispatcher
	}
	rates := infra.NewRateCardCache(rdb, cfg.RateCacheTTL())

	// ── Repositories ─────────────────────────────────────────────────────────
	deviceRepo := repository.NewDeviceRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	debtRepo := repository.NewDebtRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	userRepo := repository.NewUserRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	summarySvc := service.NewSummaryService(sessionRepo, saleRepo, expenseRepo, summaryRepo, locker, queue, loc, clock)

	return &Services{
		Devices:    service.NewDeviceService(deviceRepo, locker, rates),
		Sessions:   service.NewSessionService(sessionRepo, deviceRepo, summarySvc, locker, rates, loc, clock),
		Products:   service.NewProductService(productRepo),
		Sales:      service.NewSaleService(saleRepo, productRepo, summarySvc, loc, clock),
		Expenses:   service.NewExpenseService(expenseRepo, summarySvc, loc),
		Debts:      service.NewDebtService(debtRepo, clock),
		Users:      service.NewUserService(userRepo),
		Summary:    summarySvc,
		Dispatcher: dispatcher,
		Mailer:     infra.NewMailer(cfg),
	}, nil
}
