package router

import (
	"time"

	"playzone/internal/config"
	"playzone/internal/handler"
	"playzone/internal/middleware"
	"playzone/internal/model"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New returns the configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svc *Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	loc, _ := cfg.Location() // validated by config.Load

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, 600, time.Minute)) // per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	devicesH := handler.NewDevicesHandler(svc.Devices)
	sessionsH := handler.NewSessionsHandler(svc.Sessions)
	productsH := handler.NewProductsHandler(svc.Products)
	salesH := handler.NewSalesHandler(svc.Sales)
	expensesH := handler.NewExpensesHandler(svc.Expenses)
	debtsH := handler.NewDebtsHandler(svc.Debts)
	usersH := handler.NewUsersHandler(svc.Users)
	var reportQueue handler.ReportQueue
	if svc.Dispatcher != nil {
		reportQueue = svc.Dispatcher
	}
	reportsH := handler.NewReportsHandler(svc.Summary, reportQueue, loc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, svc.Mailer.Breaker()))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	anyone := middleware.RequireRole(model.RoleStaff, model.RoleAdmin)
	admin := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/me", anyone, usersH.Me)
		v1.PUT("/me", anyone, usersH.UpdateMe)
		v1.GET("/users", admin, usersH.List)

		// Front desk: reads for everyone, setup writes for admins
		v1.GET("/devices", anyone, devicesH.List)
		v1.GET("/devices/:id", anyone, devicesH.Get)
		devices := v1.Group("/devices", admin)
		{
			devices.POST("", devicesH.Create)
			devices.PUT("/:id", devicesH.Update)
			devices.PUT("/:id/maintenance", devicesH.SetMaintenance)
			devices.DELETE("/:id", devicesH.Delete)
		}

		sessions := v1.Group("/sessions", anyone)
		{
			sessions.POST("", sessionsH.Start)
			sessions.GET("", sessionsH.List)
			sessions.GET("/active", sessionsH.ListActive)
			sessions.GET("/:id", sessionsH.Get)
			sessions.GET("/:id/live", sessionsH.Live)
			sessions.PATCH("/:id/controllers", sessionsH.UpdateControllers)
			sessions.POST("/:id/end", sessionsH.End)
		}

		v1.GET("/products", anyone, productsH.List)
		v1.GET("/products/:id", anyone, productsH.Get)
		products := v1.Group("/products", admin)
		{
			products.POST("", productsH.Create)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
		}

		sales := v1.Group("/sales", admin)
		{
			sales.POST("", salesH.Create)
			sales.GET("", salesH.List)
			sales.PUT("/:id", salesH.Correct)
			sales.DELETE("/:id", salesH.Void)
		}

		expenses := v1.Group("/expenses", admin)
		{
			expenses.POST("", expensesH.Create)
			expenses.GET("", expensesH.List)
			expenses.PUT("/:id", expensesH.Update)
			expenses.DELETE("/:id", expensesH.Delete)
		}

		debts := v1.Group("/debts", anyone)
		{
			debts.POST("", debtsH.Create)
			debts.GET("", debtsH.List)
			debts.POST("/:id/pay", debtsH.MarkPaid)
			debts.DELETE("/:id", admin, debtsH.Delete)
		}

		reports := v1.Group("/reports", admin)
		{
			reports.GET("/daily", reportsH.Daily)
			reports.GET("/summary", reportsH.Range)
			reports.GET("/summary.xlsx", reportsH.ExportXLSX)
			reports.POST("/rebuild", reportsH.Rebuild)
			reports.POST("/email", reportsH.SendEmail)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
