package router

import (
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/config"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/handler"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/infra"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/middleware"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/repository"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/service"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	settingsSvc := service.NewSettingsService(settingsRepo, rdb)
	caixaSvc := service.NewCaixaService(sessionRepo, txRepo, settingsSvc, dispatcher)
	checkoutSvc := service.NewCheckoutService(saleRepo, caixaSvc)
	receivablesSvc := service.NewReceivablesService(saleRepo, caixaSvc)
	reportSvc := service.NewReportService(txRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	caixaH := handler.NewCaixaHandler(caixaSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	receivablesH := handler.NewReceivablesHandler(receivablesSvc)
	settingsH := handler.NewSettingsHandler(settingsSvc)
	reportH := handler.NewReportHandler(reportSvc)
	usersH := handler.NewUsersHandler(authSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	allRoles := middleware.RequireRole("operador", "gerente", "administrador")
	managers := middleware.RequireRole("gerente", "administrador")
	admins := middleware.RequireRole("administrador")

	v1 := r.Group("/v1", jwtMW)
	{
		caixa := v1.Group("/caixa")
		{
			caixa.POST("/abrir", allRoles, caixaH.Open)
			caixa.GET("/ativa", allRoles, caixaH.GetActive)
			caixa.POST("/movimento", allRoles, caixaH.RegisterMovement)
			caixa.GET("/:id/conferencia", allRoles, caixaH.Conference)
			caixa.POST("/fechar", allRoles, caixaH.Close)
			caixa.GET("/:id/relatorio", allRoles, caixaH.Report)
			caixa.GET("/historico", managers, caixaH.History)
		}

		checkout := v1.Group("/checkout", allRoles)
		{
			checkout.POST("/simular", checkoutH.Simulate)
			checkout.POST("/confirmar", checkoutH.Confirm)
		}

		recebiveis := v1.Group("/recebiveis")
		{
			recebiveis.GET("", allRoles, receivablesH.List)
			recebiveis.POST("/:id/pagar", allRoles, receivablesH.Settle)
			recebiveis.POST("/:id/perdoar", managers, receivablesH.Forgive)
		}

		v1.POST("/despesas", allRoles, caixaH.RecordExpense)
		v1.POST("/despesas/:id/pagar", allRoles, caixaH.SettleExpense)

		v1.GET("/relatorios/dre", managers, reportH.DRE)

		cfgGroup := v1.Group("/configuracoes", admins)
		{
			cfgGroup.GET("/financeiro", settingsH.Get)
			cfgGroup.PUT("/financeiro", settingsH.Update)
		}

		usuarios := v1.Group("/usuarios", admins)
		{
			usuarios.POST("", usersH.Create)
			usuarios.GET("", usersH.List)
			usuarios.PUT("/:id", usersH.Update)
			usuarios.DELETE("/:id", usersH.Deactivate)
			usuarios.PATCH("/:id/reativar", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
