package router

import (
	"time"

	"github.com/RatanSinghYadav/scheme-app-api/internal/config"
	"github.com/RatanSinghYadav/scheme-app-api/internal/handler"
	"github.com/RatanSinghYadav/scheme-app-api/internal/infra"
	"github.com/RatanSinghYadav/scheme-app-api/internal/middleware"
	"github.com/RatanSinghYadav/scheme-app-api/internal/model"
	"github.com/RatanSinghYadav/scheme-app-api/internal/repository"
	"github.com/RatanSinghYadav/scheme-app-api/internal/service"
	"github.com/RatanSinghYadav/scheme-app-api/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the infrastructure handles built by the composition root.
// Redis and Source may be nil; Sync is built here when nil.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Source *infra.SourceDB
	Sync   service.SyncService
}

// NewSyncService builds the reconciliation service over the postgres stores.
// The server shares one instance between the HTTP routes and the scheduler.
func NewSyncService(cfg *config.Config, db *gorm.DB, rdb *redis.Client, source *infra.SourceDB) service.SyncService {
	return service.NewSyncService(
		source,
		repository.NewProductRepository(db),
		repository.NewDistributorRepository(db),
		service.SyncOptions{Redis: rdb, BatchSize: cfg.SyncBatchSize},
	)
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(d Deps) *gin.Engine {
	cfg, db, rdb := d.Config, d.DB, d.Redis
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	distributorRepo := repository.NewDistributorRepository(db)
	schemeRepo := repository.NewSchemeRepository(db)
	presetRepo := repository.NewFilterPresetRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Notifications need the Redis queue; without it they are skipped.
	var notifier service.Notifier
	if rdb != nil {
		notifier = worker.NewDispatcher(rdb)
	}

	syncSvc := d.Sync
	if syncSvc == nil {
		syncSvc = NewSyncService(cfg, db, rdb, d.Source)
	}

	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo)
	distributorSvc := service.NewDistributorService(distributorRepo)
	schemeSvc := service.NewSchemeService(schemeRepo, distributorRepo, userRepo, notifier, cfg)
	dashboardSvc := service.NewDashboardService(schemeRepo)
	presetSvc := service.NewFilterPresetService(presetRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	distributorsH := handler.NewDistributorsHandler(distributorSvc)
	schemesH := handler.NewSchemesHandler(schemeSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)
	presetsH := handler.NewFilterPresetsHandler(presetSvc)
	syncH := handler.NewSyncHandler(syncSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	var source handler.SourceHealth
	if d.Source != nil {
		source = d.Source
	}
	r.GET("/health", handler.Health(db, rdb, source))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	admin := middleware.RequireRole(model.RoleAdmin)
	writers := middleware.RequireRole(model.RoleCreator, model.RoleAdmin)
	verifiers := middleware.RequireRole(model.RoleVerifier, model.RoleAdmin)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/check-email", authH.CheckEmail)
		auth.POST("/logout", authH.Logout)
		auth.POST("/refresh", authH.Refresh)

		auth.GET("/getCurrentUser", jwtMW, authH.CurrentUser)

		users := auth.Group("/users", jwtMW, admin)
		{
			users.GET("", usersH.List)
			users.POST("", usersH.Create)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.POST("/:id/reset-password", usersH.ResetPassword)
		}
	}

	// Schemes are served under both prefixes used by existing clients.
	for _, prefix := range []string{"/schemes", "/base/schemes"} {
		schemes := api.Group(prefix, jwtMW)
		schemes.GET("/getAllSchemes", schemesH.List)
		schemes.GET("/getScheme/:id", schemesH.Get)
		schemes.GET("/export/:id", schemesH.Export)
		schemes.GET("/exportByDate", schemesH.ExportByDate)
		schemes.POST("/create", writers, schemesH.Create)
		schemes.PUT("/update/:id", writers, schemesH.Update)
		schemes.POST("/bulk-update", writers, schemesH.BulkUpdate)
		schemes.PUT("/verify/:id", verifiers, schemesH.Verify)
		schemes.PUT("/reject/:id", verifiers, schemesH.Reject)
		schemes.DELETE("/delete/:id", admin, schemesH.Delete)
		schemes.POST("/bulk-delete", admin, schemesH.BulkDelete)
	}

	products := api.Group("/products", jwtMW)
	{
		products.GET("/getAllProducts", productsH.List)
		products.GET("/getProduct/:id", productsH.Get)
		products.GET("/stats", productsH.Stats)
		products.POST("/create", admin, productsH.Create)
		products.PUT("/update/:id", admin, productsH.Update)
		products.DELETE("/delete/:id", admin, productsH.Delete)
		products.POST("/import", admin, productsH.Import)
		products.POST("/bulk-delete", admin, productsH.BulkDelete)
	}

	distributors := api.Group("/distributors", jwtMW)
	{
		distributors.GET("/getAllDistributors", distributorsH.List)
		distributors.GET("/getDistributor/:id", distributorsH.Get)
		distributors.POST("/create", admin, distributorsH.Create)
		distributors.PUT("/update/:id", admin, distributorsH.Update)
		distributors.DELETE("/delete/:id", admin, distributorsH.Delete)
	}

	dashboard := api.Group("/dashboard", jwtMW)
	{
		dashboard.GET("/stats", dashboardH.Stats)
		dashboard.GET("/activities", dashboardH.Activities)
	}

	presets := api.Group("/filter-presets", jwtMW)
	{
		presets.GET("", presetsH.List)
		presets.POST("", presetsH.Create)
		presets.DELETE("/:id", presetsH.Delete)
	}

	sync := api.Group("/sync", jwtMW, admin)
	{
		sync.POST("/all", syncH.All)
		sync.POST("/products", syncH.Products)
		sync.POST("/distributors", syncH.Distributors)
		sync.GET("/status", syncH.Status)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
