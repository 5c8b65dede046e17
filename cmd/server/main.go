// Package main runs the event program HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventgrid/backend/config"
	"github.com/eventgrid/backend/internal/approval"
	"github.com/eventgrid/backend/internal/auth"
	"github.com/eventgrid/backend/internal/departments"
	"github.com/eventgrid/backend/internal/events"
	"github.com/eventgrid/backend/internal/feedback"
	"github.com/eventgrid/backend/internal/metrics"
	"github.com/eventgrid/backend/internal/middleware"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/organizations"
	"github.com/eventgrid/backend/internal/store"
	"github.com/eventgrid/backend/internal/store/memory"
	"github.com/eventgrid/backend/internal/store/postgres"
	"github.com/eventgrid/backend/internal/taxonomy"
	"github.com/eventgrid/backend/pkg/database"
	"github.com/eventgrid/backend/pkg/queue"
	"github.com/eventgrid/backend/pkg/redis"
	"github.com/eventgrid/backend/pkg/response"
	"github.com/eventgrid/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var entities store.Store
	switch cfg.Store.Driver {
	case config.StoreMemory:
		entities = memory.New()
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		entities = postgres.New(pool, cfg.Database.MaxTxRetries, logger.Named("store"))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Warn("redis unavailable; token revocation, taxonomy cache and report export disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	var s3Client *storage.S3
	if cfg.AWS.S3Enabled() {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ReportsBucket:        cfg.AWS.ReportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Prefix, registry)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	var (
		denylist *auth.Denylist
		cache    taxonomy.Cache
		reports  *events.Reports
	)

	authSvc := auth.NewService(entities, jwtService)
	orgSvc := organizations.NewService(entities)
	deptSvc := departments.NewService(entities)
	approvalSvc := approval.NewService(entities)
	eventSvc := events.NewService(entities, m)
	feedbackSvc := feedback.NewService(entities)

	if rdb != nil {
		denylist = auth.NewDenylist(rdb.Client)
		cache = taxonomy.NewRedisCache(rdb.Client)
		if s3Client != nil {
			reports = events.NewReports(eventSvc, queue.NewQueue(rdb.Client, logger), s3Client)
		}
	}
	taxonomySvc := taxonomy.NewService(entities, cache, cfg.Taxonomy.CacheTTL, m, logger.Named("taxonomy"))
	orgSvc.SetChangeListener(taxonomySvc)
	deptSvc.SetChangeListener(taxonomySvc)
	approvalSvc.SetChangeListener(taxonomySvc)
	eventSvc.SetChangeListener(taxonomySvc)

	authHandler := auth.NewHandler(authSvc, denylist, middleware.Session{}, logger)
	orgHandler := organizations.NewHandler(orgSvc, logger)
	deptHandler := departments.NewHandler(deptSvc, logger)
	approvalHandler := approval.NewHandler(approvalSvc, logger)
	eventHandler := events.NewHandler(eventSvc, reports, logger)
	feedbackHandler := feedback.NewHandler(feedbackSvc, logger)
	taxonomyHandler := taxonomy.NewHandler(taxonomySvc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(m))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/signup", authHandler.Signup)
	}

	// Protected API (JWT required, roles read from the stored user)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService, denylist), middleware.LoadUser(authSvc))

	superAdmin := middleware.RequireRole(models.RoleSuperAdmin)
	orgAdmin := middleware.RequireRole(models.RoleOrganizationAdmin)
	deptAdmin := middleware.RequireRole(models.RoleDepartmentalAdmin)
	anyAdmin := middleware.RequireRole(models.RoleOrganizationAdmin, models.RoleDepartmentalAdmin)
	participant := middleware.RequireRole(models.RoleMember, models.RoleUser)

	{
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/auth/current", authHandler.Current)

		api.GET("/user/roles", authHandler.Roles)
		api.GET("/user/all", authHandler.ListUsers)
		api.GET("/user/:userId", authHandler.GetUser)

		org := api.Group("/org")
		org.POST("/create", superAdmin, orgHandler.Create)
		org.PATCH("/:orgId/edit", orgAdmin, orgHandler.Edit)
		org.DELETE("/:orgId", orgAdmin, orgHandler.Delete)
		org.POST("/:orgId/add-users", orgAdmin, orgHandler.AddUsers)
		org.POST("/assign-admin", superAdmin, orgHandler.AssignAdmin)
		org.POST("/edit-admin", superAdmin, orgHandler.EditAdmin)
		org.GET("/all", orgHandler.List)
		org.GET("/admin", orgAdmin, orgHandler.ListMine)
		org.GET("/:orgId", orgHandler.Get)

		dept := api.Group("/department")
		dept.POST("/create", orgAdmin, deptHandler.Create)
		dept.PATCH("/:deptId/edit", orgAdmin, deptHandler.Edit)
		dept.DELETE("/:deptId", orgAdmin, deptHandler.Delete)
		dept.POST("/:deptId/add-users", deptAdmin, deptHandler.AddUsers)
		dept.POST("/:deptId/assign-admin", orgAdmin, deptHandler.AssignAdmin)
		dept.POST("/:deptId/replace-admin", orgAdmin, deptHandler.ReplaceAdmin)
		dept.GET("", deptHandler.List)
		dept.GET("/admin/departments", deptAdmin, deptHandler.ListMine)
		dept.GET("/collaboration/:deptId", deptHandler.Collaborators)
		dept.GET("/:deptId", deptHandler.Get)

		category := api.Group("/category")
		category.GET("", orgAdmin, approvalHandler.ListCategories)
		category.GET("/oget", orgAdmin, approvalHandler.ListOrgCategories)
		category.POST("/add", deptAdmin, approvalHandler.ProposeCategory)
		category.PATCH("/approve/:categoryId", orgAdmin, approvalHandler.ApproveCategory)
		category.DELETE("/delete/:categoryId", orgAdmin, approvalHandler.DeleteCategory)

		typ := api.Group("/type")
		typ.GET("", approvalHandler.ListTypes)
		typ.POST("/add", orgAdmin, approvalHandler.ProposeType)
		typ.PATCH("/approve/:typeId", superAdmin, approvalHandler.ApproveType)
		typ.DELETE("/delete/:typeId", superAdmin, approvalHandler.DeleteType)

		event := api.Group("/event")
		event.POST("/create", deptAdmin, eventHandler.Create)
		event.GET("/all", eventHandler.List)
		event.GET("/oall", orgAdmin, eventHandler.ListForOrgAdmin)
		event.GET("/department/:deptId", eventHandler.ListByDepartment)
		event.GET("/template/attendance", deptAdmin, eventHandler.AttendanceTemplate)
		event.GET("/:eventId", anyAdmin, eventHandler.Get)
		event.PATCH("/:eventId/edit", anyAdmin, eventHandler.Edit)
		event.DELETE("/:eventId", deptAdmin, eventHandler.Delete)
		event.PATCH("/:eventId/approve", orgAdmin, eventHandler.Approve)
		event.PATCH("/:eventId/reject", orgAdmin, eventHandler.Reject)
		event.POST("/:eventId/register", participant, eventHandler.Register)
		event.DELETE("/:eventId/deregister", participant, eventHandler.Deregister)
		event.POST("/:eventId/summary", deptAdmin, eventHandler.SubmitSummary)
		event.GET("/:eventId/roster", anyAdmin, eventHandler.Roster)
		event.POST("/:eventId/report", anyAdmin, eventHandler.RequestReport)
		event.GET("/:eventId/report", anyAdmin, eventHandler.ReportURL)

		fb := api.Group("/feedback")
		fb.POST("/submit/:eventId", feedbackHandler.Submit)
		fb.GET("/view/:eventId", feedbackHandler.List)
		fb.GET("/certificate/:eventId", feedbackHandler.Certificate)

		api.GET("/taxonomy", taxonomyHandler.Get)
		api.DELETE("/taxonomy/cache", superAdmin, taxonomyHandler.Invalidate)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
