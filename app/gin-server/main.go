package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/jobboard/config"
	"github.com/yoockh/jobboard/internal/api/handlers"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/api/routes"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/events"
	"github.com/yoockh/jobboard/internal/logger"
	mongorepo "github.com/yoockh/jobboard/internal/repositories/mongo"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/storage"
	"github.com/yoockh/jobboard/internal/workers"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init PostgreSQL
	db, err := config.OpenPostgres(cfg)
	if err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if cfg.Postgres.AutoMigrate {
		if err := pgrepo.Migrate(db); err != nil {
			log.Fatalf("PostgreSQL migrate error: %v", err)
		}
	}
	log.Info("PostgreSQL connected")

	// Init Redis
	rdb, err := config.OpenRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	defer rdb.Close()
	log.Info("Redis connected")

	// Init MongoDB (optional)
	var audit mongorepo.ApplicationEventRepository
	mc, err := config.OpenMongo(ctx, cfg)
	switch {
	case errors.Is(err, config.ErrMongoDisabled):
		log.Warn("MONGO_URI not set; application audit trail disabled")
	case err != nil:
		log.Fatalf("MongoDB init error: %v", err)
	default:
		defer func() { _ = mc.Disconnect(context.Background()) }()
		mdb := mc.Database(cfg.Mongo.Database)
		if err := config.EnsureMongoIndexes(ctx, mdb); err != nil {
			log.WithError(err).Warn("mongo index setup failed")
		}
		audit = mongorepo.NewApplicationEventRepo(mdb)
		log.Info("MongoDB connected")
	}

	// Init GCS (optional)
	var uploader storage.Uploader
	if cfg.GCS.Bucket != "" {
		gu, err := storage.NewGCSUploader(ctx, storage.GCSConfig{
			Bucket:          cfg.GCS.Bucket,
			CredentialsFile: cfg.GCS.CredentialsFile,
			PublicRead:      cfg.GCS.PublicRead,
		})
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer gu.Close()
		uploader = gu
	} else {
		log.Warn("GCS_BUCKET not set; resume upload disabled")
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret:  cfg.Auth.JWTSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.Auth.Issuer,
	})
	if err != nil {
		log.Fatalf("auth init error: %v", err)
	}
	tokenStore := auth.NewStore(cache.NewRedisCache(rdb))
	publisher := events.NewRedisStream(rdb, cfg.Workers.EventStream, 100000)

	repos := pgrepo.New(db)
	authSvc := services.NewAuthService(repos, issuer, tokenStore, cfg.Auth.ResetTTL, log)
	userSvc := services.NewUserService(repos)
	companySvc := services.NewCompanyService(repos)
	jobSvc := services.NewJobService(repos)
	appSvc := services.NewApplicationService(repos, audit, publisher, log)
	savedSvc := services.NewSavedJobService(repos)
	resumeSvc := services.NewResumeService(repos.Users, uploader)

	// Background workers
	pool := &workers.EventWorkerPool{
		Redis:       rdb,
		Audit:       audit,
		NumWorkers:  cfg.Workers.EventWorkers,
		MaxAttempts: cfg.Workers.EventMaxAttempts,
		Logger:      log,
		Stream:      publisher.Stream(),
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("event workers: %v", err)
	}
	sweeper := &workers.ExpirySweeper{Jobs: repos.Jobs, Schedule: cfg.Workers.ExpirySchedule, Logger: log}
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("expiry sweeper: %v", err)
	}

	gin.SetMode(cfg.HTTP.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Auth:          authSvc,
		AuthH:         handlers.NewAuthHandler(authSvc, cfg.Auth.ExposeResetToken),
		Users:         handlers.NewUserHandler(userSvc, authSvc, appSvc),
		Companies:     handlers.NewCompanyHandler(companySvc),
		Jobs:          handlers.NewJobHandler(jobSvc, appSvc),
		Applications:  handlers.NewApplicationHandler(appSvc, resumeSvc),
		SavedJobs:     handlers.NewSavedJobHandler(savedSvc),
		Notifications: handlers.NewWSHandler(rdb, nil),
	})

	srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: r}
	go func() {
		log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
}
