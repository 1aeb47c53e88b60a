package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yoockh/sheetlens/config"
	"github.com/yoockh/sheetlens/internal/api/handlers"
	"github.com/yoockh/sheetlens/internal/api/middleware"
	"github.com/yoockh/sheetlens/internal/api/routes"
	"github.com/yoockh/sheetlens/internal/auth"
	"github.com/yoockh/sheetlens/internal/cache"
	"github.com/yoockh/sheetlens/internal/dataset"
	"github.com/yoockh/sheetlens/internal/logger"
	"github.com/yoockh/sheetlens/internal/providers/llm"
	mongorepo "github.com/yoockh/sheetlens/internal/repositories/mongo"
	pgrepo "github.com/yoockh/sheetlens/internal/repositories/postgres"
	"github.com/yoockh/sheetlens/internal/services"
	"github.com/yoockh/sheetlens/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").WithError(err).Fatal("configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL (required)
	db, err := config.InitPostgres(cfg.PostgresURI)
	if err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	if err := config.MigratePostgres(db); err != nil {
		log.WithError(err).Fatal("PostgreSQL migration error")
	}
	log.Info("PostgreSQL connected")

	// Redis (optional)
	var listCache cache.Cache
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, upload lists are not cached")
	} else if rdb, err := config.InitRedis(ctx, cfg.RedisAddr); err != nil {
		log.WithError(err).Warn("Redis unavailable, upload lists are not cached")
	} else {
		defer rdb.Close()
		listCache = cache.NewRedisCache(rdb, "sheetlens:")
		log.Info("Redis connected")
	}

	// MongoDB (optional)
	var chunkRepo mongorepo.InsightRepository
	if cfg.MongoURI == "" {
		log.Warn("MONGO_URI not set, insight runs are not replayable")
	} else if mc, err := config.InitMongo(ctx, cfg.MongoURI); err != nil {
		log.WithError(err).Warn("MongoDB unavailable, insight runs are not replayable")
	} else {
		defer func() { _ = mc.Disconnect(context.Background()) }()
		mdb := mc.Database(cfg.MongoDB)
		if err := config.EnsureMongoIndexes(ctx, mdb); err != nil {
			log.WithError(err).Warn("MongoDB index setup failed")
		}
		chunkRepo = mongorepo.NewInsightRepo(mdb)
		log.Info("MongoDB connected")
	}

	// GCS (optional)
	var (
		uploader storage.Uploader
		opener   storage.Opener
	)
	if cfg.GCSBucket == "" {
		log.Warn("GCS_BUCKET not set, file upload is disabled")
	} else if gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPublic); err != nil {
		log.WithError(err).Warn("GCS unavailable, file upload is disabled")
	} else {
		defer gcs.Close()
		uploader, opener = gcs, gcs
		log.WithField("bucket", cfg.GCSBucket).Info("GCS ready")
	}

	// Vertex AI (optional)
	var provider llm.Provider
	if cfg.VertexProjectID == "" {
		log.Warn("VERTEX_PROJECT_ID not set, insights are disabled")
	} else if vg, err := llm.NewVertexGemini(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.VertexModel); err != nil {
		log.WithError(err).Warn("Vertex AI unavailable, insights are disabled")
	} else {
		defer vg.Close()
		provider = vg
		log.WithField("model", cfg.VertexModel).Info("Vertex AI ready")
	}

	var loader dataset.Loader = dataset.SampleLoader{}
	if cfg.DatasetSource == "xlsx" {
		if opener == nil {
			log.Fatal("DATASET_SOURCE=xlsx but GCS is unavailable")
		}
		loader = &dataset.XLSXLoader{Objects: opener}
	}

	analysisRepo := pgrepo.NewAnalysisRepo(db)
	uploadSvc := services.NewUploadService(pgrepo.NewUploadRepo(db), listCache, cfg.UploadCacheTTL, uploader, log)
	analysisSvc := services.NewAnalysisService(uploadSvc, loader, analysisRepo)
	insightSvc := services.NewInsightService(analysisSvc, provider, analysisRepo, chunkRepo, cfg.InsightBufferTTL, log)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.MaxMultipartMemory = services.MaxUploadBytes

	routes.RegisterRoutes(r, routes.Deps{
		Verifier: auth.NewVerifier(auth.VerifierConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}),
		Uploads:  handlers.NewUploadHandler(uploadSvc),
		Analysis: handlers.NewAnalysisHandler(analysisSvc),
		WS:       handlers.NewWSHandler(uploadSvc, insightSvc, log, cfg.AllowedOrigins),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
