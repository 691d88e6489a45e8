package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/config"
	"purchase_manager_backend/internal/database"
	"purchase_manager_backend/internal/router"
	"purchase_manager_backend/internal/scheduler"
	"purchase_manager_backend/internal/storage"
	"purchase_manager_backend/pkg/utils"
)

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)
	utils.InitJWT(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	utils.RegisterValidators()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBApplySchema {
		if err := database.ApplySchema(ctx, db); err != nil {
			return err
		}
	}

	rdb, locks, err := database.OpenRedis(ctx, cfg.RedisAddress, cfg.RedisPassword)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store, uploadDir, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := router.NewServices(db, cfg)
	if err := svc.Auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminFullname); err != nil {
		return err
	}

	schedOpts := []scheduler.Option{
		scheduler.WithSpec(cfg.ExpirationCron),
		scheduler.WithTimezone(cfg.ExpirationTimezone),
	}
	if locks != nil {
		schedOpts = append(schedOpts, scheduler.WithLocker(locks))
	}
	sweeps, err := scheduler.NewExpirationScheduler(svc.Expiration, schedOpts...)
	if err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, svc, router.Options{
		Store:        store,
		UploadDir:    uploadDir,
		CookieSecure: cfg.CookieSecure,
		Sweeps:       sweeps,
	})

	if err := sweeps.Start(ctx); err != nil {
		return err
	}
	defer sweeps.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore picks the attachment backend. The local store also returns the
// directory to serve under /uploads.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, string, func(), error) {
	if cfg.StorageProvider == "gcs" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON, cfg.GCSPublicBaseURL)
		if err != nil {
			return nil, "", nil, err
		}
		utils.LogInfo("Using Google Cloud Storage for uploads", map[string]interface{}{"bucket": cfg.GCSBucket})
		return gcs, "", func() { gcs.Close() }, nil
	}
	utils.LogInfo("Using local disk for uploads", map[string]interface{}{"dir": cfg.UploadDir})
	return storage.NewLocalStore(cfg.UploadDir), cfg.UploadDir, func() {}, nil
}
