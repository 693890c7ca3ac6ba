// Package app boots the service: configuration, database, cache, domain
// services, and the HTTP listener.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/cache"
	"github.com/cookiedeck/cookiedeck/internal/config"
	"github.com/cookiedeck/cookiedeck/internal/coupon"
	"github.com/cookiedeck/cookiedeck/internal/db"
	"github.com/cookiedeck/cookiedeck/internal/http/api"
	"github.com/cookiedeck/cookiedeck/internal/notify"
	"github.com/cookiedeck/cookiedeck/internal/order"
	"github.com/cookiedeck/cookiedeck/internal/registry"
)

// shutdownTimeout bounds how long in-flight requests may run after a stop
// signal.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database, runs migrations, and seeds the initial admin.
func Migrate(ctx context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	return db.SeedAdmin(ctx, conn, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
}

// RunServer boots the API server and blocks until the context is cancelled.
func RunServer(ctx context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := db.SeedAdmin(ctx, conn, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); errSeed != nil {
		return errSeed
	}

	redisCache := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	accessService := access.NewService(conn)
	registryService := registry.NewService(conn)
	couponService := coupon.NewService(conn, redisCache)
	orderService := order.NewService(conn, couponService)
	notifyService := notify.NewService(conn, redisCache)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.Register(engine, api.Deps{
		DB:       conn,
		JWT:      cfg.JWT,
		Access:   accessService,
		Registry: registryService,
		Coupons:  couponService,
		Orders:   orderService,
		Notify:   notifyService,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
