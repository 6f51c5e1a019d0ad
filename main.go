package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"example.com/framed-prints/internal/infra/cache"
	"example.com/framed-prints/internal/infra/catalogapi"
	"example.com/framed-prints/internal/infra/mail"
	"example.com/framed-prints/internal/infra/persistence"
	"example.com/framed-prints/internal/infra/security"
	apihttp "example.com/framed-prints/internal/interface/http"
	authuc "example.com/framed-prints/internal/usecase/auth"
	cartuc "example.com/framed-prints/internal/usecase/cart"
	catalogsvc "example.com/framed-prints/internal/usecase/catalog"
	orderuc "example.com/framed-prints/internal/usecase/order"
	"example.com/framed-prints/pkg/config"
	"example.com/framed-prints/pkg/logger"
	"example.com/framed-prints/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	zl, err := logger.New(logger.Options{Service: "framed-prints", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
	zl.Info("bye")
}

func run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	store, err := persistence.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, zl)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if store.Listen != nil {
		go func() {
			if err := store.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("store listener stopped", zap.Error(err))
			}
		}()
	}

	cartSvc := cartuc.NewService(store.Repo, zl)
	if err := cartSvc.Start(ctx); err != nil {
		return fmt.Errorf("start cart: %w", err)
	}

	var snapshots catalogsvc.SnapshotCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		snapshots = cache.NewSnapshotCache(rdb, cfg.CatalogTTL)
	}
	catalog := catalogsvc.NewService(
		catalogapi.NewClient(catalogapi.Options{BaseURL: cfg.CatalogBaseURL, Logger: zl}),
		snapshots,
		zl,
	)
	go func() {
		// Failures leave the catalog in ERROR; clients retry via /catalog/reload.
		_ = catalog.Load(ctx)
	}()

	orderSvc := orderuc.NewService(store.Repo, mail.NewSMTPMailer(cfg.SMTPAddr, nil, zl), orderuc.Options{
		Sender:    cfg.OrderSender,
		Recipient: cfg.OrderRecipient,
	}, zl)

	authSvc := authuc.NewService(security.NewJWTService(cfg.SessionSecret), cfg.SessionTTL)

	api := apihttp.NewAPI(apihttp.Dependencies{
		AuthService:    authSvc,
		CartService:    cartSvc,
		CatalogService: catalog,
		OrderService:   orderSvc,
		HealthCheck:    store.Ping,
		Logger:         zl,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		// Requests inherit ctx so open event streams end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("http starting", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		zl.Info("shutdown requested")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		zl.Warn("graceful shutdown timed out", zap.Error(err))
		return srv.Close()
	}
	return nil
}
