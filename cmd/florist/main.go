package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "florist/internal/adapter/http"
	"florist/internal/adapter/catalogfile"
	"florist/internal/adapter/memory"
	"florist/internal/adapter/postgres"
	"florist/internal/adapter/rabbitmq"
	"florist/internal/app"
	"florist/internal/config"
	"florist/internal/domain"
	"florist/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	carts    domain.CartRepository
	orders   domain.OrderRepository
	close    func() error
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("exiting", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = repos.close() }()

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	log.Info("catalog loaded", zap.Int("products", len(catalog.Products)))

	var events domain.OrderPublisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()
		pub, err := rabbitmq.NewPublisher(conn)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		events = pub
		log.Info("publishing order events", zap.String("queue", rabbitmq.OrderConfirmedQueue))
	}

	authSvc := app.NewAuthService(repos.users, repos.sessions, log.Named("auth"))
	shop := app.NewStorefront(repos.carts, app.CheckoutDeps{
		Identity: authSvc,
		Gateway:  app.NewSimulatedGateway(nil),
		Orders:   repos.orders,
		Events:   events,
		Logger:   log.Named("checkout"),
	}, cfg.SessionIdleTTL)

	srv := adapthttp.New(app.NewCatalogService(catalog), shop, authSvc, repos.orders, cfg.WebDir, log.Named("http"))
	if cfg.OIDC.Enabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		srv.WithOIDC(oidcCfg)
		log.Info("sso enabled", zap.String("issuer", cfg.OIDC.Issuer))
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		janitor(gctx, cfg.JanitorInterval, shop, authSvc, log)
		return nil
	})
	return g.Wait()
}

// janitor closes idle storefront sessions and purges expired login sessions
// until ctx is done.
func janitor(ctx context.Context, every time.Duration, shop *app.Storefront, authSvc *app.AuthService, log *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			shop.Sweep(now)
			if err := authSvc.PurgeExpired(ctx); err != nil {
				log.Warn("purge expired sessions failed", zap.Error(err))
			}
		}
	}
}

func openRepositories(cfg config.Config, log *zap.Logger) (repositories, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory storage")
		db := memory.New()
		return repositories{
			users:    db,
			sessions: db.NewSessionRepo(),
			carts:    db,
			orders:   db,
			close:    func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return repositories{}, fmt.Errorf("db open: %w", err)
	}
	return repositories{
		users:    db,
		sessions: postgres.NewSessionRepo(db),
		carts:    db,
		orders:   db,
		close:    db.Close,
	}, nil
}

func loadCatalog(path string) (domain.Catalog, error) {
	if path == "" {
		return catalogfile.Default(), nil
	}
	c, err := catalogfile.Load(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}
