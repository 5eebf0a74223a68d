// Package app wires configuration, storage, domain services, and the HTTP
// server into a running process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"garage/internal/auth"
	"garage/internal/domain/repair"
	"garage/internal/domain/user"
	"garage/internal/domain/vehicle"
	"garage/internal/handler"
	"garage/internal/repository"
	"garage/pkg/health"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	checker := health.New()
	checker.AddReadiness("postgres", 5*time.Second, health.DatabaseCheck(pool))
	checker.AddLiveness("goroutines", time.Second, health.GoroutineCountCheck(10000))
	checker.SetReady(true)

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)
	orderRepo := repository.NewRepairOrderRepository(pool)

	// Domain services.
	userService := user.NewService(userRepo)
	vehicleService := vehicle.NewService(vehicleRepo, userRepo)
	repairService := repair.NewService(orderRepo, vehicleRepo)

	tokens := auth.NewTokenIssuer(cfg.Token.Secret, cfg.Token.TTL)

	// HTTP routes.
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.CORS(),
		middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit.Rate))),
		injectLogger(zctx.From(ctx)),
	)
	handler.NewHandler(repairService, orderRepo, vehicleService, userService, tokens).Register(e)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", checker.LiveEndpoint)
	mux.HandleFunc("/readyz", checker.ReadyEndpoint)
	mux.Handle("/", e)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           mux,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Drain: flip readiness first so the load balancer stops routing to
		// this instance, then shut the listener down.
		<-ctx.Done()
		checker.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// injectLogger puts lg into every request context so handlers and
// repositories can log through zctx.From.
func injectLogger(lg *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(zctx.Base(req.Context(), lg)))
			return next(c)
		}
	}
}
