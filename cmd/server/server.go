package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/axellelanca/shortlinks/cmd"
	"github.com/axellelanca/shortlinks/internal/api"
	"github.com/axellelanca/shortlinks/internal/auth"
	"github.com/axellelanca/shortlinks/internal/database"
	"github.com/axellelanca/shortlinks/internal/geo"
	"github.com/axellelanca/shortlinks/internal/logger"
	"github.com/axellelanca/shortlinks/internal/monitor"
	"github.com/axellelanca/shortlinks/internal/qr"
	"github.com/axellelanca/shortlinks/internal/repository"
	"github.com/axellelanca/shortlinks/internal/services"
	"github.com/axellelanca/shortlinks/internal/workers"
)

// RunServerCmd starts the HTTP API together with the click workers and the
// link monitor.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Starts the URL shortener API server and its background processes.",
	Long: `This command opens and migrates the database, starts the asynchronous
click workers and the link monitor, then serves the HTTP API until it
receives SIGINT or SIGTERM.`,
	RunE: func(c *cobra.Command, args []string) error {
		return run(c.Context())
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}

func run(parent context.Context) error {
	cfg := cmd.Cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.With("server")

	db, err := cmd.OpenDatabase()
	if err != nil {
		return err
	}
	defer database.Close(db)

	linkRepo := repository.NewLinkRepository(db)
	userRepo := repository.NewUserRepository(db)
	clickRepo := repository.NewClickRepository(db)
	log.Info().Msg("repositories initialised")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := workers.StartClickWorkers(ctx, cfg.Analytics.WorkerCount, cfg.Analytics.BufferSize, clickRepo)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.RefreshTTL)
	geoClient := geo.NewClient(geo.Options{
		BaseURL:  cfg.Geo.BaseURL,
		Token:    cfg.Geo.Token,
		Timeout:  cfg.Geo.Timeout,
		CacheTTL: cfg.Geo.CacheTTL,
		Retries:  cfg.Geo.Retries,
	})

	linkService := services.NewLinkService(linkRepo, userRepo, geoClient, services.LinkServiceOptions{
		Domain:           cfg.Server.Domain,
		AliasMaxAttempts: cfg.Links.AliasMaxAttempts,
		StrictAnalytics:  cfg.Links.StrictAnalytics,
		RequireHTTPURL:   cfg.Links.RequireHTTPURL,
		ReservedAliases:  []string{cfg.Metrics.Path, cfg.Uploads.AvatarURLPath},
		Clicks:           pool,
	})
	userService := services.NewUserService(userRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), tokens)
	qrService := services.NewQRService(qr.NewEncoder(), cfg.QR.Size, cfg.QR.CacheTTL)
	log.Info().Msg("services initialised")

	urlMonitor := monitor.NewUrlMonitor(linkRepo, cfg.Monitor.Interval)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(), api.RequestMetrics())
	api.SetupRoutes(router, api.Dependencies{
		Links:        linkService,
		Users:        userService,
		QR:           qrService,
		Tokens:       tokens,
		CookieSecure: cfg.Auth.CookieSecure,
		MetricsPath:  metricsPath(cfg.Metrics.Enabled, cfg.Metrics.Path),
		Avatars: api.AvatarOptions{
			Dir:     cfg.Uploads.AvatarDir,
			URLPath: cfg.Uploads.AvatarURLPath,
			MaxSize: cfg.Uploads.MaxAvatarSize,
		},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		urlMonitor.Start(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("domain", cfg.Server.Domain).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// handlers still running after a timed-out Shutdown see a stopped pool
	// and drop their click
	pool.Stop()

	if err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func metricsPath(enabled bool, path string) string {
	if !enabled {
		return ""
	}
	return path
}
