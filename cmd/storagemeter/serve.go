package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/storagemeter/adapters/hasher"
	"github.com/artpar/storagemeter/adapters/metrics"
	"github.com/artpar/storagemeter/app"
	"github.com/artpar/storagemeter/config"
	"github.com/artpar/storagemeter/domain/plan"
	"github.com/artpar/storagemeter/web"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the billing HTTP API server",
	Long: `Start the storagemeter HTTP API server.

The server will:
  - Load configuration from storagemeter.yaml (or --config)
  - Register the configured storage units under their plans
  - Accept operations over JSON and serve fee reports
  - Expose Prometheus metrics when enabled

Environment variables:
  STORAGEMETER_SERVER_HOST   - Bind address (default: 0.0.0.0)
  STORAGEMETER_SERVER_PORT   - Server port (default: 8080)
  STORAGEMETER_LOG_LEVEL     - Log level: debug, info, warn, error
  STORAGEMETER_EXPORT_DSN    - SQLite path for fee report export
  STORAGEMETER_API_KEY_HASH  - bcrypt hash of the API key (empty disables auth)

Examples:
  storagemeter serve
  storagemeter serve --config /etc/storagemeter/config.yaml
  storagemeter serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var holder *config.Holder
	var cfg *config.Config

	if hasConfigFile {
		var err error
		holder, err = config.NewHolder(cfgFile, setupLogger(config.LoggingConfig{Level: "info", Format: "json"}))
		if err != nil {
			return err
		}
		cfg = holder.Get()
	} else {
		fmt.Println("No config file found, serving the built-in catalog")
		cfg = config.Default()
	}

	logger := setupLogger(cfg.Logging)

	eng, catalog, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		eng.SetMetrics(metrics.New())
	}

	handler := web.New(web.Deps{
		Engine:         eng,
		Catalog:        catalog,
		Hasher:         hasher.NewBcrypt(bcrypt.DefaultCost),
		APIKeyHash:     cfg.Auth.APIKeyHash,
		AuthHeader:     cfg.Auth.Header,
		MetricsEnabled: cfg.Metrics.Enabled,
		Logger:         logger,
	})

	if holder != nil && hotReload {
		holder.OnChange(func(newCfg *config.Config) {
			applyReload(eng, handler, newCfg, logger)
		})
		if err := holder.WatchFile(); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		holder.WatchSignals()
		defer holder.Stop()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// applyReload applies a reloaded config to the running server. New units
// are registered; existing units keep their plans, since changing pricing
// mid-stream would rewrite history.
func applyReload(eng *app.Engine, handler *web.Handler, cfg *config.Config, logger zerolog.Logger) {
	catalog, err := cfg.PlanCatalog()
	if err != nil {
		logger.Error().Err(err).Msg("reloaded plan catalog invalid, keeping old catalog")
		return
	}
	handler.SetCatalog(catalog)

	for _, u := range cfg.Units {
		p, ok := plan.FindPlan(catalog, u.Plan)
		if !ok {
			continue
		}
		if err := eng.RegisterUnit(u.ID, p); err == nil {
			logger.Info().Str("unit", u.ID).Str("plan", u.Plan).Msg("registered unit from reloaded config")
		}
	}
}
