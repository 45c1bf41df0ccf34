// Package cli is the satrack command line: each command loads the embedded
// page, mounts the interaction handlers and drives them like a user would.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/satrack/internal/config"
	"github.com/star/satrack/internal/health"
	"github.com/star/satrack/internal/metrics"
	"github.com/star/satrack/internal/trackerapi"
)

type options struct {
	configPath  string
	envFile     string
	baseURL     string
	layout      string
	logLevel    string
	metricsAddr string
	timeout     time.Duration
}

// env is the state shared by every subcommand once flags are parsed.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	api     *recordingAPI
	metrics *http.Server
}

// NewRootCmd builds the satrack command tree.
func NewRootCmd() *cobra.Command {
	var opts options
	e := &env{}

	root := &cobra.Command{
		Use:   "satrack",
		Short: "Search and manage tracked satellites and countries",
		Long: `satrack drives the satellite tracker pages headlessly: it searches the
catalog with the same autocomplete the browser uses, adds and removes
tracked satellites and countries, and creates or logs into accounts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd, &opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return e.teardown(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", ".satrack.yml", "config file path")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before SATRACK_* overrides")
	flags.StringVar(&opts.baseURL, "base-url", "", "tracker server base URL")
	flags.StringVar(&opts.layout, "layout", "", "account page layout (grid or table)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics, /healthz and /readyz on this address while the command runs")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (0 waits indefinitely)")

	root.AddCommand(
		newSearchCmd(e),
		newAddCmd(e),
		newDeleteCmd(e),
		newLoginCmd(e),
		newCreateAccountCmd(e),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (e *env) setup(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if flags.Changed("layout") {
		cfg.Layout = opts.layout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()

	e.cfg = cfg
	e.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))

	client, err := trackerapi.NewClient(cfg.BaseURL, cfg.Timeout, e.logger)
	if err != nil {
		return err
	}
	e.api = &recordingAPI{API: client}

	if cfg.MetricsAddr != "" {
		e.metrics = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           health.Mux(e.api.Err, metrics.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			e.logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := e.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.logger.Error("metrics server error", "error", err)
			}
		}()
	}
	return nil
}

func (e *env) teardown(ctx context.Context) error {
	if e.metrics == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.metrics.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stopping metrics server: %w", err)
	}
	return nil
}
