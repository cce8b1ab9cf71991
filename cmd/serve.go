package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coal/valvegate/internal/audit"
	"github.com/coal/valvegate/internal/dashboard"
	"github.com/coal/valvegate/internal/pipeline"
	"github.com/coal/valvegate/internal/proxy"
	"github.com/coal/valvegate/internal/settings"
)

// serveConfig holds the serve parameters. Environment variables
// (VALVEGATE_*) provide defaults; flags override them.
type serveConfig struct {
	Settings    string `envconfig:"SETTINGS" default:"configs/settings.yaml"`
	Listen      string `envconfig:"LISTEN" default:":8080"`
	Backend     string `envconfig:"BACKEND" default:"http://localhost:11434"`
	AuditLog    string `envconfig:"AUDIT_LOG"`
	NoDashboard bool   `envconfig:"NO_DASHBOARD"`
}

var serveFlags serveConfig

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Valve Gate reverse proxy",
	Long:  "Start the HTTP reverse proxy that merges per-user settings into outgoing chat requests.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.Settings, "settings", "configs/settings.yaml", "Path to settings YAML file")
	serveCmd.Flags().StringVar(&serveFlags.Listen, "listen", ":8080", "Address to listen on")
	serveCmd.Flags().StringVar(&serveFlags.Backend, "backend", "http://localhost:11434", "Backend chat API URL")
	serveCmd.Flags().StringVar(&serveFlags.AuditLog, "audit-log", "", "Path to audit log file (default: stderr)")
	serveCmd.Flags().BoolVar(&serveFlags.NoDashboard, "no-dashboard", false, "Disable the real-time dashboard")
}

// resolveServeConfig merges env defaults and explicit flags.
func resolveServeConfig(cmd *cobra.Command) (serveConfig, error) {
	var cfg serveConfig
	if err := envconfig.Process("valvegate", &cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("settings") {
		cfg.Settings = serveFlags.Settings
	}
	if flags.Changed("listen") {
		cfg.Listen = serveFlags.Listen
	}
	if flags.Changed("backend") {
		cfg.Backend = serveFlags.Backend
	}
	if flags.Changed("audit-log") {
		cfg.AuditLog = serveFlags.AuditLog
	}
	if flags.Changed("no-dashboard") {
		cfg.NoDashboard = serveFlags.NoDashboard
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("component", "valvegate").Logger()

	cfg, err := resolveServeConfig(cmd)
	if err != nil {
		return err
	}

	// Load per-user settings
	store, err := settings.LoadFromFile(cfg.Settings)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	defaults := store.ResolvedDefaults()
	logger.Info().
		Str("settings", cfg.Settings).
		Int("users", len(store.Users)).
		Bool("default_save_memories", defaults.SaveMemories).
		Bool("default_anonymous_mode", defaults.AnonymousMode).
		Msg("settings loaded")

	// Set up audit logger
	var auditLogger *audit.Logger
	if cfg.AuditLog != "" {
		auditLogger, err = audit.NewFileLogger(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("creating audit logger: %w", err)
		}
		logger.Info().Str("path", cfg.AuditLog).Msg("audit log enabled")
	} else {
		auditLogger = audit.NewStderrLogger()
	}

	// Create pipeline and proxy
	pipe := pipeline.New(auditLogger)

	valveProxy, err := proxy.New(pipe, store, cfg.Backend, logger)
	if err != nil {
		return fmt.Errorf("creating proxy: %w", err)
	}

	// Set up the HTTP handler — either with dashboard mux or proxy-only
	var handler http.Handler = valveProxy

	if !cfg.NoDashboard {
		hub := dashboard.NewHub(store)
		pipe.AddObserver(hub.OnEvent)
		dashboard.Run(context.Background(), hub)

		dashHandler := dashboard.Handler(hub)
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/_valvegate") {
				dashHandler.ServeHTTP(w, r)
				return
			}
			valveProxy.ServeHTTP(w, r)
		})
	}

	logger.Info().
		Str("listen", cfg.Listen).
		Str("backend", cfg.Backend).
		Msg("starting valve gate proxy")

	fmt.Fprintf(os.Stderr, "\n  Valve Gate v%s\n", Version)
	fmt.Fprintf(os.Stderr, "  Settings: %s (%d users)\n", cfg.Settings, len(store.Users))
	fmt.Fprintf(os.Stderr, "  Listen:   %s\n", cfg.Listen)
	fmt.Fprintf(os.Stderr, "  Backend:  %s\n", cfg.Backend)
	if !cfg.NoDashboard {
		dashAddr := cfg.Listen
		if strings.HasPrefix(dashAddr, ":") {
			dashAddr = "localhost" + dashAddr
		}
		fmt.Fprintf(os.Stderr, "  Dashboard: http://%s/_valvegate/\n", dashAddr)
	}
	fmt.Fprintln(os.Stderr)

	return http.ListenAndServe(cfg.Listen, handler)
}
