package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/proyectoj/assistant/internal/app"
	"github.com/proyectoj/assistant/internal/config"
	"github.com/proyectoj/assistant/internal/logging"
	"github.com/proyectoj/assistant/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "assistant: %v\n", err)
		return 1
	}
	return 0
}

var flags struct {
	configPath  string
	logLevel    string
	metricsAddr string
	noPersist   bool
	theme       string
}

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Talk to the assistant server wherever it lives on the network",
	Long: `assistant locates the assistant backend (public relay, last known address,
well-known LAN hosts, then a /24 sweep), remembers it, and sends requests to it.

Examples:
  assistant discover            # Find and remember the server
  assistant chat "hola"         # Send one message
  assistant update              # Check for a newer build
  assistant watch --interval 5s # Keep checking the server`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: checkFlags,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(watchCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/assistant/config.toml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "override log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	pf.BoolVar(&flags.noPersist, "no-persist", false, "do not read or write the endpoint cache file")
	pf.StringVar(&flags.theme, "theme", "Nightfox", "color theme ("+strings.Join(ui.ThemeNames(), ", ")+")")
	_ = rootCmd.RegisterFlagCompletionFunc("theme", completeTheme)
}

func checkFlags(*cobra.Command, []string) error {
	return ui.ValidateTheme(flags.theme)
}

func completeTheme(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return ui.ThemeNames(), cobra.ShellCompDirectiveNoFileComp
}

// bootstrap loads configuration and builds the application for a command.
func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	a, err := app.New(cfg, app.Options{Logger: &log, NoPersist: flags.noPersist})
	if err != nil {
		return nil, err
	}

	if flags.metricsAddr != "" {
		go serveMetrics(ctx, a, flags.metricsAddr, log)
	}
	return a, nil
}

func serveMetrics(ctx context.Context, a *app.App, addr string, log zerolog.Logger) {
	if err := a.ServeMetrics(ctx, addr); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
