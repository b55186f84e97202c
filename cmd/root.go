package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/odp-liege/config"
	"github.com/s0up4200/odp-liege/filter"
	"github.com/s0up4200/odp-liege/liege"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = zerolog.Nop()
	client  *liege.Client
	filters *filter.Manager

	// Command flags
	limit      int
	filterExpr string
	preset     string
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "odp-liege",
	Short: "Query parking data from the Open Data Platform of Liège",
	Long: `odp-liege fetches parking garages and disabled parking spots published by
the city of Liège, optionally filters them with expressions, and can serve
them as JSON over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// cobra skips post-run hooks on failure, so the client is released here
	if closeErr := closeApp(); closeErr != nil {
		logger.Warn().Err(closeErr).Msg("Failed to close client")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// addQueryFlags registers the flags shared by the dataset commands
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of records to fetch (default from config)")
	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print records as JSON")
}

// initializeApp loads the configuration and builds the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging, os.Stderr)

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	client, err = liege.NewClient(
		liege.WithBaseURL(cfg.API.BaseURL),
		liege.WithRequestTimeout(cfg.API.RequestTimeout),
		liege.WithUserAgent(cfg.API.UserAgent),
		liege.WithLogger(logger.With().Str("component", "liege").Logger()),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// closeApp releases the client created by initializeApp
func closeApp() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// effectiveLimit prefers the --limit flag over the configured default
func effectiveLimit() int {
	if limit > 0 {
		return limit
	}
	if cfg != nil && cfg.Query.Limit > 0 {
		return cfg.Query.Limit
	}
	return liege.DefaultLimit
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	// Console format, colored only on a terminal
	noColor := !cfg.Color
	if f, ok := out.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		noColor = true
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
