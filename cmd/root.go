package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/yatracker/config"
	"github.com/s0up4200/yatracker/tracker"
)

// standaloneAnnotation marks commands that run without config or client.
const standaloneAnnotation = "standalone"

var (
	cfgFile      string
	outputFormat string
	cfg          *config.Config
	logger       = zerolog.Nop()
	client       *tracker.Client

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "yatracker",
	Short: "A command line client for Yandex Tracker",
	Long: `yatracker talks to the Yandex Tracker REST API. It reads issues, queues
and comments, runs workflow transitions and filters search results locally
with expressions.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// SetVersion records build information reported by --version and update.
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, built)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	// post-run hooks are skipped when a command fails
	if closeErr := shutdownApp(rootCmd, nil); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json or yaml (overrides config)")

	rootCmd.AddCommand(testCmd)
}

// initializeApp loads the configuration and creates the Tracker client
func initializeApp(cmd *cobra.Command, args []string) error {
	if standalone(cmd) {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if err := checkOutputFormat(cfg.Output.Format); err != nil {
		return err
	}

	client, err = tracker.NewClient(cfg.Tracker.OrgID, cfg.Tracker.Token,
		tracker.WithAPIHost(cfg.Tracker.APIHost),
		tracker.WithAPIVersion(cfg.Tracker.APIVersion),
		tracker.WithHeaders(cfg.Tracker.Headers),
		tracker.WithBatchConcurrency(cfg.Tracker.Concurrency),
		tracker.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tracker client: %w", err)
	}

	logger.Debug().
		Str("api_host", cfg.Tracker.APIHost).
		Str("api_version", cfg.Tracker.APIVersion).
		Msg("Tracker client ready")
	return nil
}

// standalone reports whether cmd or one of its parents needs no client
func standalone(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[standaloneAnnotation] == "true" {
			return true
		}
		switch c.Name() {
		case "help", "completion":
			return true
		}
	}
	return false
}

// shutdownApp releases the client's connection pool
func shutdownApp(cmd *cobra.Command, args []string) error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Color only when asked for and stderr is a terminal
	color := cfg.Color && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to Yandex Tracker",
	Long:  `Test the credentials and organization id against the Tracker API and display basic information.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Testing connection to %s/%s...\n", cfg.Tracker.APIHost, cfg.Tracker.APIVersion)

	ctx := cmd.Context()
	myself, err := client.GetMyself(ctx)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Connection successful!")
	fmt.Fprintf(cmd.OutOrStdout(), "- Authenticated as: %s\n", myself)

	queues, err := client.GetQueues(ctx, "", 0)
	if err != nil {
		return fmt.Errorf("failed to get queues: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "- Visible queues: %d\n", len(queues))
	return nil
}
