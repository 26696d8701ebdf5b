package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/genie/internal"
	"github.com/iksnae/genie/internal/storefront"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	baseURL    string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "genie",
	Short: "Shop the BookGenie storefront and chat with Genie from the terminal",
	Long: `A terminal client for the BookGenie storefront.

Manage your cart, ask Genie for recommendations by text or voice, and keep
a local journal of your conversations.

Quick Start:
  genie cart add "Dune"          # Add a book to your cart
  genie cart list                # Show the cart and its total
  genie chat "recommend a thriller"
  genie shell                    # Interactive cart + chat shell

Configuration is read from ~/.config/genie/config.yaml, $GENIE_CONFIG or
GENIE_* environment variables.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			internal.PrintError(fmt.Sprintf("Error: %v", err))
		}
		stop()
		os.Exit(1)
	}
}

// reportedError is a failure the user has already been shown as a
// notification; only the exit status remains to be set
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	internal.LogDebug("%v", err)
	return &reportedError{err: err}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/genie/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Storefront base URL (overrides remote.base_url)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig reads the configuration and applies command-line overrides
func loadConfig() (internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return internal.Config{}, err
	}
	if baseURL != "" {
		cfg.Remote.BaseURL = baseURL
		if err := cfg.Validate(); err != nil {
			return internal.Config{}, err
		}
	}
	return cfg, nil
}

// newApp is replaced in tests to inject options such as a scheduler
var newApp = func(cfg internal.Config, opts ...storefront.Option) (*storefront.App, error) {
	return storefront.NewApp(cfg, opts...)
}

// openApp loads the configuration and builds the app. Callers must Close it.
func openApp(opts ...storefront.Option) (*storefront.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, opts...)
}
