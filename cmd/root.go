// =============================================================================
// AirShopping Offer Extractor - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (offers)
//   ├── showCmd (offers show)
//   ├── processCmd (offers process)
//   ├── validateCmd (offers validate)
//   └── versionCmd (offers version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ginjaninja78/airshopping-offers/internal/config"
	"github.com/ginjaninja78/airshopping-offers/internal/display"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig and logger are set up by the root command before any
// subcommand runs.
var (
	mainConfig *config.MainConfig
	logger     = zap.NewNop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "offers",
	Short: "AirShopping Offer Extractor - Route-grouped views of IATA AirShoppingRS offers",
	Long: `AirShopping Offer Extractor reads IATA NDC 19.2 AirShoppingRS documents and
groups their priced offers by route (departure and arrival airport), with the
base and total price of every route summed across its segments.

Key Features:
  - Namespace-aware offer extraction with declared defaults
  - Route cards in the terminal
  - XML, XLSX and CSV summary reports
  - Concurrent batch processing with archival

Example Usage:
  offers show response.xml             # Print the route cards of one file
  offers process                       # Process all files in the input directory
  offers process --config ./my.yaml    # Use a custom configuration file
  offers validate response.xml         # Check a file without writing anything`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Stderr)
	stop()
	logger.Sync()

	if code != 0 {
		os.Exit(code)
	}
}

// execute runs the root command and renders a failure to stderr. A wrong
// file type is shown as the fixed alert message, every other failure with
// its kind.
func execute(ctx context.Context, stderr io.Writer) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		display.RenderError(stderr, err)
		return 1
	}
	return 0
}

// setup loads the configuration and builds the logger. A config file given
// with --config must exist; the default one may be missing.
func setup(cmd *cobra.Command) error {
	var err error
	if cmd.Flags().Changed("config") {
		mainConfig, err = config.LoadMainConfig(cfgFile)
	} else {
		mainConfig, err = config.LoadOrDefault(cfgFile)
	}
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	logger, err = newLogger(mainConfig, verbose)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	logger.Debug("configuration loaded",
		zap.String("config", cfgFile),
		zap.String("variant", mainConfig.Extractor.Variant),
		zap.Strings("reports", mainConfig.ReportFormats),
	)
	return nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
