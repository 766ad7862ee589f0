// =============================================================================
// AirShopping Offer Extractor - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which extracts a file and runs
// the validation engine on it without writing any report.
//
// COMMAND USAGE:
//   offers validate FILE [--strict] [--stop-on-first] [--log PATH]
//
// FLAGS:
//   --strict        : Treat warnings as errors (validation.strict)
//   --stop-on-first : Report only the first error (validation.stop_on_first_error)
//   --log           : Also write the findings to this file
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/ginjaninja78/airshopping-offers/internal/extractor"
	"github.com/ginjaninja78/airshopping-offers/internal/loader"
	"github.com/ginjaninja78/airshopping-offers/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Validate flags. Set flags override the validation section of the config.
var (
	strict      bool
	stopOnFirst bool
	logPath     string
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Extract a file and report validation problems",
	Long: `The validate command extracts the offers of one file and checks the result:
route totals against their segments, route keys and labels, duplicate routes,
suspicious amounts, and offers the extractor had to drop or skip.

Nothing is written or moved unless --log is given. The command exits non-zero
when the result is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := loader.New(mainConfig.LoaderOptions()).LoadPath(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		result, err := extractor.ExtractText(text, mainConfig.ExtractorOptions(logger))
		if err != nil {
			return err
		}

		options := mainConfig.ValidationOptions()
		if cmd.Flags().Changed("strict") {
			options.TreatWarningsAsErrors = strict
		}
		if cmd.Flags().Changed("stop-on-first") {
			options.StopOnFirstError = stopOnFirst
		}
		report := validation.NewValidatorWithOptions(options).ValidateAll(result)

		logger.Debug("validation finished",
			zap.Int("groups", report.GroupsValidated),
			zap.Int("segments", report.SegmentsValidated),
			zap.Int("errors", report.ErrorCount),
			zap.Int("warnings", report.WarningCount),
		)

		out := cmd.OutOrStdout()
		fmt.Fprint(out, validation.FormatErrors(report.Errors))
		if len(report.Errors) == 0 {
			fmt.Fprintln(out)
		}

		if logPath != "" {
			if err := validation.WriteErrorLog(report.Errors, logPath); err != nil {
				return err
			}
			logger.Info("validation log written", zap.String("path", logPath))
		}

		if !report.IsValid {
			return fmt.Errorf("%s is invalid: %d error(s), %d warning(s)", args[0], report.ErrorCount, report.WarningCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(
		&strict,
		"strict",
		false,
		"Treat warnings as errors",
	)

	validateCmd.Flags().BoolVar(
		&stopOnFirst,
		"stop-on-first",
		false,
		"Stop at the first validation error",
	)

	validateCmd.Flags().StringVar(
		&logPath,
		"log",
		"",
		"Write the validation findings to this file",
	)
}
