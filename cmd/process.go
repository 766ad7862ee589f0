// =============================================================================
// AirShopping Offer Extractor - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch mode of the tool. It
// runs the converter pipeline over every .xml file of the input directory.
//
// COMMAND USAGE:
//   offers process [flags]
//
// FLAGS:
//   --dry-run : Extract and validate without writing or moving anything
//   --file    : Process only this file instead of the input directory
//
// PROCESSING PIPELINE:
//   1. Discover .xml files in the input directory
//   2. For each file (concurrently, at most max_concurrency at a time):
//      a. Load and extract the offers
//      b. Validate the result
//      c. Write the configured reports
//      d. Archive the input and the reports
//   3. Write the summary log and the error log
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ginjaninja78/airshopping-offers/internal/config"
	"github.com/ginjaninja78/airshopping-offers/internal/converter"
	"github.com/ginjaninja78/airshopping-offers/internal/display"
	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/ginjaninja78/airshopping-offers/pkg/utils"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun extracts and validates without writing output files.
var dryRun bool

// filePath processes a single file instead of the input directory.
var filePath string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process AirShoppingRS files into route reports",
	Long: `The process command scans the input directory for .xml files, extracts the
offers of each file grouped by route, validates them and writes the configured
reports (xml, xlsx, csv) to the output directory.

Files are processed concurrently. With continue_on_error (the default) a
failing file does not stop the others.

On successful processing:
  - The reports are placed in the output directory
  - The original file is moved to the input archive
  - The reports are copied to the output archive

On error:
  - An error log is created in the output directory
  - The original file remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Extract and validate without writing output files",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Process only this file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	summary := utils.ProcessingSummary{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
	log := logger.With(zap.String("run", summary.RunID))

	fmt.Fprintln(out, "=== AirShopping Offer Extractor ===")

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	inputFiles := []string{filePath}
	if filePath == "" {
		var err error
		inputFiles, err = files.DiscoverInputFiles("")
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No XML files found in the input directory.")
		return nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))
	log.Info("processing started", zap.Int("files", len(inputFiles)), zap.Bool("dry_run", dryRun))

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results, err := processFiles(ctx, mainConfig, inputFiles, log)

	sort.Slice(results, func(i, j int) bool { return results[i].FilePath < results[j].FilePath })
	succeeded, failed := lo.FilterReject(results, func(r converter.Result, _ int) bool { return r.Success })

	for _, result := range succeeded {
		outputs := "(dry run)"
		if len(result.OutputFiles) > 0 {
			outputs = fmt.Sprint(lo.Map(result.OutputFiles, func(p string, _ int) string { return filepath.Base(p) }))
		}
		fmt.Fprintf(out, "  ✓ %s -> %s\n", filepath.Base(result.FilePath), outputs)

		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFiles: result.OutputFiles,
			ArchivePath: result.ArchivePath,
			Offers:      result.Stats.Offers,
			Dropped:     result.Stats.Dropped,
			Groups:      result.Stats.Groups,
			Segments:    result.Stats.Segments,
			Warnings:    result.Stats.ValidationWarnings,
			ProcessTime: result.Stats.ProcessingTime,
		})
	}

	for _, result := range failed {
		fmt.Fprintf(out, "  ✗ %s: %s\n", filepath.Base(result.FilePath), display.ErrorMessage(result.Error))

		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
			ErrorType:    lo.Ternary(offer.Kind(result.Error) != "", offer.Kind(result.Error), "Processing"),
		})
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 3: PRINT SUMMARY AND WRITE LOGS
	// =========================================================================

	totals := summary.Totals()
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", totals.Files)
	fmt.Fprintf(out, "Successful:      %d\n", totals.Successful)
	fmt.Fprintf(out, "Errors:          %d\n", totals.Failed)
	fmt.Fprintf(out, "Routes:          %d\n", totals.Groups)
	fmt.Fprintf(out, "Dropped offers:  %d\n", totals.Dropped)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if !dryRun {
		if path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
			log.Warn("failed to write summary log", zap.Error(err))
		} else {
			log.Info("summary written", zap.String("path", path))
		}

		entries := lo.FlatMap(results, func(r converter.Result, _ int) []utils.ErrorLogEntry {
			return r.ErrorLogEntries(summary.EndTime)
		})
		if path, err := utils.WriteErrorLog(entries, mainConfig.OutputDir); err != nil {
			log.Warn("failed to write error log", zap.Error(err))
		} else if path != "" {
			fmt.Fprintf(out, "\nErrors have been logged to %s\n", path)
		}
	}

	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d file(s) failed", len(failed), len(results))
	}
	return nil
}

// processFiles runs one converter per file on a bounded pool. Unless
// continue_on_error is set, the first failure cancels the files not yet
// started.
func processFiles(ctx context.Context, cfg *config.MainConfig, inputFiles []string, log *zap.Logger) ([]converter.Result, error) {
	p := pool.NewWithResults[converter.Result]().
		WithContext(ctx).
		WithMaxGoroutines(cfg.MaxConcurrency).
		WithCollectErrored()
	if !cfg.ContinueOnError {
		p = p.WithCancelOnError()
	}

	for _, file := range inputFiles {
		p.Go(func(ctx context.Context) (converter.Result, error) {
			result := converter.New(file, cfg, log).WithDryRun(dryRun).Run(ctx)
			if result.Error != nil && !cfg.ContinueOnError {
				return result, fmt.Errorf("%s: %w", filepath.Base(file), result.Error)
			}
			return result, nil
		})
	}

	return p.Wait()
}
