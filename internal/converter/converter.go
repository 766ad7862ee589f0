// =============================================================================
// AirShopping Offer Extractor - Converter Module
// =============================================================================
//
// This module orchestrates the batch pipeline for a single file, from reading
// the AirShoppingRS document to writing its reports.
//
// CONVERSION PIPELINE:
//   1. Load the input file as text (extension check, decoding)
//   2. Extract route groups (or flat records)
//   3. Validate the result
//   4. Generate the configured reports (xml, xlsx)
//   5. Write the reports to the output directory
//   6. Archive the processed files
//
// CONCURRENCY:
//   A Converter handles exactly one file and shares nothing mutable, so the
//   process command runs many of them concurrently.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/airshopping-offers/internal/config"
	"github.com/ginjaninja78/airshopping-offers/internal/csvreport"
	"github.com/ginjaninja78/airshopping-offers/internal/extractor"
	"github.com/ginjaninja78/airshopping-offers/internal/loader"
	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/ginjaninja78/airshopping-offers/internal/validation"
	"github.com/ginjaninja78/airshopping-offers/internal/xlsxreport"
	"github.com/ginjaninja78/airshopping-offers/internal/xmlwriter"
	"github.com/ginjaninja78/airshopping-offers/pkg/utils"
	"go.uber.org/zap"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFiles are the generated reports, one per configured format.
	// This is empty if processing failed or ran dry.
	OutputFiles []string

	// ArchivePath is where the input file was moved, if it was archived.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Extraction is the extracted result set, if extraction succeeded.
	Extraction *offer.Result

	// Validation lists every validation error and warning.
	Validation []*validation.ValidationError

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Offers is the number of Offer elements found.
	Offers int

	// Incomplete is the number of offers missing a required part.
	Incomplete int

	// Dropped is the number of offers whose segment reference was unresolved.
	Dropped int

	// Groups is the number of route groups (or flat records).
	Groups int

	// Segments is the number of flight segments across all groups.
	Segments int

	// ValidationErrors is the number of fatal validation errors.
	ValidationErrors int

	// ValidationWarnings is the number of validation warnings.
	ValidationWarnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the processing of a single input file.
type Converter struct {
	path   string
	config *config.MainConfig
	files  *utils.FileManager
	logger *zap.Logger
	dryRun bool
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - path: The path to the input XML file.
//   - mainConfig: The application configuration.
//   - logger: The logger; nil discards output.
//
// RETURNS:
//   - A new Converter instance.
func New(path string, mainConfig *config.MainConfig, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}

	files := utils.NewFileManager(
		mainConfig.InputDir,
		mainConfig.OutputDir,
		mainConfig.InputArchiveDir,
		mainConfig.OutputArchiveDir,
	)
	files.ArchiveOnSuccess = mainConfig.Archive

	return &Converter{
		path:   path,
		config: mainConfig,
		files:  files,
		logger: logger.With(zap.String("file", path)),
	}
}

// WithDryRun makes Run stop after validation; nothing is written or moved.
func (c *Converter) WithDryRun(dryRun bool) *Converter {
	c.dryRun = dryRun
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result = Result{FilePath: c.path}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	c.logger.Info("processing file")

	// =========================================================================
	// STEP 1: LOAD INPUT
	// =========================================================================

	text, err := loader.New(c.config.LoaderOptions()).LoadPath(ctx, c.path)
	if err != nil {
		result.Error = fmt.Errorf("failed to load file: %w", err)
		return result
	}

	// =========================================================================
	// STEP 2: EXTRACT OFFERS
	// =========================================================================

	extraction, err := extractor.ExtractText(text, c.config.ExtractorOptions(c.logger))
	if err != nil {
		result.Error = fmt.Errorf("failed to extract offers: %w", err)
		return result
	}
	extraction.Source = filepath.Base(c.path)
	result.Extraction = extraction

	result.Stats.Offers = extraction.Stats.Offers
	result.Stats.Incomplete = extraction.Stats.Incomplete
	result.Stats.Dropped = extraction.Stats.Dropped
	result.Stats.Groups = len(extraction.Groups) + len(extraction.Records)
	result.Stats.Segments = extraction.SegmentCount()

	c.logger.Debug("extracted offers",
		zap.Int("offers", extraction.Stats.Offers),
		zap.Int("dropped", extraction.Stats.Dropped),
		zap.Int("groups", len(extraction.Groups)),
		zap.Int("records", len(extraction.Records)),
	)

	// =========================================================================
	// STEP 3: VALIDATE
	// =========================================================================

	report := validation.NewValidatorWithOptions(c.config.ValidationOptions()).ValidateAll(extraction)
	result.Validation = report.Errors
	result.Stats.ValidationErrors = report.ErrorCount
	result.Stats.ValidationWarnings = report.WarningCount

	for _, ve := range report.Errors {
		c.logger.Warn("validation", zap.String("severity", ve.Severity), zap.String("detail", ve.Error()))
	}
	if !report.IsValid {
		result.Error = fmt.Errorf("validation failed: %d error(s), %d warning(s)", report.ErrorCount, report.WarningCount)
		return result
	}

	if c.dryRun {
		c.logger.Info("dry run, no reports written")
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 4-5: GENERATE AND WRITE REPORTS
	// =========================================================================

	outputs, err := c.writeReports(extraction)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFiles = outputs

	// =========================================================================
	// STEP 6: ARCHIVE FILES
	// =========================================================================

	if c.config.Archive {
		archivePath, err := c.archiveFiles(outputs)
		if err != nil {
			// Archival problems don't fail the file.
			c.logger.Warn("failed to archive files", zap.Error(err))
		}
		result.ArchivePath = archivePath
	}

	result.Success = true
	c.logger.Info("file processed", zap.Strings("outputs", outputs))

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeReports writes one report per configured format. All reports of one
// input share the same base name.
func (c *Converter) writeReports(extraction *offer.Result) ([]string, error) {
	if err := os.MkdirAll(c.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := utils.GenerateOutputFileName(c.config.OutputNameFormat, c.path, "")
	var outputs []string

	for _, format := range c.config.ReportFormats {
		outputPath := filepath.Join(c.config.OutputDir, base+"."+format)

		switch format {
		case config.FormatXML:
			data, err := xmlwriter.GenerateWithOptions(extraction, c.config.XMLOptions())
			if err != nil {
				return outputs, fmt.Errorf("failed to generate XML: %w", err)
			}
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				return outputs, fmt.Errorf("failed to write file: %w", err)
			}

		case config.FormatXLSX:
			if err := xlsxreport.Write(extraction, outputPath); err != nil {
				return outputs, err
			}

		case config.FormatCSV:
			if err := csvreport.WriteFile(extraction, outputPath, c.config.CSVDelimiter); err != nil {
				return outputs, err
			}

		default:
			return outputs, fmt.Errorf("unknown report format: %s", format)
		}

		c.logger.Debug("wrote report", zap.String("format", format), zap.String("path", outputPath))
		outputs = append(outputs, outputPath)
	}

	return outputs, nil
}

// archiveFiles moves the input and copies the reports to the archives.
func (c *Converter) archiveFiles(outputs []string) (string, error) {
	for _, output := range outputs {
		if _, err := c.files.ArchiveOutputFile(output); err != nil {
			return "", fmt.Errorf("failed to archive report: %w", err)
		}
	}

	archivePath, err := c.files.ArchiveInputFile(c.path)
	if err != nil {
		return "", fmt.Errorf("failed to archive input file: %w", err)
	}

	return archivePath, nil
}

// ErrorLogEntries converts a failed or warned result into error log entries.
func (r Result) ErrorLogEntries(now time.Time) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	name := filepath.Base(r.FilePath)

	if r.Error != nil {
		kind := offer.Kind(r.Error)
		if kind == "" {
			kind = "Processing"
		}
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     name,
			ErrorType:    kind,
			ErrorMessage: r.Error.Error(),
		})
	}

	for _, ve := range r.Validation {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     name,
			ErrorType:    "Validation/" + ve.Severity,
			ErrorMessage: ve.Message,
			Route:        ve.Route,
			Segment:      ve.Segment,
		})
	}

	return entries
}
