// =============================================================================
// AirShopping Offer Extractor - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Settings come from three
// layers, each overriding the previous one:
//
//   1. Built-in defaults (DefaultMainConfig)
//   2. The YAML config file (config.yaml)
//   3. Environment variables prefixed with OFFERS_
//
// A missing config file at the default location is not an error; the
// defaults and the environment are used alone.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ginjaninja78/airshopping-offers/internal/csvreport"
	"github.com/ginjaninja78/airshopping-offers/internal/display"
	"github.com/ginjaninja78/airshopping-offers/internal/extractor"
	"github.com/ginjaninja78/airshopping-offers/internal/loader"
	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/ginjaninja78/airshopping-offers/internal/validation"
	"github.com/ginjaninja78/airshopping-offers/internal/xmlwriter"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "config.yaml"

// Report formats.
const (
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .xml files by the process command.
	// Default: "./input"
	InputDir string `yaml:"input_dir" env:"OFFERS_INPUT_DIR"`

	// OutputDir receives the generated reports and logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" env:"OFFERS_OUTPUT_DIR"`

	// InputArchiveDir receives processed input files.
	// Files are only moved here after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" env:"OFFERS_INPUT_ARCHIVE_DIR"`

	// OutputArchiveDir receives a copy of every generated report.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir" env:"OFFERS_OUTPUT_ARCHIVE_DIR"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an additional log destination. Empty logs to stderr only.
	// Default: ""
	LogFile string `yaml:"log_file" env:"OFFERS_LOG_FILE"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" env:"OFFERS_LOG_LEVEL"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the base name of generated reports; the
	// report extension is appended.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {original}  - Input file name without extension
	// Default: "{original}_{uuid}"
	OutputNameFormat string `yaml:"output_name_format" env:"OFFERS_OUTPUT_NAME_FORMAT"`

	// ReportFormats lists the reports written per input file.
	// Valid values: "xml", "xlsx", "csv"
	// Default: ["xml"]
	ReportFormats []string `yaml:"report_formats" env:"OFFERS_REPORT_FORMATS" env-separator:","`

	// CSVDelimiter separates the fields of the csv report.
	// Valid values: ",", ";", "|", "tab"
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter" env:"OFFERS_CSV_DELIMITER"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" env:"OFFERS_MAX_CONCURRENCY"`

	// ContinueOnError keeps processing other files when one fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error" env:"OFFERS_CONTINUE_ON_ERROR"`

	// Archive moves processed inputs and copies outputs to the archive
	// directories.
	// Default: true
	Archive bool `yaml:"archive" env:"OFFERS_ARCHIVE"`

	// =========================================================================
	// COMPONENT SETTINGS
	// =========================================================================

	Loader     LoaderConfig     `yaml:"loader"`
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Display    DisplayConfig    `yaml:"display"`
	XMLReport  XMLReportConfig  `yaml:"xml_report"`
	Validation ValidationConfig `yaml:"validation"`
}

// LoaderConfig configures how input files are read.
type LoaderConfig struct {
	// Encoding is the IANA name of the input encoding.
	// Default: "UTF-8"
	Encoding string `yaml:"encoding" env:"OFFERS_LOADER_ENCODING"`

	// CaseInsensitiveExtension also accepts ".XML".
	// Default: false
	CaseInsensitiveExtension bool `yaml:"case_insensitive_extension" env:"OFFERS_LOADER_CASE_INSENSITIVE_EXTENSION"`

	// MaxFileSize in bytes; 0 disables the limit.
	// Default: 0
	MaxFileSize int64 `yaml:"max_file_size" env:"OFFERS_LOADER_MAX_FILE_SIZE"`
}

// ExtractorConfig configures offer extraction.
type ExtractorConfig struct {
	// Namespace qualifies the elements of the grouped variant.
	// Default: the IATA 2019.2 AirShoppingRS namespace
	Namespace string `yaml:"namespace" env:"OFFERS_EXTRACTOR_NAMESPACE"`

	// Variant is "grouped" or "flat".
	// Default: "grouped"
	Variant string `yaml:"variant" env:"OFFERS_EXTRACTOR_VARIANT"`
}

// DisplayConfig configures terminal output.
type DisplayConfig struct {
	// Currency is printed after every amount.
	// Default: "EUR"
	Currency string `yaml:"currency" env:"OFFERS_DISPLAY_CURRENCY"`
}

// XMLReportConfig configures the xml summary report.
type XMLReportConfig struct {
	// Indent is the number of spaces per level; 0 writes a single line.
	// Default: 2
	Indent int `yaml:"indent" env:"OFFERS_XML_REPORT_INDENT"`

	// Declaration writes the <?xml ...?> header.
	// Default: true
	Declaration bool `yaml:"declaration" env:"OFFERS_XML_REPORT_DECLARATION"`

	// RootElement names the document element.
	// Default: "offerSummary"
	RootElement string `yaml:"root_element" env:"OFFERS_XML_REPORT_ROOT_ELEMENT"`

	// RootAttributes are added to the document element, sorted by name.
	RootAttributes map[string]string `yaml:"root_attributes"`

	// SegmentNumbering is "global" (1, 2, 3... across routes) or "route"
	// (restart at 1 in each route).
	// Default: "global"
	SegmentNumbering string `yaml:"segment_numbering" env:"OFFERS_XML_REPORT_SEGMENT_NUMBERING"`
}

// Segment numbering modes of the xml report.
const (
	NumberingGlobal = "global"
	NumberingRoute  = "route"
)

// ValidationConfig configures the checks run on every extraction.
type ValidationConfig struct {
	// Strict makes warnings (dropped offers, missing locations, ...) fail
	// the file.
	// Default: false
	Strict bool `yaml:"strict" env:"OFFERS_VALIDATION_STRICT"`

	// StopOnFirstError reports only the first error.
	// Default: false
	StopOnFirstError bool `yaml:"stop_on_first_error" env:"OFFERS_VALIDATION_STOP_ON_FIRST_ERROR"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns the configuration used when nothing is set.
func DefaultMainConfig() *MainConfig {
	return &MainConfig{
		InputDir:         "./input",
		OutputDir:        "./output",
		InputArchiveDir:  "./input_archive",
		OutputArchiveDir: "./output_archive",
		LogLevel:         "info",
		OutputNameFormat: "{original}_{uuid}",
		ReportFormats:    []string{FormatXML},
		CSVDelimiter:     ",",
		MaxConcurrency:   4,
		ContinueOnError:  true,
		Archive:          true,
		Loader: LoaderConfig{
			Encoding: "UTF-8",
		},
		Extractor: ExtractorConfig{
			Namespace: extractor.AirShoppingNamespace,
			Variant:   string(offer.VariantGrouped),
		},
		Display: DisplayConfig{
			Currency: display.DefaultCurrency,
		},
		XMLReport: XMLReportConfig{
			Indent:           2,
			Declaration:      true,
			RootElement:      "offerSummary",
			SegmentNumbering: NumberingGlobal,
		},
	}
}

// LoadMainConfig loads the configuration from a YAML file and applies
// environment overrides.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or a value is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultMainConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(config)
}

// LoadOrDefault is LoadMainConfig, except that a missing file yields the
// defaults with environment overrides.
func LoadOrDefault(configPath string) (*MainConfig, error) {
	config, err := LoadMainConfig(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(DefaultMainConfig())
	}
	return config, err
}

func finish(config *MainConfig) (*MainConfig, error) {
	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyMainConfigDefaults restores defaults for values set to empty.
func applyMainConfigDefaults(config *MainConfig) {
	defaults := DefaultMainConfig()

	if config.InputDir == "" {
		config.InputDir = defaults.InputDir
	}
	if config.OutputDir == "" {
		config.OutputDir = defaults.OutputDir
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = defaults.InputArchiveDir
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = defaults.OutputArchiveDir
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = defaults.OutputNameFormat
	}
	if len(config.ReportFormats) == 0 {
		config.ReportFormats = defaults.ReportFormats
	}
	if config.CSVDelimiter == "" {
		config.CSVDelimiter = defaults.CSVDelimiter
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Loader.Encoding == "" {
		config.Loader.Encoding = defaults.Loader.Encoding
	}
	if config.Extractor.Namespace == "" {
		config.Extractor.Namespace = defaults.Extractor.Namespace
	}
	if config.Extractor.Variant == "" {
		config.Extractor.Variant = defaults.Extractor.Variant
	}
	if config.Display.Currency == "" {
		config.Display.Currency = defaults.Display.Currency
	}
	if config.XMLReport.RootElement == "" {
		config.XMLReport.RootElement = defaults.XMLReport.RootElement
	}
	if config.XMLReport.SegmentNumbering == "" {
		config.XMLReport.SegmentNumbering = defaults.XMLReport.SegmentNumbering
	}

	for i, format := range config.ReportFormats {
		config.ReportFormats[i] = strings.ToLower(strings.TrimSpace(format))
	}
}

// validateMainConfig validates the configuration values.
func validateMainConfig(config *MainConfig) error {
	if _, err := zapcore.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	for _, format := range config.ReportFormats {
		if !lo.Contains([]string{FormatXML, FormatXLSX, FormatCSV}, format) {
			return fmt.Errorf("report_formats: unknown format %q", format)
		}
	}

	if _, err := csvreport.Delimiter(config.CSVDelimiter); err != nil {
		return fmt.Errorf("csv_delimiter: %w", err)
	}

	switch offer.Variant(config.Extractor.Variant) {
	case offer.VariantGrouped, offer.VariantFlat:
	default:
		return fmt.Errorf("extractor.variant: unknown variant %q", config.Extractor.Variant)
	}

	if config.Loader.MaxFileSize < 0 {
		return fmt.Errorf("loader.max_file_size must not be negative")
	}

	if config.XMLReport.Indent < 0 {
		return fmt.Errorf("xml_report.indent must not be negative")
	}
	if !lo.Contains([]string{NumberingGlobal, NumberingRoute}, config.XMLReport.SegmentNumbering) {
		return fmt.Errorf("xml_report.segment_numbering: unknown mode %q", config.XMLReport.SegmentNumbering)
	}

	return nil
}

// =============================================================================
// COMPONENT OPTIONS
// =============================================================================

// LoaderOptions returns the loader settings.
func (c *MainConfig) LoaderOptions() loader.Options {
	return loader.Options{
		Encoding:                 c.Loader.Encoding,
		CaseInsensitiveExtension: c.Loader.CaseInsensitiveExtension,
		MaxFileSize:              c.Loader.MaxFileSize,
	}
}

// ExtractorOptions returns the extractor settings logging to log.
func (c *MainConfig) ExtractorOptions(log *zap.Logger) extractor.Options {
	return extractor.Options{
		Namespace: c.Extractor.Namespace,
		Variant:   offer.Variant(c.Extractor.Variant),
		Logger:    log,
	}
}

// XMLOptions returns the xml report settings.
func (c *MainConfig) XMLOptions() xmlwriter.GenerateOptions {
	options := xmlwriter.DefaultGenerateOptions()
	options.Indent = c.XMLReport.Indent
	options.IncludeXMLDeclaration = c.XMLReport.Declaration
	options.RootElement = c.XMLReport.RootElement
	options.SegmentNumberingGlobal = c.XMLReport.SegmentNumbering == NumberingGlobal
	for key, value := range c.XMLReport.RootAttributes {
		options.RootAttributes[key] = value
	}
	return options
}

// ValidationOptions returns the validator settings.
func (c *MainConfig) ValidationOptions() validation.ValidationOptions {
	return validation.ValidationOptions{
		StopOnFirstError:      c.Validation.StopOnFirstError,
		TreatWarningsAsErrors: c.Validation.Strict,
	}
}

// DisplayOptions returns the rendering settings.
func (c *MainConfig) DisplayOptions() display.Options {
	options := display.DefaultOptions()
	options.Currency = c.Display.Currency
	return options
}
