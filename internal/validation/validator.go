// =============================================================================
// AirShopping Offer Extractor - Validation Engine
// =============================================================================
//
// This module checks an extracted result set before it is reported. It
// validates:
//   - Route group totals against the sums of their segments
//   - Route keys and labels against the segments' location codes
//   - Duplicate route keys and empty groups
//   - Suspicious amounts (negative, total below base)
//   - Offers dropped or skipped by the extractor
//
// VALIDATION STRATEGY:
//   Validation is performed at three levels:
//   1. Segment-level: each segment against its group
//   2. Group-level: totals, key, label, emptiness
//   3. Result-level: duplicates and extractor statistics
//
// ERROR HANDLING:
//   - Errors are collected, not returned immediately
//   - Each error names the route, segment and field it concerns
//   - "error" severity means the result must not be reported;
//     "warning" severity is informational
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/samber/lo"
)

// Severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation error.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Route is the key of the route group concerned, if any.
	Route string

	// Segment is the 1-based index of the segment within its group, or 0
	// when the error concerns the whole group or result.
	Segment int

	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var location []string
	if e.Route != "" {
		location = append(location, "Route "+e.Route)
	}
	if e.Segment > 0 {
		location = append(location, "Segment "+strconv.Itoa(e.Segment))
	}
	if e.Field != "" {
		location = append(location, fmt.Sprintf("Field '%s'", e.Field))
	}
	if len(location) == 0 {
		location = append(location, "Result")
	}

	msg := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), strings.Join(location, ", "), e.Message)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value: '%s')", e.Value)
	}
	return msg
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all validation errors (including warnings).
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// GroupsValidated is the number of route groups checked.
	GroupsValidated int

	// SegmentsValidated is the number of segments checked.
	SegmentsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first fatal error.
	// Default: false
	StopOnFirstError bool

	// TreatWarningsAsErrors makes any warning invalidate the result.
	// Default: false
	TreatWarningsAsErrors bool
}

// Validator performs validation on result sets.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a new Validator with default options.
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateAll validates result and returns a detailed report.
func (v *Validator) ValidateAll(result *offer.Result) *ValidationResult {
	report := &ValidationResult{
		IsValid: true,
		Errors:  make([]*ValidationError, 0),
	}
	if result == nil {
		return report
	}

	var found []*ValidationError
	if result.Variant == offer.VariantFlat {
		found = v.validateRecords(result.Records)
	} else {
		report.GroupsValidated = len(result.Groups)
		report.SegmentsValidated = result.SegmentCount()

		found = append(found, v.validateDuplicates(result.Groups)...)
		for _, group := range result.Groups {
			found = append(found, v.ValidateGroup(group)...)
		}
	}
	found = append(found, validateStats(result.Stats)...)

	for _, err := range found {
		report.Errors = append(report.Errors, err)

		if err.Severity == SeverityError {
			report.ErrorCount++
			report.IsValid = false

			if v.options.StopOnFirstError {
				return report
			}
		} else {
			report.WarningCount++

			if v.options.TreatWarningsAsErrors {
				report.IsValid = false
			}
		}
	}

	return report
}

// ValidateGroup validates a single route group and its segments.
func (v *Validator) ValidateGroup(group *offer.RouteGroup) []*ValidationError {
	var errors []*ValidationError

	if len(group.Segments) == 0 {
		return append(errors, &ValidationError{
			Severity: SeverityError,
			Route:    group.Key,
			Rule:     "non-empty",
			Message:  "route group has no segments",
		})
	}

	base := lo.SumBy(group.Segments, func(s offer.FlightSegment) float64 { return s.BaseAmount })
	if !offer.AmountsEqual(base, group.TotalBaseAmount) {
		errors = append(errors, &ValidationError{
			Severity: SeverityError,
			Route:    group.Key,
			Field:    "TotalBaseAmount",
			Value:    formatFloat(group.TotalBaseAmount),
			Rule:     "sum",
			Message:  fmt.Sprintf("segments sum to %s", formatFloat(base)),
		})
	}

	total := lo.SumBy(group.Segments, func(s offer.FlightSegment) float64 { return s.TotalAmount })
	if !offer.AmountsEqual(total, group.TotalAmount) {
		errors = append(errors, &ValidationError{
			Severity: SeverityError,
			Route:    group.Key,
			Field:    "TotalAmount",
			Value:    formatFloat(group.TotalAmount),
			Rule:     "sum",
			Message:  fmt.Sprintf("segments sum to %s", formatFloat(total)),
		})
	}

	first := group.Segments[0]
	if label := offer.RouteLabel(first.DepartureCode, first.ArrivalCode); group.Route != label {
		errors = append(errors, &ValidationError{
			Severity: SeverityError,
			Route:    group.Key,
			Field:    "Route",
			Value:    group.Route,
			Rule:     "label",
			Message:  fmt.Sprintf("expected label %q", label),
		})
	}

	for i, segment := range group.Segments {
		errors = append(errors, v.ValidateSegment(segment, group, i+1)...)
	}

	return errors
}

// ValidateSegment validates one segment of group. index is 1-based.
func (v *Validator) ValidateSegment(segment offer.FlightSegment, group *offer.RouteGroup, index int) []*ValidationError {
	var errors []*ValidationError

	add := func(severity, field, value, rule, message string) {
		errors = append(errors, &ValidationError{
			Severity: severity,
			Route:    group.Key,
			Segment:  index,
			Field:    field,
			Value:    value,
			Rule:     rule,
			Message:  message,
		})
	}

	if key := segment.RouteKey(); key != group.Key {
		add(SeverityError, "RouteKey", key, "key", "segment does not belong to this route")
	}

	if segment.DepartureCode == offer.NotAvailable {
		add(SeverityWarning, string(offer.FieldLocationCode), segment.DepartureCode, "location", "departure location code missing")
	}
	if segment.ArrivalCode == offer.NotAvailable {
		add(SeverityWarning, string(offer.FieldLocationCode), segment.ArrivalCode, "location", "arrival location code missing")
	}

	if segment.BaseAmount < 0 {
		add(SeverityWarning, string(offer.FieldBaseAmount), formatFloat(segment.BaseAmount), "amount", "negative amount")
	}
	if segment.TotalAmount < 0 {
		add(SeverityWarning, string(offer.FieldTotalAmount), formatFloat(segment.TotalAmount), "amount", "negative amount")
	}
	if segment.TotalAmount < segment.BaseAmount {
		add(SeverityWarning, string(offer.FieldTotalAmount), formatFloat(segment.TotalAmount), "amount",
			fmt.Sprintf("total is below base amount %s", formatFloat(segment.BaseAmount)))
	}

	return errors
}

func (v *Validator) validateDuplicates(groups []*offer.RouteGroup) []*ValidationError {
	duplicates := lo.FindDuplicatesBy(groups, func(g *offer.RouteGroup) string { return g.Key })

	return lo.Map(duplicates, func(g *offer.RouteGroup, _ int) *ValidationError {
		return &ValidationError{
			Severity: SeverityError,
			Route:    g.Key,
			Rule:     "unique",
			Message:  "route key appears more than once",
		}
	})
}

// validateRecords checks that flat records carry numeric amounts.
func (v *Validator) validateRecords(records []offer.OfferRecord) []*ValidationError {
	var errors []*ValidationError

	for i, record := range records {
		amounts := []lo.Tuple2[offer.Field, string]{
			lo.T2(offer.FieldBaseAmount, record.BaseAmount),
			lo.T2(offer.FieldTotalAmount, record.TotalAmount),
		}
		for _, amount := range amounts {
			field, value := amount.Unpack()
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				errors = append(errors, &ValidationError{
					Severity: SeverityWarning,
					Route:    fmt.Sprintf("offer %d", i+1),
					Field:    string(field),
					Value:    value,
					Rule:     "amount",
					Message:  "amount is not numeric",
				})
			}
		}
	}

	return errors
}

func validateStats(stats offer.Stats) []*ValidationError {
	var errors []*ValidationError

	if stats.Dropped > 0 {
		errors = append(errors, &ValidationError{
			Severity: SeverityWarning,
			Value:    strconv.Itoa(stats.Dropped),
			Rule:     "resolved",
			Message:  "offers dropped because their segment reference matched no PaxSegment",
		})
	}
	if stats.Incomplete > 0 {
		errors = append(errors, &ValidationError{
			Severity: SeverityWarning,
			Value:    strconv.Itoa(stats.Incomplete),
			Rule:     "complete",
			Message:  "offers skipped because an OfferItem, FareDetail, FareComponent or Price was missing",
		})
	}

	return errors
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// OUTPUT
// =============================================================================

// FormatErrors formats validation errors for display or logging.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation errors to a log file.
//
// PARAMETERS:
//   - errors: The validation errors to write.
//   - filePath: The path to the output file.
//
// RETURNS:
//   - An error if writing fails.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	if err := os.WriteFile(filePath, []byte(FormatErrors(errors)), 0644); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	return nil
}
