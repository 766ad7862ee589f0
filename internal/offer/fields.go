// =============================================================================
// AirShopping Offer Extractor - Field Defaults
// =============================================================================
//
// Every optional leaf value read from an offer has one declared default. The
// extractor looks fields up through this table instead of scattering literal
// fallbacks around the traversal code.
//
// =============================================================================

package offer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Field names the leaf elements read from an AirShoppingRS document.
type Field string

const (
	FieldCabinTypeCode     Field = "CabinTypeCode"
	FieldCabinTypeName     Field = "CabinTypeName"
	FieldFareBasisCode     Field = "FareBasisCode"
	FieldBaseAmount        Field = "BaseAmount"
	FieldTotalAmount       Field = "TotalAmount"
	FieldPaxSegmentRefID   Field = "PaxSegmentRefID"
	FieldPaxSegmentID      Field = "PaxSegmentID"
	FieldScheduledDateTime Field = "AircraftScheduledDateTime"
	FieldLocationCode      Field = "IATA_LocationCode"
	FieldBaggageAllowance  Field = "BaggageAllowance"
	FieldOfferExpiration   Field = "OfferExpirationDateTime"
)

// NotAvailable is the default for missing textual fields.
const NotAvailable = "N/A"

// Defaults maps each optional field to the value used when it is absent or
// empty. Fields without an entry (the segment reference identifiers) have
// no default: their absence is meaningful.
var Defaults = map[Field]string{
	FieldCabinTypeCode:     NotAvailable,
	FieldCabinTypeName:     NotAvailable,
	FieldFareBasisCode:     NotAvailable,
	FieldBaseAmount:        "0",
	FieldTotalAmount:       "0",
	FieldScheduledDateTime: NotAvailable,
	FieldLocationCode:      NotAvailable,
	FieldBaggageAllowance:  NotAvailable,
	FieldOfferExpiration:   NotAvailable,
}

// Default returns the declared default of a field, or "".
func Default(field Field) string {
	return Defaults[field]
}

// ValueOr returns value unless it is empty, in which case the field's
// default is returned.
func ValueOr(field Field, value string) string {
	if value == "" {
		return Default(field)
	}
	return value
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount converts an amount text to a number. Only a leading decimal
// number counts ("100.50EUR" is 100.5, "0x1p4" is 0); anything without one,
// and any non-finite value, is 0.
func ParseAmount(text string) float64 {
	prefix := leadingNumber.FindString(strings.TrimSpace(text))
	if prefix == "" {
		return 0
	}

	value, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
