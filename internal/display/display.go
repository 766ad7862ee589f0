// =============================================================================
// AirShopping Offer Extractor - Display
// =============================================================================
//
// This module renders a result set as text cards, one per route group:
//
//   Route: LHR to JFK
//   Total Base Price: 100.50 EUR
//   Total Price: 120.00 EUR
//   Flight Segments:
//     Departure:    2024-05-01T10:00:00
//     Arrival:      2024-05-01T13:00:00
//     Cabin:        Y - ECONOMY
//     Fare Basis:   YLOWGB
//     Base Price:   100.50 EUR
//     Total Price:  120.00 EUR
//
// Amounts are only rounded here, to two decimals, using shopspring/decimal.
// The extracted values themselves keep full precision.
//
// =============================================================================

package display

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/shopspring/decimal"
)

// EmptyMessage is shown when there is nothing to display.
const EmptyMessage = "No offers to display. Upload an XML file to begin."

// DefaultCurrency is appended to every amount unless configured otherwise.
const DefaultCurrency = "EUR"

// Options configures rendering.
type Options struct {
	// Currency is the suffix printed after amounts.
	// Default: "EUR"
	Currency string

	// Indent prefixes every segment line.
	// Default: "  "
	Indent string
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() Options {
	return Options{
		Currency: DefaultCurrency,
		Indent:   "  ",
	}
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = DefaultCurrency
	}
	if o.Indent == "" {
		o.Indent = "  "
	}
	return o
}

// =============================================================================
// AMOUNT FORMATTING
// =============================================================================

// Amount formats v with two decimals followed by the currency.
func Amount(v float64, currency string) string {
	return FormatAmount(v) + " " + currency
}

// FormatAmount rounds v to two decimals. Rounding applies to the exact
// binary value of v, so 1.005 (stored as 1.00499...) prints "1.00"; an
// exact half such as 0.125 rounds away from zero. Non-finite values print
// as zero.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero.StringFixed(2)
	}
	return exactDecimal(v).StringFixed(2)
}

// exactDecimal converts v without first shortening it to its round-trip
// representation. Each binary fractional digit needs one decimal digit.
func exactDecimal(v float64) decimal.Decimal {
	f := new(big.Float).SetFloat64(v)
	digits := int(f.MinPrec()) - f.MantExp(nil)
	if digits < 0 {
		digits = 0
	}
	return decimal.RequireFromString(f.Text('f', digits))
}

// =============================================================================
// RENDERING
// =============================================================================

// Render writes result to w. A nil or empty result renders EmptyMessage.
//
// PARAMETERS:
//   - w: The destination.
//   - result: The result set, grouped or flat.
//   - options: Rendering options.
//
// RETURNS:
//   - The first write error, if any.
func Render(w io.Writer, result *offer.Result, options Options) error {
	options = options.withDefaults()

	if result.Empty() {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}

	if result.Variant == offer.VariantFlat {
		return renderRecords(w, result.Records, options)
	}
	return renderGroups(w, result.Groups, options)
}

func renderGroups(w io.Writer, groups []*offer.RouteGroup, options Options) error {
	for i, group := range groups {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := renderGroup(w, group, options); err != nil {
			return err
		}
	}
	return nil
}

func renderGroup(w io.Writer, group *offer.RouteGroup, options Options) error {
	_, err := fmt.Fprintf(w, "Route: %s\nTotal Base Price: %s\nTotal Price: %s\nFlight Segments:\n",
		group.Route,
		Amount(group.TotalBaseAmount, options.Currency),
		Amount(group.TotalAmount, options.Currency),
	)
	if err != nil {
		return err
	}

	for i, segment := range group.Segments {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		rows := [][2]string{
			{"Departure:", segment.DepartureDateTime},
			{"Arrival:", segment.ArrivalDateTime},
			{"Cabin:", segment.CabinTypeCode + " - " + segment.CabinTypeName},
			{"Fare Basis:", segment.FareBasisCode},
			{"Base Price:", Amount(segment.BaseAmount, options.Currency)},
			{"Total Price:", Amount(segment.TotalAmount, options.Currency)},
		}
		if err := writeTable(w, rows, options.Indent); err != nil {
			return err
		}
	}
	return nil
}

func renderRecords(w io.Writer, records []offer.OfferRecord, options Options) error {
	for i, record := range records {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "Offer %d\n", i+1); err != nil {
			return err
		}

		// Flat amounts are raw document text and are printed as found.
		rows := [][2]string{
			{"Cabin:", record.CabinTypeCode + " - " + record.CabinTypeName},
			{"Fare Basis:", record.FareBasisCode},
			{"Base Price:", record.BaseAmount + " " + options.Currency},
			{"Total Price:", record.TotalAmount + " " + options.Currency},
			{"Baggage:", record.BaggageAllowance},
			{"Offer Date:", record.OfferDate},
			{"Departure:", record.DepartureDate},
			{"Arrival:", record.ArrivalDate},
		}
		if err := writeTable(w, rows, options.Indent); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, rows [][2]string, indent string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s%s\t%s\n", indent, row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorMessage returns the text shown to the user for a failed upload.
// A wrong file type shows the fixed alert message; every other failure is
// reported with its kind.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, offer.ErrInvalidFileType) {
		return offer.InvalidFileTypeMessage
	}

	kind := offer.Kind(err)
	if kind == "" {
		kind = "Error"
	}
	return fmt.Sprintf("%s: %s", kind, strings.TrimSpace(err.Error()))
}

// RenderError writes ErrorMessage(err) to w.
func RenderError(w io.Writer, err error) error {
	_, werr := fmt.Fprintln(w, ErrorMessage(err))
	return werr
}
