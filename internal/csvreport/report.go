// =============================================================================
// AirShopping Offer Extractor - CSV Report Module
// =============================================================================
//
// This module writes an extraction as a delimited text report and reads
// such reports back.
//
// REPORT LAYOUT:
//   Grouped variant, one row per flight segment:
//     route_key, route, segment, departure, departure_code, arrival,
//     arrival_code, cabin_code, cabin_name, fare_basis, base_amount,
//     total_amount
//
//   Flat variant, one row per offer record:
//     offer, cabin_code, cabin_name, fare_basis, base_amount, total_amount,
//     baggage, offer_date, departure, arrival
//
// DELIMITERS:
//   "," (default), ";", "|", and tab ("\t" or "tab") are accepted.
//
// =============================================================================

package csvreport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
)

// SegmentRow is one line of a grouped report.
type SegmentRow struct {
	RouteKey      string  `csv:"route_key"`
	Route         string  `csv:"route"`
	Segment       int     `csv:"segment"`
	Departure     string  `csv:"departure"`
	DepartureCode string  `csv:"departure_code"`
	Arrival       string  `csv:"arrival"`
	ArrivalCode   string  `csv:"arrival_code"`
	CabinCode     string  `csv:"cabin_code"`
	CabinName     string  `csv:"cabin_name"`
	FareBasis     string  `csv:"fare_basis"`
	BaseAmount    float64 `csv:"base_amount"`
	TotalAmount   float64 `csv:"total_amount"`
}

// OfferRow is one line of a flat report. Amounts stay raw text.
type OfferRow struct {
	Offer       int    `csv:"offer"`
	CabinCode   string `csv:"cabin_code"`
	CabinName   string `csv:"cabin_name"`
	FareBasis   string `csv:"fare_basis"`
	BaseAmount  string `csv:"base_amount"`
	TotalAmount string `csv:"total_amount"`
	Baggage     string `csv:"baggage"`
	OfferDate   string `csv:"offer_date"`
	Departure   string `csv:"departure"`
	Arrival     string `csv:"arrival"`
}

// =============================================================================
// WRITING
// =============================================================================

// Write writes the report for result to w.
//
// PARAMETERS:
//   - result: The extraction to report. Must not be nil.
//   - w: The destination.
//   - delimiter: The field separator; "" selects ",".
func Write(result *offer.Result, w io.Writer, delimiter string) error {
	if result == nil {
		return fmt.Errorf("cannot write report for nil result")
	}

	comma, err := Delimiter(delimiter)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = comma
	out := gocsv.NewSafeCSVWriter(writer)

	if result.Variant == offer.VariantFlat {
		err = gocsv.MarshalCSV(OfferRows(result.Records), out)
	} else {
		err = gocsv.MarshalCSV(SegmentRows(result.Groups), out)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile writes the report for result to path.
func WriteFile(result *offer.Result, path, delimiter string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer file.Close()

	buffered := bufio.NewWriter(file)
	if err := Write(result, buffered, delimiter); err != nil {
		return err
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// SegmentRows flattens route groups into report rows. Segment numbers
// restart at 1 for each route.
func SegmentRows(groups []*offer.RouteGroup) []*SegmentRow {
	rows := []*SegmentRow{}
	for _, group := range groups {
		for i, segment := range group.Segments {
			rows = append(rows, &SegmentRow{
				RouteKey:      group.Key,
				Route:         group.Route,
				Segment:       i + 1,
				Departure:     segment.DepartureDateTime,
				DepartureCode: segment.DepartureCode,
				Arrival:       segment.ArrivalDateTime,
				ArrivalCode:   segment.ArrivalCode,
				CabinCode:     segment.CabinTypeCode,
				CabinName:     segment.CabinTypeName,
				FareBasis:     segment.FareBasisCode,
				BaseAmount:    segment.BaseAmount,
				TotalAmount:   segment.TotalAmount,
			})
		}
	}
	return rows
}

// OfferRows converts flat records into report rows.
func OfferRows(records []offer.OfferRecord) []*OfferRow {
	return lo.Map(records, func(r offer.OfferRecord, i int) *OfferRow {
		return &OfferRow{
			Offer:       i + 1,
			CabinCode:   r.CabinTypeCode,
			CabinName:   r.CabinTypeName,
			FareBasis:   r.FareBasisCode,
			BaseAmount:  r.BaseAmount,
			TotalAmount: r.TotalAmount,
			Baggage:     r.BaggageAllowance,
			OfferDate:   r.OfferDate,
			Departure:   r.DepartureDate,
			Arrival:     r.ArrivalDate,
		}
	})
}

// =============================================================================
// READING
// =============================================================================

// ReadSegments parses a grouped report written by Write.
func ReadSegments(r io.Reader, delimiter string) ([]*SegmentRow, error) {
	var rows []*SegmentRow
	if err := read(r, delimiter, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadOffers parses a flat report written by Write.
func ReadOffers(r io.Reader, delimiter string) ([]*OfferRow, error) {
	var rows []*OfferRow
	if err := read(r, delimiter, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadSegmentsFile parses the grouped report at path.
func ReadSegmentsFile(path, delimiter string) ([]*SegmentRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer file.Close()

	return ReadSegments(file, delimiter)
}

func read(r io.Reader, delimiter string, out interface{}) error {
	comma, err := Delimiter(delimiter)
	if err != nil {
		return err
	}

	// Allow rows with missing trailing columns.
	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	if err := gocsv.UnmarshalCSV(reader, out); err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	return nil
}

// Delimiter maps a configured delimiter to the field separator rune.
func Delimiter(delimiter string) (rune, error) {
	switch delimiter {
	case "", ",", "comma":
		return ',', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q", delimiter)
	}
}
