// =============================================================================
// AirShopping Offer Extractor - XLSX Report
// =============================================================================
//
// This module writes a result set as an XLSX workbook and reads the route
// summary of such a workbook back.
//
// WORKBOOK STRUCTURE:
//   Grouped results:
//
//   Sheet "Routes"
//   | Key     | Route      | Segments | Total Base Amount | Total Amount |
//   |---------|------------|----------|-------------------|--------------|
//   | LHR-JFK | LHR to JFK | 2        | 1000.49           | 1130.25      |
//
//   Sheet "Segments"
//   | Route Key | Departure | Departure Code | Arrival | Arrival Code | Cabin Code | Cabin Name | Fare Basis | Base Amount | Total Amount |
//
//   Flat results have a single "Offers" sheet with the raw field text.
//
// =============================================================================

package xlsxreport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	RoutesSheet   = "Routes"
	SegmentsSheet = "Segments"
	OffersSheet   = "Offers"
)

var (
	routeHeaders = []interface{}{"Key", "Route", "Segments", "Total Base Amount", "Total Amount"}

	segmentHeaders = []interface{}{
		"Route Key", "Departure", "Departure Code", "Arrival", "Arrival Code",
		"Cabin Code", "Cabin Name", "Fare Basis", "Base Amount", "Total Amount",
	}

	offerHeaders = []interface{}{
		"Cabin Code", "Cabin Name", "Fare Basis", "Base Amount", "Total Amount",
		"Baggage Allowance", "Offer Date", "Departure Date", "Arrival Date",
	}
)

// RouteRow is one row of the Routes sheet.
type RouteRow struct {
	Key             string
	Route           string
	Segments        int
	TotalBaseAmount float64
	TotalAmount     float64
}

// =============================================================================
// WRITING
// =============================================================================

// Build creates the workbook for result. The caller must close it.
//
// PARAMETERS:
//   - result: The extracted result set.
//
// RETURNS:
//   - The workbook.
//   - An error if a sheet cannot be written.
func Build(result *offer.Result) (*excelize.File, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to write")
	}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	var err error
	if result.Variant == offer.VariantFlat {
		err = writeOffers(f, result.Records)
	} else {
		err = writeRoutes(f, result.Groups)
		if err == nil {
			err = writeSegments(f, result.Groups)
		}
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	return f, nil
}

// Write saves the workbook for result at path.
func Write(result *offer.Result, path string) error {
	f, err := Build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteTo writes the workbook for result to w.
func WriteTo(result *offer.Result, w io.Writer) error {
	f, err := Build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRoutes(f *excelize.File, groups []*offer.RouteGroup) error {
	rows := make([][]interface{}, 0, len(groups))
	for _, group := range groups {
		rows = append(rows, []interface{}{
			group.Key,
			group.Route,
			len(group.Segments),
			group.TotalBaseAmount,
			group.TotalAmount,
		})
	}
	return writeSheet(f, RoutesSheet, routeHeaders, rows)
}

func writeSegments(f *excelize.File, groups []*offer.RouteGroup) error {
	var rows [][]interface{}
	for _, group := range groups {
		for _, segment := range group.Segments {
			rows = append(rows, []interface{}{
				group.Key,
				segment.DepartureDateTime,
				segment.DepartureCode,
				segment.ArrivalDateTime,
				segment.ArrivalCode,
				segment.CabinTypeCode,
				segment.CabinTypeName,
				segment.FareBasisCode,
				segment.BaseAmount,
				segment.TotalAmount,
			})
		}
	}
	return writeSheet(f, SegmentsSheet, segmentHeaders, rows)
}

func writeOffers(f *excelize.File, records []offer.OfferRecord) error {
	rows := make([][]interface{}, 0, len(records))
	for _, record := range records {
		rows = append(rows, []interface{}{
			record.CabinTypeCode,
			record.CabinTypeName,
			record.FareBasisCode,
			record.BaseAmount,
			record.TotalAmount,
			record.BaggageAllowance,
			record.OfferDate,
			record.DepartureDate,
			record.ArrivalDate,
		})
	}
	return writeSheet(f, OffersSheet, offerHeaders, rows)
}

// writeSheet creates sheet with a bold header row followed by rows.
func writeSheet(f *excelize.File, sheet string, headers []interface{}, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	return nil
}

// =============================================================================
// READING
// =============================================================================

// ReadRoutes reads the Routes sheet of a workbook written by Write.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//
// RETURNS:
//   - One RouteRow per data row, in sheet order.
//   - An error if the file or sheet cannot be read, or a cell is not a number
//     where one is expected.
func ReadRoutes(path string) ([]RouteRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(RoutesSheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook has no %s sheet", RoutesSheet)
	}

	rows, err := f.GetRows(RoutesSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var routes []RouteRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		route, err := parseRouteRow(row)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
		}
		routes = append(routes, route)
	}

	return routes, nil
}

func parseRouteRow(row []string) (RouteRow, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	segments, err := strconv.Atoi(cell(2))
	if err != nil {
		return RouteRow{}, fmt.Errorf("invalid segment count %q", cell(2))
	}
	base, err := strconv.ParseFloat(cell(3), 64)
	if err != nil {
		return RouteRow{}, fmt.Errorf("invalid base amount %q", cell(3))
	}
	total, err := strconv.ParseFloat(cell(4), 64)
	if err != nil {
		return RouteRow{}, fmt.Errorf("invalid total amount %q", cell(4))
	}

	return RouteRow{
		Key:             cell(0),
		Route:           cell(1),
		Segments:        segments,
		TotalBaseAmount: base,
		TotalAmount:     total,
	}, nil
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
