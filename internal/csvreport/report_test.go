package csvreport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/airshopping-offers/internal/extractor"
	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, variant offer.Variant) *offer.Result {
	t.Helper()

	text, err := os.ReadFile(filepath.Join("..", "extractor", "testdata", "airshopping.xml"))
	require.NoError(t, err)

	options := extractor.DefaultOptions()
	options.Variant = variant
	result, err := extractor.ExtractText(string(text), options)
	require.NoError(t, err)
	return result
}

func TestWriteFileAndReadBack(t *testing.T) {
	result := fixture(t, offer.VariantGrouped)
	path := filepath.Join(t.TempDir(), "report.csv")

	require.NoError(t, WriteFile(result, path, ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "route_key,route,segment,"))

	rows, err := ReadSegmentsFile(path, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"LHR-JFK", "LHR-JFK", "JFK-LHR"},
		lo.Map(rows, func(r *SegmentRow, _ int) string { return r.RouteKey }))
	assert.Equal(t, []int{1, 2, 1},
		lo.Map(rows, func(r *SegmentRow, _ int) int { return r.Segment }))

	assert.Equal(t, "LHR to JFK", rows[0].Route)
	assert.InDelta(t, 100.5, rows[0].BaseAmount, 1e-9)
	assert.InDelta(t, 1010.25, rows[1].TotalAmount, 1e-9)
	assert.Equal(t, "YRTN", rows[2].FareBasis)
	assert.Equal(t, offer.NotAvailable, rows[2].CabinCode)
}

func TestWriteFlatRecords(t *testing.T) {
	result := fixture(t, offer.VariantFlat)

	var buf bytes.Buffer
	require.NoError(t, Write(result, &buf, "tab"))
	assert.True(t, strings.HasPrefix(buf.String(), "offer\tcabin_code\t"))

	rows, err := ReadOffers(&buf, "\t")
	require.NoError(t, err)
	require.Len(t, rows, len(result.Records))
	assert.Equal(t, 1, rows[0].Offer)
	assert.Equal(t, result.Records[0].BaseAmount, rows[0].BaseAmount)
}

func TestSegmentRowsRestartPerRoute(t *testing.T) {
	first := offer.NewRouteGroup("LHR", "JFK")
	require.NoError(t, first.Add(offer.FlightSegment{DepartureCode: "LHR", ArrivalCode: "JFK"}))
	second := offer.NewRouteGroup("JFK", "LHR")
	require.NoError(t, second.Add(offer.FlightSegment{DepartureCode: "JFK", ArrivalCode: "LHR"}))

	rows := SegmentRows([]*offer.RouteGroup{first, second})
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[1].Segment)
	assert.Equal(t, "JFK-LHR", rows[1].RouteKey)
}

func TestDelimiters(t *testing.T) {
	tests := map[string]rune{
		"":          ',',
		",":         ',',
		"tab":       '\t',
		"\\t":       '\t',
		"pipe":      '|',
		"|":         '|',
		"semicolon": ';',
	}
	for name, want := range tests {
		got, err := Delimiter(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := Delimiter("::")
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	assert.Error(t, Write(nil, &bytes.Buffer{}, ""))
	assert.Error(t, Write(&offer.Result{}, &bytes.Buffer{}, "::"))

	_, err := ReadSegments(strings.NewReader("route_key,segment\nLHR-JFK,first\n"), "")
	assert.ErrorContains(t, err, "failed to read report")

	_, err = ReadSegmentsFile(filepath.Join(t.TempDir(), "missing.csv"), "")
	assert.Error(t, err)
}
