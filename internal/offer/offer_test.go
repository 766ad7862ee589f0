package offer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"100.50", 100.50},
		{" 120.00 ", 120},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"100.50EUR", 100.50},
		{"-3.5", -3.5},
		{".5", 0.5},
		{"1e2", 100},
		{"NaN", 0},
		{"Inf", 0},
		{"+Infinity", 0},
		{"0x1p4", 0},
		{"0X10", 0},
		{"1_000", 1},
		{"1e400", 0},
		{"7e", 7},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in))
		})
	}
}

func TestValueOr(t *testing.T) {
	assert.Equal(t, NotAvailable, ValueOr(FieldCabinTypeCode, ""))
	assert.Equal(t, "Y", ValueOr(FieldCabinTypeCode, "Y"))
	assert.Equal(t, "0", ValueOr(FieldTotalAmount, ""))
	assert.Equal(t, "", ValueOr(FieldPaxSegmentRefID, ""))
}

func TestRouteGroupAdd(t *testing.T) {
	g := NewRouteGroup("LHR", "JFK")
	assert.Equal(t, "LHR-JFK", g.Key)
	assert.Equal(t, "LHR to JFK", g.Route)

	require.NoError(t, g.Add(FlightSegment{DepartureCode: "LHR", ArrivalCode: "JFK", BaseAmount: 100.5, TotalAmount: 120}))
	require.NoError(t, g.Add(FlightSegment{DepartureCode: "LHR", ArrivalCode: "JFK", BaseAmount: 0.1, TotalAmount: 0.2}))

	assert.Len(t, g.Segments, 2)
	assert.InDelta(t, 100.6, g.TotalBaseAmount, 1e-9)
	assert.InDelta(t, 120.2, g.TotalAmount, 1e-9)
	assert.NoError(t, g.Verify())
}

func TestRouteGroupAddRejectsOtherRoute(t *testing.T) {
	g := NewRouteGroup("LHR", "JFK")
	err := g.Add(FlightSegment{DepartureCode: "JFK", ArrivalCode: "LHR"})
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Empty(t, g.Segments)
}

func TestRouteGroupVerifyDetectsDrift(t *testing.T) {
	g := NewRouteGroup("CDG", "FRA")
	require.NoError(t, g.Add(FlightSegment{DepartureCode: "CDG", ArrivalCode: "FRA", BaseAmount: 10, TotalAmount: 12}))

	g.TotalAmount = 13
	assert.ErrorIs(t, g.Verify(), ErrInvariant)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "InvalidFileType", Kind(fmt.Errorf("x: %w", ErrInvalidFileType)))
	assert.Equal(t, "ReadFailure", Kind(fmt.Errorf("x: %w", ErrReadFailure)))
	assert.Equal(t, "MalformedXml", Kind(ErrMalformedXML))
	assert.Equal(t, "", Kind(errors.New("other")))
	assert.Equal(t, "", Kind(nil))
}

func TestResultHelpers(t *testing.T) {
	var nilResult *Result
	assert.True(t, nilResult.Empty())

	g := NewRouteGroup("LHR", "JFK")
	require.NoError(t, g.Add(FlightSegment{DepartureCode: "LHR", ArrivalCode: "JFK"}))
	r := &Result{Groups: []*RouteGroup{g}}

	assert.False(t, r.Empty())
	assert.Equal(t, 1, r.SegmentCount())
	assert.Same(t, g, r.Group("LHR-JFK"))
	assert.Nil(t, r.Group("JFK-LHR"))
}
