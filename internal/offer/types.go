// =============================================================================
// AirShopping Offer Extractor - Shared Types
// =============================================================================
//
// This package contains the domain types shared by the extractor, the
// session, the validation module and the report writers. Keeping them here
// avoids import cycles between those packages.
//
//   FlightSegment  - one matched offer-item / PaxSegment pair
//   RouteGroup     - all segments sharing a departure/arrival pair
//   OfferRecord    - one ungrouped offer (flat variant)
//   Result         - everything one extraction produced
//
// =============================================================================

package offer

import (
	"fmt"
	"math"
)

// Variant selects which extraction shape is produced.
type Variant string

const (
	// VariantGrouped groups namespace-qualified offers by route.
	VariantGrouped Variant = "grouped"

	// VariantFlat lists every offer individually with raw string fields.
	VariantFlat Variant = "flat"
)

// =============================================================================
// FLIGHT SEGMENT
// =============================================================================

// FlightSegment is one priced flight leg. It is built once per resolved offer
// and never modified afterwards.
type FlightSegment struct {
	// DepartureDateTime is the scheduled departure, kept as the document wrote it.
	DepartureDateTime string

	// DepartureCode is the IATA location code of the origin.
	DepartureCode string

	// ArrivalDateTime is the scheduled arrival, kept as the document wrote it.
	ArrivalDateTime string

	// ArrivalCode is the IATA location code of the destination.
	ArrivalCode string

	CabinTypeCode string
	CabinTypeName string
	FareBasisCode string

	// BaseAmount and TotalAmount are never rounded here; rounding is a
	// display concern.
	BaseAmount  float64
	TotalAmount float64
}

// RouteKey returns the grouping key for the segment.
func (s FlightSegment) RouteKey() string {
	return RouteKey(s.DepartureCode, s.ArrivalCode)
}

// RouteKey builds the "{dep}-{arr}" key used to group segments.
func RouteKey(departureCode, arrivalCode string) string {
	return departureCode + "-" + arrivalCode
}

// RouteLabel builds the "{dep} to {arr}" label shown for a route.
func RouteLabel(departureCode, arrivalCode string) string {
	return departureCode + " to " + arrivalCode
}

// =============================================================================
// ROUTE GROUP
// =============================================================================

// RouteGroup aggregates every segment sharing the same origin and
// destination. TotalBaseAmount and TotalAmount always equal the sums of the
// segments' amounts.
type RouteGroup struct {
	// Key is "{dep}-{arr}".
	Key string

	// Route is the display label "{dep} to {arr}".
	Route string

	// Segments are kept in document order.
	Segments []FlightSegment

	TotalBaseAmount float64
	TotalAmount     float64
}

// NewRouteGroup creates an empty group for the given route.
func NewRouteGroup(departureCode, arrivalCode string) *RouteGroup {
	return &RouteGroup{
		Key:   RouteKey(departureCode, arrivalCode),
		Route: RouteLabel(departureCode, arrivalCode),
	}
}

// Add appends a segment and updates the running sums, then re-checks the
// sum invariant.
func (g *RouteGroup) Add(segment FlightSegment) error {
	if key := segment.RouteKey(); key != g.Key {
		return fmt.Errorf("%w: segment %s added to route %s", ErrInvariant, key, g.Key)
	}

	g.Segments = append(g.Segments, segment)
	g.TotalBaseAmount += segment.BaseAmount
	g.TotalAmount += segment.TotalAmount

	return g.Verify()
}

// Verify recomputes both sums from the segments and compares them with the
// running totals.
func (g *RouteGroup) Verify() error {
	var base, total float64
	for _, segment := range g.Segments {
		base += segment.BaseAmount
		total += segment.TotalAmount
	}

	if !AmountsEqual(base, g.TotalBaseAmount) {
		return fmt.Errorf("%w: route %s base total %v, segments sum to %v", ErrInvariant, g.Key, g.TotalBaseAmount, base)
	}
	if !AmountsEqual(total, g.TotalAmount) {
		return fmt.Errorf("%w: route %s total %v, segments sum to %v", ErrInvariant, g.Key, g.TotalAmount, total)
	}

	return nil
}

// amountTolerance is relative; summing the same values in a different order
// may differ in the last bits.
const amountTolerance = 1e-9

// AmountsEqual compares two amounts within a small relative tolerance.
func AmountsEqual(a, b float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= amountTolerance*scale
}

// =============================================================================
// FLAT OFFER RECORD
// =============================================================================

// OfferRecord is one offer of the flat variant. Every field is the raw text
// found in the document (or its default); nothing is parsed or grouped.
type OfferRecord struct {
	CabinTypeCode    string
	CabinTypeName    string
	FareBasisCode    string
	BaseAmount       string
	TotalAmount      string
	BaggageAllowance string
	OfferDate        string
	DepartureDate    string
	ArrivalDate      string
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one extraction. It is owned by the caller and is
// replaced, never merged, when another document is extracted.
type Result struct {
	// Source is the name of the file the document came from, if known.
	Source string

	// Variant tells which of Groups or Records is populated.
	Variant Variant

	// Groups holds the route groups in order of first appearance.
	Groups []*RouteGroup

	// Records holds the flat offer records in document order.
	Records []OfferRecord

	// Stats describes what the extractor saw.
	Stats Stats
}

// Stats counts what happened during one extraction.
type Stats struct {
	// Offers is the number of Offer elements found.
	Offers int

	// Incomplete counts offers skipped because an OfferItem, FareDetail,
	// FareComponent or Price was missing.
	Incomplete int

	// Dropped counts offers whose segment reference matched no PaxSegment.
	Dropped int

	// PaxSegments is the number of PaxSegment elements indexed.
	PaxSegments int
}

// SegmentCount returns the number of segments across all groups.
func (r *Result) SegmentCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Segments)
	}
	return n
}

// Empty reports whether there is nothing to display.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Groups) == 0 && len(r.Records) == 0)
}

// Group returns the group with the given key, or nil.
func (r *Result) Group(key string) *RouteGroup {
	for _, g := range r.Groups {
		if g.Key == key {
			return g
		}
	}
	return nil
}
