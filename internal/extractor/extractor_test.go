package extractor

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/ginjaninja78/airshopping-offers/internal/xmltree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DOCUMENT BUILDERS
// =============================================================================

type testSegment struct {
	id, dep, depTime, arr, arrTime string
}

type testOffer struct {
	cabinCode, cabinName, fareBasis, base, total, ref string
}

func leaf(name, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("<%s>%s</%s>", name, value, name)
}

func buildDoc(ns string, segments []testSegment, offers []testOffer) string {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	if ns == "" {
		b.WriteString(`<IATA_AirShoppingRS><Response><DataLists><PaxSegmentList>`)
	} else {
		fmt.Fprintf(&b, `<IATA_AirShoppingRS xmlns="%s"><Response><DataLists><PaxSegmentList>`, ns)
	}

	for _, s := range segments {
		fmt.Fprintf(&b, "<PaxSegment>%s<Dep>%s%s</Dep><Arrival>%s%s</Arrival></PaxSegment>",
			leaf("PaxSegmentID", s.id),
			leaf("IATA_LocationCode", s.dep), leaf("AircraftScheduledDateTime", s.depTime),
			leaf("IATA_LocationCode", s.arr), leaf("AircraftScheduledDateTime", s.arrTime),
		)
	}

	b.WriteString(`</PaxSegmentList></DataLists><OffersGroup><CarrierOffers>`)

	for _, o := range offers {
		fmt.Fprintf(&b, "<Offer><OfferItem><FareDetail><FareComponent><CabinType>%s%s</CabinType>%s%s</FareComponent></FareDetail><Price>%s%s</Price></OfferItem></Offer>",
			leaf("CabinTypeCode", o.cabinCode), leaf("CabinTypeName", o.cabinName),
			leaf("FareBasisCode", o.fareBasis), leaf("PaxSegmentRefID", o.ref),
			leaf("BaseAmount", o.base), leaf("TotalAmount", o.total),
		)
	}

	b.WriteString(`</CarrierOffers></OffersGroup></Response></IATA_AirShoppingRS>`)

	return b.String()
}

var lhrJfk = testSegment{id: "SEG1", dep: "LHR", depTime: "2024-06-01T08:00:00", arr: "JFK", arrTime: "2024-06-01T11:05:00"}

func extract(t *testing.T, doc string) *offer.Result {
	t.Helper()
	result, err := ExtractText(doc, DefaultOptions())
	require.NoError(t, err)
	return result
}

// =============================================================================
// GROUPED VARIANT
// =============================================================================

func TestExtractSingleOffer(t *testing.T) {
	doc := buildDoc(AirShoppingNamespace, []testSegment{lhrJfk}, []testOffer{
		{cabinCode: "Y", cabinName: "ECONOMY", fareBasis: "YLOW", base: "100.50", total: "120.00", ref: "SEG1"},
	})

	result := extract(t, doc)

	require.Len(t, result.Groups, 1)
	g := result.Groups[0]
	assert.Equal(t, "LHR to JFK", g.Route)
	assert.Equal(t, "LHR-JFK", g.Key)
	assert.Equal(t, 100.50, g.TotalBaseAmount)
	assert.Equal(t, 120.00, g.TotalAmount)
	require.Len(t, g.Segments, 1)

	assert.Equal(t, offer.FlightSegment{
		DepartureDateTime: "2024-06-01T08:00:00",
		DepartureCode:     "LHR",
		ArrivalDateTime:   "2024-06-01T11:05:00",
		ArrivalCode:       "JFK",
		CabinTypeCode:     "Y",
		CabinTypeName:     "ECONOMY",
		FareBasisCode:     "YLOW",
		BaseAmount:        100.50,
		TotalAmount:       120.00,
	}, g.Segments[0])

	assert.Equal(t, offer.Stats{Offers: 1, PaxSegments: 1}, result.Stats)
}

func TestExtractSameRouteSums(t *testing.T) {
	doc := buildDoc(AirShoppingNamespace, []testSegment{lhrJfk}, []testOffer{
		{base: "100.50", total: "120.00", ref: "SEG1"},
		{base: "200.25", total: "230.75", ref: "SEG1"},
	})

	result := extract(t, doc)

	require.Len(t, result.Groups, 1)
	g := result.Groups[0]
	assert.Len(t, g.Segments, 2)
	assert.InDelta(t, 300.75, g.TotalBaseAmount, 1e-9)
	assert.InDelta(t, 350.75, g.TotalAmount, 1e-9)
}

func TestExtractOrderOfFirstAppearance(t *testing.T) {
	segments := []testSegment{
		lhrJfk,
		{id: "SEG2", dep: "CDG", arr: "FRA"},
		{id: "SEG3", dep: "JFK", arr: "LHR"},
	}
	doc := buildDoc(AirShoppingNamespace, segments, []testOffer{
		{base: "1", total: "1", ref: "SEG2"},
		{base: "2", total: "2", ref: "SEG1"},
		{base: "3", total: "3", ref: "SEG2"},
		{base: "4", total: "4", ref: "SEG3"},
	})

	result := extract(t, doc)

	keys := make([]string, len(result.Groups))
	for i, g := range result.Groups {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"CDG-FRA", "LHR-JFK", "JFK-LHR"}, keys)

	cdg := result.Group("CDG-FRA")
	require.NotNil(t, cdg)
	assert.Equal(t, 4.0, cdg.TotalBaseAmount)
	assert.Equal(t, 1.0, cdg.Segments[0].BaseAmount)
	assert.Equal(t, 3.0, cdg.Segments[1].BaseAmount)
}

// An offer whose reference matches no PaxSegment is dropped, not an error.
func TestExtractDropsUnresolvedSegmentReference(t *testing.T) {
	doc := buildDoc(AirShoppingNamespace, []testSegment{lhrJfk}, []testOffer{
		{base: "10", total: "12", ref: "SEG1"},
		{base: "5000", total: "5400", ref: "NOPE"},
		{base: "7000", total: "7400"},
	})

	result := extract(t, doc)

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Segments, 1)
	assert.Equal(t, 10.0, result.Groups[0].TotalBaseAmount)
	assert.Equal(t, 12.0, result.Groups[0].TotalAmount)
	assert.Equal(t, 3, result.Stats.Offers)
	assert.Equal(t, 2, result.Stats.Dropped)
}

func TestExtractOnlyUnresolvedOffers(t *testing.T) {
	doc := buildDoc(AirShoppingNamespace, nil, []testOffer{{base: "1", total: "1", ref: "SEG1"}})

	result := extract(t, doc)

	assert.Empty(t, result.Groups)
	assert.True(t, result.Empty())
	assert.Equal(t, 1, result.Stats.Dropped)
}

func TestExtractTextDefaults(t *testing.T) {
	doc := buildDoc(AirShoppingNamespace, []testSegment{lhrJfk}, []testOffer{
		{base: "1", total: "2", ref: "SEG1"},
	})

	result := extract(t, doc)

	require.Len(t, result.Groups, 1)
	s := result.Groups[0].Segments[0]
	assert.Equal(t, "N/A", s.CabinTypeCode)
	assert.Equal(t, "N/A", s.CabinTypeName)
	assert.Equal(t, "N/A", s.FareBasisCode)
}

func TestExtractAmountDefaults(t *testing.T) {
	doc := buildDoc(AirShoppingNamespace, []testSegment{lhrJfk}, []testOffer{
		{ref: "SEG1"},
		{base: "abc", total: "twelve", ref: "SEG1"},
		{base: "15EUR", total: "", ref: "SEG1"},
	})

	result := extract(t, doc)

	require.Len(t, result.Groups, 1)
	segs := result.Groups[0].Segments
	require.Len(t, segs, 3)
	assert.Equal(t, 0.0, segs[0].BaseAmount)
	assert.Equal(t, 0.0, segs[0].TotalAmount)
	assert.Equal(t, 0.0, segs[1].BaseAmount)
	assert.Equal(t, 0.0, segs[1].TotalAmount)
	assert.Equal(t, 15.0, segs[2].BaseAmount)
	assert.Equal(t, 15.0, result.Groups[0].TotalBaseAmount)
	assert.Equal(t, 0.0, result.Groups[0].TotalAmount)
}

func TestExtractMissingDepartureAndArrival(t *testing.T) {
	doc := buildDoc(AirShoppingNamespace, []testSegment{{id: "SEG1", arr: "JFK"}}, []testOffer{
		{base: "1", total: "1", ref: "SEG1"},
	})

	result := extract(t, doc)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, "N/A-JFK", result.Groups[0].Key)
	assert.Equal(t, "N/A to JFK", result.Groups[0].Route)
	s := result.Groups[0].Segments[0]
	assert.Equal(t, "N/A", s.DepartureDateTime)
	assert.Equal(t, "N/A", s.ArrivalDateTime)
}

func TestExtractSkipsIncompleteOffer(t *testing.T) {
	ns := AirShoppingNamespace
	doc := `<IATA_AirShoppingRS xmlns="` + ns + `">
  <PaxSegment><PaxSegmentID>SEG1</PaxSegmentID><Dep><IATA_LocationCode>LHR</IATA_LocationCode></Dep><Arrival><IATA_LocationCode>JFK</IATA_LocationCode></Arrival></PaxSegment>
  <Offer><OfferItem><Price><TotalAmount>10</TotalAmount></Price></OfferItem></Offer>
  <Offer><OfferItem><FareDetail><FareComponent><PaxSegmentRefID>SEG1</PaxSegmentRefID></FareComponent></FareDetail></OfferItem></Offer>
  <Offer><OfferID>NO-ITEM</OfferID></Offer>
  <Offer><OfferItem><FareDetail/><Price><TotalAmount>10</TotalAmount></Price></OfferItem></Offer>
  <Offer><OfferItem><FareDetail><FareComponent><PaxSegmentRefID>SEG1</PaxSegmentRefID></FareComponent></FareDetail><Price><TotalAmount>7</TotalAmount></Price></OfferItem></Offer>
</IATA_AirShoppingRS>`

	result := extract(t, doc)

	assert.Equal(t, 5, result.Stats.Offers)
	assert.Equal(t, 4, result.Stats.Incomplete)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 7.0, result.Groups[0].TotalAmount)
}

func TestExtractUsesFirstOfferItemOnly(t *testing.T) {
	ns := AirShoppingNamespace
	doc := `<IATA_AirShoppingRS xmlns="` + ns + `">
  <PaxSegment><PaxSegmentID>S1</PaxSegmentID><Dep><IATA_LocationCode>LHR</IATA_LocationCode></Dep><Arrival><IATA_LocationCode>JFK</IATA_LocationCode></Arrival></PaxSegment>
  <PaxSegment><PaxSegmentID>S2</PaxSegmentID><Dep><IATA_LocationCode>JFK</IATA_LocationCode></Dep><Arrival><IATA_LocationCode>LHR</IATA_LocationCode></Arrival></PaxSegment>
  <Offer>
    <OfferItem><FareDetail><FareComponent><PaxSegmentRefID>S1</PaxSegmentRefID></FareComponent></FareDetail><Price><BaseAmount>10</BaseAmount><TotalAmount>11</TotalAmount></Price></OfferItem>
    <OfferItem><FareDetail><FareComponent><PaxSegmentRefID>S2</PaxSegmentRefID></FareComponent></FareDetail><Price><BaseAmount>20</BaseAmount><TotalAmount>22</TotalAmount></Price></OfferItem>
  </Offer>
</IATA_AirShoppingRS>`

	result := extract(t, doc)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, "LHR-JFK", result.Groups[0].Key)
	assert.Equal(t, 10.0, result.Groups[0].TotalBaseAmount)
}

func TestExtractIgnoresOtherNamespaces(t *testing.T) {
	ns := AirShoppingNamespace
	doc := `<IATA_AirShoppingRS xmlns="` + ns + `" xmlns:x="urn:not-iata">
  <PaxSegment><PaxSegmentID>S1</PaxSegmentID><Dep><IATA_LocationCode>LHR</IATA_LocationCode></Dep><Arrival><IATA_LocationCode>JFK</IATA_LocationCode></Arrival></PaxSegment>
  <x:Offer>
    <OfferItem><FareDetail><FareComponent><PaxSegmentRefID>S1</PaxSegmentRefID></FareComponent></FareDetail><Price><TotalAmount>99</TotalAmount></Price></OfferItem>
  </x:Offer>
  <Offer>
    <OfferItem><FareDetail><FareComponent><PaxSegmentRefID>S1</PaxSegmentRefID></FareComponent></FareDetail><Price><TotalAmount>1</TotalAmount></Price></OfferItem>
  </Offer>
</IATA_AirShoppingRS>`

	result := extract(t, doc)

	// The foreign Offer is not an offer, but its OfferItem is still in the
	// IATA namespace and belongs to no matched Offer.
	assert.Equal(t, 1, result.Stats.Offers)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 1.0, result.Groups[0].TotalAmount)
}

func TestExtractUnqualifiedDocumentHasNoGroupedOffers(t *testing.T) {
	doc := buildDoc("", []testSegment{lhrJfk}, []testOffer{{base: "1", total: "1", ref: "SEG1"}})

	result := extract(t, doc)

	assert.Empty(t, result.Groups)
	assert.Zero(t, result.Stats.Offers)
}

func TestExtractCustomNamespace(t *testing.T) {
	doc := buildDoc("urn:custom", []testSegment{lhrJfk}, []testOffer{{base: "1", total: "1", ref: "SEG1"}})

	result, err := ExtractText(doc, Options{Namespace: "urn:custom"})
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
}

func TestExtractDuplicateSegmentIDLastWins(t *testing.T) {
	doc := buildDoc(AirShoppingNamespace, []testSegment{
		lhrJfk,
		{id: "SEG1", dep: "MAD", arr: "BCN"},
	}, []testOffer{{base: "1", total: "1", ref: "SEG1"}})

	result := extract(t, doc)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, "MAD-BCN", result.Groups[0].Key)
	assert.Equal(t, 1, result.Stats.PaxSegments)
}

func TestExtractMalformedXML(t *testing.T) {
	ns := `xmlns="` + AirShoppingNamespace + `"`
	twoRoots := `<a ` + ns + `><PaxSegment><PaxSegmentID>S1</PaxSegmentID></PaxSegment></a><b ` + ns + `><Offer/></b>`

	for name, doc := range map[string]string{
		"empty":             "",
		"truncated":         `<IATA_AirShoppingRS ` + ns + `><Offer>`,
		"mismatched":        "<a></b>",
		"not xml":           "this is not xml",
		"two roots":         twoRoots,
		"text outside root": `garbage <IATA_AirShoppingRS ` + ns + `/>`,
	} {
		t.Run(name, func(t *testing.T) {
			result, err := ExtractText(doc, DefaultOptions())
			assert.ErrorIs(t, err, offer.ErrMalformedXML)
			assert.Nil(t, result)
		})
	}
}

func TestExtractNilRoot(t *testing.T) {
	_, err := Extract(nil, DefaultOptions())
	assert.ErrorIs(t, err, offer.ErrMalformedXML)
}

func TestExtractUnknownVariant(t *testing.T) {
	_, err := Extract(xmltree.Elem("", "root", ""), Options{Variant: "sideways"})
	assert.Error(t, err)
}

// Groups equal the distinct resolved routes, and every group's totals equal
// the sums of its segments.
func TestExtractGroupingProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	airports := []string{"LHR", "JFK", "CDG", "FRA", "MAD"}

	for round := 0; round < 25; round++ {
		var segments []testSegment
		for i := 0; i < 6; i++ {
			segments = append(segments, testSegment{
				id:  fmt.Sprintf("S%d", i),
				dep: airports[rng.Intn(len(airports))],
				arr: airports[rng.Intn(len(airports))],
			})
		}

		var offers []testOffer
		pairs := map[string]bool{}
		for i := 0; i < 20; i++ {
			ref := fmt.Sprintf("S%d", rng.Intn(8)) // S6, S7 never resolve
			if n := refIndex(ref); n < len(segments) {
				pairs[segments[n].dep+"-"+segments[n].arr] = true
			}
			offers = append(offers, testOffer{
				base:  fmt.Sprintf("%.2f", rng.Float64()*1000),
				total: fmt.Sprintf("%.2f", rng.Float64()*1000),
				ref:   ref,
			})
		}

		result := extract(t, buildDoc(AirShoppingNamespace, segments, offers))

		assert.Len(t, result.Groups, len(pairs))
		for _, g := range result.Groups {
			assert.True(t, pairs[g.Key], g.Key)
			assert.NoError(t, g.Verify())

			var base, total float64
			for _, s := range g.Segments {
				base += s.BaseAmount
				total += s.TotalAmount
			}
			assert.InDelta(t, base, g.TotalBaseAmount, 1e-6)
			assert.InDelta(t, total, g.TotalAmount, 1e-6)
		}
		assert.Equal(t, len(offers), result.SegmentCount()+result.Stats.Dropped)
	}
}

func refIndex(ref string) int {
	var n int
	fmt.Sscanf(ref, "S%d", &n)
	return n
}

// =============================================================================
// FIXTURE
// =============================================================================

func readFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "airshopping.xml"))
	require.NoError(t, err)
	return string(data)
}

func TestExtractFixtureGrouped(t *testing.T) {
	result := extract(t, readFixture(t))

	assert.Equal(t, 4, result.Stats.Offers)
	assert.Equal(t, 1, result.Stats.Dropped)
	assert.Equal(t, 2, result.Stats.PaxSegments)

	require.Len(t, result.Groups, 2)

	out := result.Groups[0]
	assert.Equal(t, "LHR to JFK", out.Route)
	require.Len(t, out.Segments, 2)
	assert.Equal(t, "ECONOMY", out.Segments[0].CabinTypeName)
	assert.Equal(t, "BUSINESS", out.Segments[1].CabinTypeName)
	assert.InDelta(t, 1000.49, out.TotalBaseAmount, 1e-9)
	assert.InDelta(t, 1130.25, out.TotalAmount, 1e-9)

	back := result.Groups[1]
	assert.Equal(t, "JFK to LHR", back.Route)
	require.Len(t, back.Segments, 1)
	assert.Equal(t, "N/A", back.Segments[0].CabinTypeCode)
	assert.Equal(t, "YRTN", back.Segments[0].FareBasisCode)
	assert.Equal(t, "2024-06-09T06:40:00", back.Segments[0].ArrivalDateTime)
}

// =============================================================================
// FLAT VARIANT
// =============================================================================

func TestExtractFixtureFlat(t *testing.T) {
	result, err := ExtractText(readFixture(t), Options{Variant: offer.VariantFlat})
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	require.Len(t, result.Records, 4)

	assert.Equal(t, offer.OfferRecord{
		CabinTypeCode:    "Y",
		CabinTypeName:    "ECONOMY",
		FareBasisCode:    "YLOWGB",
		BaseAmount:       "100.50",
		TotalAmount:      "120.00",
		BaggageAllowance: "2",
		OfferDate:        "2024-05-20T12:00:00",
		DepartureDate:    "2024-06-01T08:00:00",
		ArrivalDate:      "2024-06-01T11:05:00",
	}, result.Records[0])

	assert.Equal(t, "N/A", result.Records[1].BaggageAllowance)
	assert.Equal(t, "N/A", result.Records[1].OfferDate)

	// Unresolved references keep the record, without dates.
	last := result.Records[3]
	assert.Equal(t, "5000", last.BaseAmount)
	assert.Equal(t, "N/A", last.DepartureDate)
	assert.Equal(t, "N/A", last.ArrivalDate)
}

func TestExtractFlatIgnoresNamespaces(t *testing.T) {
	doc := buildDoc("", []testSegment{lhrJfk}, []testOffer{{cabinCode: "Y", base: "abc", ref: "SEG1"}})

	result, err := ExtractText(doc, Options{Variant: offer.VariantFlat})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	r := result.Records[0]
	assert.Equal(t, "Y", r.CabinTypeCode)
	assert.Equal(t, "N/A", r.CabinTypeName)
	assert.Equal(t, "abc", r.BaseAmount)
	assert.Equal(t, "0", r.TotalAmount)
	assert.Equal(t, "2024-06-01T08:00:00", r.DepartureDate)
}

func TestExtractFlatEmbeddedBaggage(t *testing.T) {
	doc := `<Root><Offer><BaggageAllowance>
    1 x 23kg
  </BaggageAllowance><OfferItem><FareDetail><FareComponent/></FareDetail><Price/></OfferItem></Offer></Root>`

	result, err := ExtractText(doc, Options{Variant: offer.VariantFlat})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "1 x 23kg", result.Records[0].BaggageAllowance)
}
