// =============================================================================
// AirShopping Offer Extractor - XML Summary Writer
// =============================================================================
//
// This module writes an extracted result set as a summary XML document. The
// document is built with beevik/etree and indented on output.
//
// XML STRUCTURE:
//   Grouped results:
//
//   <offerSummary source="offers.xml" variant="grouped">
//     <route n="1" key="LHR-JFK">             <!-- Route with index -->
//       <label>LHR to JFK</label>
//       <totalBaseAmount>1000.49</totalBaseAmount>
//       <totalAmount>1130.25</totalAmount>
//       <segment n="1">                       <!-- Segment with global index -->
//         <departure code="LHR">2024-06-01T08:00:00</departure>
//         <arrival code="JFK">2024-06-01T11:05:00</arrival>
//         <cabinTypeCode>Y</cabinTypeCode>
//         ...
//       </segment>
//     </route>
//     <route n="2" key="JFK-LHR">
//       <segment n="3">...</segment>          <!-- Note: global numbering continues -->
//     </route>
//   </offerSummary>
//
//   Flat results list <offer n="..."> elements with the raw field text.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/samber/lo"
)

// indexAttribute carries route, segment and offer numbers.
const indexAttribute = "n"

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the number of spaces used for indentation.
	// Default: 2
	Indent int

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootElement is the name of the document element.
	// Default: "offerSummary"
	RootElement string

	// RootAttributes are additional attributes for the root element.
	RootAttributes map[string]string

	// SegmentNumberingGlobal numbers segments 1, 2, 3... across all routes.
	// If false, numbering restarts at 1 for each route.
	// Default: true
	SegmentNumberingGlobal bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                 2,
		IncludeXMLDeclaration:  true,
		RootElement:            "offerSummary",
		RootAttributes:         make(map[string]string),
		SegmentNumberingGlobal: true,
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates a summary XML document for result with default options.
func Generate(result *offer.Result) ([]byte, error) {
	return GenerateWithOptions(result, DefaultGenerateOptions())
}

// GenerateWithOptions creates a summary XML document with custom options.
//
// PARAMETERS:
//   - result: The extracted result set.
//   - options: The generation options.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if the result is nil or writing fails.
func GenerateWithOptions(result *offer.Result, options GenerateOptions) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to write")
	}

	doc := BuildDocument(result, options)

	var buffer bytes.Buffer
	if _, err := doc.WriteTo(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write XML: %w", err)
	}

	return buffer.Bytes(), nil
}

// BuildDocument constructs the etree document for result.
func BuildDocument(result *offer.Result, options GenerateOptions) *etree.Document {
	if options.RootElement == "" {
		options.RootElement = "offerSummary"
	}

	doc := etree.NewDocument()
	if options.IncludeXMLDeclaration {
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}

	root := doc.CreateElement(options.RootElement)
	if result.Source != "" {
		root.CreateAttr("source", result.Source)
	}
	root.CreateAttr("variant", string(result.Variant))
	keys := lo.Keys(options.RootAttributes)
	sort.Strings(keys)
	for _, key := range keys {
		root.CreateAttr(key, options.RootAttributes[key])
	}

	stats := root.CreateElement("stats")
	stats.CreateAttr("offers", strconv.Itoa(result.Stats.Offers))
	stats.CreateAttr("incomplete", strconv.Itoa(result.Stats.Incomplete))
	stats.CreateAttr("dropped", strconv.Itoa(result.Stats.Dropped))
	stats.CreateAttr("paxSegments", strconv.Itoa(result.Stats.PaxSegments))

	if result.Variant == offer.VariantFlat {
		for i, record := range result.Records {
			buildRecordElement(root, record, i+1)
		}
	} else {
		segmentIndex := 1
		for i, group := range result.Groups {
			buildRouteElement(root, group, i+1, &segmentIndex, options)
		}
	}

	if options.Indent > 0 {
		doc.Indent(options.Indent)
	}
	return doc
}

// =============================================================================
// ELEMENT BUILDING
// =============================================================================

// buildRouteElement appends a route element with its segments.
//
// STRUCTURE:
//   <route n="1" key="LHR-JFK">
//     <label>LHR to JFK</label>
//     <totalBaseAmount>...</totalBaseAmount>
//     <totalAmount>...</totalAmount>
//     <segment n="1">...</segment>
//   </route>
func buildRouteElement(parent *etree.Element, group *offer.RouteGroup, index int, segmentIndex *int, options GenerateOptions) {
	route := parent.CreateElement("route")
	route.CreateAttr(indexAttribute, strconv.Itoa(index))
	route.CreateAttr("key", group.Key)

	createSimpleElement(route, "label", group.Route)
	createSimpleElement(route, "totalBaseAmount", formatAmount(group.TotalBaseAmount))
	createSimpleElement(route, "totalAmount", formatAmount(group.TotalAmount))

	for i, segment := range group.Segments {
		n := i + 1
		if options.SegmentNumberingGlobal {
			n = *segmentIndex
			(*segmentIndex)++
		}
		buildSegmentElement(route, segment, n)
	}
}

func buildSegmentElement(parent *etree.Element, segment offer.FlightSegment, index int) {
	element := parent.CreateElement("segment")
	element.CreateAttr(indexAttribute, strconv.Itoa(index))

	departure := createSimpleElement(element, "departure", segment.DepartureDateTime)
	departure.CreateAttr("code", segment.DepartureCode)
	arrival := createSimpleElement(element, "arrival", segment.ArrivalDateTime)
	arrival.CreateAttr("code", segment.ArrivalCode)

	createSimpleElement(element, "cabinTypeCode", segment.CabinTypeCode)
	createSimpleElement(element, "cabinTypeName", segment.CabinTypeName)
	createSimpleElement(element, "fareBasisCode", segment.FareBasisCode)
	createSimpleElement(element, "baseAmount", formatAmount(segment.BaseAmount))
	createSimpleElement(element, "totalAmount", formatAmount(segment.TotalAmount))
}

func buildRecordElement(parent *etree.Element, record offer.OfferRecord, index int) {
	element := parent.CreateElement("offer")
	element.CreateAttr(indexAttribute, strconv.Itoa(index))

	createSimpleElement(element, "cabinTypeCode", record.CabinTypeCode)
	createSimpleElement(element, "cabinTypeName", record.CabinTypeName)
	createSimpleElement(element, "fareBasisCode", record.FareBasisCode)
	createSimpleElement(element, "baseAmount", record.BaseAmount)
	createSimpleElement(element, "totalAmount", record.TotalAmount)
	createSimpleElement(element, "baggageAllowance", record.BaggageAllowance)
	createSimpleElement(element, "offerDate", record.OfferDate)
	createSimpleElement(element, "departureDate", record.DepartureDate)
	createSimpleElement(element, "arrivalDate", record.ArrivalDate)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a child element with a text value.
func createSimpleElement(parent *etree.Element, name, value string) *etree.Element {
	element := parent.CreateElement(name)
	element.SetText(value)
	return element
}

// formatAmount writes the shortest representation that round-trips.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
