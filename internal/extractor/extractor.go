// =============================================================================
// AirShopping Offer Extractor - Offer Extraction
// =============================================================================
//
// This module walks a parsed AirShoppingRS document once and turns its
// offers into route groups (or, in the flat variant, into one record per
// offer).
//
// EXTRACTION PIPELINE (grouped variant):
//   1. Index every PaxSegment of the document by its PaxSegmentID
//   2. For each Offer, in document order:
//      a. Descend to the first OfferItem, its FareDetail and FareComponent,
//         and the item's Price; an offer missing any of them is skipped
//      b. Read cabin, fare basis and amounts, with declared defaults
//      c. Resolve the FareComponent's PaxSegmentRefID against the index;
//         an unresolved offer is dropped without error
//      d. Read departure and arrival from the segment
//      e. Append the segment to the group of its route, creating the group
//         on first sight
//   3. Return the groups in order of first appearance
//
// NAMESPACES:
//   The grouped variant only matches elements in the configured namespace.
//   The flat variant matches by local name only.
//
// =============================================================================

package extractor

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/airshopping-offers/internal/offer"
	"github.com/ginjaninja78/airshopping-offers/internal/xmltree"
	"go.uber.org/zap"
)

// AirShoppingNamespace is the namespace of IATA 19.2 AirShoppingRS documents.
const AirShoppingNamespace = "http://www.iata.org/IATA/2015/00/2019.2/IATA_AirShoppingRS"

// Element names used while walking an offer.
const (
	elemOffer           = "Offer"
	elemOfferItem       = "OfferItem"
	elemFareDetail      = "FareDetail"
	elemFareComponent   = "FareComponent"
	elemPrice           = "Price"
	elemPaxSegment      = "PaxSegment"
	elemDeparture       = "Dep"
	elemArrival         = "Arrival"
	elemBaggageRefID    = "BaggageAllowanceRefID"
	elemBaggageID       = "BaggageAllowanceID"
	elemBaggageTotalQty = "TotalQty"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls an extraction.
type Options struct {
	// Namespace is the namespace URI offers are matched in (grouped variant).
	// Default: AirShoppingNamespace
	Namespace string

	// Variant selects grouped or flat output.
	// Default: offer.VariantGrouped
	Variant offer.Variant

	// Logger receives debug output about skipped and dropped offers.
	// A nil logger discards it.
	Logger *zap.Logger
}

// DefaultOptions returns the options for IATA 19.2 grouped extraction.
func DefaultOptions() Options {
	return Options{
		Namespace: AirShoppingNamespace,
		Variant:   offer.VariantGrouped,
	}
}

func (o Options) withDefaults() Options {
	if o.Namespace == "" {
		o.Namespace = AirShoppingNamespace
	}
	if o.Variant == "" {
		o.Variant = offer.VariantGrouped
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// ExtractText parses text and extracts its offers. A parse failure is
// reported as offer.ErrMalformedXML and no partial result is returned.
func ExtractText(text string, opts Options) (*offer.Result, error) {
	root, err := xmltree.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", offer.ErrMalformedXML, err)
	}
	return Extract(root, opts)
}

// Extract walks an already parsed tree.
func Extract(root xmltree.Node, opts Options) (*offer.Result, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: %w", offer.ErrMalformedXML, xmltree.ErrNoRoot)
	}

	opts = opts.withDefaults()

	switch opts.Variant {
	case offer.VariantGrouped:
		return extractGrouped(root, xmltree.NS(opts.Namespace, ""), opts.Logger)
	case offer.VariantFlat:
		return extractFlat(root, xmltree.Local(""), opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown extraction variant %q", opts.Variant)
	}
}

// =============================================================================
// GROUPED VARIANT
// =============================================================================

func extractGrouped(root xmltree.Node, name xmltree.Name, log *zap.Logger) (*offer.Result, error) {
	result := &offer.Result{Variant: offer.VariantGrouped}

	segments := indexSegments(root, name)
	result.Stats.PaxSegments = len(segments)

	groups := make(map[string]*offer.RouteGroup)

	for i, offerNode := range xmltree.Descendants(root, name.In(elemOffer)) {
		result.Stats.Offers++

		fare, ok := locateFare(offerNode, name)
		if !ok {
			result.Stats.Incomplete++
			log.Debug("skipping incomplete offer", zap.Int("offer", i+1))
			continue
		}

		ref, _ := xmltree.TextOf(fare.component, name.In(string(offer.FieldPaxSegmentRefID)))
		paxSegment, ok := segments[ref]
		if ref == "" || !ok {
			result.Stats.Dropped++
			log.Debug("dropping offer with unresolved segment reference",
				zap.Int("offer", i+1),
				zap.String("ref", ref),
			)
			continue
		}

		departure := xmltree.First(paxSegment, name.In(elemDeparture))
		arrival := xmltree.First(paxSegment, name.In(elemArrival))

		segment := offer.FlightSegment{
			DepartureDateTime: field(departure, name, offer.FieldScheduledDateTime),
			DepartureCode:     field(departure, name, offer.FieldLocationCode),
			ArrivalDateTime:   field(arrival, name, offer.FieldScheduledDateTime),
			ArrivalCode:       field(arrival, name, offer.FieldLocationCode),
			CabinTypeCode:     field(fare.component, name, offer.FieldCabinTypeCode),
			CabinTypeName:     field(fare.component, name, offer.FieldCabinTypeName),
			FareBasisCode:     field(fare.component, name, offer.FieldFareBasisCode),
			BaseAmount:        offer.ParseAmount(field(fare.price, name, offer.FieldBaseAmount)),
			TotalAmount:       offer.ParseAmount(field(fare.price, name, offer.FieldTotalAmount)),
		}

		key := segment.RouteKey()
		group, exists := groups[key]
		if !exists {
			group = offer.NewRouteGroup(segment.DepartureCode, segment.ArrivalCode)
			groups[key] = group
			result.Groups = append(result.Groups, group)
		}

		if err := group.Add(segment); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// =============================================================================
// FLAT VARIANT
// =============================================================================

func extractFlat(root xmltree.Node, name xmltree.Name, log *zap.Logger) *offer.Result {
	result := &offer.Result{Variant: offer.VariantFlat}

	segments := indexSegments(root, name)
	result.Stats.PaxSegments = len(segments)

	for i, offerNode := range xmltree.Descendants(root, name.In(elemOffer)) {
		result.Stats.Offers++

		fare, ok := locateFare(offerNode, name)
		if !ok {
			result.Stats.Incomplete++
			log.Debug("skipping incomplete offer", zap.Int("offer", i+1))
			continue
		}

		record := offer.OfferRecord{
			CabinTypeCode:    field(fare.component, name, offer.FieldCabinTypeCode),
			CabinTypeName:    field(fare.component, name, offer.FieldCabinTypeName),
			FareBasisCode:    field(fare.component, name, offer.FieldFareBasisCode),
			BaseAmount:       field(fare.price, name, offer.FieldBaseAmount),
			TotalAmount:      field(fare.price, name, offer.FieldTotalAmount),
			BaggageAllowance: baggageAllowance(root, offerNode, name),
			OfferDate:        field(offerNode, name, offer.FieldOfferExpiration),
			DepartureDate:    offer.NotAvailable,
			ArrivalDate:      offer.NotAvailable,
		}

		ref, _ := xmltree.TextOf(fare.component, name.In(string(offer.FieldPaxSegmentRefID)))
		if paxSegment, ok := segments[ref]; ref != "" && ok {
			record.DepartureDate = field(xmltree.First(paxSegment, name.In(elemDeparture)), name, offer.FieldScheduledDateTime)
			record.ArrivalDate = field(xmltree.First(paxSegment, name.In(elemArrival)), name, offer.FieldScheduledDateTime)
		}

		result.Records = append(result.Records, record)
	}

	return result
}

// baggageAllowance reads the allowance embedded in the offer, or follows the
// offer's BaggageAllowanceRefID into the document's data lists.
func baggageAllowance(root, offerNode xmltree.Node, name xmltree.Name) string {
	allowanceName := name.In(string(offer.FieldBaggageAllowance))

	if embedded := xmltree.First(offerNode, allowanceName); embedded != nil {
		if text := collapseSpace(embedded.Text()); text != "" {
			return text
		}
	}

	ref, ok := xmltree.TextOf(offerNode, name.In(elemBaggageRefID))
	if !ok {
		return offer.Default(offer.FieldBaggageAllowance)
	}

	for _, allowance := range xmltree.Descendants(root, allowanceName) {
		if id, _ := xmltree.TextOf(allowance, name.In(elemBaggageID)); id == ref {
			return xmltree.TextOr(allowance, name.In(elemBaggageTotalQty), offer.Default(offer.FieldBaggageAllowance))
		}
	}

	return offer.Default(offer.FieldBaggageAllowance)
}

// =============================================================================
// HELPERS
// =============================================================================

// fareNodes are the nodes one offer's values are read from.
type fareNodes struct {
	item      xmltree.Node
	detail    xmltree.Node
	component xmltree.Node
	price     xmltree.Node
}

// locateFare descends into the first OfferItem of an offer. Further items
// are ignored.
func locateFare(offerNode xmltree.Node, name xmltree.Name) (fareNodes, bool) {
	var f fareNodes

	if f.item = xmltree.First(offerNode, name.In(elemOfferItem)); f.item == nil {
		return f, false
	}
	if f.detail = xmltree.First(f.item, name.In(elemFareDetail)); f.detail == nil {
		return f, false
	}
	if f.component = xmltree.First(f.detail, name.In(elemFareComponent)); f.component == nil {
		return f, false
	}
	if f.price = xmltree.First(f.item, name.In(elemPrice)); f.price == nil {
		return f, false
	}

	return f, true
}

// indexSegments maps PaxSegmentID to its PaxSegment. When an ID occurs more
// than once the last segment wins, as a full scan keeping the last match
// would. Segments without an ID are not indexed.
func indexSegments(root xmltree.Node, name xmltree.Name) map[string]xmltree.Node {
	index := make(map[string]xmltree.Node)
	for _, segment := range xmltree.Descendants(root, name.In(elemPaxSegment)) {
		id, ok := xmltree.TextOf(segment, name.In(string(offer.FieldPaxSegmentID)))
		if !ok {
			continue
		}
		index[id] = segment
	}
	return index
}

// field reads a leaf value below n, falling back to the declared default.
func field(n xmltree.Node, name xmltree.Name, f offer.Field) string {
	return xmltree.TextOr(n, name.In(string(f)), offer.Default(f))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
