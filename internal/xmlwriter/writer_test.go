package xmlwriter

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/ginjaninja78/airshopping-offers/internal/extractor"
	"github.com/ginjaninja78/airshopping-offers/internal/offer"
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
	result.Source = "airshopping.xml"
	return result
}

func readBack(t *testing.T, data []byte) *etree.Element {
	t.Helper()

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func TestGenerateGrouped(t *testing.T) {
	result := fixture(t, offer.VariantGrouped)

	data, err := Generate(result)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`))

	root := readBack(t, data)
	assert.Equal(t, "offerSummary", root.Tag)
	assert.Equal(t, "airshopping.xml", root.SelectAttrValue("source", ""))
	assert.Equal(t, "grouped", root.SelectAttrValue("variant", ""))

	routes := root.SelectElements("route")
	require.Len(t, routes, len(result.Groups))

	for i, route := range routes {
		group := result.Groups[i]
		assert.Equal(t, strconv.Itoa(i+1), route.SelectAttrValue("n", ""))
		assert.Equal(t, group.Key, route.SelectAttrValue("key", ""))
		assert.Equal(t, group.Route, route.SelectElement("label").Text())

		total, err := strconv.ParseFloat(route.SelectElement("totalAmount").Text(), 64)
		require.NoError(t, err)
		assert.Equal(t, group.TotalAmount, total)
		assert.Len(t, route.SelectElements("segment"), len(group.Segments))
	}

	stats := root.SelectElement("stats")
	require.NotNil(t, stats)
	assert.Equal(t, strconv.Itoa(result.Stats.Dropped), stats.SelectAttrValue("dropped", ""))
}

func TestGenerateSegmentNumbering(t *testing.T) {
	result := fixture(t, offer.VariantGrouped)
	require.Len(t, result.Groups, 2)
	require.Len(t, result.Groups[0].Segments, 2)

	data, err := Generate(result)
	require.NoError(t, err)
	second := readBack(t, data).SelectElements("route")[1]
	assert.Equal(t, "3", second.SelectElement("segment").SelectAttrValue("n", ""))

	options := DefaultGenerateOptions()
	options.SegmentNumberingGlobal = false
	data, err = GenerateWithOptions(result, options)
	require.NoError(t, err)
	second = readBack(t, data).SelectElements("route")[1]
	assert.Equal(t, "1", second.SelectElement("segment").SelectAttrValue("n", ""))
}

func TestGenerateSegmentFields(t *testing.T) {
	result := fixture(t, offer.VariantGrouped)

	data, err := Generate(result)
	require.NoError(t, err)

	segment := readBack(t, data).SelectElement("route").SelectElement("segment")
	require.NotNil(t, segment)

	departure := segment.SelectElement("departure")
	assert.Equal(t, "LHR", departure.SelectAttrValue("code", ""))
	assert.Equal(t, "2024-06-01T08:00:00", departure.Text())
	assert.Equal(t, "YLOWGB", segment.SelectElement("fareBasisCode").Text())
	assert.Equal(t, "100.5", segment.SelectElement("baseAmount").Text())
}

func TestGenerateFlat(t *testing.T) {
	result := fixture(t, offer.VariantFlat)

	data, err := Generate(result)
	require.NoError(t, err)

	root := readBack(t, data)
	assert.Equal(t, "flat", root.SelectAttrValue("variant", ""))
	offers := root.SelectElements("offer")
	require.Len(t, offers, len(result.Records))
	assert.Equal(t, result.Records[0].BaggageAllowance, offers[0].SelectElement("baggageAllowance").Text())
}

func TestGenerateOptions(t *testing.T) {
	options := DefaultGenerateOptions()
	options.IncludeXMLDeclaration = false
	options.RootElement = "summary"
	options.RootAttributes["generator"] = "offers"

	data, err := GenerateWithOptions(&offer.Result{Variant: offer.VariantGrouped}, options)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(data), "<?xml"))

	root := readBack(t, data)
	assert.Equal(t, "summary", root.Tag)
	assert.Equal(t, "offers", root.SelectAttrValue("generator", ""))
	assert.Empty(t, root.SelectElements("route"))
}

func TestGenerateNil(t *testing.T) {
	_, err := Generate(nil)
	assert.Error(t, err)
}
