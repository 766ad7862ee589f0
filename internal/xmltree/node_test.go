package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNS = "urn:test"

func TestParseNamespaces(t *testing.T) {
	doc := `<?xml version="1.0"?>
<root xmlns="urn:test" xmlns:o="urn:other">
  <Item>one</Item>
  <o:Item>foreign</o:Item>
  <group>
    <Item>two</Item>
  </group>
</root>`

	root, err := Parse(doc)
	require.NoError(t, err)

	items := Descendants(root, NS(testNS, "Item"))
	require.Len(t, items, 2)
	assert.Equal(t, "one", items[0].Text())
	assert.Equal(t, "two", items[1].Text())

	foreign := Descendants(root, NS("urn:other", "Item"))
	require.Len(t, foreign, 1)
	assert.Equal(t, "foreign", foreign[0].Text())

	assert.Len(t, Descendants(root, Local("Item")), 3)
}

func TestParseMatchesRootElement(t *testing.T) {
	root, err := Parse(`<Offer xmlns="urn:test"><Price>1</Price></Offer>`)
	require.NoError(t, err)

	offers := Descendants(root, NS(testNS, "Offer"))
	require.Len(t, offers, 1)
	assert.Equal(t, "1", TextOr(offers[0], NS(testNS, "Price"), "0"))
}

func TestParsePrefixedNamespace(t *testing.T) {
	root, err := Parse(`<ns2:Root xmlns:ns2="urn:test"><ns2:Code>LHR</ns2:Code></ns2:Root>`)
	require.NoError(t, err)

	code, ok := TextOf(root, NS(testNS, "Code"))
	assert.True(t, ok)
	assert.Equal(t, "LHR", code)
}

func TestParseErrors(t *testing.T) {
	for name, text := range map[string]string{
		"empty":      "",
		"whitespace": "   \n",
		"mismatched": "<a><b></a>",
		"unclosed":   "<a><b></b>",
		"garbage":    "<<<",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsTopLevelContent(t *testing.T) {
	for name, text := range map[string]string{
		"two roots":          "<a><x/></a><b><y/></b>",
		"leading text":       "garbage <a><x/></a>",
		"trailing text":      "<a><x/></a> trailing",
		"root after comment": "<?xml version=\"1.0\"?>\n<a/>\n<!-- done -->\n<b/>",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			assert.ErrorIs(t, err, ErrNotWellFormed)
		})
	}

	root, err := Parse("<?xml version=\"1.0\"?>\n<!-- header -->\n<a><x/></a>\n")
	require.NoError(t, err)
	assert.NotNil(t, First(root, Local("x")))
}

func TestTextConcatenatesDescendants(t *testing.T) {
	root, err := Parse(`<a>x<b>y</b>z</a>`)
	require.NoError(t, err)
	assert.Equal(t, "xyz", root.Text())
}

func TestFirstIsDocumentOrder(t *testing.T) {
	tree := Elem(testNS, "Offer", "",
		Elem(testNS, "OfferItem", "",
			Elem(testNS, "FareDetail", "",
				Elem(testNS, "Price", "", Elem(testNS, "TotalAmount", "1"))),
			Elem(testNS, "Price", "", Elem(testNS, "TotalAmount", "2"))),
	)

	price := First(tree, NS(testNS, "Price"))
	require.NotNil(t, price)
	assert.Equal(t, "1", TextOr(price, NS(testNS, "TotalAmount"), ""))
}

func TestLookupsOnNil(t *testing.T) {
	assert.Nil(t, First(nil, Local("x")))
	assert.Nil(t, Descendants(nil, Local("x")))
	assert.Equal(t, "d", TextOr(nil, Local("x"), "d"))

	_, ok := TextOf(nil, Local("x"))
	assert.False(t, ok)
}

func TestTextOfEmptyIsNotFound(t *testing.T) {
	tree := Elem("", "a", "", Elem("", "b", "  "))

	_, ok := TextOf(tree, Local("b"))
	assert.False(t, ok)
	assert.Equal(t, "N/A", TextOr(tree, Local("b"), "N/A"))
}

func TestNameIn(t *testing.T) {
	n := NS(testNS, "Offer").In("Price")
	assert.Equal(t, Name{Space: testNS, Local: "Price"}, n)

	l := Local("Offer").In("Price")
	assert.True(t, l.AnySpace)
}

func TestParseIgnoresDeclaredEncoding(t *testing.T) {
	root, err := Parse(`<?xml version="1.0" encoding="ISO-8859-1"?><a>Zürich</a>`)
	require.NoError(t, err)
	assert.Equal(t, "Zürich", root.Text())
}
