package xmltree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// ErrNoRoot is returned for input that contains no element at all.
var ErrNoRoot = errors.New("document has no root element")

// ErrNotWellFormed is returned for a document with more than one root
// element or with text outside the root element.
var ErrNotWellFormed = errors.New("document is not well-formed")

// Parse builds a tree from XML text and returns its root element. The text
// is already decoded, so an encoding named in the XML declaration is not
// applied a second time.
func Parse(text string) (Node, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = passThroughCharset
	if err := doc.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if err := checkTopLevel(doc); err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// checkTopLevel rejects what encoding/xml lets through at the top level:
// sibling root elements and non-whitespace text.
func checkTopLevel(doc *etree.Document) error {
	roots := 0
	for _, token := range doc.Child {
		switch t := token.(type) {
		case *etree.Element:
			roots++
			if roots > 1 {
				return fmt.Errorf("%w: second root element <%s>", ErrNotWellFormed, t.FullTag())
			}
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return fmt.Errorf("%w: text outside the root element", ErrNotWellFormed)
			}
		}
	}
	return nil
}

// FromDocument wraps an already parsed etree document.
func FromDocument(doc *etree.Document) (Node, error) {
	if doc == nil {
		return nil, ErrNoRoot
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrNoRoot
	}
	return &document{root: wrap(root)}, nil
}

func passThroughCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// document is the node above the root element, so that Descendants and
// First over a parsed tree also consider the root element itself.
type document struct {
	root Node
}

func (d *document) Namespace() string { return "" }
func (d *document) Name() string      { return "" }
func (d *document) Children() []Node  { return []Node{d.root} }
func (d *document) Text() string      { return d.root.Text() }

type element struct {
	el *etree.Element
}

func wrap(el *etree.Element) Node {
	return &element{el: el}
}

func (e *element) Namespace() string {
	return e.el.NamespaceURI()
}

func (e *element) Name() string {
	return e.el.Tag
}

func (e *element) Children() []Node {
	children := e.el.ChildElements()
	nodes := make([]Node, len(children))
	for i, child := range children {
		nodes[i] = wrap(child)
	}
	return nodes
}

func (e *element) Text() string {
	var sb strings.Builder
	collectText(e.el, &sb)
	return sb.String()
}

func collectText(el *etree.Element, sb *strings.Builder) {
	for _, token := range el.Child {
		switch t := token.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			collectText(t, sb)
		}
	}
}
