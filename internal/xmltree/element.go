package xmltree

import "strings"

// Element is an in-memory Node. It is used to build trees by hand, mostly
// in tests.
type Element struct {
	Space   string
	Local   string
	Content string
	Kids    []*Element
}

// Elem builds an Element with the given children.
func Elem(space, local, content string, kids ...*Element) *Element {
	return &Element{Space: space, Local: local, Content: content, Kids: kids}
}

func (e *Element) Namespace() string { return e.Space }
func (e *Element) Name() string      { return e.Local }

func (e *Element) Children() []Node {
	nodes := make([]Node, len(e.Kids))
	for i, kid := range e.Kids {
		nodes[i] = kid
	}
	return nodes
}

func (e *Element) Text() string {
	var sb strings.Builder
	sb.WriteString(e.Content)
	for _, kid := range e.Kids {
		sb.WriteString(kid.Text())
	}
	return sb.String()
}
