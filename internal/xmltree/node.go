// =============================================================================
// AirShopping Offer Extractor - XML Tree
// =============================================================================
//
// This package is the small typed accessor layer the extractor walks. It
// knows about element names, namespaces, children and text content, and
// nothing else. The extractor never touches a concrete XML library; it only
// sees Node values, so it can be tested with hand-built trees.
//
// LOOKUP SEMANTICS:
//   Descendants and First search the whole subtree below a node (not only
//   its direct children), in document order, excluding the node itself.
//   Lookups on a nil Node return nothing, so a chain of lookups degrades to
//   "not found" instead of failing.
//
// =============================================================================

package xmltree

import "strings"

// Node is an element of a parsed document.
type Node interface {
	// Namespace returns the resolved namespace URI of the element.
	Namespace() string

	// Name returns the local element name.
	Name() string

	// Children returns the direct child elements in document order.
	Children() []Node

	// Text returns the concatenated character data of the element and all
	// of its descendants.
	Text() string
}

// Name matches elements by local name and, unless AnySpace is set, by
// namespace URI.
type Name struct {
	Space    string
	Local    string
	AnySpace bool
}

// NS matches local within the namespace space.
func NS(space, local string) Name {
	return Name{Space: space, Local: local}
}

// Local matches local in any namespace.
func Local(local string) Name {
	return Name{Local: local, AnySpace: true}
}

// Matches reports whether n carries this name.
func (m Name) Matches(n Node) bool {
	if n == nil || n.Name() != m.Local {
		return false
	}
	return m.AnySpace || n.Namespace() == m.Space
}

// In returns a name with the same namespace rules and a different local part.
func (m Name) In(local string) Name {
	m.Local = local
	return m
}

// Descendants returns every element below n matching name, in document order.
func Descendants(n Node, name Name) []Node {
	if n == nil {
		return nil
	}

	var found []Node
	var walk func(Node)
	walk = func(parent Node) {
		for _, child := range parent.Children() {
			if name.Matches(child) {
				found = append(found, child)
			}
			walk(child)
		}
	}
	walk(n)

	return found
}

// First returns the first element below n matching name, or nil.
func First(n Node, name Name) Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children() {
		if name.Matches(child) {
			return child
		}
		if found := First(child, name); found != nil {
			return found
		}
	}
	return nil
}

// TextOf returns the trimmed text of the first element below n matching
// name. ok is false when there is no such element or its text is empty.
func TextOf(n Node, name Name) (text string, ok bool) {
	el := First(n, name)
	if el == nil {
		return "", false
	}
	text = strings.TrimSpace(el.Text())
	return text, text != ""
}

// TextOr is TextOf with a fallback value.
func TextOr(n Node, name Name, fallback string) string {
	if text, ok := TextOf(n, name); ok {
		return text
	}
	return fallback
}
