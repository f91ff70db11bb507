// Package xmltree parses wire-format XML into a generic tagged node tree.
//
// E-utilities responses are optional-heavy and inconsistently shaped: most
// elements may appear zero, one, or many times, and mixed content (text
// interleaved with markup) is common in titles and abstracts. Rather than
// declaring one encoding/xml struct per response shape, this package decodes
// a response once into an explicit intermediate representation that the
// normalization and section-extraction packages pattern-match against.
//
// A Node is either a text node or an element node with an ordered child
// sequence. Element attributes are kept separate from text content.
package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Node is one node of a parsed XML tree. A node is exactly one of:
//   - a text node: Name is empty and Value holds the character data;
//   - an element node: Name is the element's local name, Attrs holds its
//     attributes, and Children holds its child nodes in document order.
type Node struct {
	Name     string
	Value    string
	Attrs    map[string]string
	Children []*Node
}

// IsText reports whether the node is a text node.
func (n *Node) IsText() bool {
	return n.Name == ""
}

// Parse decodes an XML document into its root element node.
// Comments, processing instructions, and directives are discarded.
// Whitespace-only character data between elements is dropped.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				node.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					node.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			} else if root == nil {
				root = node
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string(t)
			if strings.TrimSpace(text) == "" {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Value: text})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("decode XML: no root element")
	}
	return root, nil
}

// ParseString decodes an XML document held in a string.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// Attr returns the named attribute value, or "" if absent.
func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// First returns the first child element with the given name, or nil.
// It is nil-safe so lookups can be chained across absent elements.
func (n *Node) First(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All returns every child element with the given name, in document order.
// An element that appears exactly once yields a one-element slice, so
// callers never need to distinguish scalar from repeated occurrences.
func (n *Node) All(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Path follows a chain of First lookups and returns the final node, or nil
// if any step is absent.
func (n *Node) Path(names ...string) *Node {
	cur := n
	for _, name := range names {
		cur = cur.First(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Elements returns every child element node, in document order.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if !c.IsText() {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the node's character data with markup dissolved: for a text
// node its value, for an element the concatenation of all descendant text
// in document order, trimmed. Mixed content such as
// <ArticleTitle>Role of <i>BRCA1</i> variants</ArticleTitle> flattens to
// "Role of BRCA1 variants".
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.IsText() {
		return strings.TrimSpace(n.Value)
	}
	var b strings.Builder
	n.appendText(&b)
	return strings.TrimSpace(b.String())
}

func (n *Node) appendText(b *strings.Builder) {
	for _, c := range n.Children {
		if c.IsText() {
			b.WriteString(c.Value)
			continue
		}
		c.appendText(b)
	}
}

// ChildText returns the flattened text of the first child element with the
// given name, or "" if absent.
func (n *Node) ChildText(name string) string {
	return n.First(name).Text()
}

// ChildInt returns the flattened text of the first child element with the
// given name parsed as an integer, or 0 if absent or non-numeric.
func (n *Node) ChildInt(name string) int {
	v, err := strconv.Atoi(n.ChildText(name))
	if err != nil {
		return 0
	}
	return v
}
