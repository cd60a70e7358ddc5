package safe

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// sensingTimeLayout is the timestamp format used throughout SAFE annotation
// documents, e.g. "2020-06-04T02:22:53.618828".
const sensingTimeLayout = "2006-01-02T15:04:05.999999"

// Node is one element of a parsed XML document. Namespace prefixes are
// discarded: manifest files mix several namespaces (safe:, s1:, s1sarl1:)
// while annotation files use none, and lookups only care about local names.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// ParseXML decodes an XML document into a Node tree rooted at the document
// element.
func ParseXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
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
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple document elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected closing element %s", t.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("empty XML document")
	}
	return root, nil
}

// Find resolves a slash-separated path of element names starting at n's
// children. Each step matches the first child with that local name. Returns
// nil if any step is missing.
func (n *Node) Find(path string) *Node {
	cur := n
	for _, step := range strings.Split(path, "/") {
		var next *Node
		for _, child := range cur.Children {
			if child.Name == step {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// FindAll returns all descendants of n with the given local name, in
// document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, child := range cur.Children {
			if child.Name == name {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

// First returns the first descendant of n with the given local name, or nil.
func (n *Node) First(name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	for _, child := range n.Children {
		if found := child.First(name); found != nil {
			return found
		}
	}
	return nil
}

// TextAt returns the trimmed text content at path, or a MetadataError if the
// path does not resolve.
func (n *Node) TextAt(path string) (string, error) {
	node := n.Find(path)
	if node == nil {
		return "", &MetadataError{Path: path}
	}
	return strings.TrimSpace(node.Text), nil
}

// FirstText returns the trimmed text of the first descendant with the given
// name, or a MetadataError.
func (n *Node) FirstText(name string) (string, error) {
	node := n.First(name)
	if node == nil {
		return "", &MetadataError{Path: name}
	}
	return strings.TrimSpace(node.Text), nil
}

// FloatAt parses the text at path as a float64.
func (n *Node) FloatAt(path string) (float64, error) {
	s, err := n.TextAt(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("element %s: invalid float %q: %w", path, s, err)
	}
	return v, nil
}

// IntAt parses the text at path as an int.
func (n *Node) IntAt(path string) (int, error) {
	s, err := n.TextAt(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("element %s: invalid integer %q: %w", path, s, err)
	}
	return v, nil
}

// TimeAt parses the text at path as a SAFE annotation timestamp.
func (n *Node) TimeAt(path string) (time.Time, error) {
	s, err := n.TextAt(path)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(sensingTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("element %s: invalid timestamp %q: %w", path, s, err)
	}
	return t, nil
}

// AttrAt returns the named attribute of the element at path, or a
// MetadataError if the path or attribute is missing.
func (n *Node) AttrAt(path, attr string) (string, error) {
	node := n.Find(path)
	if node == nil {
		return "", &MetadataError{Path: path}
	}
	v, ok := node.Attrs[attr]
	if !ok {
		return "", &MetadataError{Path: path, Attr: attr}
	}
	return v, nil
}

// IntAttrAt parses the named attribute of the element at path as an int.
func (n *Node) IntAttrAt(path, attr string) (int, error) {
	s, err := n.AttrAt(path, attr)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("attribute %s@%s: invalid integer %q: %w", path, attr, s, err)
	}
	return v, nil
}
