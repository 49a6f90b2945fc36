package xmp

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	goxmp "github.com/trimmer-io/go-xmp/xmp"
)

// WriteTo serializes m as an XMP packet, one rdf:Description per namespace.
func (m *Meta) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := goxmp.NewEncoder(&buf)
	enc.Indent("", " ")
	if err := enc.Encode(m.doc); err != nil {
		return 0, fmt.Errorf("encoding XMP: %w", err)
	}
	buf.WriteByte('\n')
	return buf.WriteTo(w)
}

// Parse reads an XMP packet. Properties in namespaces without a registered
// prefix are kept in the document but are not addressable through Meta.
func Parse(r io.Reader) (*Meta, error) {
	m := New()
	if err := goxmp.NewDecoder(r).Decode(m.doc); err != nil {
		return nil, fmt.Errorf("decoding XMP: %w", err)
	}
	for _, root := range m.doc.Nodes() {
		expandAttrs(root)
		for _, n := range root.Nodes {
			if expandAttrs(n) {
				n.AddStringAttr("rdf:parseType", "Resource")
			}
		}
	}
	return m, nil
}

// expandAttrs turns the property attributes of n (the abbreviated RDF
// form) into child nodes and reports whether any were found.
func expandAttrs(n *goxmp.Node) bool {
	keep := n.Attr[:0]
	expanded := false
	for _, a := range n.Attr {
		prefix, _, found := strings.Cut(a.Name.Local, ":")
		if !found || a.Name.Space == "xmlns" || prefix == "rdf" || prefix == "xml" || prefix == "xmlns" {
			keep = append(keep, a)
			continue
		}
		c := goxmp.NewNode(goxmp.NewName(a.Name.Local))
		c.Value = a.Value
		n.AppendNode(c)
		expanded = true
	}
	n.Attr = keep
	return expanded
}
