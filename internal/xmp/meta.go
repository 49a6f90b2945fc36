// Package xmp holds the property descriptors used by the translation
// tables and a Meta wrapper over a go-xmp document that gives the tables
// form-checked access to simple, struct, array and language-alternative
// properties.
package xmp

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	goxmp "github.com/trimmer-io/go-xmp/xmp"
)

var (
	// ErrUnknownNamespace is returned for a namespace with no registered prefix.
	ErrUnknownNamespace = errors.New("unknown XMP namespace")
	// ErrFormMismatch is returned when a property is written with a different form than it holds.
	ErrFormMismatch = errors.New("XMP property form mismatch")
	// ErrIndexOutOfRange is returned when an array index is past the end of the array.
	ErrIndexOutOfRange = errors.New("XMP array index out of range")
	// ErrEmptyValue is returned for an empty value. XMP drops empty
	// properties, so they are never stored.
	ErrEmptyValue = errors.New("empty XMP value")
)

func init() {
	for uri, prefix := range prefixes {
		if _, err := goxmp.GetNamespace(prefix); err == nil {
			continue
		}
		goxmp.Register(goxmp.NewNamespace(prefix, uri, nil))
	}
}

// Form is the shape of an XMP property value.
type Form int

const (
	Simple Form = iota
	Seq
	Bag
	LangAlt
	Struct
)

func (f Form) String() string {
	switch f {
	case Seq:
		return "Seq"
	case Bag:
		return "Bag"
	case LangAlt:
		return "Alt"
	case Struct:
		return "Struct"
	default:
		return "Simple"
	}
}

// DefaultLang is the language used for x-default localized text.
const DefaultLang = "x-default"

// Meta is an XMP metadata object. The zero value is not usable; call New.
type Meta struct {
	doc *goxmp.Document
}

// New returns an empty Meta.
func New() *Meta {
	return &Meta{doc: goxmp.NewDocument()}
}

// Len returns the number of top-level properties.
func (m *Meta) Len() int {
	n := 0
	for _, root := range m.doc.Nodes() {
		n += len(root.Nodes)
	}
	return n
}

// root returns the namespace node of ns, creating it when create is set.
func (m *Meta) root(ns string, create bool) (*goxmp.Node, error) {
	prefix, ok := NamespacePrefix(ns)
	if !ok {
		return nil, fmt.Errorf("%s: %w", ns, ErrUnknownNamespace)
	}
	gns, err := goxmp.GetNamespace(prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ns, ErrUnknownNamespace)
	}
	if n := m.doc.FindNode(gns); n != nil || !create {
		return n, nil
	}
	// a path without segments only creates the namespace node
	err = m.doc.SetPath(goxmp.PathValue{
		Path:      goxmp.NewPath(prefix),
		Namespace: ns,
		Flags:     goxmp.CREATE | goxmp.NOFAIL,
	})
	if err != nil {
		return nil, err
	}
	return m.doc.FindNode(gns), nil
}

// node returns the top-level property ns:name, or nil.
func (m *Meta) node(ns, name string) *goxmp.Node {
	root, err := m.root(ns, false)
	if err != nil || root == nil {
		return nil
	}
	return child(root, ns, name)
}

func (m *Meta) set(path goxmp.Path, ns, value string, flags goxmp.SyncFlags) error {
	return m.doc.SetPath(goxmp.PathValue{Path: path, Namespace: ns, Value: value, Flags: flags})
}

func child(n *goxmp.Node, ns, name string) *goxmp.Node {
	full := qualify(ns, name)
	for _, c := range n.Nodes {
		if c.FullName() == full {
			return c
		}
	}
	return nil
}

func qualify(ns, name string) string {
	prefix, _ := NamespacePrefix(ns)
	return prefix + ":" + name
}

// formOf derives the form of a property node from its children.
func formOf(n *goxmp.Node) Form {
	switch {
	case len(n.Nodes) == 0:
		return Simple
	case n.IsArray():
		switch n.ArrayType() {
		case goxmp.ArrayTypeOrdered:
			return Seq
		case goxmp.ArrayTypeUnordered:
			return Bag
		default:
			return LangAlt
		}
	default:
		return Struct
	}
}

func checkForm(n *goxmp.Node, name string, want Form) error {
	if got := formOf(n); got != want {
		return fmt.Errorf("%s is %s, not %s: %w", name, got, want, ErrFormMismatch)
	}
	return nil
}

// SetProperty sets a simple property. A path of the form
// "Struct/prefix:Field" addresses a struct field instead.
func (m *Meta) SetProperty(ns, path, value string) error {
	if structName, fieldNS, fieldName, ok := splitFieldPath(path); ok {
		return m.SetStructField(ns, structName, fieldNS, fieldName, value)
	}
	root, err := m.root(ns, true)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s: %w", path, ErrEmptyValue)
	}
	if n := child(root, ns, path); n != nil {
		if err := checkForm(n, path, Simple); err != nil {
			return err
		}
	}
	prefix, _ := NamespacePrefix(ns)
	return m.set(goxmp.NewPath(prefix, path), ns, value, goxmp.CREATE|goxmp.REPLACE)
}

// SetStructField sets field fieldName (in fieldNS) of struct property name.
func (m *Meta) SetStructField(ns, name, fieldNS, fieldName, value string) error {
	fieldPrefix, ok := NamespacePrefix(fieldNS)
	if !ok {
		return fmt.Errorf("%s: %w", fieldNS, ErrUnknownNamespace)
	}
	root, err := m.root(ns, true)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s/%s: %w", name, fieldName, ErrEmptyValue)
	}
	if n := child(root, ns, name); n != nil {
		if err := checkForm(n, name, Struct); err != nil {
			return err
		}
	}
	prefix, _ := NamespacePrefix(ns)
	path := goxmp.NewPath(prefix, name, fieldPrefix+":"+fieldName)
	if err := m.set(path, ns, value, goxmp.CREATE|goxmp.REPLACE); err != nil {
		return err
	}
	if n := child(root, ns, name); n != nil {
		n.AddStringAttr("rdf:parseType", "Resource")
	}
	return nil
}

// SetArrayItem sets the item at index (0-based) of an ordered or unordered
// array, creating the array when needed. Index len(array) appends.
func (m *Meta) SetArrayItem(ns, name string, form Form, index int, value string) error {
	if form != Seq && form != Bag {
		return fmt.Errorf("%s is not an array form: %w", form, ErrFormMismatch)
	}
	root, err := m.root(ns, true)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s[%d]: %w", name, index, ErrEmptyValue)
	}
	n := child(root, ns, name)
	size := 0
	if n != nil {
		if err := checkForm(n, name, form); err != nil {
			return err
		}
		size = len(n.Nodes[0].Nodes)
	}
	if index < 0 || index > size {
		return fmt.Errorf("%s[%d]: %w", name, index, ErrIndexOutOfRange)
	}
	if n == nil {
		// go-xmp creates rdf:Seq on demand; the container is made
		// here so that Bag arrays keep their form.
		n = root.AddNode(goxmp.NewNode(goxmp.NewName(qualify(ns, name))))
		n.AddNode(goxmp.NewNode(goxmp.NewName("rdf:" + form.String())))
	}
	prefix, _ := NamespacePrefix(ns)
	path := goxmp.NewPath(prefix, fmt.Sprintf("%s[%d]", name, index))
	return m.set(path, ns, value, goxmp.CREATE|goxmp.REPLACE)
}

// AppendArrayItem appends value to an array property.
func (m *Meta) AppendArrayItem(ns, name string, form Form, value string) error {
	index := 0
	if n := m.node(ns, name); n != nil {
		if err := checkForm(n, name, form); err != nil {
			return err
		}
		index = len(n.Nodes[0].Nodes)
	}
	return m.SetArrayItem(ns, name, form, index, value)
}

// SetLocalizedText sets the alternative for lang in a language
// alternative property.
func (m *Meta) SetLocalizedText(ns, name, lang, value string) error {
	if lang == "" {
		lang = DefaultLang
	}
	root, err := m.root(ns, true)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s[%s]: %w", name, lang, ErrEmptyValue)
	}
	// go-xmp only replaces existing alternatives; new ones are appended
	flags := goxmp.CREATE | goxmp.APPEND
	if n := child(root, ns, name); n != nil {
		if err := checkForm(n, name, LangAlt); err != nil {
			return err
		}
		if _, ok := altItem(n, lang); ok {
			flags = goxmp.CREATE | goxmp.REPLACE
		}
	}
	prefix, _ := NamespacePrefix(ns)
	return m.set(goxmp.NewPath(prefix, name+"["+lang+"]"), ns, value, flags)
}

func altItem(n *goxmp.Node, lang string) (string, bool) {
	for _, li := range n.Nodes[0].Nodes {
		if attr := li.GetAttr("", "lang"); len(attr) > 0 && attr[0].Value == lang {
			return li.Value, true
		}
	}
	return "", false
}

// Property returns a simple property or, for "Struct/prefix:Field"
// paths, a struct field.
func (m *Meta) Property(ns, path string) (string, bool) {
	if structName, fieldNS, fieldName, ok := splitFieldPath(path); ok {
		return m.StructField(ns, structName, fieldNS, fieldName)
	}
	n := m.node(ns, path)
	if n == nil || formOf(n) != Simple {
		return "", false
	}
	return n.Value, true
}

// StructField returns a field of a struct property.
func (m *Meta) StructField(ns, name, fieldNS, fieldName string) (string, bool) {
	n := m.node(ns, name)
	if n == nil || formOf(n) != Struct {
		return "", false
	}
	if _, ok := NamespacePrefix(fieldNS); !ok {
		return "", false
	}
	f := child(n, fieldNS, fieldName)
	if f == nil {
		return "", false
	}
	return f.Value, true
}

// ArrayItem returns the item at index (0-based) of an array property.
func (m *Meta) ArrayItem(ns, name string, index int) (string, bool) {
	n := m.node(ns, name)
	if n == nil {
		return "", false
	}
	if f := formOf(n); f != Seq && f != Bag {
		return "", false
	}
	items := n.Nodes[0].Nodes
	if index < 0 || index >= len(items) {
		return "", false
	}
	return items[index].Value, true
}

// ArrayLen returns the number of items of an array property.
func (m *Meta) ArrayLen(ns, name string) int {
	n := m.node(ns, name)
	if n == nil || !n.IsArray() {
		return 0
	}
	return len(n.Nodes[0].Nodes)
}

// FormOf returns the form of a property.
func (m *Meta) FormOf(ns, name string) (Form, bool) {
	n := m.node(ns, name)
	if n == nil {
		return Simple, false
	}
	return formOf(n), true
}

// LocalizedText returns the alternative for lang.
func (m *Meta) LocalizedText(ns, name, lang string) (string, bool) {
	if lang == "" {
		lang = DefaultLang
	}
	n := m.node(ns, name)
	if n == nil || formOf(n) != LangAlt {
		return "", false
	}
	return altItem(n, lang)
}

// Has reports whether the destination described by p holds a value.
func (m *Meta) Has(p Property) bool {
	var ok bool
	switch p.Form {
	case Struct:
		if p.Field == nil {
			return false
		}
		_, ok = m.StructField(p.NS, p.Name, p.Field.NS, p.Field.Name)
	case Seq, Bag:
		ok = m.ArrayLen(p.NS, p.Name) > 0
	case LangAlt:
		_, ok = m.LocalizedText(p.NS, p.Name, DefaultLang)
	default:
		_, ok = m.Property(p.NS, p.Name)
	}
	return ok
}

// Namespaces returns the registered namespaces used by the properties,
// sorted by prefix.
func (m *Meta) Namespaces() []string {
	seen := make(map[string]struct{})
	add := func(name string) {
		prefix, _, _ := strings.Cut(name, ":")
		if uri, ok := NamespaceURI(prefix); ok {
			seen[uri] = struct{}{}
		}
	}
	for _, root := range m.doc.Nodes() {
		if len(root.Nodes) == 0 {
			continue
		}
		add(root.FullName())
		for _, n := range root.Nodes {
			if formOf(n) != Struct {
				continue
			}
			for _, f := range n.Nodes {
				add(f.FullName())
			}
		}
	}
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return prefixes[out[i]] < prefixes[out[j]] })
	return out
}

// splitFieldPath splits "Struct/prefix:Field".
func splitFieldPath(path string) (structName, fieldNS, fieldName string, ok bool) {
	structName, rest, found := strings.Cut(path, "/")
	if !found {
		return "", "", "", false
	}
	prefix, fieldName, found := strings.Cut(rest, ":")
	if !found {
		return "", "", "", false
	}
	fieldNS, ok = NamespaceURI(prefix)
	if !ok {
		return "", "", "", false
	}
	return structName, fieldNS, fieldName, true
}
