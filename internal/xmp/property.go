package xmp

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Property names a destination in an XMP Meta.
type Property struct {
	NS   string
	Name string
	Form Form
	// Field, when set, addresses a field of the struct property NS:Name.
	Field *Property
}

// Prop describes a simple property.
func Prop(ns, name string) Property {
	return Property{NS: ns, Name: name, Form: Simple}
}

// SeqProp describes an ordered array; Put appends.
func SeqProp(ns, name string) Property {
	return Property{NS: ns, Name: name, Form: Seq}
}

// BagProp describes an unordered array; Put appends.
func BagProp(ns, name string) Property {
	return Property{NS: ns, Name: name, Form: Bag}
}

// AltProp describes a language alternative; Put sets x-default.
func AltProp(ns, name string) Property {
	return Property{NS: ns, Name: name, Form: LangAlt}
}

// FieldProp describes field of the struct property ns:name.
func FieldProp(ns, name string, field Property) Property {
	return Property{NS: ns, Name: name, Form: Struct, Field: &field}
}

// Put writes value into m at the described location.
func (p Property) Put(m *Meta, value string) error {
	switch p.Form {
	case Struct:
		if p.Field == nil {
			return fmt.Errorf("struct property %s has no field: %w", p.Name, ErrFormMismatch)
		}
		return m.SetStructField(p.NS, p.Name, p.Field.NS, p.Field.Name, value)
	case Seq, Bag:
		return m.AppendArrayItem(p.NS, p.Name, p.Form, value)
	case LangAlt:
		return m.SetLocalizedText(p.NS, p.Name, DefaultLang, value)
	default:
		return m.SetProperty(p.NS, p.Name, value)
	}
}

// Path returns the property path in "prefix:Name" or
// "prefix:Name/prefix:Field" notation.
func (p Property) Path() string {
	prefix, _ := NamespacePrefix(p.NS)
	s := prefix + ":" + p.Name
	if p.Field != nil {
		fp, _ := NamespacePrefix(p.Field.NS)
		s += "/" + fp + ":" + p.Field.Name
	}
	return s
}

// TranslatorKind selects how a source property reaches XMP.
type TranslatorKind int

const (
	// Ignore drops the source property.
	Ignore TranslatorKind = iota
	// Direct writes the converted value into Translator.Property.
	Direct
	// Custom hands the property to a named conversion.
	Custom
)

// Translator is one entry of a source-to-XMP translation table.
type Translator struct {
	Kind     TranslatorKind
	Property Property
}

// To returns a Direct translator.
func To(p Property) Translator { return Translator{Kind: Direct, Property: p} }

// CustomRule is the Custom translator.
var CustomRule = Translator{Kind: Custom}

// Dropped is the Ignore translator.
var Dropped = Translator{Kind: Ignore}

// FormatInt formats an integer in plain decimal.
func FormatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// FormatRational formats f as an XMP rational "n/d", d being the smallest
// power of ten, up to 10^6, that makes n integral. Values whose numerator
// does not fit an int64 even at d = 1 format as "0/1".
func FormatRational(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0/1"
	}
	d := int64(1)
	for d < 1000000 {
		scaled := f * float64(d)
		if math.Abs(scaled-math.Round(scaled)) < 1e-9 {
			break
		}
		d *= 10
	}
	for d > 1 && math.Abs(math.Round(f*float64(d))) >= math.MaxInt64 {
		d /= 10
	}
	n := math.Round(f * float64(d))
	if math.Abs(n) >= math.MaxInt64 {
		return "0/1"
	}
	return strconv.FormatInt(int64(n), 10) + "/" + strconv.FormatInt(d, 10)
}

// FormatDate formats t as an XMP date (ISO 8601, UTC).
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
