package aplib

import (
	"fmt"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// Keyword is a node of the keyword forest from Keywords.plist. Children are
// owned by their parent; there are no back references.
type Keyword struct {
	uuid       *string
	parentUUID *string
	modelID    *int64

	Name     *string
	Shortcut *string
	Children []*Keyword
}

// Keywords.plist schema versions known to decode correctly.
var supportedKeywordVersions = map[int64]bool{6: true, 7: true}

// ParseKeywords decodes the keyword forest of the Keywords.plist at path.
// An unreadable file yields an error; an unexpected keywords_version is
// logged to log (which may be nil) and decoding continues.
func ParseKeywords(path string, report *audit.Report, log Logger) ([]*Keyword, error) {
	d, err := plutil.ParseFileDict(path)
	if err != nil {
		return nil, fmt.Errorf("loading keywords: %w", err)
	}
	return KeywordsFromDict(d, report, log), nil
}

// KeywordsFromDict decodes the top-level Keywords.plist dictionary.
func KeywordsFromDict(d plutil.Dict, report *audit.Report, log Logger) []*Keyword {
	version := audit.Int(d, "keywords_version", report)
	switch {
	case version == nil:
		orNop(log).Warn("keywords file has no version")
	case !supportedKeywordVersions[*version]:
		orNop(log).Warn("unexpected keywords version", "version", *version)
	}

	array, _ := audit.Array(d, "keywords", report)
	if report != nil {
		report.AuditIgnored(d, "")
	}
	return keywordsFromArray(array)
}

func keywordsFromArray(array []any) []*Keyword {
	keywords := make([]*Keyword, 0, len(array))
	for _, v := range array {
		if d, ok := v.(map[string]any); ok {
			keywords = append(keywords, KeywordFromDict(d))
		}
	}
	return keywords
}

// KeywordFromDict decodes one keyword and, recursively, its children from
// zChildren, or children when zChildren is absent.
func KeywordFromDict(d plutil.Dict) *Keyword {
	k := &Keyword{
		uuid:       audit.String(d, "uuid", nil),
		parentUUID: audit.String(d, "parentUuid", nil),
		modelID:    audit.Int(d, "modelId", nil),
		Name:       audit.String(d, "name", nil),
		Shortcut:   audit.String(d, "shortcut", nil),
	}
	children, ok := plutil.Array(d, "zChildren")
	if !ok {
		children, _ = plutil.Array(d, "children")
	}
	k.Children = keywordsFromArray(children)
	return k
}

// Walk calls fn for k and every descendant, depth first in source order.
func (k *Keyword) Walk(fn func(kw *Keyword, depth int)) {
	k.walk(fn, 0)
}

func (k *Keyword) walk(fn func(*Keyword, int), depth int) {
	fn(k, depth)
	for _, c := range k.Children {
		c.walk(fn, depth+1)
	}
}

func (k *Keyword) Type() ObjectType    { return TypeKeyword }
func (k *Keyword) UUID() *string       { return k.uuid }
func (k *Keyword) ParentUUID() *string { return k.parentUUID }
func (k *Keyword) ModelID() int64      { return deref(k.modelID) }
func (k *Keyword) IsValid() bool       { return k.uuid != nil }
