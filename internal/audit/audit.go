// Package audit records which keys of a decoded plist were consumed,
// skipped or left unaccounted for, so schema drift across library versions
// shows up as data instead of crashing the loaders.
package audit

import (
	"sort"

	"aplib-go/internal/plutil"
)

// SkipReason explains why a key was not parsed.
type SkipReason int

const (
	// None is the zero reason.
	None SkipReason = iota
	// NotFound means the key is absent or holds an unexpected type.
	NotFound
	// InvalidType means the value type could not be represented.
	InvalidType
	// InvalidData means the value is well typed but semantically invalid.
	InvalidData
	// ParseFailed means a whole document could not be decoded.
	ParseFailed
	// Ignore marks keys that are deliberately not decoded.
	Ignore
	// UnknownProp marks a typed property with no translation rule.
	UnknownProp
)

func (r SkipReason) String() string {
	switch r {
	case NotFound:
		return "NotFound"
	case InvalidType:
		return "InvalidType"
	case InvalidData:
		return "InvalidData"
	case ParseFailed:
		return "ParseFailed"
	case Ignore:
		return "Ignore"
	case UnknownProp:
		return "UnknownProp"
	default:
		return "None"
	}
}

// Report is the audit of a single decoded object. The parsed, skipped and
// ignored sets are kept disjoint.
type Report struct {
	parsed  map[string]struct{}
	skipped map[string]SkipReason
	ignored map[string]struct{}
}

// NewReport returns an empty Report.
func NewReport() *Report {
	return &Report{
		parsed:  make(map[string]struct{}),
		skipped: make(map[string]SkipReason),
		ignored: make(map[string]struct{}),
	}
}

// Parsed records key as successfully extracted.
func (r *Report) Parsed(key string) {
	delete(r.skipped, key)
	delete(r.ignored, key)
	r.parsed[key] = struct{}{}
}

// Skip records key as skipped for reason.
func (r *Report) Skip(key string, reason SkipReason) {
	delete(r.parsed, key)
	delete(r.ignored, key)
	r.skipped[key] = reason
}

// Ignore records key as present in the source but never asked for.
// Keys already parsed or skipped are left alone.
func (r *Report) Ignore(key string) {
	if r.IsKnown(key) {
		return
	}
	r.ignored[key] = struct{}{}
}

// IsKnown reports whether key has been parsed or skipped.
func (r *Report) IsKnown(key string) bool {
	if _, ok := r.parsed[key]; ok {
		return true
	}
	_, ok := r.skipped[key]
	return ok
}

// IsParsed reports whether key was parsed.
func (r *Report) IsParsed(key string) bool {
	_, ok := r.parsed[key]
	return ok
}

// SkipReasonFor returns the reason key was skipped.
func (r *Report) SkipReasonFor(key string) (SkipReason, bool) {
	reason, ok := r.skipped[key]
	return reason, ok
}

// IsIgnored reports whether key was left unaccounted for.
func (r *Report) IsIgnored(key string) bool {
	_, ok := r.ignored[key]
	return ok
}

// ParsedKeys returns the parsed keys, sorted.
func (r *Report) ParsedKeys() []string { return sortedKeys(r.parsed) }

// IgnoredKeys returns the ignored keys, sorted.
func (r *Report) IgnoredKeys() []string { return sortedKeys(r.ignored) }

// SkippedKeys returns the skipped keys, sorted.
func (r *Report) SkippedKeys() []string {
	keys := make([]string, 0, len(r.skipped))
	for k := range r.skipped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Skipped returns a copy of the skipped keys and their reasons.
func (r *Report) Skipped() map[string]SkipReason {
	out := make(map[string]SkipReason, len(r.skipped))
	for k, v := range r.skipped {
		out[k] = v
	}
	return out
}

func (r *Report) ParsedCount() int  { return len(r.parsed) }
func (r *Report) SkippedCount() int { return len(r.skipped) }
func (r *Report) IgnoredCount() int { return len(r.ignored) }

// AuditIgnored marks every key of d that was neither parsed nor skipped as
// ignored. When ns is not empty the ignored key is recorded as "ns.key".
func (r *Report) AuditIgnored(d plutil.Dict, ns string) {
	for key := range d {
		if r.IsKnown(key) {
			continue
		}
		if ns != "" {
			key = ns + "." + key
		}
		r.Ignore(key)
	}
}

// Merge folds other into r, prefixing each key with prefix and a dot
// when prefix is not empty.
func (r *Report) Merge(prefix string, other *Report) {
	if other == nil {
		return
	}
	name := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	for k := range other.parsed {
		r.Parsed(name(k))
	}
	for k, reason := range other.skipped {
		r.Skip(name(k), reason)
	}
	for k := range other.ignored {
		r.Ignore(name(k))
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
