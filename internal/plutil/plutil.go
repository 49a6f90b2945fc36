// Package plutil reads Apple property lists and extracts typed values from
// the decoded tree.
//
// Getters never coerce: a key holding an integer requested as a string is
// reported as absent, exactly like a missing key.
package plutil

import (
	"errors"
	"fmt"
	"os"
	"time"

	"howett.net/plist"
)

// Dict is a decoded plist dictionary.
type Dict = map[string]any

// ErrNotDictionary is returned when the root of a plist is not a dictionary.
var ErrNotDictionary = errors.New("plist root is not a dictionary")

// Kind identifies the variant held by a decoded plist value.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindReal
	KindBoolean
	KindDate
	KindData
	KindArray
	KindDictionary
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindData:
		return "data"
	case KindArray:
		return "array"
	case KindDictionary:
		return "dictionary"
	default:
		return "invalid"
	}
}

// KindOf classifies a decoded plist value.
func KindOf(v any) Kind {
	switch v.(type) {
	case string:
		return KindString
	case int64, uint64, int, int32, uint32:
		return KindInteger
	case float64, float32:
		return KindReal
	case bool:
		return KindBoolean
	case time.Time:
		return KindDate
	case []byte:
		return KindData
	case []any:
		return KindArray
	case map[string]any:
		return KindDictionary
	default:
		return KindInvalid
	}
}

// ParseFileValue decodes the plist at path (XML, binary or OpenStep) and
// returns its root value.
func ParseFileValue(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plist: %w", err)
	}
	return ParseBytesValue(data)
}

// ParseBytesValue decodes a plist document held in memory.
func ParseBytesValue(data []byte) (any, error) {
	var v any
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding plist: %w", err)
	}
	return v, nil
}

// ParseFileDict decodes the plist at path and requires a dictionary root.
func ParseFileDict(path string) (Dict, error) {
	v, err := ParseFileValue(path)
	if err != nil {
		return nil, err
	}
	d, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDictionary)
	}
	return d, nil
}

// ParseFile decodes the plist at path. A missing or corrupt file, or a
// root that is not a dictionary, yields an empty dictionary.
func ParseFile(path string) Dict {
	d, err := ParseFileDict(path)
	if err != nil {
		return Dict{}
	}
	return d
}

// ParseBytes is ParseFile for in-memory documents.
func ParseBytes(data []byte) Dict {
	v, err := ParseBytesValue(data)
	if err != nil {
		return Dict{}
	}
	d, ok := v.(map[string]any)
	if !ok {
		return Dict{}
	}
	return d
}

// String returns the string stored at key.
func String(d Dict, key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

// Int returns the integer stored at key.
func Int(d Dict, key string) (int64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	return AsInt(v)
}

// Uint returns the integer stored at key reinterpreted as unsigned.
func Uint(d Dict, key string) (uint64, bool) {
	n, ok := Int(d, key)
	return uint64(n), ok
}

// Bool returns the boolean stored at key.
func Bool(d Dict, key string) (bool, bool) {
	b, ok := d[key].(bool)
	return b, ok
}

// Real returns the real number stored at key. Integers are not accepted.
func Real(d Dict, key string) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	return AsReal(v)
}

// Date returns the date stored at key, in UTC.
func Date(d Dict, key string) (time.Time, bool) {
	v, ok := d[key]
	if !ok {
		return time.Time{}, false
	}
	return AsDate(v)
}

// Data returns a copy of the byte blob stored at key.
func Data(d Dict, key string) ([]byte, bool) {
	b, ok := d[key].([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Array returns a shallow copy of the array stored at key.
func Array(d Dict, key string) ([]any, bool) {
	a, ok := d[key].([]any)
	if !ok {
		return nil, false
	}
	return append([]any(nil), a...), true
}

// Dictionary returns a shallow copy of the dictionary stored at key.
func Dictionary(d Dict, key string) (Dict, bool) {
	sub, ok := d[key].(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(Dict, len(sub))
	for k, v := range sub {
		out[k] = v
	}
	return out, true
}

// AsInt normalizes a decoded integer variant to int64.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

// AsReal normalizes a decoded real variant to float64.
func AsReal(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	default:
		return 0, false
	}
}

// AsDate normalizes a decoded date to UTC.
func AsDate(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Keys returns the keys of d in unspecified order.
func Keys(d Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	return keys
}
