package audit

import (
	"time"

	"aplib-go/internal/plutil"
)

// Getter is a typed plist accessor such as plutil.String.
type Getter[T any] func(d plutil.Dict, key string) (T, bool)

// Get extracts key from d with getter and, when report is not nil,
// records the key as parsed or skipped with NotFound. Absence yields nil,
// never a zero value.
func Get[T any](d plutil.Dict, key string, getter Getter[T], report *Report) *T {
	v, ok := getter(d, key)
	if report != nil {
		if ok {
			report.Parsed(key)
		} else {
			report.Skip(key, NotFound)
		}
	}
	if !ok {
		return nil
	}
	return &v
}

// String is Get with plutil.String.
func String(d plutil.Dict, key string, report *Report) *string {
	return Get(d, key, plutil.String, report)
}

// Int is Get with plutil.Int.
func Int(d plutil.Dict, key string, report *Report) *int64 {
	return Get(d, key, plutil.Int, report)
}

// Bool is Get with plutil.Bool.
func Bool(d plutil.Dict, key string, report *Report) *bool {
	return Get(d, key, plutil.Bool, report)
}

// Real is Get with plutil.Real.
func Real(d plutil.Dict, key string, report *Report) *float64 {
	return Get(d, key, plutil.Real, report)
}

// Date is Get with plutil.Date.
func Date(d plutil.Dict, key string, report *Report) *time.Time {
	return Get(d, key, plutil.Date, report)
}

// Data returns the byte blob at key, or nil when absent.
func Data(d plutil.Dict, key string, report *Report) []byte {
	if v := Get(d, key, plutil.Data, report); v != nil {
		return *v
	}
	return nil
}

// Array returns the array at key and whether it was present.
func Array(d plutil.Dict, key string, report *Report) ([]any, bool) {
	if v := Get(d, key, plutil.Array, report); v != nil {
		return *v, true
	}
	return nil, false
}

// Dict returns the dictionary at key and whether it was present.
func Dict(d plutil.Dict, key string, report *Report) (plutil.Dict, bool) {
	if v := Get(d, key, plutil.Dictionary, report); v != nil {
		return *v, true
	}
	return nil, false
}
