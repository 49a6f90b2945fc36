package aplib

import (
	"testing"

	"aplib-go/internal/audit"
	"aplib-go/internal/plutil"
)

// assertPartition fails when a key of d is neither parsed, skipped nor
// ignored in report.
func assertPartition(t *testing.T, d plutil.Dict, report *audit.Report) {
	t.Helper()
	for k := range d {
		if !report.IsKnown(k) && !report.IsIgnored(k) {
			t.Errorf("key %q is not accounted for in the report", k)
		}
	}
}

func ptr[T any](v T) *T { return &v }

// warnLogger keeps the messages passed to Warn.
type warnLogger struct {
	NopLogger
	warnings []string
}

func (l *warnLogger) Warn(msg string, _ ...any) { l.warnings = append(l.warnings, msg) }
