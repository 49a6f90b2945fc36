package audit

import (
	"fmt"
	"io"
	"sort"
)

// Reporter aggregates per-file Reports for a whole library, plus
// top-level events such as a file that could not be decoded at all.
type Reporter struct {
	parsed  map[string]*Report
	skipped map[string]SkipReason
	ignored map[string]struct{}
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{
		parsed:  make(map[string]*Report),
		skipped: make(map[string]SkipReason),
		ignored: make(map[string]struct{}),
	}
}

// Parsed stores the report for the object decoded from key (usually a path).
func (r *Reporter) Parsed(key string, report *Report) {
	delete(r.skipped, key)
	r.parsed[key] = report
}

// Skip records that key could not be loaded.
func (r *Reporter) Skip(key string, reason SkipReason) {
	delete(r.parsed, key)
	r.skipped[key] = reason
}

// Ignore records that key was seen but not loaded.
func (r *Reporter) Ignore(key string) {
	r.ignored[key] = struct{}{}
}

// Report returns the report stored for key.
func (r *Reporter) Report(key string) (*Report, bool) {
	rep, ok := r.parsed[key]
	return rep, ok
}

// SkipReasonFor returns the reason key was skipped.
func (r *Reporter) SkipReasonFor(key string) (SkipReason, bool) {
	reason, ok := r.skipped[key]
	return reason, ok
}

// ParsedKeys returns the keys of stored reports, sorted.
func (r *Reporter) ParsedKeys() []string {
	keys := make([]string, 0, len(r.parsed))
	for k := range r.parsed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SkippedKeys returns the top-level skipped keys, sorted.
func (r *Reporter) SkippedKeys() []string {
	keys := make([]string, 0, len(r.skipped))
	for k := range r.skipped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IgnoredKeys returns the top-level ignored keys, sorted.
func (r *Reporter) IgnoredKeys() []string { return sortedKeys(r.ignored) }

func (r *Reporter) ParsedCount() int  { return len(r.parsed) }
func (r *Reporter) SkippedCount() int { return len(r.skipped) }
func (r *Reporter) IgnoredCount() int { return len(r.ignored) }

// Summary counts, across all stored reports, how often each key was
// ignored and how often each key was skipped per reason.
type Summary struct {
	Ignored map[string]int
	Skipped map[string]map[SkipReason]int
}

// Summarize folds all stored reports into a Summary.
func (r *Reporter) Summarize() *Summary {
	s := &Summary{
		Ignored: make(map[string]int),
		Skipped: make(map[string]map[SkipReason]int),
	}
	for _, rep := range r.parsed {
		for k := range rep.ignored {
			s.Ignored[k]++
		}
		for k, reason := range rep.skipped {
			if s.Skipped[k] == nil {
				s.Skipped[k] = make(map[SkipReason]int)
			}
			s.Skipped[k][reason]++
		}
	}
	return s
}

// Print writes a human-readable audit. With verbose, every per-file
// report is listed; otherwise only the library-wide summary.
func (r *Reporter) Print(w io.Writer, verbose bool) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Parsed %d files, skipped %d, ignored %d\n", r.ParsedCount(), r.SkippedCount(), r.IgnoredCount())
	for _, k := range r.SkippedKeys() {
		printf("SKIPPED %s: %s\n", k, r.skipped[k])
	}
	for _, k := range r.IgnoredKeys() {
		printf("IGNORED %s\n", k)
	}

	if verbose {
		for _, k := range r.ParsedKeys() {
			rep := r.parsed[k]
			printf("%s: %d parsed, %d skipped, %d ignored\n", k, rep.ParsedCount(), rep.SkippedCount(), rep.IgnoredCount())
			for _, sk := range rep.SkippedKeys() {
				printf("\tskipped %s: %s\n", sk, rep.skipped[sk])
			}
			for _, ik := range rep.IgnoredKeys() {
				printf("\tignored %s\n", ik)
			}
		}
		return err
	}

	s := r.Summarize()
	ignored := make([]string, 0, len(s.Ignored))
	for k := range s.Ignored {
		ignored = append(ignored, k)
	}
	sort.Strings(ignored)
	for _, k := range ignored {
		printf("ignored key %s (%d)\n", k, s.Ignored[k])
	}

	skipped := make([]string, 0, len(s.Skipped))
	for k := range s.Skipped {
		skipped = append(skipped, k)
	}
	sort.Strings(skipped)
	for _, k := range skipped {
		reasons := make([]SkipReason, 0, len(s.Skipped[k]))
		for reason := range s.Skipped[k] {
			reasons = append(reasons, reason)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, reason := range reasons {
			printf("skipped key %s: %s (%d)\n", k, reason, s.Skipped[k][reason])
		}
	}
	return err
}
