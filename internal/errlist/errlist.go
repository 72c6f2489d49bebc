// Package errlist holds the finding records accumulated by checks and
// by the generator invocation, and their display ordering.
package errlist

import "sort"

// Record is a single finding: an optional file, an optional line and a
// message. The zero values carry meaning: File == "" means the finding
// is not attributed to a file, Line == 0 means no usable line number
// (so no code context is rendered for it).
type Record struct {
	File    string
	Line    int
	Message string
}

// HasFile reports whether the record is attributed to a file.
func (r Record) HasFile() bool { return r.File != "" }

// HasLine reports whether the record carries a usable line number.
func (r Record) HasLine() bool { return r.Line > 0 }

// List is an explicit accumulator of findings. Checks return a List
// and the driver concatenates them; there is no ambient global state.
type List []Record

// Add appends a record.
func (l *List) Add(rec Record) { *l = append(*l, rec) }

// AddMessage appends a record with no file or line attribution.
func (l *List) AddMessage(msg string) { *l = append(*l, Record{Message: msg}) }

// Extend appends all records of other.
func (l *List) Extend(other List) { *l = append(*l, other...) }

// Empty reports whether no findings were accumulated.
func (l List) Empty() bool { return len(l) == 0 }

// Sorted returns a copy ordered by (File, Line, Message). The order is
// total and stable: unattributed records (empty File) sort before any
// path, and line 0 before any real line, so the report is
// deterministic across runs.
func (l List) Sorted() List {
	out := make(List, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Message < b.Message
	})
	return out
}
