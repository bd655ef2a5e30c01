/*
Package pos implements source positions for diagnostics.

A position is either a byte range within a named source unit, or a
synthetic origin carrying an explanation of how it came to be (for example
"generated by macro expansion of rule X"). Positions never affect semantic
equality of the values they annotate; they exist purely for diagnostics.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package pos

import "fmt"

// Pos is a source position: either a byte range inside a named source unit,
// or a synthetic origin.
type Pos struct {
	synthetic bool
	source    string // name of the source unit ("" for synthetic)
	start     int
	end       int
	reason    string // explanation, set only when synthetic
}

// Range returns a position pointing at [start, end) within source.
func Range(source string, start, end int) Pos {
	return Pos{source: source, start: start, end: end}
}

// Synthetic returns a position with no backing source text, carrying an
// explanation of how the annotated value came to exist.
func Synthetic(reason string) Pos {
	return Pos{synthetic: true, reason: reason}
}

// None is the zero-value position: neither a range nor an explained
// synthetic origin. Used where no position is available at all (e.g. an
// empty parser snippet with no preceding token).
var None = Pos{}

// IsSynthetic reports whether this position has no backing source range.
func (p Pos) IsSynthetic() bool { return p.synthetic }

// IsNone reports whether this is the zero position.
func (p Pos) IsNone() bool { return !p.synthetic && p.source == "" && p.start == 0 && p.end == 0 }

// Source returns the name of the source unit, or "" for synthetic/none.
func (p Pos) Source() string { return p.source }

// Span returns the byte range. Meaningless for synthetic/none positions.
func (p Pos) Span() (start, end int) { return p.start, p.end }

// Reason returns the synthetic explanation, or "" if this isn't synthetic.
func (p Pos) Reason() string { return p.reason }

// Extend returns the smallest range position covering both p and other.
// Both must be non-synthetic range positions in the same source; if either
// is synthetic or none, the other is returned unchanged.
func (p Pos) Extend(other Pos) Pos {
	if p.synthetic || p.IsNone() {
		return other
	}
	if other.synthetic || other.IsNone() {
		return p
	}
	start, end := p.start, p.end
	if other.start < start {
		start = other.start
	}
	if other.end > end {
		end = other.end
	}
	return Pos{source: p.source, start: start, end: end}
}

func (p Pos) String() string {
	if p.synthetic {
		return fmt.Sprintf("<synthetic: %s>", p.reason)
	}
	if p.IsNone() {
		return "<no position>"
	}
	return fmt.Sprintf("%s:%d…%d", p.source, p.start, p.end)
}
