package macro

import (
	"golang.org/x/exp/slices"

	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/name"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/toktree"
)

// ScalarKind selects which of ScalarMatcher's fields are meaningful.
type ScalarKind uint8

const (
	ScalarName ScalarKind = iota
	ScalarAtom
	ScalarBracket
	ScalarLambda
	ScalarPlaceholder
)

// ScalarMatcher matches exactly one tree node (§4.9's per-position scalar
// cases: Name, Atom, Bracket, Lambda, Placeholder).
type ScalarMatcher struct {
	Kind  ScalarKind
	Sym   name.Sym          // ScalarName
	Atom  toktree.AtomValue // ScalarAtom
	Paren toktree.Paren     // ScalarBracket
	Sub   *VecMatcher       // ScalarBracket/ScalarLambda: the body's matcher
	Ph    toktree.Placeholder
}

// VecMatcher matches a contiguous subsequence. The four shapes named in
// §4.9 (Placeh, Scan{Left}, Scan{Right}, Middle) share one struct: Left/
// Right are nil exactly where the corresponding "outer" recursion is empty.
// Placeh is both nil with no separators either side. Scan is exactly one of
// Left/Right nil: there is only one free split position to search, so it
// is matched by walking candidates in Dir's order and taking the first
// success, not by ranking candidates. Middle is both non-nil: every split
// is tried and the widest anchor capture wins, ties broken by KeyOrder.
// Scan and Middle are different in kind, not degree — a Scan has no
// competing candidates to rank in the first place (§4.9).
type VecMatcher struct {
	Scalar bool            // true: match a fixed-length run, Scalars holds it
	Scalars []ScalarMatcher // valid when Scalar

	Left     *VecMatcher // nil if the left outer part is empty
	LeftSep  []ScalarMatcher
	Ph       toktree.Placeholder
	RightSep []ScalarMatcher
	Right    *VecMatcher // nil if the right outer part is empty

	// Dir is the split-search order used when this is a Scan matcher
	// (exactly one of Left/Right nil); meaningless for Placeh and Middle.
	Dir ScanDir

	// KeyOrder lists the vector placeholder names found in Left/Right,
	// sorted by descending priority, used to break ties between equally
	// long candidate splits (§4.9's Middle ranking: longest inner match
	// first, then lexicographic on sub-capture length in this order).
	KeyOrder []interner.Token
}

// ScanDir selects which way a Scan matcher tries candidate split
// positions (§4.9). The first position whose separator and both sides
// match wins outright; there is no "widest" candidate to prefer the way
// Middle has one.
type ScanDir uint8

const (
	// ScanLeft is used when nothing precedes the anchor at this level
	// (Left == nil): the anchor's own capture grows from empty, so the
	// split nearest the left edge that works wins (§4.9 "Scan{Left}:
	// iterate split index left-to-right, first successful split wins").
	ScanLeft ScanDir = iota
	// ScanRight is used when nothing follows the anchor at this level
	// (Right == nil): the split nearest the right edge that works wins
	// (§4.9 "Scan{Right}: ... right-to-left").
	ScanRight
)

// BoundNames collects every placeholder name a pattern binds, at any
// nesting depth, for CheckTemplate's bound-ness check.
func BoundNames(pattern []Tree) map[interner.Token]struct{} {
	out := make(map[interner.Token]struct{})
	var walk func(seq []Tree)
	walk = func(seq []Tree) {
		for _, t := range seq {
			switch t.Kind {
			case toktree.KindPlaceholder:
				out[t.Ph.Name] = struct{}{}
			case toktree.KindBracket, toktree.KindLambdaHead:
				walk(t.Body)
			}
		}
	}
	walk(pattern)
	return out
}

func isVecPlaceholder(t Tree) bool {
	return t.Kind == toktree.KindPlaceholder && t.Ph.Kind == toktree.PhVector
}

// Compile builds a VecMatcher for a whole pattern sequence (§4.9).
func Compile(pattern []Tree) (*VecMatcher, error) {
	if err := checkLinear(pattern); err != nil {
		return nil, err
	}
	if err := checkNeighbors(pattern); err != nil {
		return nil, err
	}
	return compileSeq(pattern)
}

// checkLinear rejects a pattern that uses the same placeholder name more
// than once: BindingState.merge assumes key-disjoint unions, so a
// non-linear pattern must be caught at construction time rather than
// panicking mid-match.
func checkLinear(pattern []Tree) error {
	seen := make(map[interner.Token]struct{})
	var walk func(seq []Tree) error
	walk = func(seq []Tree) error {
		for _, t := range seq {
			switch t.Kind {
			case toktree.KindPlaceholder:
				if _, dup := seen[t.Ph.Name]; dup {
					return orcerr.New(orcerr.KindMultiplePlaceholder,
						"this placeholder is used more than once in the same pattern", t.Pos)
				}
				seen[t.Ph.Name] = struct{}{}
			case toktree.KindBracket, toktree.KindLambdaHead:
				if err := walk(t.Body); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(pattern)
}

// checkNeighbors rejects two vector placeholders with nothing between them
// at the same level: the split between them would be unrecoverably
// ambiguous (§4.9's non-linearity/"VecNeighbors" construction-time check).
func checkNeighbors(seq []Tree) error {
	prevWasVec := false
	for _, t := range seq {
		if isVecPlaceholder(t) {
			if prevWasVec {
				return orcerr.New(orcerr.KindVecNeighbors,
					"two vector placeholders in a row have no separator to anchor a split", t.Pos)
			}
			prevWasVec = true
			continue
		}
		prevWasVec = false
		if t.Kind == toktree.KindBracket || t.Kind == toktree.KindLambdaHead {
			if err := checkNeighbors(t.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

func compileSeq(seq []Tree) (*VecMatcher, error) {
	// The anchor is the highest-priority vector placeholder; on a tie the
	// last one in pattern order wins (>= rather than >), matching
	// split_at_max_vec's position_max_by_key in the original.
	idx, found := -1, false
	var maxPrio uint
	for i, t := range seq {
		if !isVecPlaceholder(t) {
			continue
		}
		if !found || t.Ph.Priority >= maxPrio {
			idx, maxPrio, found = i, t.Ph.Priority, true
		}
	}
	if !found {
		scalars, err := compileScalars(seq)
		if err != nil {
			return nil, err
		}
		return &VecMatcher{Scalar: true, Scalars: scalars}, nil
	}

	anchor := seq[idx].Ph
	L, R := seq[:idx], seq[idx+1:]

	lSepStart := len(L)
	for lSepStart > 0 && !isVecPlaceholder(L[lSepStart-1]) {
		lSepStart--
	}
	lOuter, lSep := L[:lSepStart], L[lSepStart:]

	rSepEnd := 0
	for rSepEnd < len(R) && !isVecPlaceholder(R[rSepEnd]) {
		rSepEnd++
	}
	rSep, rOuter := R[:rSepEnd], R[rSepEnd:]

	lSepM, err := compileScalars(lSep)
	if err != nil {
		return nil, err
	}
	rSepM, err := compileScalars(rSep)
	if err != nil {
		return nil, err
	}

	var left, right *VecMatcher
	if len(lOuter) > 0 {
		left, err = compileSeq(lOuter)
		if err != nil {
			return nil, err
		}
	}
	if len(rOuter) > 0 {
		right, err = compileSeq(rOuter)
		if err != nil {
			return nil, err
		}
	}

	dir := ScanLeft
	if right == nil {
		dir = ScanRight
	}
	return &VecMatcher{
		Left: left, LeftSep: lSepM, Ph: anchor, RightSep: rSepM, Right: right,
		Dir:      dir,
		KeyOrder: keyOrder(lOuter, rOuter),
	}, nil
}

// keyOrder collects the vector placeholder names nested in left/right,
// sorted by descending priority.
func keyOrder(left, right []Tree) []interner.Token {
	type named struct {
		tok  interner.Token
		prio uint
	}
	var all []named
	var walk func(seq []Tree)
	walk = func(seq []Tree) {
		for _, t := range seq {
			if isVecPlaceholder(t) {
				all = append(all, named{t.Ph.Name, t.Ph.Priority})
			}
			if t.Kind == toktree.KindBracket || t.Kind == toktree.KindLambdaHead {
				walk(t.Body)
			}
		}
	}
	walk(left)
	walk(right)
	slices.SortStableFunc(all, func(a, b named) int {
		switch {
		case a.prio > b.prio:
			return -1
		case a.prio < b.prio:
			return 1
		default:
			return 0
		}
	})
	out := make([]interner.Token, len(all))
	for i, n := range all {
		out[i] = n.tok
	}
	return out
}

func compileScalars(seq []Tree) ([]ScalarMatcher, error) {
	out := make([]ScalarMatcher, len(seq))
	for i, t := range seq {
		m, err := compileScalar(t)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func compileScalar(t Tree) (ScalarMatcher, error) {
	switch t.Kind {
	case toktree.KindName:
		return ScalarMatcher{Kind: ScalarName, Sym: t.Sym}, nil
	case toktree.KindAtom:
		return ScalarMatcher{Kind: ScalarAtom, Atom: t.Atom}, nil
	case toktree.KindBracket:
		sub, err := compileSeq(t.Body)
		if err != nil {
			return ScalarMatcher{}, err
		}
		return ScalarMatcher{Kind: ScalarBracket, Paren: t.Paren, Sub: sub}, nil
	case toktree.KindLambdaHead:
		sub, err := compileSeq(t.Body)
		if err != nil {
			return ScalarMatcher{}, err
		}
		return ScalarMatcher{Kind: ScalarLambda, Sub: sub}, nil
	case toktree.KindPlaceholder:
		return ScalarMatcher{Kind: ScalarPlaceholder, Ph: t.Ph}, nil
	default:
		return ScalarMatcher{}, orcerr.New(orcerr.KindRuleConstruction,
			"this token kind cannot appear in a compiled pattern", t.Pos)
	}
}

// Binding is one placeholder's captured material: either a single tree
// (scalar/name placeholders) or a subsequence (vector placeholders).
type Binding struct {
	Vector bool
	Scalar Tree
	Seq    []Tree
}

// BindingState is the accumulated set of placeholder captures for one match
// attempt, keyed by placeholder name.
type BindingState map[interner.Token]Binding

// merge combines two key-disjoint binding states; it panics if they share a
// key, since rule construction already rejects non-linear patterns and a
// collision here means a compiler bug, not a user error.
func merge(a, b BindingState) BindingState {
	out := make(BindingState, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if _, dup := out[k]; dup {
			panic("macro: binding collision for a supposedly linear pattern")
		}
		out[k] = v
	}
	return out
}

// MatchScalar applies a scalar matcher to a single node.
func MatchScalar(m ScalarMatcher, t Tree) (BindingState, bool) {
	switch m.Kind {
	case ScalarName:
		if t.Kind != toktree.KindName {
			return nil, false
		}
		return BindingState{}, m.Sym.Equal(t.Sym)
	case ScalarAtom:
		if t.Kind != toktree.KindAtom {
			return nil, false
		}
		return BindingState{}, m.Atom.Equal(t.Atom)
	case ScalarBracket:
		if t.Kind != toktree.KindBracket || t.Paren != m.Paren {
			return nil, false
		}
		return MatchVec(m.Sub, t.Body)
	case ScalarLambda:
		if t.Kind != toktree.KindLambdaHead {
			return nil, false
		}
		return MatchVec(m.Sub, t.Body)
	case ScalarPlaceholder:
		if t.Done {
			return nil, false
		}
		if m.Ph.Kind == toktree.PhName && t.Kind != toktree.KindName {
			return nil, false
		}
		return BindingState{m.Ph.Name: {Scalar: t}}, true
	default:
		return nil, false
	}
}

// MatchVec applies a compiled vector matcher to a subsequence.
func MatchVec(m *VecMatcher, seq []Tree) (BindingState, bool) {
	if m.Scalar {
		if len(seq) != len(m.Scalars) {
			tracer().Debugf("macro: scalar match attempt failed, want %d token(s) got %d", len(m.Scalars), len(seq))
			return nil, false
		}
		state := BindingState{}
		for i, sm := range m.Scalars {
			b, ok := MatchScalar(sm, seq[i])
			if !ok {
				tracer().Debugf("macro: scalar match attempt failed at position %d", i)
				return nil, false
			}
			state = merge(state, b)
		}
		tracer().Debugf("macro: scalar match attempt succeeded against %d token(s)", len(seq))
		return state, true
	}

	if m.Left == nil && m.Right == nil && len(m.LeftSep) == 0 && len(m.RightSep) == 0 {
		if m.Ph.NonZero && len(seq) == 0 {
			return nil, false
		}
		return BindingState{m.Ph.Name: {Vector: true, Seq: append([]Tree{}, seq...)}}, true
	}

	if m.Left == nil && m.Right != nil || m.Right == nil && m.Left != nil {
		return scanMatch(m, seq)
	}

	return middleMatch(m, seq)
}

// scanMatch matches a Scan vector matcher: exactly one of Left/Right is
// nil, so there is exactly one free split position to search for, rather
// than a field of candidates to rank. It walks split widths in m.Dir's
// order and returns the first split whose separator(s) and present side(s)
// all match (§4.9).
func scanMatch(m *VecMatcher, seq []Tree) (BindingState, bool) {
	fixed := len(m.LeftSep) + len(m.RightSep)
	if len(seq) < fixed {
		return nil, false
	}
	maxWidth := len(seq) - fixed
	minWidth := 0
	if m.Ph.NonZero {
		minWidth = 1
	}
	if minWidth > maxWidth {
		return nil, false
	}

	for width := minWidth; width <= maxWidth; width++ {
		// For ScanRight the right side is forced empty, so the split
		// point trails the available span by exactly width; walking
		// width ascending therefore visits split descending, i.e.
		// right-to-left, without a separate loop direction.
		split := 0
		if m.Dir == ScanRight {
			split = maxWidth - width
		}

		leftPart := seq[:split]
		sepL := seq[split : split+len(m.LeftSep)]
		vecPart := seq[split+len(m.LeftSep) : split+len(m.LeftSep)+width]
		sepR := seq[split+len(m.LeftSep)+width : split+len(m.LeftSep)+width+len(m.RightSep)]
		rightPart := seq[split+len(m.LeftSep)+width+len(m.RightSep):]

		state, ok := matchSeps(m.LeftSep, sepL)
		if !ok {
			continue
		}
		rstate, ok := matchSeps(m.RightSep, sepR)
		if !ok {
			continue
		}
		state = merge(state, rstate)

		if m.Left != nil {
			lstate, ok := MatchVec(m.Left, leftPart)
			if !ok {
				continue
			}
			state = merge(state, lstate)
		} else if len(leftPart) != 0 {
			continue
		}
		if m.Right != nil {
			rvstate, ok := MatchVec(m.Right, rightPart)
			if !ok {
				continue
			}
			state = merge(state, rvstate)
		} else if len(rightPart) != 0 {
			continue
		}

		state = merge(state, BindingState{m.Ph.Name: {Vector: true, Seq: append([]Tree{}, vecPart...)}})
		tracer().Debugf("macro: scan match succeeded at split %d width %d (dir %d)", split, width, m.Dir)
		return state, true
	}
	return nil, false
}

// middleMatch matches a Placeh-with-fixed-separators or true Middle vector
// matcher by trying every split and keeping the widest anchor capture,
// ties broken by KeyOrder (§4.9's Middle ranking).
func middleMatch(m *VecMatcher, seq []Tree) (BindingState, bool) {
	var best BindingState
	bestLen := -1
	minLen := len(m.LeftSep) + len(m.RightSep)
	if m.Ph.NonZero {
		minLen++
	}
	for split := 0; split+len(m.LeftSep) <= len(seq); split++ {
		for width := 0; split+len(m.LeftSep)+width+len(m.RightSep) <= len(seq); width++ {
			total := len(m.LeftSep) + width + len(m.RightSep)
			if total < minLen {
				continue
			}
			leftPart := seq[:split]
			sepL := seq[split : split+len(m.LeftSep)]
			vecPart := seq[split+len(m.LeftSep) : split+len(m.LeftSep)+width]
			sepR := seq[split+len(m.LeftSep)+width : split+len(m.LeftSep)+width+len(m.RightSep)]
			rightPart := seq[split+len(m.LeftSep)+width+len(m.RightSep):]

			state, ok := matchSeps(m.LeftSep, sepL)
			if !ok {
				continue
			}
			rstate, ok := matchSeps(m.RightSep, sepR)
			if !ok {
				continue
			}
			state = merge(state, rstate)

			if m.Left != nil {
				lstate, ok := MatchVec(m.Left, leftPart)
				if !ok {
					continue
				}
				state = merge(state, lstate)
			} else if len(leftPart) != 0 {
				continue
			}
			if m.Right != nil {
				rvstate, ok := MatchVec(m.Right, rightPart)
				if !ok {
					continue
				}
				state = merge(state, rvstate)
			} else if len(rightPart) != 0 {
				continue
			}

			state = merge(state, BindingState{m.Ph.Name: {Vector: true, Seq: append([]Tree{}, vecPart...)}})

			if width > bestLen || (width == bestLen && betterTieBreak(state, best, m.KeyOrder)) {
				best, bestLen = state, width
			}
		}
	}
	return best, bestLen >= 0
}

func matchSeps(seps []ScalarMatcher, seq []Tree) (BindingState, bool) {
	if len(seps) != len(seq) {
		return nil, false
	}
	state := BindingState{}
	for i, sm := range seps {
		b, ok := MatchScalar(sm, seq[i])
		if !ok {
			return nil, false
		}
		state = merge(state, b)
	}
	return state, true
}

// betterTieBreak ranks two equally-wide candidate matches by the captured
// length of each key_order placeholder in turn (longest first), mirroring
// §4.9's lexicographic tie-break among same-length Middle splits.
func betterTieBreak(candidate, current BindingState, keyOrder []interner.Token) bool {
	if current == nil {
		return true
	}
	for _, k := range keyOrder {
		cl := seqLen(candidate[k])
		ol := seqLen(current[k])
		if cl != ol {
			return cl > ol
		}
	}
	return false
}

func seqLen(b Binding) int {
	if b.Vector {
		return len(b.Seq)
	}
	return 0
}
