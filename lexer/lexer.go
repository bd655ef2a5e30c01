/*
Package lexer implements the hand-rolled recursive-descent lexer that turns
source text into a parse-level token tree (toktree.Tree). It is a direct
port of orchid-host's lex_once dispatch order: newline, namespace-separated
name, block comment, line comment, lambda head, macro placeholder, bracketed
group, plugin dispatch, bare name/operator, and finally an "unrecognized
character" failure.

Lex plugins extend the core dispatch for syntax the core doesn't know about
(numeric literals, string literals, ...). A plugin is offered the input
stream one character at a time (CanLex) and, once it accepts, is handed a
Recurse callback so it can ask the core lexer to lex a sub-expression at an
arbitrary offset — e.g. to lex the interpolated expressions inside a string
literal — without the core and the plugin knowing about each other's syntax.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/schuko/tracing"
	"github.com/orchid-lang/orchid/interner"
	"github.com/orchid-lang/orchid/orcerr"
	"github.com/orchid-lang/orchid/pos"
	"github.com/orchid-lang/orchid/toktree"
)

// tracer traces with key 'orchid.lexer'.
func tracer() tracing.Trace {
	return tracing.Select("orchid.lexer")
}

// NameStart reports whether c may begin a name token.
func NameStart(c rune) bool { return unicode.IsLetter(c) || c == '_' }

// NameChar reports whether c may continue a name token.
func NameChar(c rune) bool { return NameStart(c) || unicode.IsDigit(c) }

// OpChar reports whether c may be part of an operator token: anything that
// is not a name character, not whitespace, and not one of the bracket or
// lambda-introducer characters.
func OpChar(c rune) bool {
	return !NameChar(c) && !unicode.IsSpace(c) && !strings.ContainsRune("()[]{}\\", c)
}

// unrepSpace is whitespace that is insignificant and may be silently
// skipped; \r and \n are significant (they become BR tokens) and are
// excluded.
func unrepSpace(c rune) bool {
	return unicode.IsSpace(c) && !strings.ContainsRune("\r\n", c)
}

var parens = []struct {
	open, close byte
	kind        toktree.Paren
}{
	{'(', ')', toktree.Round},
	{'[', ']', toktree.Square},
	{'{', '}', toktree.Curly},
}

// Recurse asks the core lexer to lex a single token tree starting at byte
// offset at. It returns the tree and the byte offset just past it.
type Recurse func(at int) (toktree.Tree, int, error)

// Plugin is a lex-plugin extension point. CanLex is consulted only when no
// core rule matches at the current position; Lex is then invoked to consume
// as much of the input as the plugin's syntax requires.
type Plugin interface {
	// CanLex reports whether this plugin may own a token starting with c.
	CanLex(c rune) bool
	// Lex consumes the plugin's syntax starting at byte offset `at` in
	// source, returning the produced tree and the offset just past the
	// consumed text. matched is false if, despite CanLex returning true,
	// this plugin determined the text does not actually belong to it (the
	// core lexer then tries the next plugin, then falls through to
	// bare name/operator lexing).
	Lex(source string, at int, recurse Recurse) (tree toktree.Tree, end int, matched bool, err error)
}

// cursor tracks lexer state over one source text.
type cursor struct {
	sourceName string
	text       string
	pos        int
	plugins    []Plugin
	store      *interner.Store
}

// Lex tokenizes text in full, returning the top-level token sequence.
// sourceName is used only for position reporting.
func Lex(text, sourceName string, plugins []Plugin, store *interner.Store) ([]toktree.Tree, error) {
	c := &cursor{sourceName: sourceName, text: text, plugins: plugins, store: store}
	c.trim(unrepSpace)
	var out []toktree.Tree
	for c.pos < len(c.text) {
		t, err := c.lexOnce()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		c.trim(unrepSpace)
	}
	return out, nil
}

func (c *cursor) tail() string { return c.text[c.pos:] }

func (c *cursor) trim(pred func(rune) bool) {
	for len(c.tail()) > 0 {
		r, size := utf8.DecodeRuneInString(c.tail())
		if !pred(r) {
			return
		}
		c.pos += size
	}
}

func (c *cursor) stripPrefix(s string) bool {
	if strings.HasPrefix(c.tail(), s) {
		c.pos += len(s)
		return true
	}
	return false
}

// takeWhile consumes and returns the run of characters satisfying pred.
func (c *cursor) takeWhile(pred func(rune) bool) string {
	start := c.pos
	for len(c.tail()) > 0 {
		r, size := utf8.DecodeRuneInString(c.tail())
		if !pred(r) {
			break
		}
		c.pos += size
	}
	return c.text[start:c.pos]
}

func (c *cursor) peek() (rune, bool) {
	if len(c.tail()) == 0 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(c.tail())
	return r, true
}

func (c *cursor) at(offset int) pos.Pos {
	return pos.Range(c.sourceName, offset, c.pos)
}

// lexOnce lexes exactly one token tree starting at the current position. It
// is a precondition that the tail is non-empty and does not start with
// insignificant whitespace (callers trim before calling).
func (c *cursor) lexOnce() (toktree.Tree, error) {
	start := c.pos

	if c.stripPrefix("\r\n") || c.stripPrefix("\r") || c.stripPrefix("\n") {
		return toktree.BR(c.at(start)), nil
	}

	if r, ok := c.peek(); ok && NameStart(r) {
		if name, rest, ok := splitBeforeNS(c.tail()); ok {
			c.pos += len(name) + len("::")
			_ = rest
			body, err := c.lexOnce()
			if err != nil {
				return toktree.Tree{}, err
			}
			return toktree.NS(c.store.Intern(name), body, c.at(start)), nil
		}
	}

	if c.stripPrefix("--[") {
		idx := strings.Index(c.tail(), "]--")
		if idx < 0 {
			return toktree.Tree{}, orcerr.New(orcerr.KindUnterminatedBlockComment,
				"this block comment has no ending ]--", c.at(start))
		}
		comment := c.tail()[:idx]
		c.pos += idx + len("]--")
		return toktree.Comment(comment, c.at(start)), nil
	}

	if strings.HasPrefix(c.tail(), "--") {
		afterDashes := c.tail()[2:]
		isOpRun := false
		if afterDashes != "" {
			r, _ := utf8.DecodeRuneInString(afterDashes)
			isOpRun = OpChar(r)
		}
		if !isOpRun {
			c.pos += 2
			end := strings.IndexAny(c.tail(), "\r\n")
			if end < 0 {
				end = len(c.tail())
			}
			comment := c.tail()[:end]
			c.pos += end
			return toktree.Comment(comment, c.at(start)), nil
		}
	}

	if c.stripPrefix("\\") {
		var args []toktree.Tree
		c.trim(unrepSpace)
		for !c.stripPrefix(".") {
			if c.tail() == "" {
				return toktree.Tree{}, orcerr.New(orcerr.KindUnclosedLambda,
					"lambdas started with \\ must separate arguments from the body with .", c.at(start))
			}
			arg, err := c.lexOnce()
			if err != nil {
				return toktree.Tree{}, err
			}
			args = append(args, arg)
			c.trim(unrepSpace)
		}
		return toktree.LambdaHead(args, c.at(start)), nil
	}

	if r, ok := c.peek(); ok && (r == '$' || r == '.') {
		tree, matched, err := c.tryPlaceholder(start)
		if err != nil {
			return toktree.Tree{}, err
		}
		if matched {
			return tree, nil
		}
	}

	for _, pr := range parens {
		if !c.stripPrefix(string(pr.open)) {
			continue
		}
		var body []toktree.Tree
		c.trim(unrepSpace)
		for !c.stripPrefix(string(pr.close)) {
			if c.tail() == "" {
				return toktree.Tree{}, orcerr.New(orcerr.KindUnclosedParen,
					"this bracket has no matching close", c.at(start))
			}
			t, err := c.lexOnce()
			if err != nil {
				return toktree.Tree{}, err
			}
			body = append(body, t)
			c.trim(unrepSpace)
		}
		return toktree.Bracket(pr.kind, body, c.at(start)), nil
	}

	if r, ok := c.peek(); ok {
		for _, p := range c.plugins {
			if !p.CanLex(r) {
				continue
			}
			recurse := func(at int) (toktree.Tree, int, error) {
				sub := &cursor{sourceName: c.sourceName, text: c.text, pos: at, plugins: c.plugins, store: c.store}
				t, err := sub.lexOnce()
				if err != nil {
					return toktree.Tree{}, 0, err
				}
				return t, sub.pos, nil
			}
			tree, end, matched, err := p.Lex(c.text, c.pos, recurse)
			if err != nil {
				return toktree.Tree{}, err
			}
			if matched {
				c.pos = end
				return tree, nil
			}
		}
	}

	if r, ok := c.peek(); ok && NameStart(r) {
		name := c.takeWhile(NameChar)
		return toktree.Name(c.store.Intern(name), c.at(start)), nil
	}
	if r, ok := c.peek(); ok && OpChar(r) {
		name := c.takeWhile(OpChar)
		return toktree.Name(c.store.Intern(name), c.at(start)), nil
	}

	return toktree.Tree{}, orcerr.New(orcerr.KindUnrecognizedCharacter,
		"this syntax is meaningless", c.at(start))
}

// tryPlaceholder recognizes macro placeholder syntax (§3): "$name" (scalar),
// "$_name" (name-only), "..$name" (vector, possibly empty) and "...$name"
// (vector, non-empty), each optionally followed by ":N" to set the vector's
// tie-break priority. The bool result is false when the text at the current
// position is not a placeholder at all (a bare "." meant as an ordinary
// operator, say), in which case the caller falls through to ordinary lexing
// and nothing has been consumed. A "$" (after any dots) that is not followed
// by a name is a KindUnrecognizedCharacter error instead.
func (c *cursor) tryPlaceholder(start int) (toktree.Tree, bool, error) {
	s := c.tail()
	i, dots := 0, 0
	for i < len(s) && s[i] == '.' {
		i++
		dots++
	}
	if dots != 0 && dots != 2 && dots != 3 {
		return toktree.Tree{}, false, nil
	}
	if i >= len(s) || s[i] != '$' {
		return toktree.Tree{}, false, nil
	}
	i++

	kind := toktree.PhScalar
	if dots > 0 {
		kind = toktree.PhVector
	} else if i < len(s) && s[i] == '_' {
		kind = toktree.PhName
		i++
	}

	if i >= len(s) {
		return toktree.Tree{}, false, orcerr.New(orcerr.KindUnrecognizedCharacter,
			"expected a name after $", c.at(start))
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if !NameStart(r) {
		return toktree.Tree{}, false, orcerr.New(orcerr.KindUnrecognizedCharacter,
			"expected a name after $", c.at(start))
	}
	nameStart := i
	i += size
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !NameChar(r) {
			break
		}
		i += size
	}
	name := s[nameStart:i]

	var priority uint
	if kind == toktree.PhVector && i < len(s) && s[i] == ':' {
		digitsStart := i + 1
		j := digitsStart
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > digitsStart {
			n, err := strconv.ParseUint(s[digitsStart:j], 10, 0)
			if err == nil {
				priority = uint(n)
				i = j
			}
		}
	}

	c.pos += i
	ph := toktree.Placeholder{Name: c.store.Intern(name), Kind: kind, Priority: priority, NonZero: dots == 3}
	return toktree.Ph(ph, c.at(start)), true, nil
}

// splitBeforeNS recognizes a leading "name::" namespace segment: a run of
// name characters starting with a name-start character, immediately
// followed by "::". Returns the name and whatever follows the "::".
func splitBeforeNS(s string) (name, rest string, ok bool) {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !NameChar(r) {
			break
		}
		i += size
	}
	if i == 0 {
		return "", "", false
	}
	if !strings.HasPrefix(s[i:], "::") {
		return "", "", false
	}
	return s[:i], s[i+2:], true
}
