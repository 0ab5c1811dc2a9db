package parse

// Parser state and low-level scanning helpers.

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

type parser struct {
	orig string
	// Text with \<newline> removed.
	text string
	// Occurrences of line continuations, as indices into text. This is useful
	// when recovering the real position when reporting an error or parsing
	// single-quoted strings (which is the only place where \<newline> does not
	// function as line continuation).
	lineCont []int

	pos int
	err Error
}

func newParser(orig string) *parser {
	var lineCont []int
	buf := &bytes.Buffer{}

	lastBackslash := false
	for _, r := range orig {
		if lastBackslash {
			if r == '\n' {
				lineCont = append(lineCont, buf.Len())
			} else {
				buf.WriteRune('\\')
				buf.WriteRune(r)
			}
			lastBackslash = false
		} else if r == '\\' {
			lastBackslash = true
		} else {
			buf.WriteRune(r)
		}
	}
	// NOTE: \ just before EOF is treated as a line continuation.
	if lastBackslash {
		lineCont = append(lineCont, buf.Len())
	}
	return &parser{orig: orig, text: buf.String(), lineCont: lineCont}
}

func (p *parser) recoverPos(pos int) int {
	// sort.SearchInts(a, i+1) returns the number of elements in a that <= i.
	// Here, we find the number of line continuations that occur before pos
	// (inclusive). Each line continuation occupies two bytes.
	return pos + 2*sort.SearchInts(p.lineCont, pos+1)
}

func (p *parser) rest() string {
	return p.text[p.pos:]
}

func (p *parser) eof() bool {
	return p.rest() == ""
}

func (p *parser) errorf(format string, a ...interface{}) {
	p.err.Errors = append(p.err.Errors,
		ErrorEntry{p.recoverPos(p.pos), fmt.Sprintf(format, a...)})
}

func (p *parser) consume(i int) string {
	consumed := p.rest()[:i]
	p.pos += i
	return consumed
}

func (p *parser) consumeWhile(f func(r rune) bool) string {
	for i, r := range p.rest() {
		if !f(r) {
			return p.consume(i)
		}
	}
	return p.consume(len(p.rest()))
}

func (p *parser) consumeWhileNotIn(set string) string {
	return p.consumeWhile(func(r rune) bool { return !runeIn(r, set) })
}

func (p *parser) hasPrefix(prefix string) bool {
	return strings.HasPrefix(p.rest(), prefix)
}

func (p *parser) hasPrefixIn(prefixes ...string) string {
	for _, prefix := range prefixes {
		if p.hasPrefix(prefix) {
			return prefix
		}
	}
	return ""
}

func (p *parser) consumePrefix(prefix string) bool {
	return p.consumePrefixIn(prefix) == prefix
}

func (p *parser) consumePrefixIn(prefixes ...string) string {
	prefix := p.hasPrefixIn(prefixes...)
	p.consume(len(prefix))
	return prefix
}

func (p *parser) nextInCompl(set string) bool {
	r, size := utf8.DecodeRuneInString(p.rest())
	return size > 0 && !runeIn(r, set)
}

// Whitespace handling. The inline variant stops before newlines so that the
// list level can see them as command separators; both variants swallow
// comments, which run from # to the end of the line.

const (
	inlineWhitespaceSet = " \t\r"
	whitespaceSet       = inlineWhitespaceSet + "\n"
)

func (p *parser) skipInline() {
	p.skipWhitespacesAndComment(inlineWhitespaceSet)
}

func (p *parser) skipWhitespace() {
	p.skipWhitespacesAndComment(whitespaceSet)
}

func (p *parser) skipWhitespacesAndComment(set string) {
	comment := false
	p.consumeWhile(func(r rune) bool {
		if r == '#' {
			comment = true
		} else if r == '\n' {
			comment = false
		}
		return comment || runeIn(r, set)
	})
}

func runeIn(r rune, set string) bool {
	return strings.ContainsRune(set, r)
}

// Error aggregates all syntax errors found in one input.
type Error struct {
	Errors []ErrorEntry
}

// ErrorEntry is one syntax error. Position is a byte index into the original
// source text.
type ErrorEntry struct {
	Position int
	Message  string
}

func (err Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v parse errors: ", len(err.Errors))
	for i, e := range err.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%v: %v", e.Position, e.Message)
	}
	return b.String()
}
