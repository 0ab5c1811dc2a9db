// Package parse turns shell source text into binary command trees.
//
// The grammar is deliberately small. Commands are joined by the binary
// operators ";" (and newline), "&", "|", "&&" and "||", all left-associative;
// the separators bind loosest, "&&" and "||" tighter, "|" tightest:
//
//	list     = andor { sep [ andor ] }          sep = ";" | "&" | newline
//	andor    = pipeline { ("&&" | "||") pipeline }
//	pipeline = leaf { "|" leaf }
//	leaf     = { word | redir }
//
// A trailing ";" or newline is allowed; a trailing "&" is an error, since
// "&" joins two commands here rather than backgrounding one.
//
// Words are concatenations of barewords, single-quoted and double-quoted
// segments; there is no expansion of any kind. Comments run from # to the end
// of the line, and \<newline> is a line continuation.
package parse

import (
	"bytes"
	"fmt"
	"strings"
)

// Node is implemented by all syntax tree nodes.
type Node interface {
	Begin() int
	End() int
	Parent() Node

	setBegin(int)
	setEnd(int)
	setParent(Node)
}

type node struct {
	begin  int
	end    int
	parent Node
}

func (n *node) Begin() int       { return n.begin }
func (n *node) setBegin(i int)   { n.begin = i }
func (n *node) End() int         { return n.end }
func (n *node) setEnd(i int)     { n.end = i }
func (n *node) Parent() Node     { return n.parent }
func (n *node) setParent(m Node) { n.parent = m }

// Op identifies the operator of a Command node.
type Op int

const (
	// OpNone marks a leaf node, which carries a Leaf payload instead of
	// children.
	OpNone Op = iota
	// OpSeq runs the left tree, then the right tree (";" or newline).
	OpSeq
	// OpPar runs both trees concurrently and waits for both ("&").
	OpPar
	// OpPipe connects the left tree's stdout to the right tree's stdin ("|").
	OpPipe
	// OpAndIf runs the right tree only if the left tree succeeded ("&&").
	OpAndIf
	// OpOrIf runs the right tree only if the left tree failed ("||").
	OpOrIf
)

var opNames = [...]string{"None", "Seq", "Par", "Pipe", "AndIf", "OrIf"}

func (op Op) String() string {
	if 0 <= int(op) && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// RedirFlags is a bitmask selecting append mode for the output redirections
// of a Leaf. The bits for stdout and stderr are independent.
type RedirFlags int

const (
	// AppendOut selects append over truncate for the stdout target.
	AppendOut RedirFlags = 1 << iota
	// AppendErr selects append over truncate for the stderr target.
	AppendErr
)

func (f RedirFlags) String() string {
	switch f {
	case 0:
		return "0"
	case AppendOut:
		return "AppendOut"
	case AppendErr:
		return "AppendErr"
	case AppendOut | AppendErr:
		return "AppendOut|AppendErr"
	}
	return fmt.Sprintf("RedirFlags(%d)", int(f))
}

// Command is one node of a command tree. Operator nodes have Left and Right
// set and a nil Leaf; leaf nodes have Op == OpNone and carry the payload in
// Leaf.
type Command struct {
	node
	Op    Op
	Left  *Command
	Right *Command
	Leaf  *Leaf
}

// Leaf is a simple command: a verb with its arguments, plus optional
// redirection targets. An empty target string means the stream is not
// redirected; Flags picks append mode per output target.
type Leaf struct {
	node
	Name  string
	Args  []string
	In    string
	Out   string
	Err   string
	Flags RedirFlags
}

// Parse parses source text into a command tree. The tree is nil when the
// input contains no commands at all. When the input has syntax errors, Parse
// returns the partial tree along with an [Error] carrying all of them; such a
// tree must not be executed.
func Parse(text string) (*Command, error) {
	p := newParser(text)
	n := parseList(p)
	if p.rest() != "" {
		p.errorf("unparsed code")
	}
	if len(p.err.Errors) == 0 {
		return n, nil
	}
	return n, p.err
}

// Characters that terminate a bareword. Quotes are not included here: they
// switch the word lexer into a quoted segment and the word continues.
const wordStopper = " \t\r\n;&|<>"

var (
	barewordStopper    = wordStopper + `'"`
	rawBarewordStopper = barewordStopper + `\`
)

// commandStopper contains the characters that cannot start a command. "&>"
// can, despite '&' being listed; mayParseCommand special-cases it.
const commandStopper = " \t\r\n;&|"

func (p *parser) mayParseCommand() bool {
	return p.hasPrefix("&>") || p.nextInCompl(commandStopper)
}

// list = andor { sep [ andor ] }
func parseList(p *parser) *Command {
	p.skipWhitespace()
	if !p.mayParseCommand() {
		return nil
	}
	c := parseAndOr(p)
	for {
		sep := p.consumePrefixIn(";", "&", "\n")
		if sep == "" {
			return c
		}
		p.skipWhitespace()
		if !p.mayParseCommand() {
			if sep == "&" {
				p.errorf("missing command after '&'")
			}
			return c
		}
		right := parseAndOr(p)
		if sep == "&" {
			c = opNode(OpPar, c, right)
		} else {
			c = opNode(OpSeq, c, right)
		}
	}
}

// andor = pipeline { ("&&" | "||") pipeline }
func parseAndOr(p *parser) *Command {
	c := parsePipeline(p)
	for {
		op := p.consumePrefixIn("&&", "||")
		if op == "" {
			return c
		}
		p.skipWhitespace()
		right := parsePipeline(p)
		if op == "&&" {
			c = opNode(OpAndIf, c, right)
		} else {
			c = opNode(OpOrIf, c, right)
		}
	}
}

// pipeline = leaf { "|" leaf }
func parsePipeline(p *parser) *Command {
	c := parseLeaf(p)
	for p.hasPrefix("|") && !p.hasPrefix("||") {
		p.consume(1)
		p.skipWhitespace()
		c = opNode(OpPipe, c, parseLeaf(p))
	}
	return c
}

// opNode folds two subtrees under a new operator node, wiring positions and
// parent pointers.
func opNode(op Op, left, right *Command) *Command {
	c := &Command{Op: op, Left: left, Right: right}
	c.setBegin(left.Begin())
	c.setEnd(right.End())
	left.setParent(c)
	right.setParent(c)
	return c
}

// Redirection operators, longest first so that consumePrefixIn never
// truncates one into a shorter operator.
var redirOps = []string{"2>>", "2>", "&>>", "&>", ">>", ">", "<"}

// leaf = { word | redir }
//
// The first word is the verb; later redirections of the same stream
// override earlier ones.
func parseLeaf(p *parser) *Command {
	c := &Command{}
	lf := &Leaf{}
	c.setBegin(p.pos)
	lf.setBegin(p.pos)
	haveName := false
	items := 0
	end := p.pos
items:
	for {
		switch {
		case p.hasPrefixIn(redirOps...) != "":
			parseRedir(p, lf)
		case p.nextInCompl(wordStopper):
			w := parseWord(p)
			if haveName {
				lf.Args = append(lf.Args, w)
			} else {
				lf.Name, haveName = w, true
			}
		default:
			break items
		}
		items++
		end = p.pos
		p.skipInline()
	}
	if items == 0 {
		p.errorf("missing command")
	}
	lf.setEnd(end)
	c.setEnd(end)
	c.Leaf = lf
	lf.setParent(c)
	return c
}

// redir = op word. The target word must follow on the same logical line.
func parseRedir(p *parser, lf *Leaf) {
	op := p.consumePrefixIn(redirOps...)
	p.skipInline()
	if !p.nextInCompl(wordStopper) {
		p.errorf("missing redirection target after %q", op)
		return
	}
	target := parseWord(p)
	switch op {
	case "<":
		lf.In = target
	case ">":
		lf.Out = target
		lf.Flags &^= AppendOut
	case ">>":
		lf.Out = target
		lf.Flags |= AppendOut
	case "2>":
		lf.Err = target
		lf.Flags &^= AppendErr
	case "2>>":
		lf.Err = target
		lf.Flags |= AppendErr
	case "&>":
		lf.Out, lf.Err = target, target
		lf.Flags &^= AppendOut | AppendErr
	case "&>>":
		lf.Out, lf.Err = target, target
		lf.Flags |= AppendOut | AppendErr
	}
}

// word = { bareword | 'single quoted' | "double quoted" }
//
// Adjacent segments concatenate into one word, so a'b'"c" is the single word
// "abc". Quoting is purely syntactic: a quoted | is an ordinary word
// character, not an operator.
func parseWord(p *parser) string {
	var b strings.Builder
	for {
		switch {
		case p.consumePrefix("'"):
			b.WriteString(parseSingleQuoted(p))
		case p.consumePrefix(`"`):
			b.WriteString(parseDoubleQuoted(p))
		case p.nextInCompl(barewordStopper):
			b.WriteString(parseBareword(p))
		default:
			return b.String()
		}
	}
}

// Single quotes preserve everything up to the closing quote, including
// backslashes. Since the parser strips \<newline> before scanning, the value
// is recovered from the original text.
func parseSingleQuoted(p *parser) string {
	begin := p.pos
	_ = p.consumeWhileNotIn("'")
	end := p.pos
	// recoverPos returns a position after all line continuations. When the
	// single-quoted string has leading line continuations, those will be
	// skipped. Hence, we adjust begin to the position of the opening quote,
	// and adjust it back after recovery.
	value := p.orig[p.recoverPos(begin-1)+1 : p.recoverPos(end)]
	if !p.consumePrefix("'") {
		p.errorf("unterminated single-quoted string")
	}
	return value
}

// Inside double quotes, backslash escapes only '"' and '\'; any other
// backslash is kept literally.
func parseDoubleQuoted(p *parser) string {
	var b strings.Builder
	lastBackslash := false
	p.consumeWhile(func(r rune) bool {
		if lastBackslash {
			if r != '"' && r != '\\' {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
			lastBackslash = false
			return true
		} else if r == '\\' {
			lastBackslash = true
			return true
		} else if r == '"' {
			return false
		}
		b.WriteRune(r)
		return true
	})
	if !p.consumePrefix(`"`) {
		p.errorf("unterminated double-quoted string")
	}
	return b.String()
}

// In a bareword, backslash escapes the next character unconditionally.
func parseBareword(p *parser) string {
	// Optimization: consume a prefix that does not contain backslashes. This
	// avoids building a bytes.Buffer when the bareword is free of them.
	raw := p.consumeWhileNotIn(rawBarewordStopper)
	if !p.hasPrefix(`\`) {
		return raw
	}
	buf := bytes.NewBufferString(raw)
	lastBackslash := false
	p.consumeWhile(func(r rune) bool {
		if lastBackslash {
			buf.WriteRune(r)
			lastBackslash = false
			return true
		} else if r == '\\' {
			lastBackslash = true
			return true
		} else if runeIn(r, barewordStopper) {
			return false
		}
		buf.WriteRune(r)
		return true
	})
	return buf.String()
}
