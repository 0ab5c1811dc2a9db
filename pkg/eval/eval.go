// Package eval executes command trees against the real operating system:
// real child processes, real kernel pipes, real file descriptors.
package eval

import (
	"fmt"
	"os"
	"sync"

	"github.com/minish-sh/minish/pkg/parse"
)

// Evaler executes command trees. It owns the shell's standard file table,
// its environment and its working directory; those persist across trees,
// everything else is per-execution state.
type Evaler struct {
	env   environ
	wd    string
	files []*os.File
}

// StdFiles is the standard file table of the calling process.
var StdFiles = []*os.File{os.Stdin, os.Stdout, os.Stderr}

// NewEvaler returns an Evaler using the given files as the shell's stdin,
// stdout and stderr; it panics when given fewer than 3. The environment and
// working directory are captured from the process once, at creation.
func NewEvaler(files []*os.File) *Evaler {
	if len(files) < 3 {
		panic("files must have at least 3 elements")
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "/"
	}
	return &Evaler{environFromOS(os.Environ()), wd, files}
}

// Eval parses and executes code. Syntax errors are reported to stderr and
// yield StatusSyntaxError without executing anything.
func (ev *Evaler) Eval(code string) int {
	n, err := parse.Parse(code)
	if err != nil {
		fmt.Fprintln(ev.files[2], "syntax error:", err)
		return StatusSyntaxError
	}
	return ev.EvalTree(n)
}

// EvalTree executes a command tree and returns its status. A nil tree is a
// no-op with status 0. The result is [StatusShellExit] when the tree asked
// the shell to terminate; any other value is an ordinary status.
func (ev *Evaler) EvalTree(n *parse.Command) int {
	if n == nil {
		return 0
	}
	fm := &frame{ev.env, ev.wd, ev.files, ev.files[2]}
	status := fm.run(n, 0)
	// cd in the top-level frame persists across trees; assignments already
	// land in the shared environment map.
	ev.wd = fm.wd
	return status
}

// Dir returns the shell's current working directory.
func (ev *Evaler) Dir() string {
	return ev.wd
}

// frame is the execution state of one subtree: environment, working
// directory and fd table. Sequential and conditional nodes run both sides in
// the same frame; parallel and pipe nodes give each side a clone, which is
// what isolates a subtree's cd, assignments and redirections from the parent
// and from its sibling.
type frame struct {
	env   environ
	wd    string
	files []*os.File
	// Engine diagnostics go to the stderr captured when the evaluation
	// started, not to wherever the table's index 2 currently points.
	diagFile *os.File
}

func (fm *frame) cloneForSubshell() *frame {
	return &frame{fm.env.clone(), fm.wd, cloneSlice(fm.files), fm.diagFile}
}

// diag prints an engine diagnostic message.
func (fm *frame) diag(format string, args ...any) {
	fmt.Fprintf(fm.diagFile, format+"\n", args...)
}

// run executes one node of the tree. depth counts recursion levels from the
// root and is informational.
func (fm *frame) run(c *parse.Command, depth int) int {
	switch c.Op {
	case parse.OpNone:
		return fm.runLeaf(c.Leaf)
	case parse.OpSeq:
		return fm.runSeq(c, depth)
	case parse.OpPar:
		return fm.runPar(c, depth)
	case parse.OpPipe:
		return fm.runPipe(c, depth)
	case parse.OpAndIf, parse.OpOrIf:
		return fm.runCond(c, depth)
	default:
		fm.diag("bug: unknown command op %v at depth %v", c.Op, depth)
		return StatusShellExit
	}
}

// runSeq runs the left tree and then, unless the left tree asked the shell
// to terminate, the right tree. The right tree runs even when the left one
// failed, and its status is the node's status.
func (fm *frame) runSeq(c *parse.Command, depth int) int {
	status := fm.run(c.Left, depth+1)
	if status == StatusShellExit {
		return status
	}
	return fm.run(c.Right, depth+1)
}

// runCond runs the right tree only when the left tree's status matches the
// operator: zero for OpAndIf, nonzero for OpOrIf. When the right tree is
// skipped the left status is the node's status.
func (fm *frame) runCond(c *parse.Command, depth int) int {
	status := fm.run(c.Left, depth+1)
	if status == StatusShellExit {
		return status
	}
	if (c.Op == parse.OpAndIf) != (status == 0) {
		return status
	}
	return fm.run(c.Right, depth+1)
}

// runPar runs both trees concurrently, each in its own subshell frame, and
// waits for both.
func (fm *frame) runPar(c *parse.Command, depth int) int {
	var statuses [2]int
	var wg sync.WaitGroup
	wg.Add(2)
	for i, sub := range []*parse.Command{c.Left, c.Right} {
		newFm := fm.cloneForSubshell()
		go func(i int, sub *parse.Command) {
			statuses[i] = newFm.run(sub, depth+1)
			wg.Done()
		}(i, sub)
	}
	wg.Wait()
	return joinStatuses(statuses[0], statuses[1])
}

// runPipe connects the left tree's stdout to the right tree's stdin through
// a kernel pipe and runs both concurrently, each in its own subshell frame.
func (fm *frame) runPipe(c *parse.Command, depth int) int {
	r, w, err := os.Pipe()
	if err != nil {
		fm.diag("unable to create pipe: %v", err)
		return StatusPipeError
	}
	left := fm.cloneForSubshell()
	left.files[1] = w
	right := fm.cloneForSubshell()
	right.files[0] = r

	var statuses [2]int
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		statuses[0] = left.run(c.Left, depth+1)
		// Close our copy as soon as the writer side is done so the reader
		// sees EOF. Close the pipe file itself rather than left.files[1],
		// which redirections may have replaced.
		w.Close()
		wg.Done()
	}()
	go func() {
		statuses[1] = right.run(c.Right, depth+1)
		r.Close()
		wg.Done()
	}()
	wg.Wait()
	return joinStatuses(statuses[0], statuses[1])
}

// joinStatuses combines the statuses of two subtrees that have both been
// waited for: a termination request from either side wins, and otherwise the
// combination succeeds only if both sides succeeded.
func joinStatuses(left, right int) int {
	if left == StatusShellExit || right == StatusShellExit {
		return StatusShellExit
	}
	if left == 0 && right == 0 {
		return 0
	}
	return 1
}

func cloneSlice[T any](s []T) []T {
	return append([]T(nil), s...)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	mm := make(map[K]V, len(m))
	for k, v := range m {
		mm[k] = v
	}
	return mm
}
