package eval

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/minish-sh/minish/pkg/parse"
)

// runLeaf executes a simple command. Builtins are tried by name first; a
// verb containing '=' is an assignment only after the named builtins have
// been ruled out, so that dispatch order stays observable.
func (fm *frame) runLeaf(lf *parse.Leaf) int {
	if lf == nil || lf.Name == "" {
		return 1
	}
	switch lf.Name {
	case "exit", "quit":
		// The shell is going away; redirections are not performed and
		// arguments are ignored.
		return StatusShellExit
	case "cd":
		return fm.scopedRedirs(lf, fm.cd)
	case "pwd":
		return fm.scopedRedirs(lf, fm.pwd)
	}
	if strings.Contains(lf.Name, "=") {
		return fm.assign(lf)
	}
	return fm.scopedRedirs(lf, fm.runExternal)
}

// runExternal resolves the verb against the frame's PATH and runs it as a
// child process with the frame's fd table, environment and working
// directory. The child is always waited for.
func (fm *frame) runExternal(lf *parse.Leaf) int {
	path, status := lookPath(lf.Name, fm.wd, fm.env.get("PATH"))
	if status != 0 {
		fm.execFailed(lf.Name)
		return status
	}

	argv := append([]string{lf.Name}, lf.Args...)
	proc, err := os.StartProcess(path, argv, &os.ProcAttr{
		Dir:   fm.wd,
		Env:   fm.env.entries(),
		Files: fm.files,
	})
	if err != nil {
		fm.execFailed(lf.Name)
		return StatusCommandNotExecutable
	}

	state, err := proc.Wait()
	if err != nil {
		fm.diag("error waiting for process to finish: %v", err)
		return StatusWaitError
	}
	if state.Exited() {
		return state.ExitCode()
	}
	waitStatus := state.Sys().(syscall.WaitStatus)
	if waitStatus.Signaled() {
		return StatusSignalBase + int(waitStatus.Signal())
	}
	return StatusWaitOther
}

// execFailed reports a launch failure. Unlike other engine diagnostics this
// goes to the leaf's stderr, redirections included, because that is where
// the failing child process itself would have written it.
func (fm *frame) execFailed(verb string) {
	fmt.Fprintf(fm.files[2], "Execution failed for '%s'\n", verb)
}
