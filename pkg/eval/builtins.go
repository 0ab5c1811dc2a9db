package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/minish-sh/minish/pkg/parse"
)

// cd changes the frame's working directory. The directory is a property of
// the frame, not of the process: children receive it via ProcAttr.Dir and
// subshells get their own copy, so a cd inside one side of a pipe or parallel
// node never leaks out.
func (fm *frame) cd(lf *parse.Leaf) int {
	if len(lf.Args) > 1 {
		fm.diag("cd: too many arguments")
		return 1
	}
	if len(lf.Args) == 0 {
		return 0
	}
	arg := lf.Args[0]
	candidate := arg
	if !filepath.IsAbs(arg) {
		candidate = fm.wd + "/" + arg
	}
	if len(candidate) >= unix.PathMax {
		fm.diag("cd: %v: path too long", arg)
		return 1
	}
	info, err := os.Stat(candidate)
	if err != nil {
		fm.diag("cd: %v", err)
		return 1
	}
	if !info.IsDir() {
		fm.diag("cd: %v: not a directory", arg)
		return 1
	}
	fm.wd = filepath.Clean(candidate)
	return 0
}

// pwd prints the absolute working directory. It always succeeds.
func (fm *frame) pwd(*parse.Leaf) int {
	fmt.Fprintln(fm.files[1], fm.wd)
	return 0
}

// assign handles NAME=VALUE verbs. The name is everything up to the first
// '='; an empty name is an error. Arguments after the assignment word are
// ignored and its redirections are never performed.
func (fm *frame) assign(lf *parse.Leaf) int {
	name, value, _ := strings.Cut(lf.Name, "=")
	if name == "" {
		fm.diag("invalid assignment: %q", lf.Name)
		return 1
	}
	fm.env.set(name, value)
	return 0
}
