package eval

import (
	"os"
	"path/filepath"

	"github.com/minish-sh/minish/pkg/parse"
)

// scopedRedirs applies the leaf's redirections around fn, restoring the
// frame's fd table afterwards no matter how fn returns. Every file opened
// here is closed on the way out; children hold their own descriptors.
func (fm *frame) scopedRedirs(lf *parse.Leaf, fn func(*parse.Leaf) int) int {
	if lf.In == "" && lf.Out == "" && lf.Err == "" {
		return fn(lf)
	}
	// Mutate a copy of the table; the original may be shared with the
	// Evaler and must survive the leaf untouched.
	saved := fm.files
	fm.files = cloneSlice(fm.files)
	defer func() { fm.files = saved }()
	status, cleanup := fm.applyRedirs(lf)
	if cleanup != nil {
		defer cleanup()
	}
	if status != 0 {
		return status
	}
	return fn(lf)
}

// applyRedirs opens the redirection targets of a leaf and installs them in
// the frame's fd table. On failure it reports a diagnostic, closes whatever
// it had opened, and returns a nonzero status with a nil cleanup function.
func (fm *frame) applyRedirs(lf *parse.Leaf) (int, func()) {
	var opened []*os.File
	closeOpened := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	if lf.In != "" {
		f, err := os.Open(fm.path(lf.In))
		if err != nil {
			fm.diag("can't open redirection source: %v", err)
			return 1, nil
		}
		opened = append(opened, f)
		fm.files[0] = f
	}
	if lf.Out != "" && lf.Out == lf.Err {
		// A single open backs both streams, so they share one file description
		// and one offset and interleaved writes don't clobber each other.
		// Append wins if either stream asks for it.
		f, err := os.OpenFile(fm.path(lf.Out), outFlag(lf.Flags&(parse.AppendOut|parse.AppendErr) != 0), 0644)
		if err != nil {
			fm.diag("can't open redirection target: %v", err)
			closeOpened()
			return 1, nil
		}
		opened = append(opened, f)
		fm.files[1] = f
		fm.files[2] = f
		return 0, closeOpened
	}
	if lf.Out != "" {
		f, err := os.OpenFile(fm.path(lf.Out), outFlag(lf.Flags&parse.AppendOut != 0), 0644)
		if err != nil {
			fm.diag("can't open redirection target: %v", err)
			closeOpened()
			return 1, nil
		}
		opened = append(opened, f)
		fm.files[1] = f
	}
	if lf.Err != "" {
		f, err := os.OpenFile(fm.path(lf.Err), outFlag(lf.Flags&parse.AppendErr != 0), 0644)
		if err != nil {
			fm.diag("can't open redirection target: %v", err)
			closeOpened()
			return 1, nil
		}
		opened = append(opened, f)
		fm.files[2] = f
	}
	return 0, closeOpened
}

func outFlag(appendMode bool) int {
	if appendMode {
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
}

// path resolves a redirection target against the frame's working directory,
// which may differ from the real process directory.
func (fm *frame) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(fm.wd, name)
}
