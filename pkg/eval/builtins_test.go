package eval_test

import (
	"os"
	"strings"
	"testing"

	"src.elv.sh/pkg/must"
	"src.elv.sh/pkg/testutil"

	"github.com/minish-sh/minish/pkg/eval"
)

func TestPwd(t *testing.T) {
	testutil.InTempDir(t)
	files, read := makeFiles()
	ev := eval.NewEvaler(files)
	wd := must.OK1(os.Getwd())

	status := ev.Eval("pwd")
	stdout, stderr := read()
	if status != 0 {
		t.Errorf("got status %v, want 0", status)
	}
	if want := wd + "\n"; stdout != want {
		t.Errorf("got stdout %q, want %q", stdout, want)
	}
	if stderr != "" {
		t.Errorf("got stderr %q, want empty", stderr)
	}
}

func TestCd(t *testing.T) {
	testutil.InTempDir(t)
	must.OK(os.MkdirAll("d1/d2", 0o700))
	files, read := makeFiles()
	ev := eval.NewEvaler(files)
	wd := must.OK1(os.Getwd())

	// A relative argument resolves against the current directory by
	// concatenation; an absolute one is taken as is; no argument is a no-op.
	status := ev.Eval("cd d1/d2; pwd; cd /; pwd; cd; pwd")
	stdout, stderr := read()
	if status != 0 {
		t.Errorf("got status %v, want 0", status)
	}
	if want := wd + "/d1/d2\n/\n/\n"; stdout != want {
		t.Errorf("got stdout %q, want %q", stdout, want)
	}
	if stderr != "" {
		t.Errorf("got stderr %q, want empty", stderr)
	}
	if got := ev.Dir(); got != "/" {
		t.Errorf("got wd %q, want %q", got, "/")
	}
}

func TestCdAffectsChildren(t *testing.T) {
	testutil.InTempDir(t)
	must.OK(os.Mkdir("sub", 0o700))
	must.OK(os.WriteFile("sub/data", []byte("found\n"), 0o600))
	files, read := makeFiles()
	ev := eval.NewEvaler(files)

	status := ev.Eval("cd sub; cat data")
	stdout, _ := read()
	if status != 0 {
		t.Errorf("got status %v, want 0", status)
	}
	if stdout != "found\n" {
		t.Errorf("got stdout %q, want %q", stdout, "found\n")
	}
}

func TestCdErrors(t *testing.T) {
	testutil.InTempDir(t)
	must.OK(os.WriteFile("plainfile", nil, 0o600))
	files, read := makeFiles()
	ev := eval.NewEvaler(files)
	wd := must.OK1(os.Getwd())

	cdCases := []struct {
		name         string
		code         string
		wantInStderr string
	}{
		{"nonexistent", "cd /no/such/dir", "cd: "},
		{"not a directory", "cd plainfile", "not a directory"},
		{"too many arguments", "cd a b", "cd: too many arguments"},
		{"path too long", "cd " + strings.Repeat("x", 5000), "path too long"},
	}
	for _, c := range cdCases {
		if status := ev.Eval(c.code); status != 1 {
			t.Errorf("%v: got status %v, want 1", c.name, status)
		}
	}
	stdout, stderr := read()
	if stdout != "" {
		t.Errorf("got stdout %q, want empty", stdout)
	}
	for _, c := range cdCases {
		if !strings.Contains(stderr, c.wantInStderr) {
			t.Errorf("%v: stderr %q does not contain %q", c.name, stderr, c.wantInStderr)
		}
	}
	// A failed cd leaves the working directory alone.
	if got := ev.Dir(); got != wd {
		t.Errorf("got wd %q, want %q", got, wd)
	}
}

func TestAssign(t *testing.T) {
	runCases(t, []evalCase{
		{name: "visible to children", code: "GREETING=hi; sh -c 'echo $GREETING'",
			wantStdout: "hi\n"},
		{name: "last assignment wins",
			code:       "GREETING=hi; GREETING=bye; sh -c 'echo $GREETING'",
			wantStdout: "bye\n"},
		{name: "value may contain equals", code: "X=a=b; sh -c 'echo $X'",
			wantStdout: "a=b\n"},
		{name: "arguments ignored", code: "GREETING=hi ignored; sh -c 'echo $GREETING'",
			wantStdout: "hi\n"},
		{name: "checked after named builtins", code: "true=false",
			wantStatus: 0},
		{name: "empty name", code: "=oops",
			wantStatus: 1, wantInStderr: "invalid assignment"},
	})
}

func TestAssignIgnoresRedirections(t *testing.T) {
	testutil.InTempDir(t)
	files, read := makeFiles()
	ev := eval.NewEvaler(files)

	status := ev.Eval("V=1 > probe")
	read()
	if status != 0 {
		t.Errorf("got status %v, want 0", status)
	}
	if _, err := os.Stat("probe"); !os.IsNotExist(err) {
		t.Error("redirection target was created for an assignment")
	}
}
