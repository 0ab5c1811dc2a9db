// Command minish is a miniature shell: a parser producing binary command
// trees and an engine executing them against the real operating system.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/pborman/getopt/v2"
	"src.elv.sh/pkg/diag"
	"src.elv.sh/pkg/sys"

	"github.com/minish-sh/minish/pkg/config"
	"github.com/minish-sh/minish/pkg/eval"
	"github.com/minish-sh/minish/pkg/parse"
)

const defaultRC = "~/.minishrc.yaml"

var (
	command  = getopt.StringLong("command", 'c', "", "execute CODE and exit", "CODE")
	printAST = getopt.BoolLong("print-ast", 0, "print the parse tree before executing")
	rcPath   = getopt.StringLong("rc", 0, "", "rc file to use instead of "+defaultRC, "PATH")
	noRC     = getopt.BoolLong("norc", 0, "skip the rc file")
)

func main() {
	getopt.SetParameters("[script]")
	getopt.Parse()
	args := getopt.Args()

	ev := eval.NewEvaler(eval.StdFiles)
	switch {
	case *command != "":
		os.Exit(exitStatus(doEval(ev, *command)))
	case len(args) > 0:
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(eval.StatusCommandNotFound)
		}
		status := evalAll(ev, f)
		f.Close()
		os.Exit(exitStatus(status))
	case sys.IsATTY(os.Stdin.Fd()):
		repl(ev)
	default:
		os.Exit(exitStatus(evalAll(ev, os.Stdin)))
	}
}

// exitStatus converts an engine status to a process exit code. A shell-exit
// request is a normal exit.
func exitStatus(status int) int {
	if status == eval.StatusShellExit {
		return 0
	}
	return status
}

func repl(ev *eval.Evaler) {
	cfg := loadConfig()
	historyLimit := cfg.HistorySize
	if historyLimit == 0 {
		// readline treats 0 as "use the default"; -1 turns history off.
		historyLimit = -1
	}
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:  expandHome(cfg.HistoryFile),
		HistoryLimit: historyLimit,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer rl.Close()

	for {
		rl.SetPrompt(prompt(ev, cfg))
		input, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, err)
			}
			break
		}
		status := doEval(ev, input)
		if status == eval.StatusShellExit {
			break
		}
		if status != 0 {
			fmt.Println("status:", status)
		}
	}
}

func loadConfig() config.Config {
	if *noRC {
		return config.Default()
	}
	path := *rcPath
	if path == "" {
		path = expandHome(defaultRC)
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return cfg
}

// prompt renders the configured prompt template against the current shell
// state.
func prompt(ev *eval.Evaler, cfg config.Config) string {
	wd := ev.Dir()
	if home, err := os.UserHomeDir(); err == nil {
		if wd == home {
			wd = "~"
		} else if strings.HasPrefix(wd, home+"/") {
			wd = "~" + wd[len(home):]
		}
	}
	host, _ := os.Hostname()
	s := strings.NewReplacer(
		`\u`, os.Getenv("USER"),
		`\h`, host,
		`\w`, wd,
		`\$`, "$",
	).Replace(cfg.Prompt)
	if cfg.Color {
		return color.New(color.FgCyan, color.Bold).Sprint(s)
	}
	return s
}

func evalAll(ev *eval.Evaler, r io.Reader) int {
	buf, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return doEval(ev, string(buf))
}

// doEval parses and runs one chunk of input. Parse errors are shown with
// source context and nothing is executed for that input.
func doEval(ev *eval.Evaler, input string) int {
	n, err := parse.Parse(input)
	if *printAST {
		fmt.Println("node:", parse.PprintAST(n))
	}
	if err != nil {
		for _, entry := range err.(parse.Error).Errors {
			sr := diag.NewContext("input", input, diag.PointRanging(entry.Position))
			fmt.Fprintf(os.Stderr, "syntax error: %s\n", entry.Message)
			fmt.Fprintf(os.Stderr, "  %s\n", sr.ShowCompact(""))
		}
		return eval.StatusSyntaxError
	}
	return ev.EvalTree(n)
}

// expandHome replaces a leading ~ or ~/ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
