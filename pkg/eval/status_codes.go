package eval

// Status codes returned by the shell itself.
//
// POSIX only specifies the status code for [StatusCommandNotExecutable] and
// [StatusCommandNotFound] and the status code when a command was killed by a
// signal. The remaining positive values are this shell's own.
//
// The practice of using 0 for no error is really well known, so we don't
// define a constant for it; code should just use 0.
const (
	// Same as dash and bash; zsh uses 1.
	StatusSyntaxError = 2

	// Not sure what other shells use for the following error conditions.
	StatusPipeError = 100
	StatusWaitError = 101
	StatusWaitOther = 102

	// Specified by POSIX.
	StatusCommandNotExecutable = 126
	StatusCommandNotFound      = 127
	StatusSignalBase           = 128

	// StatusShellExit asks the caller to stop feeding the engine and
	// terminate the shell. Every status a command can produce is in 0..255,
	// so a negative value can never collide with one; combinators propagate
	// it unchanged (see the run* methods for when they short-circuit).
	StatusShellExit = -100
)
