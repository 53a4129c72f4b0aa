// Package repl runs the calculator's read-eval-print loop.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/config"
)

// Prompt is printed before each line when the input is interactive.
const Prompt = ">>> "

// Options are optional behaviors of a REPL.
type Options struct {
	// Snapshot is the file the environment is saved to when the REPL ends.
	// If it is empty, the environment is not saved.
	Snapshot string
	// Echo prints the parse tree of each statement before its result.
	Echo bool
	// Prompt prints Prompt before reading each line.
	Prompt bool
}

// REPL dispatches input lines to commands or to the calculator.
type REPL struct {
	env  *calc.Env
	cfg  *config.Config
	out  io.Writer
	log  *zap.Logger
	opts Options

	history *regexp.Regexp
}

// New creates a REPL evaluating in env and printing to out. If log is nil,
// nothing is logged.
func New(env *calc.Env, cfg *config.Config, out io.Writer, log *zap.Logger, opts Options) *REPL {
	if log == nil {
		log = zap.NewNop()
	}
	return &REPL{
		env:     env,
		cfg:     cfg,
		out:     out,
		log:     log,
		opts:    opts,
		history: regexp.MustCompile(`^` + regexp.QuoteMeta(cfg.Commands.History) + `(?:\s+(all|\d+))?$`),
	}
}

// Interactive reports whether f is a terminal, so that a prompt is useful.
func Interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Env returns the environment the REPL evaluates in.
func (r *REPL) Env() *calc.Env {
	return r.env
}

// Run handles lines from in until the end command or the end of the input.
// Either way, the environment is saved, and it is saved as well if reading
// fails. The error is from reading in. Lines have no length limit.
func (r *REPL) Run(in io.Reader) error {
	br := bufio.NewReader(in)
	for {
		if r.opts.Prompt {
			fmt.Fprint(r.out, Prompt)
		}
		line, err := br.ReadString('\n')
		if line != "" && r.Handle(line) {
			return nil
		}
		switch {
		case err == io.EOF:
			// EOF is the same as the end command.
			if r.opts.Prompt {
				fmt.Fprintln(r.out)
			}
			r.save()
			return nil
		case err != nil:
			r.log.Error("reading input", zap.Error(err))
			r.save()
			return err
		}
	}
}

// Handle dispatches a single line. The result is true if the line was the
// end command.
func (r *REPL) Handle(line string) bool {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	cmds := r.cfg.Commands
	switch {
	case line == cmds.End:
		r.log.Debug("end command")
		r.save()
		return true
	case line == cmds.Help:
		r.log.Debug("help command", zap.String("path", r.cfg.PathFileHelp))
		if err := r.help(); err != nil {
			r.printErr(err)
		}
		return false
	case line == "", line == cmds.EmptyInput:
		return false
	}
	if m := r.history.FindStringSubmatch(line); m != nil {
		n := r.historyCount(m[1])
		r.log.Debug("history command", zap.Int("count", n))
		writeTable(r.out, r.env.Tail(n))
		return false
	}
	r.eval(line)
	return false
}

// historyCount gets the number of rows to print for the history command's
// argument.
func (r *REPL) historyCount(arg string) int {
	if n, err := strconv.Atoi(arg); err == nil {
		return n
	}
	// "all", no argument, or a count too large for an int.
	n := len(r.env.History())
	if r.cfg.OutputLineHistory < n {
		n = r.cfg.OutputLineHistory
	}
	return n
}

func (r *REPL) eval(line string) {
	st, err := calc.ParseString(line)
	if err != nil {
		r.log.Debug("parse failed", zap.String("line", line), zap.Error(err))
		r.printErr(err)
		return
	}
	if r.opts.Echo {
		fmt.Fprintf(r.out, "%v : ", st)
	}
	v, err := r.env.Eval(st, line)
	if err != nil {
		r.log.Debug("evaluation failed", zap.String("line", line), zap.Error(err))
		if r.opts.Echo {
			fmt.Fprintln(r.out)
		}
		r.printErr(err)
		return
	}
	if d, ok := v.Get(); ok {
		fmt.Fprintln(r.out, calc.Format(d))
	} else if r.opts.Echo {
		fmt.Fprintln(r.out)
	}
}

func (r *REPL) printErr(err error) {
	fmt.Fprintln(r.out, "Error:", err)
}

func (r *REPL) save() {
	if r.opts.Snapshot == "" {
		return
	}
	if err := r.env.SaveFile(r.opts.Snapshot); err != nil {
		r.log.Error("saving snapshot", zap.String("path", r.opts.Snapshot), zap.Error(err))
		r.printErr(err)
		return
	}
	r.log.Info("saved snapshot", zap.String("path", r.opts.Snapshot))
}

// help prints the help file. Lines starting with # are section titles and are
// printed in upper case.
func (r *REPL) help() error {
	b, err := os.ReadFile(r.cfg.PathFileHelp)
	if err != nil {
		r.log.Warn("reading help", zap.Error(err))
		return calc.CannotOpenFile(r.cfg.PathFileHelp)
	}
	text := strings.TrimSuffix(string(b), "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, "#") {
			line = strings.ToUpper(line)
		}
		fmt.Fprintln(r.out, line)
	}
	return nil
}
