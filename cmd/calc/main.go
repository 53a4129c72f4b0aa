package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/config"
	"github.com/zephyrtronium/calc/repl"
)

type args struct {
	Config   string `arg:"-c,--config,env:CALC_CONFIG" default:"config.json" help:"configuration file (JSON, or YAML if named *.yaml or *.yml)"`
	Snapshot string `arg:"--snapshot,env:CALC_SNAPSHOT" default:"interpreter.json" help:"file to restore the session from and save it to"`
	Echo     bool   `arg:"--echo" help:"print parse trees"`
	Dev      bool   `arg:"--dev" help:"verbose development logging"`
}

func (args) Description() string {
	return "calc is an interactive decimal calculator with variables and history."
}

func main() {
	os.Exit(run([3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args))
}

// run runs the calculator with the given stdin, stdout, and stderr and
// returns the exit status.
func run(fds [3]*os.File, argv []string) int {
	var flags args
	p, err := arg.NewParser(arg.Config{Program: "calc"}, &flags)
	if err != nil {
		fmt.Fprintln(fds[2], err)
		return 2
	}
	switch err := p.Parse(argv[1:]); {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(fds[1])
		return 0
	case err != nil:
		p.WriteUsage(fds[2])
		fmt.Fprintln(fds[2], "error:", err)
		return 2
	}

	logger, err := newLogger(flags.Dev, fds[2])
	if err != nil {
		fmt.Fprintf(fds[2], "failed to construct logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	cfg, err := config.Load(flags.Config)
	if err != nil {
		logger.Error("loading config", zap.String("path", flags.Config), zap.Error(err))
		fmt.Fprintln(fds[2], err)
		return 1
	}

	env, err := calc.LoadFile(flags.Snapshot, calc.WithLimits(cfg.Limits()))
	switch {
	case err == nil:
		logger.Info("restored snapshot", zap.String("path", flags.Snapshot), zap.Int("history", len(env.History())), zap.Int("variables", len(env.Variables())))
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no snapshot", zap.String("path", flags.Snapshot))
		env = calc.NewEnv(calc.WithLimits(cfg.Limits()))
	default:
		logger.Warn("ignoring snapshot", zap.String("path", flags.Snapshot), zap.Error(err))
		env = calc.NewEnv(calc.WithLimits(cfg.Limits()))
	}

	r := repl.New(env, cfg, fds[1], logger, repl.Options{
		Snapshot: flags.Snapshot,
		Echo:     flags.Echo,
		Prompt:   repl.Interactive(fds[0]),
	})
	if err := r.Run(fds[0]); err != nil {
		// The REPL has already logged the error and saved the session.
		fmt.Fprintln(fds[2], "error reading input:", err)
		return 1
	}
	return 0
}

// newLogger creates the development logger or a production logger writing
// warnings and errors to stderr.
func newLogger(dev bool, stderr *os.File) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment(zap.ErrorOutput(zapcore.Lock(stderr)))
	}
	zc := zap.NewProductionConfig()
	zc.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zc.EncoderConfig),
		zapcore.Lock(stderr),
		zap.NewAtomicLevelAt(zap.WarnLevel),
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel), zap.ErrorOutput(zapcore.Lock(stderr))), nil
}
