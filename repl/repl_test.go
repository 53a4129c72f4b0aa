package repl_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/config"
	"github.com/zephyrtronium/calc/repl"
)

func newREPL(t *testing.T, cfg *config.Config, opts repl.Options) (*repl.REPL, *bytes.Buffer) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	var out bytes.Buffer
	env := calc.NewEnv(calc.WithLimits(cfg.Limits()))
	return repl.New(env, cfg, &out, zaptest.NewLogger(t), opts), &out
}

func TestHandle(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  string
	}{
		{"mul", []string{"12 * 3"}, "36\n"},
		{"mod", []string{"3.8 mod 4.7"}, "3.8\n"},
		{"div", []string{"10 div 3"}, "3\n"},
		{"sub", []string{"3 - 4.5"}, "-1.5\n"},
		{"implicit", []string{"43(23 - 2)"}, "903\n"},
		{"signed", []string{"34 -5"}, "-170\n"},
		{"comma", []string{"1,5 * 2"}, "3\n"},
		{"colon", []string{"7 : 2"}, "3.5\n"},
		{"trailing-space", []string{"12 * 3 \t "}, "36\n"},
		{"assign", []string{"a = 10", "d = a - 3", "d"}, "7\n"},
		{"reassign", []string{"a = 1", "a", "a = 2", "a"}, "1\n2\n"},
		{"constant", []string{"PI = 1"}, "Error: Cannot create a variable with the name of a constant\n"},
		{"zero", []string{"1 / 0"}, "Error: Division by zero\n"},
		{"nonexistent", []string{"foo"}, "Error: Calling nonexistent variable: foo\n"},
		{"arity", []string{"sin(1; 2)"}, "Error: Incorrect number of arguments: expected 1, found 2\n"},
		{"exp", []string{"exp(2)"}, "4\n"},
		{"empty", []string{"", "   "}, ""},
		{"continues", []string{"1 / 0", "2 * 2"}, "Error: Division by zero\n4\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, out := newREPL(t, nil, repl.Options{})
			for _, line := range c.lines {
				assert.False(t, r.Handle(line), "line %q ended the REPL", line)
			}
			assert.Equal(t, c.want, out.String())
		})
	}
}

func TestDefaultCommandsAreNotNames(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "interpreter.json")
	r, out := newREPL(t, nil, repl.Options{Snapshot: snap})
	for _, line := range []string{"end = 5", "history = 4", "help = 3", "end", "history", "help"} {
		assert.False(t, r.Handle(line), "line %q ended the REPL", line)
	}
	assert.Equal(t, "5\n4\n3\n", out.String())
	assert.NoFileExists(t, snap)
}

func TestHandleSyntaxError(t *testing.T) {
	r, out := newREPL(t, nil, repl.Options{})
	assert.False(t, r.Handle("(1 + 2"))
	assert.True(t, strings.HasPrefix(out.String(), "Error: "), "output %q", out.String())
	assert.Contains(t, out.String(), "Syntax error")
	assert.Empty(t, r.Env().History())
}

func TestHandleEmptyInputCommand(t *testing.T) {
	cfg := config.Default()
	cfg.Commands.EmptyInput = "/"
	r, out := newREPL(t, cfg, repl.Options{})
	assert.False(t, r.Handle("/"))
	assert.Empty(t, out.String())
}

func TestHistoryTable(t *testing.T) {
	r, out := newREPL(t, nil, repl.Options{})
	r.Handle("12 * 3")
	r.Handle("foo")
	r.Handle("10 div 3")
	out.Reset()
	assert.False(t, r.Handle("/history 2"))
	want := strings.Join([]string{
		"|    Result    |    String    |",
		"|--------------|--------------|",
		"|      3       |   10 div 3   |",
		"|      36      |    12 * 3    |",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())

	out.Reset()
	r.Handle("/history 1")
	want = strings.Join([]string{
		"|    Result    |    String    |",
		"|--------------|--------------|",
		"|      3       |   10 div 3   |",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestHistoryWide(t *testing.T) {
	r, out := newREPL(t, nil, repl.Options{})
	r.Handle("100000 + 200000 + 300000")
	out.Reset()
	r.Handle("/history")
	want := strings.Join([]string{
		"|          Result          |          String          |",
		"|--------------------------|--------------------------|",
		"|          600000          | 100000 + 200000 + 300000 |",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestHistoryDefaultCount(t *testing.T) {
	cfg := config.Default()
	cfg.OutputLineHistory = 2
	r, out := newREPL(t, cfg, repl.Options{})
	r.Handle("a = 5")
	r.Handle("1 + 1")
	r.Handle("a + 2")
	r.Handle("d = 7")
	r.Handle("d")
	for _, cmd := range []string{"/history", "/history all", "/history   all  "} {
		out.Reset()
		r.Handle(cmd)
		want := strings.Join([]string{
			"|    Result    |    String    |",
			"|--------------|--------------|",
			"|      7       |      d       |",
			"|      7       |    a + 2     |",
			"",
		}, "\n")
		assert.Equal(t, want, out.String(), "command %q", cmd)
	}
	// Not a history command, so it is evaluated.
	out.Reset()
	r.Handle("/history 2x")
	assert.True(t, strings.HasPrefix(out.String(), "Error: "), "output %q", out.String())
}

func TestHelp(t *testing.T) {
	p := filepath.Join(t.TempDir(), "help.txt")
	require.NoError(t, os.WriteFile(p, []byte("# Usage\n1. Type an expression.\nPress enter.\n"), 0o644))
	cfg := config.Default()
	cfg.PathFileHelp = p
	r, out := newREPL(t, cfg, repl.Options{})
	assert.False(t, r.Handle("/help"))
	assert.Equal(t, "# USAGE\n1. Type an expression.\nPress enter.\n", out.String())
}

func TestHelpMissing(t *testing.T) {
	cfg := config.Default()
	cfg.PathFileHelp = filepath.Join(t.TempDir(), "nope.txt")
	r, out := newREPL(t, cfg, repl.Options{})
	assert.False(t, r.Handle("/help"))
	assert.Equal(t, "Error: Cannot open file with text: "+cfg.PathFileHelp+"\n", out.String())
}

func TestEcho(t *testing.T) {
	r, out := newREPL(t, nil, repl.Options{Echo: true})
	r.Handle("1 + 2")
	r.Handle("x = 2 - 8")
	r.Handle("sin(3 - 8)")
	r.Handle("1 / 0")
	want := strings.Join([]string{
		"(1 + 2) : 3",
		"x = (2 - 8) : ",
		`sin((3 - 8)) : -0.0871557427476582`,
		"(1 / 0) : ",
		"Error: Division by zero",
		"",
	}, "\n")
	// The digits of sin depend on float formatting, so compare only the
	// shape of that line.
	got := strings.Split(out.String(), "\n")
	wants := strings.Split(want, "\n")
	require.Len(t, got, len(wants))
	for i := range wants {
		if strings.HasPrefix(wants[i], "sin") {
			assert.True(t, strings.HasPrefix(got[i], "sin((3 - 8)) : -0.08715574"), "line %q", got[i])
			continue
		}
		assert.Equal(t, wants[i], got[i])
	}
}

func TestEnd(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "interpreter.json")
	r, out := newREPL(t, nil, repl.Options{Snapshot: snap})
	r.Handle("a = 10")
	r.Handle("a * 2")
	assert.True(t, r.Handle("/end"))
	assert.Equal(t, "20\n", out.String())

	env, err := calc.LoadFile(snap)
	require.NoError(t, err)
	v, ok := env.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 0, v.Cmp(decimal.MustNew(10, 0)))
	require.Len(t, env.History(), 1)
	assert.Equal(t, "a * 2", env.History()[0].Input)
}

func TestRun(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "interpreter.json")
	r, out := newREPL(t, nil, repl.Options{Snapshot: snap})
	err := r.Run(strings.NewReader("a = 2\na * 3\n/end\n1 + 1\n"))
	require.NoError(t, err)
	// Lines after end are not read.
	assert.Equal(t, "6\n", out.String())
	assert.FileExists(t, snap)
}

func TestRunEOF(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "interpreter.json")
	r, out := newREPL(t, nil, repl.Options{Snapshot: snap, Prompt: true})
	err := r.Run(strings.NewReader("2 * 2\n"))
	require.NoError(t, err)
	assert.Equal(t, repl.Prompt+"4\n"+repl.Prompt+"\n", out.String())
	env, err := calc.LoadFile(snap)
	require.NoError(t, err)
	assert.Len(t, env.History(), 1)
}

func TestRunLongLine(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "interpreter.json")
	r, out := newREPL(t, nil, repl.Options{Snapshot: snap})
	in := "a = 1\n" + strings.Repeat(" ", 70000) + "a\n2\n"
	require.NoError(t, r.Run(strings.NewReader(in)))
	assert.Equal(t, "1\n2\n", out.String())
	env, err := calc.LoadFile(snap)
	require.NoError(t, err)
	assert.Len(t, env.History(), 2)
}

func TestRunNoFinalNewline(t *testing.T) {
	r, out := newREPL(t, nil, repl.Options{})
	require.NoError(t, r.Run(strings.NewReader("2 * 2\n3 * 3")))
	assert.Equal(t, "4\n9\n", out.String())
}

func TestRunReadError(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "interpreter.json")
	r, out := newREPL(t, nil, repl.Options{Snapshot: snap})
	boom := errors.New("boom")
	in := io.MultiReader(strings.NewReader("a = 7\na + 1\n"), iotest.ErrReader(boom))
	err := r.Run(in)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "8\n", out.String())
	// The session survives the failed read.
	env, err := calc.LoadFile(snap)
	require.NoError(t, err)
	v, ok := env.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 0, v.Cmp(decimal.MustNew(7, 0)))
	require.Len(t, env.History(), 1)
}

func TestInteractive(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, repl.Interactive(f))
}
