package calc_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/govalues/decimal"

	"github.com/zephyrtronium/calc"
)

// decimalEq compares decimals by value, so that 1 and 1.0 are equal.
var decimalEq = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Cmp(b) == 0 })

// entryEq compares history entries by input and result.
var entryEq = cmp.Comparer(func(a, b calc.HistoryEntry) bool {
	if a.Input != b.Input || a.Result.IsOk() != b.Result.IsOk() {
		return false
	}
	if a.Result.IsOk() {
		return a.Result.MustGet().Cmp(b.Result.MustGet()) == 0
	}
	var ea, eb *calc.Error
	if !errors.As(a.Result.Error(), &ea) || !errors.As(b.Result.Error(), &eb) {
		return false
	}
	return *ea == *eb
})

func num(v int64) decimal.Decimal {
	return decimal.MustNew(v, 0)
}

func TestNewEnv(t *testing.T) {
	env := calc.NewEnv()
	if got, want := env.Limits(), calc.DefaultLimits(); got != want {
		t.Errorf("want limits %+v, got %+v", want, got)
	}
	if len(env.Variables()) != 0 || len(env.History()) != 0 {
		t.Errorf("new env isn't empty: %v %v", env.Variables(), env.History())
	}
	names := make([]string, 0, 5)
	for _, c := range env.Constants() {
		names = append(names, c.Name)
		if !env.IsConstant(c.Name) {
			t.Errorf("%s is a constant but IsConstant is false", c.Name)
		}
	}
	if diff := cmp.Diff([]string{"PI", "E", "c", "g", "G"}, names); diff != "" {
		t.Errorf("wrong constants (-want +got):\n%s", diff)
	}
}

func TestNewEnvOptions(t *testing.T) {
	env := calc.NewEnv(
		calc.SetVar("x", num(1)),
		calc.WithLimits(calc.Limits{MaxSizeHistory: 0, MaxNumberVariable: 2}),
		calc.SetVar("y", num(2)),
		calc.SetVar("z", num(3)),
	)
	want := []calc.Variable{{Name: "y", Value: num(2)}, {Name: "z", Value: num(3)}}
	if diff := cmp.Diff(want, env.Variables(), decimalEq); diff != "" {
		t.Errorf("wrong variables (-want +got):\n%s", diff)
	}
	// Capacities are at least 1.
	if l := env.Limits(); l.MaxSizeHistory != 1 || l.MaxNumberVariable != 2 {
		t.Errorf("wrong limits %+v", l)
	}
}

func TestNewEnvConstantVar(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic setting a constant")
		}
	}()
	calc.NewEnv(calc.SetVar("PI", num(3)))
}

func TestAssign(t *testing.T) {
	env := calc.NewEnv(calc.WithLimits(calc.Limits{MaxSizeHistory: 5, MaxNumberVariable: 3}))
	steps := []struct {
		name string
		val  int64
		want []calc.Variable
	}{
		{"a", 1, []calc.Variable{{Name: "a", Value: num(1)}}},
		{"b", 2, []calc.Variable{{Name: "a", Value: num(1)}, {Name: "b", Value: num(2)}}},
		{"a", 3, []calc.Variable{{Name: "a", Value: num(3)}, {Name: "b", Value: num(2)}}},
		{"c", 4, []calc.Variable{{Name: "a", Value: num(3)}, {Name: "b", Value: num(2)}, {Name: "c", Value: num(4)}}},
		{"d", 5, []calc.Variable{{Name: "b", Value: num(2)}, {Name: "c", Value: num(4)}, {Name: "d", Value: num(5)}}},
		{"c", 6, []calc.Variable{{Name: "b", Value: num(2)}, {Name: "c", Value: num(6)}, {Name: "d", Value: num(5)}}},
		{"e", 7, []calc.Variable{{Name: "c", Value: num(6)}, {Name: "d", Value: num(5)}, {Name: "e", Value: num(7)}}},
	}
	for _, s := range steps {
		if err := env.Assign(s.name, num(s.val)); err != nil {
			t.Fatalf("assigning %s: %v", s.name, err)
		}
		if diff := cmp.Diff(s.want, env.Variables(), decimalEq); diff != "" {
			t.Errorf("after %s = %d (-want +got):\n%s", s.name, s.val, diff)
		}
		v, ok := env.Lookup(s.name)
		if !ok || v.Cmp(num(s.val)) != 0 {
			t.Errorf("%s: want %d, got %v (%t)", s.name, s.val, v, ok)
		}
	}
	if _, ok := env.Lookup("a"); ok {
		t.Error("evicted variable a is still visible")
	}
}

func TestAssignConstant(t *testing.T) {
	env := calc.NewEnv()
	if err := env.Assign("x", num(1)); err != nil {
		t.Fatal(err)
	}
	before := env.Variables()
	for _, c := range env.Constants() {
		err := env.Assign(c.Name, num(0))
		if !errors.Is(err, calc.ErrConstantName) {
			t.Errorf("assigning %s: wrong error %v", c.Name, err)
		}
		v, _ := env.Lookup(c.Name)
		if v.Cmp(c.Value) != 0 {
			t.Errorf("assigning %s changed it to %v", c.Name, v)
		}
	}
	if diff := cmp.Diff(before, env.Variables(), decimalEq); diff != "" {
		t.Errorf("variables changed (-before +after):\n%s", diff)
	}
}

func TestHistoryBound(t *testing.T) {
	env := calc.NewEnv(calc.WithLimits(calc.Limits{MaxSizeHistory: 3, MaxNumberVariable: 3}))
	for i := 1; i <= 5; i++ {
		before := len(env.History())
		if _, err := env.EvalString(strconv.Itoa(i)); err != nil {
			t.Fatal(err)
		}
		after := len(env.History())
		if after > 3 || after-before > 1 {
			t.Errorf("step %d: history went from %d to %d entries", i, before, after)
		}
	}
	var inputs []string
	for _, h := range env.History() {
		inputs = append(inputs, h.Input)
	}
	if diff := cmp.Diff([]string{"3", "4", "5"}, inputs); diff != "" {
		t.Errorf("wrong history (-want +got):\n%s", diff)
	}
}

func TestVariablesBound(t *testing.T) {
	env := calc.NewEnv(calc.WithLimits(calc.Limits{MaxSizeHistory: 3, MaxNumberVariable: 2}))
	for i := 0; i < 10; i++ {
		if _, err := env.EvalString("v" + strconv.Itoa(i) + " = " + strconv.Itoa(i)); err != nil {
			t.Fatal(err)
		}
		if n := len(env.Variables()); n > 2 {
			t.Fatalf("step %d: %d variables", i, n)
		}
	}
}

func TestTail(t *testing.T) {
	env := calc.NewEnv()
	for _, src := range []string{"1", "foo", "2", "1 / 0", "3"} {
		env.EvalString(src)
	}
	cases := []struct {
		n    int
		want []string
	}{
		{0, nil},
		{-1, nil},
		{1, []string{"3"}},
		{2, []string{"3", "2"}},
		{3, []string{"3", "2", "1"}},
		{50, []string{"3", "2", "1"}},
	}
	for _, c := range cases {
		var got []string
		for _, h := range env.Tail(c.n) {
			got = append(got, h.Input)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("Tail(%d) (-want +got):\n%s", c.n, diff)
		}
	}
	// Tail doesn't disturb the history order.
	var inputs []string
	for _, h := range env.History() {
		inputs = append(inputs, h.Input)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, inputs); diff != "" {
		t.Errorf("history changed (-want +got):\n%s", diff)
	}
}
