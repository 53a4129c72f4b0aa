package calc

import (
	"math/big"

	"github.com/govalues/decimal"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/zephyrtronium/bigfloat"
)

// Limits bounds the collections of an environment.
type Limits struct {
	// MaxSizeHistory is the number of history entries kept.
	MaxSizeHistory int `json:"max_size_history" yaml:"max_size_history"`
	// MaxNumberVariable is the number of variables kept.
	MaxNumberVariable int `json:"max_number_variable" yaml:"max_number_variable"`
}

// DefaultLimits returns the limits used when none are given.
func DefaultLimits() Limits {
	return Limits{MaxSizeHistory: 50, MaxNumberVariable: 50}
}

// Variable is a named value.
type Variable struct {
	Name  string
	Value decimal.Decimal
}

// HistoryEntry is an input line with the result it produced.
type HistoryEntry struct {
	Input  string
	Result mo.Result[decimal.Decimal]

	// gen is the assignment generation the result was computed in. Entries
	// restored from a snapshot have generation 0, which no live environment
	// uses.
	gen uint64
}

// Env is an environment for evaluating statements: the built-in constants,
// the user's variables, and the history of evaluated lines. It is not safe to
// use an Env concurrently.
type Env struct {
	constants []Variable
	variables []Variable
	history   []HistoryEntry
	limits    Limits
	// gen counts assignments. Cached history results are only valid within
	// the generation that computed them.
	gen uint64
}

// EnvOption is an option used when creating an environment.
type EnvOption interface {
	envOption()
}

type (
	limitsopt Limits
	varopt    Variable
)

func (limitsopt) envOption() {}
func (varopt) envOption()    {}

// WithLimits sets the capacities of the environment's collections. Capacities
// below 1 are raised to 1.
func WithLimits(l Limits) EnvOption {
	return limitsopt(l)
}

// SetVar sets the value of a variable in the environment. The name must not
// be a constant.
func SetVar(name string, val decimal.Decimal) EnvOption {
	return varopt{Name: name, Value: val}
}

// NewEnv creates a new environment with no variables and no history.
func NewEnv(opts ...EnvOption) *Env {
	env := Env{
		constants: builtinConstants(),
		limits:    DefaultLimits(),
		gen:       1,
	}
	env.apply(opts)
	return &env
}

func (env *Env) apply(opts []EnvOption) {
	// Limits first, so that variables respect them.
	for _, opt := range opts {
		if l, ok := opt.(limitsopt); ok {
			env.limits = Limits(l)
		}
	}
	if env.limits.MaxSizeHistory < 1 {
		env.limits.MaxSizeHistory = 1
	}
	if env.limits.MaxNumberVariable < 1 {
		env.limits.MaxNumberVariable = 1
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case limitsopt:
			// Already done.
		case varopt:
			if err := env.Assign(opt.Name, opt.Value); err != nil {
				panic("calc: cannot set " + opt.Name + ": " + err.Error())
			}
		default:
			panic("calc: unknown option type")
		}
	}
}

var constants = func() []Variable {
	var pi, e, one big.Float
	pi.SetPrec(128)
	bigfloat.Pi(&pi)
	e.SetPrec(128)
	one.SetFloat64(1)
	bigfloat.Exp(&e, &one)
	return []Variable{
		// 19 significant digits is the full precision of a decimal.
		{Name: "PI", Value: decimal.MustParse(pi.Text('f', 18))},
		{Name: "E", Value: decimal.MustParse(e.Text('f', 18))},
		{Name: "c", Value: decimal.MustNew(299792458, 0)},
		{Name: "g", Value: decimal.MustNew(980665, 5)},
		{Name: "G", Value: decimal.MustNew(6672, 15)},
	}
}()

func builtinConstants() []Variable {
	return append([]Variable(nil), constants...)
}

// Limits returns the capacities of the environment's collections.
func (env *Env) Limits() Limits {
	return env.limits
}

// IsConstant returns whether name is reserved by a constant.
func (env *Env) IsConstant(name string) bool {
	_, ok := find(env.constants, name)
	return ok
}

func find(vars []Variable, name string) (int, bool) {
	for i, v := range vars {
		if v.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Lookup returns the value of a variable or, if there is no such variable, a
// constant. The second result is false if the name is bound to neither.
func (env *Env) Lookup(name string) (decimal.Decimal, bool) {
	if i, ok := find(env.variables, name); ok {
		return env.variables[i].Value, true
	}
	if i, ok := find(env.constants, name); ok {
		return env.constants[i].Value, true
	}
	return decimal.Decimal{}, false
}

// Assign sets a variable. An existing variable is updated in place; otherwise
// the variable is appended, evicting the oldest variable if the environment
// is at capacity. Assigning to a constant's name fails with
// CannotCreateVariablesWithNameConstant and changes nothing.
func (env *Env) Assign(name string, val decimal.Decimal) error {
	if env.IsConstant(name) {
		return newError(CannotCreateVariablesWithNameConstant)
	}
	env.gen++
	if i, ok := find(env.variables, name); ok {
		env.variables[i].Value = val
		return nil
	}
	env.variables = appendBounded(env.variables, Variable{Name: name, Value: val}, env.limits.MaxNumberVariable)
	return nil
}

// record appends a successful result to the history.
func (env *Env) record(input string, val decimal.Decimal) {
	h := HistoryEntry{Input: input, Result: mo.Ok(val), gen: env.gen}
	env.history = appendBounded(env.history, h, env.limits.MaxSizeHistory)
}

// cached finds the most recent result for an input computed since the last
// assignment.
func (env *Env) cached(input string) (decimal.Decimal, bool) {
	for i := len(env.history) - 1; i >= 0; i-- {
		h := env.history[i]
		if h.gen != env.gen {
			// Everything older is from an earlier generation, too.
			break
		}
		if h.Input == input && h.Result.IsOk() {
			return h.Result.MustGet(), true
		}
	}
	return decimal.Decimal{}, false
}

// appendBounded appends v to s, first dropping the oldest elements so that
// the result holds at most limit elements.
func appendBounded[T any](s []T, v T, limit int) []T {
	if k := len(s) - limit + 1; k > 0 {
		n := copy(s, s[k:])
		var zero T
		for i := n; i < len(s); i++ {
			s[i] = zero
		}
		s = s[:n]
	}
	return append(s, v)
}

// Variables returns a copy of the variables in insertion order.
func (env *Env) Variables() []Variable {
	return append([]Variable(nil), env.variables...)
}

// Constants returns a copy of the constants.
func (env *Env) Constants() []Variable {
	return append([]Variable(nil), env.constants...)
}

// History returns a copy of the history, oldest first.
func (env *Env) History() []HistoryEntry {
	return append([]HistoryEntry(nil), env.history...)
}

// Tail returns up to n of the most recent successful history entries, most
// recent first.
func (env *Env) Tail(n int) []HistoryEntry {
	if n <= 0 {
		return nil
	}
	ok := lo.Filter(env.history, func(h HistoryEntry, _ int) bool {
		return h.Result.IsOk()
	})
	if len(ok) > n {
		ok = ok[len(ok)-n:]
	}
	return lo.Reverse(ok)
}
