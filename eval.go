package calc

import (
	"io"
	"strings"

	"github.com/govalues/decimal"
	"github.com/samber/mo"
)

// Eval evaluates a parsed statement. src is the source line of the statement,
// which the history records alongside the result.
//
// An assignment evaluates its expression and stores the result in a variable;
// the returned option is empty. A bare expression returns its value and
// appends it to the history. If the same source line was already evaluated
// with no assignment since, the earlier result is reused.
//
// If evaluation fails, the error is an *Error and the environment is not
// modified. Errors recorded by the parser in the statement are reported when
// they are reached, left to right.
func (env *Env) Eval(st *Stmt, src string) (mo.Option[decimal.Decimal], error) {
	none := mo.None[decimal.Decimal]()
	if st.IsAssign() {
		if env.IsConstant(st.name) {
			return none, newError(CannotCreateVariablesWithNameConstant)
		}
		v, err := st.n.eval(env)
		if err != nil {
			return none, err
		}
		if err := env.Assign(st.name, v); err != nil {
			return none, err
		}
		return none, nil
	}
	if v, ok := env.cached(src); ok {
		env.record(src, v)
		return mo.Some(v), nil
	}
	v, err := st.n.eval(env)
	if err != nil {
		return none, err
	}
	env.record(src, v)
	return mo.Some(v), nil
}

// Run is a shortcut to parse and evaluate a line.
func (env *Env) Run(src io.RuneScanner, line string) (mo.Option[decimal.Decimal], error) {
	st, err := Parse(src)
	if err != nil {
		return mo.None[decimal.Decimal](), err
	}
	return env.Eval(st, line)
}

// EvalString is a shortcut to parse and evaluate a string.
func (env *Env) EvalString(src string) (mo.Option[decimal.Decimal], error) {
	return env.Run(strings.NewReader(src), src)
}

// eval computes the node's value.
func (n *node) eval(env *Env) (decimal.Decimal, error) {
	switch n.kind {
	case nodeNum:
		return n.num, nil
	case nodeName:
		v, ok := env.Lookup(n.name)
		if !ok {
			return decimal.Decimal{}, NonexistentVariable(n.name)
		}
		return v, nil
	case nodeCall:
		return n.fn.call(env, n.args)
	case nodeErr:
		err := *n.err
		return decimal.Decimal{}, &err
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodeIntDiv:
		l, err := n.left.eval(env)
		if err != nil {
			return decimal.Decimal{}, err
		}
		r, err := n.right.eval(env)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return arith(n.kind, l, r)
	default:
		panic("calc: invalid AST node " + n.kind.String())
	}
}

// arith applies a binary operator. Zero divisors are errors for /, div, and
// mod alike. Results out of the range of a decimal are math errors.
func arith(op nodeKind, l, r decimal.Decimal) (decimal.Decimal, error) {
	var (
		v   decimal.Decimal
		err error
	)
	switch op {
	case nodeAdd:
		v, err = l.Add(r)
	case nodeSub:
		v, err = l.Sub(r)
	case nodeMul:
		v, err = l.Mul(r)
	case nodeDiv, nodeIntDiv, nodeMod:
		if r.IsZero() {
			return decimal.Decimal{}, newError(DivisionByZero)
		}
		switch op {
		case nodeDiv:
			v, err = l.Quo(r)
		case nodeIntDiv:
			// QuoRem truncates toward zero, and the remainder has the sign of
			// the dividend.
			v, _, err = l.QuoRem(r)
		default:
			_, v, err = l.QuoRem(r)
		}
	default:
		panic("calc: invalid operator " + op.String())
	}
	if err != nil {
		return decimal.Decimal{}, newError(MathError)
	}
	return v, nil
}

// Format formats a result for display, without trailing fractional zeros.
func Format(d decimal.Decimal) string {
	return d.Trim(0).String()
}
