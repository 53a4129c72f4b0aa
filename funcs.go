package calc

import (
	"math"
	"strconv"

	"github.com/govalues/decimal"
)

// funcName identifies a built-in function.
type funcName int8

const (
	fnNone funcName = iota
	fnSin
	fnCos
	fnTg
	fnCtg
	fnExp
	fnSqrt
)

var funcNames = [...]string{
	fnNone: "",
	fnSin:  "sin",
	fnCos:  "cos",
	fnTg:   "tg",
	fnCtg:  "ctg",
	fnExp:  "exp",
	fnSqrt: "sqrt",
}

func (f funcName) String() string {
	if f <= fnNone || int(f) >= len(funcNames) {
		return "funcName(" + strconv.Itoa(int(f)) + ")"
	}
	return funcNames[f]
}

// lookupFunc gets the built-in function with the given name. rt is another
// name for sqrt.
func lookupFunc(name string) (funcName, bool) {
	switch name {
	case "sin":
		return fnSin, true
	case "cos":
		return fnCos, true
	case "tg":
		return fnTg, true
	case "ctg":
		return fnCtg, true
	case "exp":
		return fnExp, true
	case "sqrt", "rt":
		return fnSqrt, true
	default:
		return fnNone, false
	}
}

// IsFunc returns whether name is the name of a built-in function. Function
// names cannot be used as variables.
func IsFunc(name string) bool {
	_, ok := lookupFunc(name)
	return ok
}

// defaultSecond is the value of the omitted second argument of exp, sqrt,
// and rt.
var defaultSecond = decimal.MustNew(2, 0)

// call checks the arity of a call, evaluates its arguments in order, and
// applies the function.
func (f funcName) call(env *Env, args []*node) (decimal.Decimal, error) {
	switch f {
	case fnSin, fnCos, fnTg, fnCtg:
		if len(args) != 1 {
			return decimal.Decimal{}, ArgCount(len(args), 1)
		}
		x, err := args[0].eval(env)
		if err != nil {
			return decimal.Decimal{}, err
		}
		switch f {
		case fnSin:
			return degrees(x, math.Sin)
		case fnCos:
			return degrees(x, math.Cos)
		case fnTg:
			return degrees(x, math.Tan)
		default:
			return cotangent(x)
		}
	case fnExp, fnSqrt:
		switch len(args) {
		case 0:
			return decimal.Decimal{}, ArgCount(0, 1)
		case 1, 2: // do nothing
		default:
			return decimal.Decimal{}, ArgCount(len(args), 2)
		}
		x, err := args[0].eval(env)
		if err != nil {
			return decimal.Decimal{}, err
		}
		y := defaultSecond
		if len(args) == 2 {
			y, err = args[1].eval(env)
			if err != nil {
				return decimal.Decimal{}, err
			}
		}
		if f == fnExp {
			return power(x, y)
		}
		return root(x, y)
	default:
		panic("calc: invalid function " + f.String())
	}
}

// toFloat converts a decimal to the nearest float64.
func toFloat(d decimal.Decimal) (float64, error) {
	f, ok := d.Float64()
	if !ok {
		return 0, newError(MathError)
	}
	return f, nil
}

// fromFloat converts a float64 to a decimal. Non-finite and out of range
// values are math errors.
func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, newError(MathError)
	}
	d, err := decimal.NewFromFloat64(f)
	if err != nil {
		return decimal.Decimal{}, newError(MathError)
	}
	return d, nil
}

// degrees applies a trigonometric function to an angle in degrees.
func degrees(x decimal.Decimal, f func(float64) float64) (decimal.Decimal, error) {
	v, err := toFloat(x)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return fromFloat(f(v * math.Pi / 180))
}

// cotangent computes cos(x°) / sin(x°) as a quotient of decimals.
func cotangent(x decimal.Decimal) (decimal.Decimal, error) {
	c, err := degrees(x, math.Cos)
	if err != nil {
		return decimal.Decimal{}, err
	}
	s, err := degrees(x, math.Sin)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return arith(nodeDiv, c, s)
}

// power computes base^exp.
func power(base, exp decimal.Decimal) (decimal.Decimal, error) {
	b, err := toFloat(base)
	if err != nil {
		return decimal.Decimal{}, err
	}
	e, err := toFloat(exp)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return fromFloat(math.Pow(b, e))
}

const (
	// rootEps is the tolerance of |x^n - a| at which root stops iterating.
	rootEps = 1e-10
	// rootIters is the most Newton steps root takes before giving up.
	rootIters = 10000
)

// root computes the real n-th root of a.
func root(a, n decimal.Decimal) (decimal.Decimal, error) {
	x, err := toFloat(a)
	if err != nil {
		return decimal.Decimal{}, err
	}
	k, err := toFloat(n)
	if err != nil {
		return decimal.Decimal{}, err
	}
	r, ok := nthRoot(x, k)
	if !ok {
		return decimal.Decimal{}, newError(ImpossibleToExtractRootCorrectly)
	}
	return fromFloat(r)
}

// nthRoot finds x with x^n = a by Newton's method starting from 1. It stops
// when |x^n - a| <= rootEps or when an iteration no longer moves x. The
// second result is false if there is no real root or the iteration diverges.
// The root of zero is exactly zero.
func nthRoot(a, n float64) (float64, bool) {
	if n == 0 {
		return 0, false
	}
	if a == 0 && n > 0 {
		return 0, true
	}
	if a < 0 && (n != math.Trunc(n) || math.Mod(n, 2) == 0) {
		// No real root.
		return 0, false
	}
	x := 1.0
	for i := 0; i < rootIters; i++ {
		if math.Abs(math.Pow(x, n)-a) <= rootEps {
			return x, true
		}
		next := ((n-1)*x + a/math.Pow(x, n-1)) / n
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if math.Abs(next-x) <= 1e-15*math.Abs(x) {
			return next, true
		}
		x = next
	}
	return 0, false
}
