// Package calc implements a decimal calculator with variables, constants, and
// a bounded history of results.
//
// The syntax is meant to look like arithmetic you'd type into any calculator.
// "43(23 - 2)" multiplies, as does "34 -5"; a sign written directly against a
// number is part of the number. "mod" and "div" are the remainder and
// truncated division operators, and ":" is another spelling of "/". Either
// "." or "," separates the fractional part of a number.
//
// A line is either an expression or an assignment like "a = 10". Assigned
// variables, the constants PI, E, c, g, and G, and the results of expressions
// live in an Env, which can be saved to and restored from a JSON snapshot.
//
// Numbers are fixed-precision decimals with 19 significant digits. The
// trigonometric functions sin, cos, tg, and ctg take degrees. exp(x; y) is x
// to the power y, and sqrt(x; n) or rt(x; n) is the n-th root of x; in both,
// the second argument defaults to 2.
package calc
