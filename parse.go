package calc

import (
	"io"
	"strconv"
	"strings"

	"github.com/govalues/decimal"
)

// Stmt = name '=' Expr | Expr
// Expr = Term { ('+' | '-') Term }
// Term = Factor { ('*' | '/' | ':' | 'mod' | 'div') Factor | Factor }
// Factor = num | name | funcname '(' [ Expr { ';' Expr } ] ')' | '(' Expr ')'

// Parse parses a single line so it can be evaluated in an environment. The
// error, if any, is an *Error of kind SyntaxError. Some errors, like a number
// literal too large to represent, do not stop the parse; they are reported
// when the statement is evaluated.
func Parse(src io.RuneScanner) (*Stmt, error) {
	scan := lex(src)
	var st Stmt
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenIdent {
		nx, err := scan.next()
		if err != nil {
			return nil, err
		}
		if nx.kind == tokenAssign {
			if _, ok := lookupFunc(tok.text); ok {
				return nil, syntaxError(tok.pos, "cannot assign to function "+tok.text)
			}
			st.name = tok.text
		} else {
			scan.push(nx)
			scan.push(tok)
		}
	} else {
		scan.push(tok)
	}
	n, err := parseterm(scan, exprprec)
	if err != nil {
		return nil, err
	}
	if err := itShouldHaveEnded(scan.must()); err != nil {
		return nil, err
	}
	st.n = n
	return &st, nil
}

// ParseString is a shortcut to parse a string.
func ParseString(src string) (*Stmt, error) {
	return Parse(strings.NewReader(src))
}

// parseterm parses a sequence of factors joined by operators that bind more
// tightly than until. If there is no error, then parseterm pushes the last
// token it scans, including EOF.
func parseterm(scan *lexer, until operator) (*node, error) {
	n, err := parselhs(scan)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenNum, tokenIdent, tokenOpen, tokenInvalid:
			// Adjacent factors multiply.
			// (parsed) x -> (parsed) * (x)
			// (parsed) -5 -> (parsed) * (-5)
			scan.push(tok)
			if !termprec.moreBinding(until) {
				return n, nil
			}
			rhs, err := parseterm(scan, termprec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeMul, left: n, right: rhs}
		case tokenOp:
			prec := binop(tok.text)
			if prec.op == nodeNone {
				panic("calc: lexer produced unknown operator " + strconv.Quote(tok.text))
			}
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, prec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case tokenClose, tokenSep, tokenAssign, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			panic("calc: unknown token: " + tok.String())
		}
	}
}

// parselhs parses a single factor.
func parselhs(scan *lexer) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		d, err := decimal.Parse(tok.text)
		if err != nil {
			// Recoverable. The evaluator reports it.
			return &node{kind: nodeErr, err: &Error{Kind: InputTooBig, Col: tok.pos}}, nil
		}
		return &node{kind: nodeNum, num: d}, nil
	case tokenIdent:
		fn, ok := lookupFunc(tok.text)
		if !ok {
			return &node{kind: nodeName, name: tok.text}, nil
		}
		args, err := parsearglist(scan, tok)
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeCall, fn: fn, args: args}, nil
	case tokenOpen:
		rhs, err := parseterm(scan, exprprec)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose {
			return nil, unclosed(end)
		}
		return rhs, nil
	case tokenInvalid:
		// Recoverable. Poison this factor and keep going.
		return &node{kind: nodeErr, err: syntaxError(tok.pos, "invalid character "+strconv.Quote(tok.text))}, nil
	case tokenOp:
		return nil, syntaxError(tok.pos, "missing operand before "+strconv.Quote(tok.text))
	case tokenClose:
		return nil, syntaxError(tok.pos, "no expression up to \")\"")
	case tokenSep:
		return nil, syntaxError(tok.pos, "invalid occurrence of separator \";\"")
	case tokenAssign:
		return nil, syntaxError(tok.pos, "unexpected \"=\"")
	case tokenEOF:
		if tok.pos <= 1 {
			return nil, syntaxError(tok.pos, "no expression")
		}
		return nil, syntaxError(tok.pos, "no expression at end")
	default:
		panic("calc: unknown token: " + tok.String())
	}
}

// parsearglist parses the bracketed, possibly empty list of arguments to a
// call of the function named by fn.
func parsearglist(scan *lexer, fn lexToken) ([]*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenOpen {
		return nil, syntaxError(tok.pos, "function "+fn.text+" needs an argument list")
	}
	tok, err = scan.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenClose {
		scan.must()
		return nil, nil
	}
	var args []*node
	for {
		arg, err := parseterm(scan, exprprec)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch end := scan.must(); end.kind {
		case tokenSep:
			continue
		case tokenClose:
			return args, nil
		default:
			return nil, unclosed(end)
		}
	}
}

// unclosed returns an error appropriate for a token that ends a bracketed
// subexpression without closing it.
func unclosed(tok lexToken) error {
	switch tok.kind {
	case tokenEOF:
		return syntaxError(tok.pos, "open bracket \"(\" with no close bracket")
	case tokenSep:
		return syntaxError(tok.pos, "invalid occurrence of separator \";\"")
	case tokenAssign:
		return syntaxError(tok.pos, "unexpected \"=\"")
	default:
		panic("calc: bracket ended on " + tok.String())
	}
}

// itShouldHaveEnded returns an error if tok is not the end of the input.
func itShouldHaveEnded(tok lexToken) error {
	switch tok.kind {
	case tokenEOF:
		return nil
	case tokenClose:
		return syntaxError(tok.pos, "close bracket \")\" with no open bracket")
	case tokenSep:
		return syntaxError(tok.pos, "invalid occurrence of separator \";\" outside a function call")
	case tokenAssign:
		return syntaxError(tok.pos, "unexpected \"=\"")
	default:
		panic("calc: it really should not have ended this way: " + tok.String())
	}
}

// Vars returns the sorted names of the variables that the statement reads.
func (s *Stmt) Vars() []string {
	seen := make(map[string]bool)
	s.n.names(seen)
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sortstrs(names)
	return names
}

func (n *node) names(seen map[string]bool) {
	switch n.kind {
	case nodeName:
		seen[n.name] = true
	case nodeCall:
		for _, arg := range n.args {
			arg.names(seen)
		}
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodeIntDiv:
		n.left.names(seen)
		n.right.names(seen)
	}
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

// moreBinding reports whether p binds more tightly than than. All operators
// are left-associative, so equal precedence is not more binding.
func (p operator) moreBinding(than operator) bool {
	return p.prec > than.prec
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, nodeAdd}
	case "-":
		return operator{1, nodeSub}
	case "*":
		return operator{5, nodeMul}
	case "/":
		return operator{5, nodeDiv}
	case "mod":
		return operator{5, nodeMod}
	case "div":
		return operator{5, nodeIntDiv}
	default:
		return operator{}
	}
}

var (
	// termprec is the precedence of implicit multiplication. It matches that
	// of explicit multiplication.
	termprec = binop("*")
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, nodeNone}
)
