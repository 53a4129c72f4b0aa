package calc

import (
	"strconv"
	"strings"

	"github.com/govalues/decimal"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind

	num  decimal.Decimal
	name string
	fn   funcName
	err  *Error

	left  *node
	right *node
	args  []*node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // num
	nodeName // lookup(name)
	nodeCall // fn(args...)
	nodeErr  // raise err

	nodeAdd    // evaluate left, add right
	nodeSub    // evaluate left, sub right
	nodeMul    // evaluate left, mul right
	nodeDiv    // evaluate left, div by right
	nodeMod    // evaluate left, remainder by right
	nodeIntDiv // evaluate left, truncated div by right
)

var nodeNames = [...]string{
	nodeNone:   "None",
	nodeNum:    "Num",
	nodeName:   "Name",
	nodeCall:   "Call",
	nodeErr:    "Err",
	nodeAdd:    "Add",
	nodeSub:    "Sub",
	nodeMul:    "Mul",
	nodeDiv:    "Div",
	nodeMod:    "Mod",
	nodeIntDiv: "IntDiv",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(nodeNames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeNames[k]
}

// opText gets the canonical spelling of a binary operator node kind.
func (k nodeKind) opText() string {
	switch k {
	case nodeAdd:
		return "+"
	case nodeSub:
		return "-"
	case nodeMul:
		return "*"
	case nodeDiv:
		return "/"
	case nodeMod:
		return "mod"
	case nodeIntDiv:
		return "div"
	default:
		return ""
	}
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

func (n *node) fmt(b *strings.Builder) {
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteString("$#$")
	case nodeNum:
		b.WriteString(n.num.String())
	case nodeName:
		b.WriteString(strconv.Quote(n.name))
	case nodeCall:
		b.WriteString(n.fn.String())
		b.WriteByte('(')
		for i, arg := range n.args {
			if i > 0 {
				b.WriteByte(' ')
			}
			arg.fmt(b)
		}
		b.WriteByte(')')
	case nodeErr:
		b.WriteString("Error(")
		b.WriteString(n.err.Kind.String())
		b.WriteByte(')')
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodeIntDiv:
		b.WriteByte('(')
		n.left.fmt(b)
		b.WriteByte(' ')
		b.WriteString(n.kind.opText())
		b.WriteByte(' ')
		n.right.fmt(b)
		b.WriteByte(')')
	default:
		panic("calc: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

// Stmt is a parsed line: either an assignment of an expression to a variable
// or a bare expression.
type Stmt struct {
	// name is the assigned variable, or empty for a bare expression.
	name string
	// n is the root node of the expression.
	n *node
}

// IsAssign returns whether the statement assigns to a variable.
func (s *Stmt) IsAssign() bool {
	return s.name != ""
}

// Name returns the name of the assigned variable, or the empty string if the
// statement is a bare expression.
func (s *Stmt) Name() string {
	return s.name
}

// String creates a string representation of the parsed statement, with each
// operation fully parenthesized.
func (s *Stmt) String() string {
	var b strings.Builder
	if s.name != "" {
		b.WriteString(s.name)
		b.WriteString(" = ")
	}
	s.n.fmt(&b)
	return b.String()
}
