package mathexpr

import (
	"strconv"

	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// Op is a binary arithmetic operator.
type Op byte

// Arithmetic operators.
const (
	Add Op = '+'
	Sub Op = '-'
	Mul Op = '*'
	Div Op = '/'
)

func (o Op) String() string {
	return string(rune(o))
}

// Expr is a node of an arithmetic expression tree.
// The set of implementations is closed: Number, Ref, Neg and Binary.
type Expr interface {
	String() string
	isExpr()
}

// Number is a numeric literal.
type Number struct {
	Value float64
}

// Ref reads an entity attribute, a REST field or a context variable.
type Ref struct {
	Ref scope.Ref
}

// Neg negates its operand.
type Neg struct {
	X Expr
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (Number) isExpr() {}
func (Ref) isExpr()    {}
func (Neg) isExpr()    {}
func (Binary) isExpr() {}

func (n Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (r Ref) String() string {
	return r.Ref.String()
}

func (n Neg) String() string {
	return "-" + n.X.String()
}

func (b Binary) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}

// Refs returns every reference in e, left to right.
func Refs(e Expr) []scope.Ref {
	var out []scope.Ref
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Ref:
			out = append(out, n.Ref)
		case Neg:
			walk(n.X)
		case Binary:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(e)
	return out
}
