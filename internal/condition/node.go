package condition

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// Operator compares two operand values.
type Operator string

// Comparison operators.
const (
	OpEq       Operator = "=="
	OpNe       Operator = "!="
	OpIs       Operator = "is"
	OpIsNot    Operator = "is not"
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpIn       Operator = "in"
	OpNotIn    Operator = "not in"
	OpHas      Operator = "has"
	OpHasNot   Operator = "has not"
	OpMatch    Operator = "~"
	OpNotMatch Operator = "!~"
)

// Logic combines the results of two sub-conditions.
type Logic string

// Boolean combinators.
const (
	And  Logic = "AND"
	Or   Logic = "OR"
	Not  Logic = "NOT"
	Xor  Logic = "XOR"
	Nand Logic = "NAND"
	Nor  Logic = "NOR"
	Xnor Logic = "XNOR"
)

// Aggregate functions over an attribute's ring buffer.
const (
	AggMean     = "mean"
	AggStd      = "std"
	AggStdev    = "stdev"
	AggVar      = "var"
	AggVariance = "variance"
	AggMin      = "min"
	AggMax      = "max"
)

// Node is a condition tree node.
// The set of implementations is closed: Compare, Group and InRange.
type Node interface {
	fmt.Stringer
	isNode()
}

// Compare is a primitive comparison of two operands.
type Compare struct {
	Left  Operand
	Op    Operator
	Right Operand
}

// Group combines two sub-conditions with a boolean combinator.
type Group struct {
	Left  Node
	Op    Logic
	Right Node
}

// InRange holds when Min < Value < Max.
type InRange struct {
	Value Operand
	Min   Operand
	Max   Operand
}

func (Compare) isNode() {}
func (Group) isNode()   {}
func (InRange) isNode() {}

func (c Compare) String() string {
	return c.Left.String() + " " + string(c.Op) + " " + c.Right.String()
}

func (g Group) String() string {
	return "(" + g.Left.String() + ") " + string(g.Op) + " (" + g.Right.String() + ")"
}

func (r InRange) String() string {
	return "InRange(" + r.Value.String() + ", " + r.Min.String() + ", " + r.Max.String() + ")"
}

// Operand produces a value when a condition is evaluated.
// The set of implementations is closed: Literal, Ref, Aggregate and Call.
type Operand interface {
	fmt.Stringer
	isOperand()
}

// Literal is a constant value.
type Literal struct {
	Value any
}

// Ref reads an entity attribute, a REST field or a context variable.
type Ref struct {
	Ref scope.Ref
}

// Aggregate reduces the last Size values of an attribute.
type Aggregate struct {
	Func      string
	Entity    string
	Attribute string
	Size      int
}

// Call applies a helper function (min or max) to its arguments.
type Call struct {
	Func string
	Args []Operand
}

func (Literal) isOperand()   {}
func (Ref) isOperand()       {}
func (Aggregate) isOperand() {}
func (Call) isOperand()      {}

func (l Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(l.Value)
}

func (r Ref) String() string {
	return r.Ref.String()
}

func (a Aggregate) String() string {
	return fmt.Sprintf("%s(%s.%s, %d)", a.Func, a.Entity, a.Attribute, a.Size)
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Func + "(" + strings.Join(args, ", ") + ")"
}
