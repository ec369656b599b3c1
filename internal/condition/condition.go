package condition

import (
	"fmt"

	"github.com/nerrad567/gray-logic-rules/internal/entity"
	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// Diagnostics returned by Evaluate.
const (
	Triggered    = "triggered"
	NotTriggered = "not triggered"
)

// BufferSource hands out the shared ring buffer for an attribute window.
// *entity.Registry satisfies it.
type BufferSource interface {
	Buffer(entity, attribute string, size int) (*entity.Buffer, error)
}

type predicate func(s scope.Scope) (bool, error)

type valueFunc func(s scope.Scope) (any, error)

// Condition is a compiled, immutable predicate. It may be evaluated from
// many goroutines at once.
type Condition struct {
	root Node
	eval predicate
}

// Compile validates n and turns it into an evaluable Condition. Aggregate
// operands allocate (or join) their ring buffers here.
func Compile(n Node, buffers BufferSource) (*Condition, error) {
	c := &compiler{buffers: buffers}
	eval, err := c.node(n)
	if err != nil {
		return nil, err
	}
	return &Condition{root: n, eval: eval}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(n Node, buffers BufferSource) *Condition {
	c, err := Compile(n, buffers)
	if err != nil {
		panic(err)
	}
	return c
}

// Check evaluates the condition. Every failure, including a panic in an
// operand, is returned as *EvalError.
func (c *Condition) Check(s scope.Scope) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = &EvalError{Condition: c.String(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	ok, err := c.eval(s)
	if err != nil {
		return false, &EvalError{Condition: c.String(), Err: err}
	}
	return ok, nil
}

// Evaluate reports whether the condition holds. Evaluation failures count
// as not triggered.
func (c *Condition) Evaluate(s scope.Scope) (bool, string) {
	if ok, err := c.Check(s); err == nil && ok {
		return true, Triggered
	}
	return false, NotTriggered
}

// String renders the source tree.
func (c *Condition) String() string {
	return c.root.String()
}

// Node returns the tree the condition was compiled from.
func (c *Condition) Node() Node {
	return c.root
}

type compiler struct {
	buffers BufferSource
}

func (c *compiler) node(n Node) (predicate, error) {
	switch n := n.(type) {
	case Compare:
		return c.compare(n)
	case Group:
		return c.group(n)
	case InRange:
		return c.inRange(n)
	case nil:
		return nil, &UnsupportedConstructError{Construct: "node", Value: "<nil>"}
	default:
		return nil, &UnsupportedConstructError{Construct: "node", Value: fmt.Sprintf("%T", n)}
	}
}

func (c *compiler) compare(n Compare) (predicate, error) {
	if !knownOperator(n.Op) {
		return nil, &UnsupportedConstructError{Construct: "operator", Value: string(n.Op)}
	}
	left, err := c.operand(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.operand(n.Right)
	if err != nil {
		return nil, err
	}
	op := n.Op
	return func(s scope.Scope) (bool, error) {
		l, err := left(s)
		if err != nil {
			return false, err
		}
		r, err := right(s)
		if err != nil {
			return false, err
		}
		return compare(op, l, r)
	}, nil
}

func (c *compiler) group(n Group) (predicate, error) {
	if !knownLogic(n.Op) {
		return nil, &UnsupportedConstructError{Construct: "combinator", Value: string(n.Op)}
	}
	left, err := c.node(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.node(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case And, Nand:
		negate := n.Op == Nand
		return func(s scope.Scope) (bool, error) {
			l, err := left(s)
			if err != nil {
				return false, err
			}
			if !l {
				return negate, nil
			}
			r, err := right(s)
			if err != nil {
				return false, err
			}
			return r != negate, nil
		}, nil
	case Or, Nor:
		negate := n.Op == Nor
		return func(s scope.Scope) (bool, error) {
			l, err := left(s)
			if err != nil {
				return false, err
			}
			if l {
				return !negate, nil
			}
			r, err := right(s)
			if err != nil {
				return false, err
			}
			return r != negate, nil
		}, nil
	default:
		// NOT holds when the two sides differ, the same truth table as XOR.
		same := n.Op == Xnor
		return func(s scope.Scope) (bool, error) {
			l, err := left(s)
			if err != nil {
				return false, err
			}
			r, err := right(s)
			if err != nil {
				return false, err
			}
			return (l == r) == same, nil
		}, nil
	}
}

func (c *compiler) inRange(n InRange) (predicate, error) {
	value, err := c.operand(n.Value)
	if err != nil {
		return nil, err
	}
	lo, err := c.operand(n.Min)
	if err != nil {
		return nil, err
	}
	hi, err := c.operand(n.Max)
	if err != nil {
		return nil, err
	}
	return func(s scope.Scope) (bool, error) {
		v, err := value(s)
		if err != nil {
			return false, err
		}
		minV, err := lo(s)
		if err != nil {
			return false, err
		}
		above, err := compare(OpGt, v, minV)
		if err != nil || !above {
			return false, err
		}
		maxV, err := hi(s)
		if err != nil {
			return false, err
		}
		return compare(OpLt, v, maxV)
	}, nil
}

func (c *compiler) operand(o Operand) (valueFunc, error) {
	switch o := o.(type) {
	case Literal:
		v := o.Value
		return func(scope.Scope) (any, error) { return v, nil }, nil
	case Ref:
		if o.Ref == nil {
			return nil, &UnsupportedConstructError{Construct: "reference", Value: "<nil>"}
		}
		ref := o.Ref
		return func(s scope.Scope) (any, error) { return s.Resolve(ref) }, nil
	case Aggregate:
		return c.aggregate(o)
	case Call:
		return c.call(o)
	case nil:
		return nil, &UnsupportedConstructError{Construct: "operand", Value: "<nil>"}
	default:
		return nil, &UnsupportedConstructError{Construct: "operand", Value: fmt.Sprintf("%T", o)}
	}
}

func (c *compiler) aggregate(o Aggregate) (valueFunc, error) {
	reduce, ok := aggregateFunc(o.Func)
	if !ok {
		return nil, &UnsupportedConstructError{Construct: "aggregate", Value: o.Func}
	}
	if c.buffers == nil {
		return nil, ErrNoBufferSource
	}
	buf, err := c.buffers.Buffer(o.Entity, o.Attribute, o.Size)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", o, err)
	}
	return func(scope.Scope) (any, error) {
		xs, err := numbers(buf.Values())
		if err != nil {
			return nil, err
		}
		return reduce(xs)
	}, nil
}

func (c *compiler) call(o Call) (valueFunc, error) {
	var reduce reducer
	switch o.Func {
	case "min":
		reduce = minimum
	case "max":
		reduce = maximum
	default:
		return nil, &UnsupportedConstructError{Construct: "function", Value: o.Func}
	}

	args := make([]valueFunc, len(o.Args))
	for i, a := range o.Args {
		fn, err := c.operand(a)
		if err != nil {
			return nil, err
		}
		args[i] = fn
	}

	return func(s scope.Scope) (any, error) {
		values := make([]any, len(args))
		for i, fn := range args {
			v, err := fn(s)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		xs, err := numbers(spread(values))
		if err != nil {
			return nil, err
		}
		return reduce(xs)
	}, nil
}
