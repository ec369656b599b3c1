package mathexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// ErrDivisionByZero is wrapped by EvalError when a divisor evaluates to zero.
var ErrDivisionByZero = errors.New("mathexpr: division by zero")

// EvalError reports why an expression could not be evaluated.
type EvalError struct {
	Expr Expr
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("expr '%s': %v", e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Eval computes e against s.
//
// Referenced values are converted the way a numeric cast would: numbers as
// is, booleans as 1 or 0, numeric strings parsed. Anything else, an
// unresolved reference or a zero divisor fails with *EvalError.
func Eval(e Expr, s scope.Scope) (float64, error) {
	switch n := e.(type) {
	case Number:
		return n.Value, nil
	case Ref:
		v, err := s.Resolve(n.Ref)
		if err != nil {
			return 0, &EvalError{Expr: e, Err: err}
		}
		f, ok := toFloat(v)
		if !ok {
			return 0, &EvalError{Expr: e, Err: fmt.Errorf("value %v (%T) is not numeric", v, v)}
		}
		return f, nil
	case Neg:
		x, err := Eval(n.X, s)
		if err != nil {
			return 0, err
		}
		return -x, nil
	case Binary:
		l, err := Eval(n.Left, s)
		if err != nil {
			return 0, err
		}
		r, err := Eval(n.Right, s)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case Add:
			return l + r, nil
		case Sub:
			return l - r, nil
		case Mul:
			return l * r, nil
		case Div:
			if r == 0 {
				return 0, &EvalError{Expr: e, Err: ErrDivisionByZero}
			}
			return l / r, nil
		default:
			return 0, &EvalError{Expr: e, Err: fmt.Errorf("unknown operator %q", n.Op)}
		}
	default:
		return 0, &EvalError{Expr: e, Err: fmt.Errorf("unsupported node %T", e)}
	}
}

func toFloat(v any) (float64, bool) {
	if f, ok := scope.Number(v); ok {
		return f, true
	}
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
