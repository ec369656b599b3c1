package condition

import (
	"errors"
	"fmt"
)

// Sentinel errors for condition evaluation.
var (
	// ErrIncomparable indicates an operator was applied to values it does not support.
	ErrIncomparable = errors.New("condition: incomparable values")

	// ErrNotEnoughSamples indicates an aggregate buffer holds too few values.
	ErrNotEnoughSamples = errors.New("condition: not enough samples")

	// ErrNoBufferSource indicates an aggregate was compiled without a buffer source.
	ErrNoBufferSource = errors.New("condition: aggregate needs a buffer source")
)

// EvalError wraps a failure raised while evaluating a condition. Evaluate
// reports it as "not triggered"; Check returns it.
type EvalError struct {
	Condition string
	Err       error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("condition '%s': %v", e.Condition, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// UnsupportedConstructError is returned by Compile for an operator, node,
// operand or function it does not know.
type UnsupportedConstructError struct {
	Construct string
	Value     string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("condition: unsupported %s %q", e.Construct, e.Value)
}
