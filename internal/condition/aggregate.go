package condition

import (
	"fmt"
	"math"
	"reflect"

	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

type reducer func(xs []float64) (float64, error)

func aggregateFunc(name string) (reducer, bool) {
	switch name {
	case AggMean:
		return mean, true
	case AggStd, AggStdev:
		return stdev, true
	case AggVar, AggVariance:
		return variance, true
	case AggMin:
		return minimum, true
	case AggMax:
		return maximum, true
	}
	return nil, false
}

func mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("%w: mean needs at least one value", ErrNotEnoughSamples)
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), nil
}

// variance is the sample variance (n-1 denominator).
func variance(xs []float64) (float64, error) {
	if len(xs) < 2 {
		return 0, fmt.Errorf("%w: variance needs at least two values", ErrNotEnoughSamples)
	}
	m, _ := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs)-1), nil
}

func stdev(xs []float64) (float64, error) {
	v, err := variance(xs)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

func minimum(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("%w: min of an empty sequence", ErrNotEnoughSamples)
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m, nil
}

func maximum(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("%w: max of an empty sequence", ErrNotEnoughSamples)
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m, nil
}

func numbers(values []any) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := scope.Number(v)
		if !ok {
			return nil, fmt.Errorf("%w: %v (%T) is not numeric", ErrIncomparable, v, v)
		}
		out[i] = f
	}
	return out, nil
}

// spread flattens helper arguments: a single list argument is expanded so
// that min([a, b]) and min(a, b) agree.
func spread(args []any) []any {
	if len(args) != 1 {
		return args
	}
	v := reflect.ValueOf(args[0])
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return args
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}
