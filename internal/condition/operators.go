package condition

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-rules/internal/scope"
)

// compare applies op to l and r. Values of types the operator does not
// support produce ErrIncomparable rather than false.
func compare(op Operator, l, r any) (bool, error) {
	switch op {
	case OpEq, OpIs:
		return equal(l, r), nil
	case OpNe, OpIsNot:
		return !equal(l, r), nil
	case OpGt, OpGte, OpLt, OpLte:
		c, err := order(l, r)
		if err != nil {
			return false, err
		}
		switch op {
		case OpGt:
			return c > 0, nil
		case OpGte:
			return c >= 0, nil
		case OpLt:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case OpIn, OpMatch:
		return contains(r, l)
	case OpNotIn, OpNotMatch:
		ok, err := contains(r, l)
		return !ok, err
	case OpHas:
		return contains(l, r)
	case OpHasNot:
		ok, err := contains(l, r)
		return !ok, err
	default:
		return false, &UnsupportedConstructError{Construct: "operator", Value: string(op)}
	}
}

func knownOperator(op Operator) bool {
	switch op {
	case OpEq, OpNe, OpIs, OpIsNot, OpGt, OpGte, OpLt, OpLte,
		OpIn, OpNotIn, OpHas, OpHasNot, OpMatch, OpNotMatch:
		return true
	}
	return false
}

// equal reports value equality. Numbers compare by value across Go numeric
// types; lists and maps compare element-wise.
func equal(a, b any) bool {
	if fa, ok := scope.Number(a); ok {
		fb, ok := scope.Number(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}

	switch va.Kind() {
	case reflect.Slice, reflect.Array:
		if vb.Kind() != reflect.Slice && vb.Kind() != reflect.Array {
			return false
		}
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !equal(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		if vb.Kind() != reflect.Map || va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !equal(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// order returns -1, 0 or 1. Numbers, strings, booleans and times are ordered
// within their own kind only.
func order(a, b any) (int, error) {
	if fa, ok := scope.Number(a); ok {
		if fb, ok := scope.Number(b); ok {
			switch {
			case fa < fb:
				return -1, nil
			case fa > fb:
				return 1, nil
			}
			return 0, nil
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, nil
			case !x:
				return -1, nil
			}
			return 1, nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	}
	return 0, fmt.Errorf("%w: cannot order %T and %T", ErrIncomparable, a, b)
}

// contains reports whether item is in container: an element of a list, a
// key of a map or a substring of a string.
func contains(container, item any) (bool, error) {
	if s, ok := container.(string); ok {
		sub, ok := item.(string)
		if !ok {
			return false, fmt.Errorf("%w: membership of %T in string", ErrIncomparable, item)
		}
		return strings.Contains(s, sub), nil
	}

	v := reflect.ValueOf(container)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if equal(v.Index(i).Interface(), item) {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if equal(iter.Key().Interface(), item) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("%w: %T is not a container", ErrIncomparable, container)
}

func knownLogic(op Logic) bool {
	switch op {
	case And, Or, Not, Xor, Nand, Nor, Xnor:
		return true
	}
	return false
}
