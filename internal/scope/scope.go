// Package scope resolves the names an expression can read: entity attributes,
// cached REST fields and variables bound during a triggered run.
package scope

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-rules/internal/entity"
)

// Ref names a value that is looked up at evaluation time.
// The set of implementations is closed: AttrRef, RestRef and VarRef.
type Ref interface {
	fmt.Stringer
	isRef()
}

// AttrRef reads an entity attribute.
type AttrRef struct {
	Entity    string
	Attribute string
}

// RestRef reads a field cached from a REST source.
type RestRef struct {
	Source string
	Field  string
}

// VarRef reads a variable bound in the execution context of a run.
type VarRef struct {
	Name string
}

func (AttrRef) isRef() {}
func (RestRef) isRef() {}
func (VarRef) isRef()  {}

func (r AttrRef) String() string { return r.Entity + "." + r.Attribute }
func (r RestRef) String() string { return "$" + r.Source + "." + r.Field }
func (r VarRef) String() string  { return r.Name }

// Entities looks entities up by name. *entity.Registry satisfies it.
type Entities interface {
	Get(name string) (*entity.Entity, bool)
}

// Values reads cached REST fields. *rest.Store satisfies it.
type Values interface {
	Get(source, field string) (any, bool)
}

// Scope is everything an expression may read while it is evaluated.
// It is a value type; WithVars returns a copy bound to a run's variables.
type Scope struct {
	Entities Entities
	Rest     Values
	Vars     map[string]any
}

// WithVars returns a copy of s reading variables from vars.
func (s Scope) WithVars(vars map[string]any) Scope {
	s.Vars = vars
	return s
}

// Resolve returns the current value behind ref.
func (s Scope) Resolve(ref Ref) (any, error) {
	switch r := ref.(type) {
	case AttrRef:
		if s.Entities == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, r.Entity)
		}
		e, ok := s.Entities.Get(r.Entity)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, r.Entity)
		}
		v, ok := e.Attribute(r.Attribute)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, r)
		}
		return v, nil
	case RestRef:
		if s.Rest == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, r)
		}
		v, ok := s.Rest.Get(r.Source, r.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, r)
		}
		return v, nil
	case VarRef:
		v, ok := s.Vars[r.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnboundVariable, r.Name)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("scope: unsupported reference %T", ref)
	}
}

// ParseRef reads the textual form of a reference:
//
//	$Source.field   RestRef
//	entity.attr     AttrRef
//	name            VarRef
func ParseRef(s string) (Ref, error) {
	if rest, ok := strings.CutPrefix(s, "$"); ok {
		source, field, ok := strings.Cut(rest, ".")
		if !ok || source == "" || field == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRef, s)
		}
		return RestRef{Source: source, Field: field}, nil
	}
	if ent, attr, ok := strings.Cut(s, "."); ok {
		if ent == "" || attr == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRef, s)
		}
		return AttrRef{Entity: ent, Attribute: attr}, nil
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRef)
	}
	return VarRef{Name: s}, nil
}
