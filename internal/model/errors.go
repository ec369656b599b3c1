package model

import "errors"

// Domain errors for the model package.
var (
	// ErrDuplicateName is returned when two entities, REST sources or
	// automations share a name.
	ErrDuplicateName = errors.New("model: duplicate name")

	// ErrUnknownEntity is returned when an action targets an undeclared entity.
	ErrUnknownEntity = errors.New("model: unknown entity")

	// ErrUnknownAttribute is returned when an action targets an attribute the
	// entity does not declare.
	ErrUnknownAttribute = errors.New("model: unknown attribute")

	// ErrInvalidModel is returned for a structurally invalid descriptor.
	ErrInvalidModel = errors.New("model: invalid descriptor")
)
