package entity

import "errors"

// Sentinel errors for entity operations.
var (
	// ErrNotFound indicates no entity is registered under the given name.
	ErrNotFound = errors.New("entity: not found")

	// ErrDuplicateEntity indicates an entity name is already registered.
	ErrDuplicateEntity = errors.New("entity: duplicate name")

	// ErrNoPublisher indicates Publish was called before a transport was attached.
	ErrNoPublisher = errors.New("entity: no publisher attached")

	// ErrInvalidBufferSize indicates a non-positive ring buffer size.
	ErrInvalidBufferSize = errors.New("entity: buffer size must be positive")
)
