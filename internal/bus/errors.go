package bus

import "errors"

// Sentinel errors for the entity bus.
var (
	// ErrUnknownEntity is returned when publishing for an unregistered entity.
	ErrUnknownEntity = errors.New("bus: unknown entity")

	// ErrInvalidPayload is returned for payloads that are not a JSON object.
	ErrInvalidPayload = errors.New("bus: invalid payload")

	// ErrFeedRunning is returned by Start on a running feed.
	ErrFeedRunning = errors.New("bus: feed already running")
)
