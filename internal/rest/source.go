package rest

import "time"

// AuthKind selects how credentials are attached to a request.
type AuthKind string

// Supported authentication schemes.
const (
	AuthNone   AuthKind = "none"
	AuthAPIKey AuthKind = "apikey"
	AuthBearer AuthKind = "bearer"
	AuthBasic  AuthKind = "basic"
)

// Auth holds the credentials for one REST source. Only the fields relevant
// to Kind are read.
type Auth struct {
	Kind AuthKind

	// API key: Header is set to Value.
	Header string
	Value  string

	// Bearer token.
	Token string

	// Basic authentication.
	Username string
	Password string
}

// Request describes how to call a REST endpoint.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Params  map[string]string

	// Body is sent as JSON when it is a map or slice, as JSON when it is a
	// string that parses as JSON, as raw bytes otherwise.
	Body any

	Auth Auth

	// Timeout overrides the client default when positive.
	Timeout time.Duration
}

// Mapping extracts one named field from a response payload.
type Mapping struct {
	Name string
	// Path is a JSON path such as "$.current.temperature" or "$.items[0].id".
	Path string
	// Type is one of "number", "string", "bool", "list", "dict" or empty.
	Type string
}

// Source is a named REST data feed polled by the Poller.
type Source struct {
	Name     string
	Request  Request
	Mappings []Mapping

	// Interval overrides the poller default when positive.
	Interval time.Duration
}
