package datasource

import "errors"

var (
	// ErrDuplicateDriver is returned by RegisterDriver when a driver of
	// the same class is already registered.
	ErrDuplicateDriver = errors.New("duplicate driver class")

	// ErrUnknownType is returned when a definition names an explicit
	// type= that no registered driver claims.
	ErrUnknownType = errors.New("unknown source type")

	// ErrMalformedDefinition is returned when a definition string has a
	// comma before its first colon ('s "commonly a typo").
	ErrMalformedDefinition = errors.New("malformed source definition")

	// ErrProbeFailed is returned when every candidate driver's probe
	// fails and none remain.
	ErrProbeFailed = errors.New("no driver claimed interface")

	// ErrDuplicateUUID is returned when a source with the same UUID is
	// already running.
	ErrDuplicateUUID = errors.New("source uuid already running")

	// ErrNoRemoteDriver is returned by open_remote when no registered
	// driver both matches sourcetype and supports remote capture.
	ErrNoRemoteDriver = errors.New("no remote-capable driver for source type")

	// ErrNoSuchSource is returned by Find/Remove/Close for an unknown
	// UUID.
	ErrNoSuchSource = errors.New("no such source")

	// ErrHandshakeTimeout is returned when a remote handshake session
	// doesn't complete within its idle timer.
	ErrHandshakeTimeout = errors.New("remote handshake timed out")
)
