package gps

import "errors"

var (
	// ErrFramingNoise is returned (once per decoder, not per line) when
	// a line's first byte falls outside printable ASCII.
	ErrFramingNoise = errors.New("nmea framing noise")

	// ErrMalformedSentence is returned when a recognized sentence type
	// doesn't have enough comma-delimited fields to parse.
	ErrMalformedSentence = errors.New("malformed nmea sentence")

	// ErrUnknownDriver is returned by Open when no driver is registered
	// for the definition's scheme.
	ErrUnknownDriver = errors.New("unknown gps driver")

	// ErrNoUsableData is the reason recorded when a driver's open
	// connection produces no usable fix for GetGPSIdleReopenDelay (the
	// default 30s "no usable data" timeout).
	ErrNoUsableData = errors.New("no usable gps data")

	// ErrClosed reports an operation on a closed driver. The drivers in
	// this package do not return it.
	ErrClosed = errors.New("gps driver closed")
)
