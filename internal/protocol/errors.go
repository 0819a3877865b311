package protocol

import "errors"

var (
	// ErrMalformedSyntax reports a frame that is not a JSON object.
	ErrMalformedSyntax = errors.New("malformed envelope")
	// ErrMissingType reports an envelope without a type tag.
	ErrMissingType = errors.New("message type missing")
	// ErrUnhandledType reports an inbound type the server does not process.
	ErrUnhandledType = errors.New("unhandled message type")
	// ErrMalformedParams reports params that are present but not a JSON object.
	ErrMalformedParams = errors.New("params must be a JSON object")
)
