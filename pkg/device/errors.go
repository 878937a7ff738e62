package device

import "github.com/backkem/mediasoupclient/pkg/mediaerr"

// Device errors.
var (
	// ErrNotSupported is returned by New without a handler factory.
	ErrNotSupported = mediaerr.Unsupported("device: not supported")

	// ErrNotLoaded is returned by getters and factories before Load.
	ErrNotLoaded = mediaerr.InvalidState("device: not loaded")

	// ErrAlreadyLoaded is returned by a second Load.
	ErrAlreadyLoaded = mediaerr.InvalidState("device: already loaded")
)
