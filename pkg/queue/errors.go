package queue

import "github.com/backkem/mediasoupclient/pkg/mediaerr"

var (
	// ErrClosed is returned for tasks submitted after Close and for tasks
	// still waiting when Close was called.
	ErrClosed = mediaerr.InvalidState("queue: closed")
)
