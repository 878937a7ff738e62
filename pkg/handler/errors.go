package handler

import "errors"

// Package errors.
var (
	// ErrUnknownLocalID is returned when a local id does not refer to a live
	// sender or receiver.
	ErrUnknownLocalID = errors.New("handler: unknown local id")

	// ErrNoSctp is returned for data channel calls on a handler created
	// without SCTP parameters.
	ErrNoSctp = errors.New("handler: sctp not enabled")

	// ErrClosed is returned for calls on a closed handler.
	ErrClosed = errors.New("handler: closed")
)
