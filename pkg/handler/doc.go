// Package handler defines the engine adapter contract.
//
// A Handler wraps one engine-level connection (for pion, a PeerConnection)
// for one transport. It performs the actual offer/answer work and is not
// reentrant: callers must never invoke two mutating methods concurrently.
// The transport package guarantees this by routing every call through its
// command queue.
//
// A Factory is selected when a Device is created. It reports the engine's
// native capabilities and creates one Handler per transport.
package handler
