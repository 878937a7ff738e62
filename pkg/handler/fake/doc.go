// Package fake provides an in-memory engine adapter.
//
// The fake performs no networking. It derives send parameters from the
// negotiated capabilities the same way a real engine would, raises the
// connect event on first use and records every call. Tests script it with
// per-method hooks that can block or fail a call.
package fake
