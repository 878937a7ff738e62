// Package rtpparam is the capability model: RTP capabilities and parameters
// as exchanged with the remote endpoint, and the extended (negotiated)
// capabilities computed from a local and a remote capability set.
//
// The types carry no behavior beyond cloning, kind/RTX classification and
// JSON encoding. Negotiation lives in package ortc.
package rtpparam
