// Package ortc negotiates RTP capabilities between a local engine and a
// remote endpoint.
//
// GetExtendedRtpCapabilities computes the intersection of both capability
// sets. The remaining functions derive concrete parameter sets from that
// result: what to offer when sending, what the remote's answer should
// contain, what to advertise as receive capabilities, and the parameters of
// the bandwidth probation flow.
//
// All functions are pure. Inputs are cloned before defaults are filled in,
// so callers can reuse them.
package ortc
