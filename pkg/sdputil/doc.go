// Package sdputil converts between SDP and the capability and parameter
// types of this module.
//
// Engines that negotiate with SDP use it in both directions. Local offers and
// answers are parsed to learn native capabilities, DTLS fingerprints, CNAMEs
// and SSRCs. RemoteSdp builds the SDP that stands in for the remote side.
package sdputil
