package handler

import (
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
)

// Track is a local media source.
type Track interface {
	ID() string
	Kind() rtpparam.MediaKind
	// Ended returns true once the source has stopped producing media.
	Ended() bool
	// Stop ends the source.
	Stop()
	// SetEnabled mutes or unmutes the source. A disabled track stays live
	// but produces no media.
	SetEnabled(enabled bool)
	Enabled() bool
}

// DataChannel is an SCTP data channel.
type DataChannel interface {
	Label() string
	Protocol() string
	Close() error
}

// CodecOptions tune the codec of a send flow.
type CodecOptions struct {
	OpusStereo              *bool   `json:"opusStereo,omitempty"`
	OpusFec                 *bool   `json:"opusFec,omitempty"`
	OpusDtx                 *bool   `json:"opusDtx,omitempty"`
	OpusMaxPlaybackRate     *uint32 `json:"opusMaxPlaybackRate,omitempty"`
	OpusMaxAverageBitrate   *uint32 `json:"opusMaxAverageBitrate,omitempty"`
	OpusPtime               *uint32 `json:"opusPtime,omitempty"`
	VideoGoogleStartBitrate *uint32 `json:"videoGoogleStartBitrate,omitempty"`
	VideoGoogleMaxBitrate   *uint32 `json:"videoGoogleMaxBitrate,omitempty"`
	VideoGoogleMinBitrate   *uint32 `json:"videoGoogleMinBitrate,omitempty"`
}

// SendOptions are the arguments of Handler.Send.
type SendOptions struct {
	Track        Track
	Encodings    []*rtpparam.RtpEncodingParameters
	CodecOptions *CodecOptions
	Codec        *rtpparam.RtpCodecCapability // preferred codec, nil for the first one
}

// SendResult is returned by Handler.Send.
type SendResult struct {
	LocalID       string
	RtpParameters *rtpparam.RtpParameters
	RtpSender     any // engine-specific sender
}

// ReceiveOptions are the arguments of Handler.Receive.
type ReceiveOptions struct {
	TrackID       string
	Kind          rtpparam.MediaKind
	RtpParameters *rtpparam.RtpParameters
}

// ReceiveResult is returned by Handler.Receive.
type ReceiveResult struct {
	LocalID     string
	Track       any // engine-specific remote track, may be nil until media flows
	RtpReceiver any // engine-specific receiver
}

// EncodingUpdate is a partial update applied to every encoding of a sender.
// Nil fields are left unchanged.
type EncodingUpdate struct {
	MaxBitrate            *uint32
	MaxFramerate          *float64
	ScaleResolutionDownBy *float64
	Priority              *string
	NetworkPriority       *string
}

// SendDataChannelOptions are the arguments of Handler.SendDataChannel.
// Exactly one of MaxPacketLifeTime and MaxRetransmits may be set, and only
// when Ordered is false.
type SendDataChannelOptions struct {
	Ordered           bool
	MaxPacketLifeTime *uint16
	MaxRetransmits    *uint16
	Priority          string
	Label             string
	Protocol          string
}

// SendDataChannelResult is returned by Handler.SendDataChannel.
type SendDataChannelResult struct {
	DataChannel          DataChannel
	SctpStreamParameters *transportparam.SctpStreamParameters
}

// ReceiveDataChannelOptions are the arguments of Handler.ReceiveDataChannel.
type ReceiveDataChannelOptions struct {
	SctpStreamParameters *transportparam.SctpStreamParameters
	Label                string
	Protocol             string
}

// ReceiveDataChannelResult is returned by Handler.ReceiveDataChannel.
type ReceiveDataChannelResult struct {
	DataChannel DataChannel
}
