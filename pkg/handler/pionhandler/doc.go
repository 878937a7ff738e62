// Package pionhandler is the engine adapter backed by pion/webrtc.
//
// Each handler owns one PeerConnection. A send handler is always the
// offerer and builds the remote answer with sdputil.RemoteSdp; a receive
// handler is always the answerer and builds the remote offer. Media
// sections are never recycled. Stopped flows leave an inactive section
// behind.
//
// Local media is handed in as *Track, a thin wrapper over any
// webrtc.TrackLocal:
//
//	local, _ := webrtc.NewTrackLocalStaticSample(
//		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "stream")
//	producer, err := sendTransport.Produce(ctx, transport.ProduceOptions{
//		Track: pionhandler.NewTrack(local),
//	})
//
// Simulcast, spatial layer selection and encoding updates are not supported
// by this engine and fail with an Unsupported error.
package pionhandler
