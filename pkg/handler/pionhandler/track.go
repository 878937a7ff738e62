package pionhandler

import (
	"errors"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// ErrNotSampleTrack is returned by WriteSample for tracks that do not take
// samples.
var ErrNotSampleTrack = errors.New("pionhandler: track does not take samples")

// Track adapts a webrtc.TrackLocal to handler.Track.
type Track struct {
	local webrtc.TrackLocal

	mu       sync.Mutex
	ended    bool
	disabled bool
}

var _ handler.Track = (*Track)(nil)

// NewTrack wraps local.
func NewTrack(local webrtc.TrackLocal) *Track {
	return &Track{local: local}
}

// TrackLocal returns the wrapped track.
func (t *Track) TrackLocal() webrtc.TrackLocal { return t.local }

// ID implements handler.Track.
func (t *Track) ID() string { return t.local.ID() }

// Kind implements handler.Track.
func (t *Track) Kind() rtpparam.MediaKind {
	return rtpparam.MediaKind(t.local.Kind().String())
}

// Ended implements handler.Track.
func (t *Track) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// Stop implements handler.Track. Pion tracks have no source to release, so
// Stop only marks the track ended.
func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ended = true
}

// SetEnabled implements handler.Track. Samples written through WriteSample
// are dropped while the track is disabled.
func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disabled = !enabled
}

// Enabled implements handler.Track.
func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.disabled
}

// WriteSample writes a media sample to a sample based track. The sample is
// dropped while the track is disabled or ended.
func (t *Track) WriteSample(sample media.Sample) error {
	writer, ok := t.local.(*webrtc.TrackLocalStaticSample)
	if !ok {
		return ErrNotSampleTrack
	}
	t.mu.Lock()
	drop := t.disabled || t.ended
	t.mu.Unlock()
	if drop {
		return nil
	}
	return writer.WriteSample(sample)
}
