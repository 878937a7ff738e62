package fake

import (
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/google/uuid"
)

// Track is an in-memory media source.
type Track struct {
	id   string
	kind rtpparam.MediaKind

	mu       sync.Mutex
	ended    bool
	stopped  bool
	disabled bool
}

var _ handler.Track = (*Track)(nil)

// NewTrack returns a live track of kind with a random id.
func NewTrack(kind rtpparam.MediaKind) *Track {
	return &Track{id: uuid.NewString(), kind: kind}
}

// ID implements handler.Track.
func (t *Track) ID() string { return t.id }

// Kind implements handler.Track.
func (t *Track) Kind() rtpparam.MediaKind { return t.kind }

// Ended implements handler.Track.
func (t *Track) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// Stop implements handler.Track.
func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ended = true
	t.stopped = true
}

// SetEnabled implements handler.Track.
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

// End marks the track as ended without stopping it, as when the source
// goes away.
func (t *Track) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ended = true
}

// Stopped returns true if Stop was called.
func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// RemoteTrack is the track a fake receiver hands out.
type RemoteTrack struct {
	ID   string
	Kind rtpparam.MediaKind
}

// DataChannel is an in-memory data channel.
type DataChannel struct {
	label    string
	protocol string

	mu     sync.Mutex
	closed bool
}

var _ handler.DataChannel = (*DataChannel)(nil)

// Label implements handler.DataChannel.
func (d *DataChannel) Label() string { return d.label }

// Protocol implements handler.DataChannel.
func (d *DataChannel) Protocol() string { return d.protocol }

// Close implements handler.DataChannel.
func (d *DataChannel) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed returns true if Close was called.
func (d *DataChannel) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
