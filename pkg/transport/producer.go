package transport

import (
	"context"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

// Producer is a local track sent over a send transport.
type Producer struct {
	id            string
	localID       string
	kind          rtpparam.MediaKind
	rtpParameters *rtpparam.RtpParameters
	rtpSender     any
	keepTrack     bool
	appData       AppData
	link          *link

	mu           sync.Mutex
	track        handler.Track
	closed       bool
	paused       bool
	maxLayer     *uint8
	onClose      []func()
	onTransClose []func()
}

// ID returns the id the remote side assigned.
func (p *Producer) ID() string { return p.id }

// LocalID returns the handler's id of the sender.
func (p *Producer) LocalID() string { return p.localID }

// Kind returns audio or video.
func (p *Producer) Kind() rtpparam.MediaKind { return p.kind }

// RtpParameters returns a copy of the negotiated send parameters.
func (p *Producer) RtpParameters() *rtpparam.RtpParameters { return p.rtpParameters.Clone() }

// RtpSender returns the engine-specific sender.
func (p *Producer) RtpSender() any { return p.rtpSender }

// AppData returns the application data of the producer.
func (p *Producer) AppData() AppData { return p.appData }

// Track returns the track being sent. It is nil once the producer closed.
func (p *Producer) Track() handler.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// Closed returns true once the producer or its transport closed.
func (p *Producer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Paused returns the local pause flag.
func (p *Producer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// MaxSpatialLayer returns the last layer set by SetMaxSpatialLayer.
func (p *Producer) MaxSpatialLayer() (uint8, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.maxLayer == nil {
		return 0, false
	}
	return *p.maxLayer, true
}

// Pause disables the track being sent. Signaling the pause to the remote
// side is up to the application.
func (p *Producer) Pause() {
	p.setPaused(true)
}

// Resume enables the track being sent again.
func (p *Producer) Resume() {
	p.setPaused(false)
}

func (p *Producer) setPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.paused = paused
	if p.track != nil {
		p.track.SetEnabled(!paused)
	}
}

// OnClose adds an observer called once when the producer is closed by Close.
func (p *Producer) OnClose(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = append(p.onClose, fn)
}

// OnTransportClose adds an observer called once when the transport of the
// producer closes.
func (p *Producer) OnTransportClose(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onTransClose = append(p.onTransClose, fn)
}

// ReplaceTrack sends track instead of the current one. Replacing a track
// with itself is a no-op. The previous track is stopped unless the producer
// keeps tracks.
func (p *Producer) ReplaceTrack(ctx context.Context, track handler.Track) error {
	if p.Closed() {
		return ErrClosed
	}
	if track == nil {
		return mediaerr.InvalidArgument("missing track")
	}
	if track.Ended() {
		return ErrTrackEnded
	}
	if track.Kind() != p.kind {
		return mediaerr.InvalidArgument("track kind %s does not match producer kind %s", track.Kind(), p.kind)
	}

	p.mu.Lock()
	old := p.track
	p.mu.Unlock()
	if old == track {
		return nil
	}

	err := p.link.push(ctx, "producer.replaceTrack()", func(ctx context.Context) error {
		return p.link.handler.ReplaceTrack(ctx, p.localID, track)
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.track = track
	track.SetEnabled(!p.paused)
	p.mu.Unlock()
	if old != nil && !p.keepTrack {
		old.Stop()
	}
	return nil
}

// SetMaxSpatialLayer limits a simulcast video producer to the layers up to
// and including spatialLayer.
func (p *Producer) SetMaxSpatialLayer(ctx context.Context, spatialLayer uint8) error {
	if p.Closed() {
		return ErrClosed
	}
	if p.kind != rtpparam.MediaKindVideo {
		return mediaerr.Unsupported("not a video Producer")
	}

	p.mu.Lock()
	same := p.maxLayer != nil && *p.maxLayer == spatialLayer
	p.mu.Unlock()
	if same {
		return nil
	}

	err := p.link.push(ctx, "producer.setMaxSpatialLayer()", func(ctx context.Context) error {
		return p.link.handler.SetMaxSpatialLayer(ctx, p.localID, spatialLayer)
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.maxLayer = &spatialLayer
	p.mu.Unlock()
	return nil
}

// SetRtpEncodingParameters updates every encoding of the sender.
func (p *Producer) SetRtpEncodingParameters(ctx context.Context, update handler.EncodingUpdate) error {
	if p.Closed() {
		return ErrClosed
	}
	return p.link.push(ctx, "producer.setRtpEncodingParameters()", func(ctx context.Context) error {
		return p.link.handler.SetRtpEncodingParameters(ctx, p.localID, update)
	})
}

// GetStats returns the sender stats. It does not wait for queued commands.
func (p *Producer) GetStats(ctx context.Context) (handler.StatsReport, error) {
	if p.Closed() {
		return nil, ErrClosed
	}
	return p.link.handler.GetSenderStats(ctx, p.localID)
}

// Close closes the producer and releases its sender. Closing the remote
// producer is up to the application.
func (p *Producer) Close() {
	observers, ok := p.markClosed(false)
	if !ok {
		return
	}
	p.link.release("producer.close()", func(ctx context.Context) error {
		return p.link.handler.StopSending(ctx, p.localID)
	})
	for _, fn := range observers {
		fn()
	}
}

func (p *Producer) transportClosed() {
	observers, ok := p.markClosed(true)
	if !ok {
		return
	}
	for _, fn := range observers {
		fn()
	}
}

// markClosed closes the producer once and returns the observers to call.
func (p *Producer) markClosed(byTransport bool) ([]func(), bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, false
	}
	p.closed = true
	track := p.track
	p.track = nil
	observers := p.onClose
	if byTransport {
		observers = p.onTransClose
	}
	p.onClose, p.onTransClose = nil, nil
	p.mu.Unlock()

	if track != nil && !p.keepTrack {
		track.Stop()
	}
	return observers, true
}
