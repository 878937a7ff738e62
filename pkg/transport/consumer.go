package transport

import (
	"context"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

// Consumer is a remote producer received over a recv transport.
type Consumer struct {
	id            string
	localID       string
	producerID    string
	kind          rtpparam.MediaKind
	track         any
	rtpReceiver   any
	rtpParameters *rtpparam.RtpParameters
	appData       AppData
	link          *link

	mu           sync.Mutex
	closed       bool
	paused       bool
	onClose      []func()
	onTransClose []func()
}

// ID returns the id the remote side assigned.
func (c *Consumer) ID() string { return c.id }

// LocalID returns the handler's id of the receiver.
func (c *Consumer) LocalID() string { return c.localID }

// ProducerID returns the id of the remote producer being consumed.
func (c *Consumer) ProducerID() string { return c.producerID }

// Kind returns audio or video.
func (c *Consumer) Kind() rtpparam.MediaKind { return c.kind }

// Track returns the engine-specific remote track.
func (c *Consumer) Track() any { return c.track }

// RtpReceiver returns the engine-specific receiver.
func (c *Consumer) RtpReceiver() any { return c.rtpReceiver }

// RtpParameters returns a copy of the receive parameters.
func (c *Consumer) RtpParameters() *rtpparam.RtpParameters { return c.rtpParameters.Clone() }

// AppData returns the application data of the consumer.
func (c *Consumer) AppData() AppData { return c.appData }

// Closed returns true once the consumer or its transport closed.
func (c *Consumer) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Paused returns the local pause flag.
func (c *Consumer) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Pause marks the consumer paused.
func (c *Consumer) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.paused = true
	}
}

// Resume clears the pause flag.
func (c *Consumer) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.paused = false
	}
}

// OnClose adds an observer called once when the consumer is closed by Close.
func (c *Consumer) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = append(c.onClose, fn)
}

// OnTransportClose adds an observer called once when the transport of the
// consumer closes.
func (c *Consumer) OnTransportClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTransClose = append(c.onTransClose, fn)
}

// GetStats returns the receiver stats. It does not wait for queued commands.
func (c *Consumer) GetStats(ctx context.Context) (handler.StatsReport, error) {
	if c.Closed() {
		return nil, ErrClosed
	}
	return c.link.handler.GetReceiverStats(ctx, c.localID)
}

// Close closes the consumer and releases its receiver.
func (c *Consumer) Close() {
	observers, ok := c.markClosed(false)
	if !ok {
		return
	}
	c.link.release("consumer.close()", func(ctx context.Context) error {
		return c.link.handler.StopReceiving(ctx, c.localID)
	})
	for _, fn := range observers {
		fn()
	}
}

func (c *Consumer) transportClosed() {
	observers, ok := c.markClosed(true)
	if !ok {
		return
	}
	for _, fn := range observers {
		fn()
	}
}

func (c *Consumer) markClosed(byTransport bool) ([]func(), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	c.closed = true
	observers := c.onClose
	if byTransport {
		observers = c.onTransClose
	}
	c.onClose, c.onTransClose = nil, nil
	return observers, true
}
