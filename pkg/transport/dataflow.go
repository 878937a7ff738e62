package transport

import (
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
)

// dataFlow is what data producers and consumers share.
type dataFlow struct {
	id                   string
	channel              handler.DataChannel
	sctpStreamParameters *transportparam.SctpStreamParameters
	label                string
	protocol             string
	appData              AppData
	link                 *link

	mu           sync.Mutex
	closed       bool
	onClose      []func()
	onTransClose []func()
}

// ID returns the id the remote side assigned.
func (d *dataFlow) ID() string { return d.id }

// DataChannel returns the underlying data channel.
func (d *dataFlow) DataChannel() handler.DataChannel { return d.channel }

// SctpStreamParameters returns a copy of the stream parameters.
func (d *dataFlow) SctpStreamParameters() *transportparam.SctpStreamParameters {
	return d.sctpStreamParameters.Clone()
}

// Label returns the channel label.
func (d *dataFlow) Label() string { return d.label }

// Protocol returns the channel sub-protocol.
func (d *dataFlow) Protocol() string { return d.protocol }

// AppData returns the application data of the flow.
func (d *dataFlow) AppData() AppData { return d.appData }

// Closed returns true once the flow or its transport closed.
func (d *dataFlow) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// OnClose adds an observer called once when the flow is closed by Close.
func (d *dataFlow) OnClose(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onClose = append(d.onClose, fn)
}

// OnTransportClose adds an observer called once when the transport closes.
func (d *dataFlow) OnTransportClose(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onTransClose = append(d.onTransClose, fn)
}

// Close closes the data channel and removes the flow from its transport.
func (d *dataFlow) Close() {
	if observers, ok := d.markClosed(false); ok {
		d.link.release("dataflow.close()", nil)
		for _, fn := range observers {
			fn()
		}
	}
}

func (d *dataFlow) transportClosed() {
	if observers, ok := d.markClosed(true); ok {
		for _, fn := range observers {
			fn()
		}
	}
}

func (d *dataFlow) markClosed(byTransport bool) ([]func(), bool) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, false
	}
	d.closed = true
	observers := d.onClose
	if byTransport {
		observers = d.onTransClose
	}
	d.onClose, d.onTransClose = nil, nil
	d.mu.Unlock()

	if err := d.channel.Close(); err != nil && d.link != nil {
		d.link.log.Warnf("data channel close failed: %v", err)
	}
	return observers, true
}

// DataProducer is an outgoing data channel.
type DataProducer struct {
	dataFlow
}

// DataConsumer is an incoming data channel.
type DataConsumer struct {
	dataFlow
	dataProducerID string
}

// DataProducerID returns the id of the remote data producer being consumed.
func (d *DataConsumer) DataProducerID() string { return d.dataProducerID }
