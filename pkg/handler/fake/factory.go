package fake

import (
	"context"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/logging"
)

// Name is the name the fake reports.
const Name = "fake"

// Factory creates fake handlers. The zero value reports the default
// capabilities.
type Factory struct {
	RtpCapabilities  *rtpparam.RtpCapabilities        // nil for DefaultRtpCapabilities
	SctpCapabilities *transportparam.SctpCapabilities // nil for DefaultSctpCapabilities

	// CapabilitiesErr, if set, is returned by both capability queries.
	CapabilitiesErr error
	// NewErr, if set, is returned by New.
	NewErr error

	// LoggerFactory is used for handlers whose Options carry none.
	LoggerFactory logging.LoggerFactory

	mu       sync.Mutex
	handlers []*Handler
}

var _ handler.Factory = (*Factory)(nil)

// Name implements handler.Factory.
func (f *Factory) Name() string {
	return Name
}

// NativeRtpCapabilities implements handler.Factory.
func (f *Factory) NativeRtpCapabilities(ctx context.Context) (*rtpparam.RtpCapabilities, error) {
	if f.CapabilitiesErr != nil {
		return nil, f.CapabilitiesErr
	}
	if f.RtpCapabilities != nil {
		return f.RtpCapabilities.Clone(), nil
	}
	return DefaultRtpCapabilities(), nil
}

// NativeSctpCapabilities implements handler.Factory.
func (f *Factory) NativeSctpCapabilities(ctx context.Context) (*transportparam.SctpCapabilities, error) {
	if f.CapabilitiesErr != nil {
		return nil, f.CapabilitiesErr
	}
	if f.SctpCapabilities != nil {
		caps := *f.SctpCapabilities
		return &caps, nil
	}
	return DefaultSctpCapabilities(), nil
}

// New implements handler.Factory.
func (f *Factory) New(opts handler.Options) (handler.Handler, error) {
	if f.NewErr != nil {
		return nil, f.NewErr
	}
	if opts.LoggerFactory == nil {
		opts.LoggerFactory = f.LoggerFactory
	}
	h, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.handlers = append(f.handlers, h)
	f.mu.Unlock()
	return h, nil
}

// Handlers returns every handler created so far.
func (f *Factory) Handlers() []*Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Handler(nil), f.handlers...)
}

// Last returns the most recently created handler, or nil.
func (f *Factory) Last() *Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.handlers) == 0 {
		return nil
	}
	return f.handlers[len(f.handlers)-1]
}
