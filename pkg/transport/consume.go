package transport

import (
	"context"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/queue"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

// Consume receives a remote producer. The options come from the consumer
// the remote side created for this transport.
//
// The first video consumer of a transport also sets up the bandwidth
// probation flow. That happens at most once, and a failure is only logged.
func (t *Transport) Consume(ctx context.Context, opts ConsumeOptions) (*Consumer, error) {
	t.log.Debug("consume()")

	if t.Closed() {
		return nil, ErrClosed
	}
	if t.direction != handler.DirectionRecv {
		return nil, mediaerr.Unsupported("not a receiving Transport")
	}
	if opts.RtpParameters != nil {
		opts.RtpParameters = opts.RtpParameters.Clone()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := t.checkConnectable(); err != nil {
		return nil, err
	}
	if !ortc.CanReceive(opts.RtpParameters, t.ext) {
		return nil, mediaerr.Unsupported("cannot consume this Producer")
	}
	appData := opts.AppData
	if appData == nil {
		appData = AppData{}
	}

	c, err := queue.Run(ctx, t.queue, "consume()", func(ctx context.Context) (*Consumer, error) {
		res, err := t.handler.Receive(ctx, handler.ReceiveOptions{
			TrackID:       opts.ID,
			Kind:          opts.Kind,
			RtpParameters: opts.RtpParameters,
		})
		if err != nil {
			return nil, err
		}

		c := &Consumer{
			id:            opts.ID,
			localID:       res.LocalID,
			producerID:    opts.ProducerID,
			kind:          opts.Kind,
			track:         res.Track,
			rtpReceiver:   res.RtpReceiver,
			rtpParameters: opts.RtpParameters,
			appData:       appData,
		}
		c.link = t.newLink(func() { t.consumers.remove(opts.ID) })

		if err := register(t, t.consumers, c); err != nil {
			if !t.Closed() {
				_ = t.handler.StopReceiving(context.WithoutCancel(ctx), res.LocalID)
			}
			return nil, err
		}

		if opts.Kind == rtpparam.MediaKindVideo {
			t.receiveProbator(ctx, opts.RtpParameters)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Debugf("consumer created [id:%s, localId:%s]", c.id, c.localID)
	return c, nil
}

// receiveProbator sets up the probation flow on the first call only. It runs
// inside a queued task.
func (t *Transport) receiveProbator(ctx context.Context, video *rtpparam.RtpParameters) {
	t.mu.Lock()
	if t.probatorRequested {
		t.mu.Unlock()
		return
	}
	t.probatorRequested = true
	t.mu.Unlock()

	params, err := ortc.GenerateProbatorRtpParameters(video)
	if err == nil {
		_, err = t.handler.Receive(ctx, handler.ReceiveOptions{
			TrackID:       ortc.ProbatorMid,
			Kind:          rtpparam.MediaKindVideo,
			RtpParameters: params,
		})
	}
	if err != nil {
		t.log.Warnf("failed to create the probation consumer: %v", err)
		return
	}
	t.log.Debug("probation consumer created")
}
