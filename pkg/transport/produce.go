package transport

import (
	"context"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/queue"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

// Produce sends a local track to the remote side.
//
// The handler allocates a sender, then OnProduce is asked to create the
// remote producer. If that fails the sender is released again. Unless
// KeepTrack is set, the track is stopped when Produce fails.
//
// ctx only bounds the wait for the queue. Once the task runs, Produce
// returns its outcome, so an error always means no producer was registered.
func (t *Transport) Produce(ctx context.Context, opts ProduceOptions) (*Producer, error) {
	t.log.Debug("produce()")

	if t.Closed() {
		return nil, ErrClosed
	}
	if t.direction != handler.DirectionSend {
		return nil, mediaerr.Unsupported("not a sending Transport")
	}
	if opts.Track == nil {
		return nil, mediaerr.InvalidArgument("missing track")
	}
	kind := opts.Track.Kind()
	if !t.canProduceByKind.Get(kind) {
		return nil, mediaerr.Unsupported("cannot produce %s", kind)
	}
	if opts.Track.Ended() {
		return nil, ErrTrackEnded
	}
	if err := t.checkConnectable(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	produceFn := t.onProduce
	t.mu.Unlock()
	if produceFn == nil {
		return nil, ErrNoProduceHandler
	}
	encodings, err := normalizeEncodings(opts.Encodings)
	if err != nil {
		return nil, err
	}
	appData := opts.AppData
	if appData == nil {
		appData = AppData{}
	}

	p, err := queue.Run(ctx, t.queue, "produce()", func(ctx context.Context) (*Producer, error) {
		res, err := t.handler.Send(ctx, handler.SendOptions{
			Track:        opts.Track,
			Encodings:    encodings,
			CodecOptions: opts.CodecOptions,
			Codec:        opts.Codec,
		})
		if err != nil {
			return nil, err
		}

		id, err := t.createRemoteProducer(ctx, produceFn, kind, res.RtpParameters, appData)
		if err != nil {
			if stopErr := t.handler.StopSending(context.WithoutCancel(ctx), res.LocalID); stopErr != nil {
				t.log.Warnf("stopSending() after failed produce: %v", stopErr)
			}
			return nil, err
		}

		p := &Producer{
			id:            id,
			localID:       res.LocalID,
			kind:          kind,
			track:         opts.Track,
			rtpParameters: res.RtpParameters,
			rtpSender:     res.RtpSender,
			keepTrack:     opts.KeepTrack,
			appData:       appData,
		}
		p.link = t.newLink(func() { t.producers.remove(id) })

		if err := register(t, t.producers, p); err != nil {
			if !t.Closed() {
				_ = t.handler.StopSending(context.WithoutCancel(ctx), res.LocalID)
			}
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		if !opts.KeepTrack {
			opts.Track.Stop()
		}
		return nil, err
	}

	t.log.Debugf("producer created [id:%s, localId:%s]", p.id, p.localID)
	return p, nil
}

func (t *Transport) createRemoteProducer(ctx context.Context, fn ProduceFunc, kind rtpparam.MediaKind, params *rtpparam.RtpParameters, appData AppData) (string, error) {
	if err := ortc.ValidateRtpParameters(params); err != nil {
		return "", err
	}
	id, err := fn(ctx, ProduceRequest{Kind: kind, RtpParameters: params.Clone(), AppData: appData})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", mediaerr.InvalidArgument("produce handler returned an empty id")
	}
	return id, nil
}
