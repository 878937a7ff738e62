package transport

import (
	"context"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/queue"
)

// ProduceData opens an outgoing data channel and asks OnProduceData to
// create the remote data producer. The channel is closed again if that
// fails.
func (t *Transport) ProduceData(ctx context.Context, opts ProduceDataOptions) (*DataProducer, error) {
	t.log.Debug("produceData()")

	if t.Closed() {
		return nil, ErrClosed
	}
	if t.direction != handler.DirectionSend {
		return nil, mediaerr.Unsupported("not a sending Transport")
	}
	if !t.hasSctp() {
		return nil, ErrSctpDisabled
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()
	if err := t.checkConnectable(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	produceDataFn := t.onProduceData
	t.mu.Unlock()
	if produceDataFn == nil {
		return nil, ErrNoProduceDataHandler
	}

	dp, err := queue.Run(ctx, t.queue, "produceData()", func(ctx context.Context) (*DataProducer, error) {
		res, err := t.handler.SendDataChannel(ctx, handler.SendDataChannelOptions{
			Ordered:           *opts.Ordered,
			MaxPacketLifeTime: opts.MaxPacketLifeTime,
			MaxRetransmits:    opts.MaxRetransmits,
			Priority:          opts.Priority,
			Label:             opts.Label,
			Protocol:          opts.Protocol,
		})
		if err != nil {
			return nil, err
		}

		id, err := produceDataFn(ctx, ProduceDataRequest{
			SctpStreamParameters: res.SctpStreamParameters.Clone(),
			Label:                opts.Label,
			Protocol:             opts.Protocol,
			AppData:              opts.AppData,
		})
		if err == nil && id == "" {
			err = mediaerr.InvalidArgument("producedata handler returned an empty id")
		}
		if err != nil {
			_ = res.DataChannel.Close()
			return nil, err
		}

		dp := &DataProducer{dataFlow: dataFlow{
			id:                   id,
			channel:              res.DataChannel,
			sctpStreamParameters: res.SctpStreamParameters,
			label:                opts.Label,
			protocol:             opts.Protocol,
			appData:              opts.AppData,
		}}
		dp.link = t.newLink(func() { t.dataProducers.remove(id) })

		if err := register(t, t.dataProducers, dp); err != nil {
			_ = res.DataChannel.Close()
			return nil, err
		}
		return dp, nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Debugf("data producer created [id:%s, streamId:%d]", dp.id, dp.sctpStreamParameters.StreamID)
	return dp, nil
}

// ConsumeData opens an incoming data channel for a remote data producer.
func (t *Transport) ConsumeData(ctx context.Context, opts ConsumeDataOptions) (*DataConsumer, error) {
	t.log.Debug("consumeData()")

	if t.Closed() {
		return nil, ErrClosed
	}
	if t.direction != handler.DirectionRecv {
		return nil, mediaerr.Unsupported("not a receiving Transport")
	}
	if !t.hasSctp() {
		return nil, ErrSctpDisabled
	}
	if opts.SctpStreamParameters != nil {
		opts.SctpStreamParameters = opts.SctpStreamParameters.Clone()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := t.checkConnectable(); err != nil {
		return nil, err
	}
	appData := opts.AppData
	if appData == nil {
		appData = AppData{}
	}

	dc, err := queue.Run(ctx, t.queue, "consumeData()", func(ctx context.Context) (*DataConsumer, error) {
		res, err := t.handler.ReceiveDataChannel(ctx, handler.ReceiveDataChannelOptions{
			SctpStreamParameters: opts.SctpStreamParameters,
			Label:                opts.Label,
			Protocol:             opts.Protocol,
		})
		if err != nil {
			return nil, err
		}

		dc := &DataConsumer{
			dataFlow: dataFlow{
				id:                   opts.ID,
				channel:              res.DataChannel,
				sctpStreamParameters: opts.SctpStreamParameters,
				label:                opts.Label,
				protocol:             opts.Protocol,
				appData:              appData,
			},
			dataProducerID: opts.DataProducerID,
		}
		dc.link = t.newLink(func() { t.dataConsumers.remove(opts.ID) })

		if err := register(t, t.dataConsumers, dc); err != nil {
			_ = res.DataChannel.Close()
			return nil, err
		}
		return dc, nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Debugf("data consumer created [id:%s, streamId:%d]", dc.id, dc.sctpStreamParameters.StreamID)
	return dc, nil
}
