package main

import (
	"errors"

	"github.com/backkem/mediasoupclient/pkg/device"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/spf13/cobra"
)

var errNoRemote = errors.New("missing remote capabilities file (--remote)")

type negotiateResult struct {
	Handler                 string                            `json:"handler"`
	CanProduce              rtpparam.CanProduceByKind         `json:"canProduce"`
	RecvRtpCapabilities     *rtpparam.RtpCapabilities         `json:"recvRtpCapabilities"`
	ExtendedRtpCapabilities *rtpparam.ExtendedRtpCapabilities `json:"extendedRtpCapabilities"`
	SctpCapabilities        *transportparam.SctpCapabilities  `json:"sctpCapabilities"`
}

func newNegotiateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "negotiate",
		Short: "Load a device against remote RTP capabilities",
		Long: `Load a device against the RTP capabilities of a remote endpoint and print
the negotiated capabilities, the capabilities to announce for receiving
and whether audio and video can be produced.

Examples:
  mediasoup-probe negotiate --remote router-caps.json
  mediasoup-probe negotiate -r router-caps.yaml --handler fake -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNegotiate(cmd)
		},
	}
	cmd.Flags().StringP("remote", "r", "", "remote RTP capabilities file (JSON or YAML)")
	_ = a.v.BindPFlag("remote", cmd.Flags().Lookup("remote"))
	return cmd
}

func (a *app) runNegotiate(cmd *cobra.Command) error {
	if a.cfg.Remote == "" {
		return errNoRemote
	}
	remote, err := readCapabilities(a.cfg.Remote)
	if err != nil {
		return err
	}

	f, err := a.factory()
	if err != nil {
		return err
	}
	d, err := device.New(device.Config{Handler: f, LoggerFactory: a.loggerFactory})
	if err != nil {
		return err
	}
	if err := d.Load(cmd.Context(), remote); err != nil {
		return err
	}

	res := negotiateResult{Handler: d.HandlerName()}
	if res.ExtendedRtpCapabilities, err = d.ExtendedRtpCapabilities(); err != nil {
		return err
	}
	if res.RecvRtpCapabilities, err = d.RtpCapabilities(); err != nil {
		return err
	}
	if res.SctpCapabilities, err = d.SctpCapabilities(); err != nil {
		return err
	}
	if res.CanProduce.Audio, err = d.CanProduce(rtpparam.MediaKindAudio); err != nil {
		return err
	}
	if res.CanProduce.Video, err = d.CanProduce(rtpparam.MediaKindVideo); err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), a.cfg.Format, res)
}
