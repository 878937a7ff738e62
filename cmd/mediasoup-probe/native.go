package main

import (
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/spf13/cobra"
)

type nativeResult struct {
	Handler          string                           `json:"handler"`
	RtpCapabilities  *rtpparam.RtpCapabilities        `json:"rtpCapabilities"`
	SctpCapabilities *transportparam.SctpCapabilities `json:"sctpCapabilities"`
}

func newNativeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "native",
		Short: "Print the native capabilities of the local engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.factory()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rtp, err := f.NativeRtpCapabilities(ctx)
			if err != nil {
				return err
			}
			sctp, err := f.NativeSctpCapabilities(ctx)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), a.cfg.Format, nativeResult{
				Handler:          f.Name(),
				RtpCapabilities:  rtp,
				SctpCapabilities: sctp,
			})
		},
	}
}
