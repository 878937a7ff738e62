package main

import (
	"fmt"
	"strings"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/handler/fake"
	"github.com/backkem/mediasoupclient/pkg/handler/pionhandler"
	"github.com/pion/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v          *viper.Viper
	configFile string

	cfg           config
	loggerFactory logging.LoggerFactory
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "mediasoup-probe",
		Short: "Negotiate local media capabilities against a remote endpoint",
		Long: `mediasoup-probe loads a media Device the way a client application would
and prints what the local engine and a remote endpoint can do together.

Remote capabilities are read from a JSON or YAML file holding the RTP
capabilities the remote endpoint advertises.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (YAML or JSON)")
	flags.String("handler", pionhandler.Name, "engine adapter: pion or fake")
	flags.StringP("format", "o", formatJSON, "output format: json or yaml")
	flags.String("log-level", "warn", "log level: disabled, error, warn, info, debug, trace")
	_ = a.v.BindPFlag("handler", flags.Lookup("handler"))
	_ = a.v.BindPFlag("format", flags.Lookup("format"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(newNativeCmd(a), newNegotiateCmd(a))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.v, a.configFile)
	if err != nil {
		return err
	}
	lf, err := newLoggerFactory(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = *cfg
	a.loggerFactory = lf
	return nil
}

func (a *app) factory() (handler.Factory, error) {
	switch strings.ToLower(a.cfg.Handler) {
	case pionhandler.Name:
		return pionhandler.NewFactory(pionhandler.Config{LoggerFactory: a.loggerFactory}), nil
	case fake.Name:
		return &fake.Factory{LoggerFactory: a.loggerFactory}, nil
	default:
		return nil, fmt.Errorf("unknown handler %q", a.cfg.Handler)
	}
}
