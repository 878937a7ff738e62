package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/backkem/mediasoupclient/pkg/handler/fake"
	"github.com/backkem/mediasoupclient/pkg/handler/pionhandler"
	"github.com/pion/logging"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of environment overrides, e.g. MSPROBE_HANDLER.
const envPrefix = "MSPROBE"

// config is the merged result of flags, environment and config file.
type config struct {
	Handler  string `mapstructure:"handler"`
	Format   string `mapstructure:"format"`
	LogLevel string `mapstructure:"log_level"`
	Remote   string `mapstructure:"remote"`
}

// Validate checks the config.
func (c *config) Validate() error {
	switch strings.ToLower(c.Handler) {
	case pionhandler.Name, fake.Name:
	default:
		return fmt.Errorf("unknown handler %q", c.Handler)
	}
	switch c.Format {
	case formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func loadConfig(v *viper.Viper, path string) (*config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

var logLevels = map[string]logging.LogLevel{
	"disabled": logging.LogLevelDisabled,
	"error":    logging.LogLevelError,
	"warn":     logging.LogLevelWarn,
	"info":     logging.LogLevelInfo,
	"debug":    logging.LogLevelDebug,
	"trace":    logging.LogLevelTrace,
}

var errUnknownLogLevel = errors.New("unknown log level")

func newLoggerFactory(level string, w io.Writer) (logging.LoggerFactory, error) {
	lvl, ok := logLevels[strings.ToLower(level)]
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownLogLevel, level)
	}
	lf := logging.NewDefaultLoggerFactory()
	lf.Writer = w
	lf.DefaultLogLevel = lvl
	return lf, nil
}
