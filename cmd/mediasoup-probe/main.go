// mediasoup-probe negotiates the native capabilities of a local engine
// against the RTP capabilities of a remote endpoint and prints the result.
//
// Usage:
//
//	mediasoup-probe native [--handler pion|fake]
//	mediasoup-probe negotiate --remote caps.json [--handler pion|fake]
//
// Global options:
//
//	--config     YAML or JSON config file
//	--handler    engine adapter (default: pion)
//	--format     output format, json or yaml (default: json)
//	--log-level  disabled, error, warn, info, debug or trace (default: warn)
//
// Every option can also be set through the environment with an MSPROBE_
// prefix, e.g. MSPROBE_HANDLER=fake or MSPROBE_LOG_LEVEL=debug.
//
// Example:
//
//	mediasoup-probe negotiate --remote router-caps.json --format yaml
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
