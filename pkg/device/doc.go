// Package device is the entry point of the library.
//
// A Device is created for one engine handler and loaded once with the RTP
// capabilities of the remote router. Loading negotiates the native
// capabilities of the engine against the remote ones. The result is shared
// by every send and receive transport the device creates afterwards.
//
//	dev, err := device.New(device.Config{Handler: pionhandler.NewFactory(pionhandler.Config{})})
//	if err != nil {
//		return err
//	}
//	if err := dev.Load(ctx, routerCaps); err != nil {
//		return err
//	}
//	send, err := dev.CreateSendTransport(opts)
package device
