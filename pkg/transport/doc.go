// Package transport orchestrates a send or receive transport and the media
// and data flows riding on it.
//
// A Transport owns one engine handler, one command queue and four
// registries: producers, consumers, data producers and data consumers.
// Every call that mutates the handler runs on the queue, one at a time and
// in submission order. Argument and state checks run before anything is
// queued and fail immediately.
//
// Producing calls need an identifier from the application's signaling
// layer. The transport asks for it through request/reply callbacks set with
// OnProduce and OnProduceData. The first use of the transport asks the
// application to connect it through the OnConnect callback.
//
// Closing a transport closes its queue, its handler and, in cascade, every
// flow it owns. Transports are created by a Device.
package transport
