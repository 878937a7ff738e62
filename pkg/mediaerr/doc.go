// Package mediaerr defines the error taxonomy shared by every layer of the
// client: InvalidState, Unsupported, InvalidArgument and Negotiation.
//
// Each constructor returns an *Error that unwraps to one of the sentinel kinds,
// so callers classify failures with errors.Is:
//
//	if errors.Is(err, mediaerr.ErrUnsupported) {
//		// the remote side cannot consume this codec
//	}
package mediaerr
