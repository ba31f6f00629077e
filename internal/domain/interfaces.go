package domain

import "context"

// Transport is one bidirectional frame channel to the peer, as exposed by
// the relay. Implementations must make Receive return an error wrapping
// ErrTransportClosed once the channel ends, and must unblock pending calls
// when Close is invoked or the context is cancelled.
type Transport interface {
	Send(ctx context.Context, frame string) error
	Receive(ctx context.Context) (string, error)
	Close() error
}

// Display receives decrypted plaintext and structured status/alert
// notifications. The session core never formats human-readable output
// itself; rendering lives entirely behind this interface.
type Display interface {
	// Message surfaces a decrypted chat message from the peer.
	Message(from Identity, text string)
	// Status surfaces lifecycle notices (handshake progress, closure).
	Status(text string)
	// Alert surfaces recoverable protocol errors (discarded frames).
	Alert(text string)
}
