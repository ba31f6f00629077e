package domain

import "errors"

// The error taxonomy. Callers classify with errors.Is; wrapped messages
// carry identifiers and error kind only, never key material, plaintext or
// ciphertext bytes.
var (
	// ErrMalformedPayload: a frame did not parse into exactly two fields,
	// or its body tag/encoding is invalid. Recoverable; the frame is
	// discarded and a notice surfaced.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrHandshakeFailed: timeout or invalid key material during key
	// exchange. Fatal to the session.
	ErrHandshakeFailed = errors.New("handshake failed")

	// ErrDecryptionFailed: ciphertext did not authenticate or decrypt under
	// the session key. Recoverable per-message.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrProtocolPhase: a payload arrived that is invalid for the current
	// session state. Recoverable; the frame is discarded.
	ErrProtocolPhase = errors.New("protocol phase violation")

	// ErrTransportClosed: the underlying channel ended.
	ErrTransportClosed = errors.New("transport closed")
)
