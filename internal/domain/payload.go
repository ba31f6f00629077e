package domain

// PayloadKind tags what a frame body carries. Dispatch on the kind is
// phase-checked by the session state machine; an out-of-phase kind is a
// protocol violation, not a decode error.
type PayloadKind string

const (
	// KindPublicKey carries a DER-encoded RSA public key (handshake).
	KindPublicKey PayloadKind = "pub"
	// KindSessionKey carries an RSA-OAEP-wrapped key contribution (handshake).
	KindSessionKey PayloadKind = "key"
	// KindMessage carries a sealed chat message (post-handshake).
	KindMessage PayloadKind = "msg"
)

// Payload is the decoded form of a wire frame: who sent it, what kind of
// body it carries, and the raw body bytes. Instances are ephemeral and
// discarded once dispatched.
type Payload struct {
	From Identity
	Kind PayloadKind
	Body []byte
}
