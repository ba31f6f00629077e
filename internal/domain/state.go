package domain

// SessionState is the lifecycle tag of a single conversation.
//
// The legal transitions are:
//
//	Idle                -> AwaitingPeerKey      local public key published
//	AwaitingPeerKey     -> KeyExchangeInFlight  peer public key received
//	KeyExchangeInFlight -> Established          session key derived
//	Established         -> Closed               user exit or transport closure
//	any non-terminal    -> Failed               handshake timeout or crypto failure
//
// Closed and Failed are terminal.
type SessionState int32

const (
	StateIdle SessionState = iota
	StateAwaitingPeerKey
	StateKeyExchangeInFlight
	StateEstablished
	StateClosed
	StateFailed
)

// Terminal reports whether no further transitions are allowed.
func (s SessionState) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPeerKey:
		return "awaiting-peer-key"
	case StateKeyExchangeInFlight:
		return "key-exchange-in-flight"
	case StateEstablished:
		return "established"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
