// Package session implements the conversation core: the lifecycle state
// machine, the key exchange, and the transport loop that drives concurrent
// inbound and outbound flow over one relay channel.
//
// A Session owns all key material for exactly one conversation. The inbound
// path is the single writer of session state and keys during the handshake;
// once established both are read-only until teardown, at which point every
// secret is wiped.
package session
