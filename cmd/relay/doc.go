// Command relay runs the websocket pairing relay. It forwards opaque frames
// between two connected identities and stores nothing; see
// parley/internal/relay for the hub behavior.
package main
