// Package relay implements both halves of the websocket relay link.
//
// Client is the domain.Transport implementation used by the session core:
// it dials ws://host/ws/<user>@<peer> and exchanges opaque text frames.
//
// Hub is the server side: it registers each connection under its user
// identity and forwards every frame verbatim to the peer named in the
// pairing path. The hub never inspects frame contents; identities are the
// only thing it sees (metadata confidentiality is out of scope). A small
// in-memory buffer holds frames that arrive before the peer's socket does,
// so the faster side's handshake opener is not lost; nothing survives a
// disconnect.
package relay
