package session

import (
	"fmt"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/wire"
)

// handshake holds the key material of one key exchange. Each side publishes
// its public key, wraps a random contribution to the peer's key, and derives
// the session keys from both contributions once its own has been echoed back
// in wrapped form. The peer's public key is used immediately and never
// retained.
type handshake struct {
	local        domain.Identity
	peer         domain.Identity
	keys         *crypto.KeyPair
	contribution []byte
}

func newHandshake(local, peer domain.Identity, keyBits int) (*handshake, error) {
	keys, err := crypto.GenerateKeyPair(keyBits)
	if err != nil {
		return nil, err
	}
	contribution, err := crypto.NewContribution()
	if err != nil {
		return nil, err
	}
	return &handshake{
		local:        local,
		peer:         peer,
		keys:         keys,
		contribution: contribution,
	}, nil
}

// publicFrame is the first frame of the handshake: our public key, addressed
// from the local identity.
func (h *handshake) publicFrame() string {
	return wire.Encode(h.local, wire.EncodeBody(domain.KindPublicKey, h.keys.PublicDER()))
}

// acceptPeerKey parses the peer's public key and returns the frame carrying
// our contribution wrapped to it.
func (h *handshake) acceptPeerKey(der []byte) (string, error) {
	pub, err := crypto.ParsePublic(der)
	if err != nil {
		return "", fmt.Errorf("peer %q: %w", h.peer, err)
	}
	blob, err := pub.Wrap(h.contribution)
	if err != nil {
		return "", fmt.Errorf("peer %q: %w", h.peer, err)
	}
	return wire.Encode(h.local, wire.EncodeBody(domain.KindSessionKey, blob)), nil
}

// acceptContribution unwraps the peer's contribution and derives the cipher
// engine, completing the exchange. The raw contributions are wiped.
func (h *handshake) acceptContribution(blob []byte) (*crypto.Engine, error) {
	peerContribution, err := h.keys.Unwrap(blob)
	if err != nil {
		return nil, fmt.Errorf("peer %q: %w", h.peer, err)
	}
	defer crypto.Wipe(peerContribution)

	sessionKeys, err := crypto.DeriveSessionKeys(h.local, h.peer, h.contribution, peerContribution)
	if err != nil {
		return nil, fmt.Errorf("peer %q: %w", h.peer, err)
	}
	crypto.Wipe(h.contribution)
	return crypto.NewEngine(sessionKeys), nil
}

func (h *handshake) wipe() {
	crypto.Wipe(h.contribution)
}
