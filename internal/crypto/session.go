package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"parley/internal/domain"
)

const (
	// ContributionSize is the length of each side's random key contribution.
	ContributionSize = 32
	// sessionKeySize is the AES-256 key length.
	sessionKeySize = 32
	// macKeySize is the HMAC-SHA256 key length.
	macKeySize = 32
)

// hkdfInfo separates session key derivation from any other HKDF use.
var hkdfInfo = []byte("parley/v1 session")

// NewContribution returns a fresh random key contribution.
func NewContribution() ([]byte, error) {
	c := make([]byte, ContributionSize)
	if _, err := rand.Read(c); err != nil {
		return nil, fmt.Errorf("generating key contribution: %w", err)
	}
	return c, nil
}

// SessionKeys holds the two subkeys of one conversation: an AES-256 cipher
// key and an HMAC key. Scoped to exactly one session, memory only.
type SessionKeys struct {
	enc [sessionKeySize]byte
	mac [macKeySize]byte
}

// DeriveSessionKeys combines both sides' contributions into the session
// subkeys. The contributions are ordered by the lexicographic order of the
// owning identities so that both peers derive identical keys without any
// initiator/responder role negotiation.
func DeriveSessionKeys(local, peer domain.Identity, localContribution, peerContribution []byte) (*SessionKeys, error) {
	if len(localContribution) != ContributionSize || len(peerContribution) != ContributionSize {
		return nil, fmt.Errorf("key contribution has wrong size: %w", domain.ErrHandshakeFailed)
	}
	first, second := localContribution, peerContribution
	if peer < local {
		first, second = second, first
	}
	ikm := make([]byte, 0, 2*ContributionSize)
	ikm = append(ikm, first...)
	ikm = append(ikm, second...)
	defer Wipe(ikm)

	r := hkdf.New(sha256.New, ikm, nil, hkdfInfo)
	keys := new(SessionKeys)
	if _, err := io.ReadFull(r, keys.enc[:]); err != nil {
		return nil, fmt.Errorf("deriving cipher key: %w", domain.ErrHandshakeFailed)
	}
	if _, err := io.ReadFull(r, keys.mac[:]); err != nil {
		return nil, fmt.Errorf("deriving mac key: %w", domain.ErrHandshakeFailed)
	}
	return keys, nil
}

// Wipe destroys the key material.
func (k *SessionKeys) Wipe() {
	Wipe(k.enc[:])
	Wipe(k.mac[:])
}
