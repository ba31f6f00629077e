package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"parley/internal/domain"
)

const (
	// KeyBits is the RSA modulus size used for live sessions.
	KeyBits = 4096
	// minKeyBits guards against accidentally weak keys from config.
	minKeyBits = 1024
)

// oaepLabel binds wrapped contributions to this protocol version.
var oaepLabel = []byte("parley/v1 contribution")

// KeyPair holds an asymmetric keypair for one session. The private component
// never leaves the struct; only the DER-encoded public half is exported.
type KeyPair struct {
	priv *rsa.PrivateKey
	der  []byte
}

// GenerateKeyPair creates a fresh RSA keypair of the given modulus size.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	if bits < minKeyBits {
		return nil, fmt.Errorf("key size %d below minimum %d", bits, minKeyBits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshalling public key: %w", err)
	}
	return &KeyPair{priv: priv, der: der}, nil
}

// PublicDER returns the PKIX DER encoding of the public component, the only
// representation that goes on the wire.
func (kp *KeyPair) PublicDER() []byte { return kp.der }

// Unwrap decrypts an RSA-OAEP wrapped key contribution addressed to us.
func (kp *KeyPair) Unwrap(blob []byte) ([]byte, error) {
	raw, err := rsa.DecryptOAEP(sha256.New(), nil, kp.priv, blob, oaepLabel)
	if err != nil {
		return nil, fmt.Errorf("unwrapping key contribution: %w", domain.ErrHandshakeFailed)
	}
	if len(raw) != ContributionSize {
		Wipe(raw)
		return nil, fmt.Errorf("key contribution has wrong size: %w", domain.ErrHandshakeFailed)
	}
	return raw, nil
}

// PublicKey is a peer's public key, held only for the handshake.
type PublicKey struct {
	key *rsa.PublicKey
}

// ParsePublic parses a PKIX DER public key received from the peer.
func ParsePublic(der []byte) (PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return PublicKey{}, fmt.Errorf("parsing peer public key: %w", domain.ErrHandshakeFailed)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return PublicKey{}, fmt.Errorf("peer public key is not RSA: %w", domain.ErrHandshakeFailed)
	}
	if key.Size()*8 < minKeyBits {
		return PublicKey{}, fmt.Errorf("peer public key too small: %w", domain.ErrHandshakeFailed)
	}
	return PublicKey{key: key}, nil
}

// Wrap encrypts a session key contribution to the holder of this key.
func (p PublicKey) Wrap(contribution []byte) ([]byte, error) {
	blob, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, p.key, contribution, oaepLabel)
	if err != nil {
		return nil, fmt.Errorf("wrapping key contribution: %w", domain.ErrHandshakeFailed)
	}
	return blob, nil
}
