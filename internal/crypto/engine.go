package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"parley/internal/domain"
)

// Engine seals and opens chat messages under one conversation's session
// keys. CFB mode carries no integrity of its own, so sealed blobs are
// encrypt-then-MAC: IV || ciphertext || HMAC-SHA256(macKey, IV || ciphertext).
// Open verifies the MAC before touching the cipher, so a blob sealed under a
// different session key fails cleanly instead of decrypting to garbage.
type Engine struct {
	keys *SessionKeys
}

// NewEngine wraps derived session keys in a cipher engine.
func NewEngine(keys *SessionKeys) *Engine { return &Engine{keys: keys} }

// Seal encrypts plaintext with a fresh IV. The IV is drawn from
// crypto/rand per call and never reused under the same key.
func (e *Engine) Seal(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.keys.enc[:])
	if err != nil {
		return nil, fmt.Errorf("initialising cipher: %w", err)
	}
	blob := make([]byte, aes.BlockSize+len(plaintext), aes.BlockSize+len(plaintext)+sha256.Size)
	iv := blob[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generating iv: %w", err)
	}
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(blob[aes.BlockSize:], plaintext)

	mac := hmac.New(sha256.New, e.keys.mac[:])
	mac.Write(blob)
	return mac.Sum(blob), nil
}

// Open authenticates and decrypts a sealed blob. Any failure is reported as
// domain.ErrDecryptionFailed; the error never echoes the blob's bytes.
func (e *Engine) Open(blob []byte) ([]byte, error) {
	if len(blob) < aes.BlockSize+sha256.Size {
		return nil, fmt.Errorf("sealed message too short: %w", domain.ErrDecryptionFailed)
	}
	body, tag := blob[:len(blob)-sha256.Size], blob[len(blob)-sha256.Size:]

	mac := hmac.New(sha256.New, e.keys.mac[:])
	mac.Write(body)
	if !hmac.Equal(tag, mac.Sum(nil)) {
		return nil, fmt.Errorf("message authentication failed: %w", domain.ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(e.keys.enc[:])
	if err != nil {
		return nil, fmt.Errorf("initialising cipher: %w", domain.ErrDecryptionFailed)
	}
	iv, ciphertext := body[:aes.BlockSize], body[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

// Wipe destroys the engine's key material. The engine is unusable afterwards.
func (e *Engine) Wipe() { e.keys.Wipe() }
