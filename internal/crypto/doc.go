// Package crypto exposes the primitives used by parley.
//
// Contents
//
//   - RSA keypair generation with PKIX DER export of the public component
//     (GenerateKeyPair, ParsePublic)
//   - RSA-OAEP transport of session key contributions
//     (KeyPair.Unwrap, PublicKey.Wrap, NewContribution)
//   - HKDF-SHA256 derivation of the per-conversation cipher and MAC keys
//     from both sides' contributions (SessionKeys)
//   - The AES-256-CFB + HMAC-SHA256 cipher engine (Engine.Seal, Engine.Open)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// Private keys are never serialized; only the DER public component ever
// leaves this package. Errors carry error kind only, never key bytes.
package crypto
