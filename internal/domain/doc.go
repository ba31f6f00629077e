// Package domain defines the core types, errors and collaborator interfaces
// shared across parley.
//
// Contents
//
//   - Identity: validated participant names
//   - Payload and PayloadKind: the decoded form of a wire frame
//   - SessionState: the conversation lifecycle enum
//   - The error taxonomy (ErrMalformedPayload, ErrHandshakeFailed,
//     ErrDecryptionFailed, ErrProtocolPhase, ErrTransportClosed)
//   - Transport and Display, the interfaces the session core consumes
//
// Nothing in this package performs I/O or holds mutable state.
package domain
