package wire

import (
	"encoding/base64"
	"fmt"
	"strings"

	"parley/internal/domain"
)

// Delimiter separates the sender field from the body field. It must never
// appear unescaped inside either field; '|' is not part of the standard
// base64 alphabet and is rejected by domain.Identity.Validate.
const Delimiter = "|"

// bodySep separates the kind tag from the base64 data inside a body.
const bodySep = ":"

// Encode joins sender and an already-encoded body into a frame.
func Encode(from domain.Identity, body string) string {
	return string(from) + Delimiter + body
}

// EncodeBody tags and base64-encodes raw bytes into a frame body.
func EncodeBody(kind domain.PayloadKind, raw []byte) string {
	return string(kind) + bodySep + base64.StdEncoding.EncodeToString(raw)
}

// Decode splits a frame into its sender and body fields. Frames that do not
// split into exactly two fields on the delimiter are rejected with
// domain.ErrMalformedPayload before any further processing.
func Decode(frame string) (domain.Identity, string, error) {
	fields := strings.Split(frame, Delimiter)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("frame has %d fields, want 2: %w", len(fields), domain.ErrMalformedPayload)
	}
	if fields[0] == "" {
		return "", "", fmt.Errorf("frame has empty sender field: %w", domain.ErrMalformedPayload)
	}
	return domain.Identity(fields[0]), fields[1], nil
}

// DecodeBody classifies a body and decodes its payload bytes.
func DecodeBody(body string) (domain.PayloadKind, []byte, error) {
	tag, data, ok := strings.Cut(body, bodySep)
	if !ok {
		return "", nil, fmt.Errorf("body has no kind tag: %w", domain.ErrMalformedPayload)
	}
	kind := domain.PayloadKind(tag)
	switch kind {
	case domain.KindPublicKey, domain.KindSessionKey, domain.KindMessage:
	default:
		return "", nil, fmt.Errorf("unknown body kind %q: %w", tag, domain.ErrMalformedPayload)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("body of kind %q is not valid base64: %w", tag, domain.ErrMalformedPayload)
	}
	return kind, raw, nil
}

// DecodePayload decodes a full frame into a Payload in one step.
func DecodePayload(frame string) (domain.Payload, error) {
	from, body, err := Decode(frame)
	if err != nil {
		return domain.Payload{}, err
	}
	kind, raw, err := DecodeBody(body)
	if err != nil {
		return domain.Payload{}, err
	}
	return domain.Payload{From: from, Kind: kind, Body: raw}, nil
}
