// Package wire implements the two-field frame codec.
//
// A frame is `<identity>|<body>` and a body is `<kind>:<base64>`. Both
// separators are outside the standard base64 alphabet, and identities are
// validated at session start to exclude them, so neither field can collide
// with the framing. Decoding never panics: anything that does not split into
// exactly two fields, or whose body tag or encoding is unknown, is reported
// as domain.ErrMalformedPayload.
//
// All functions are pure; the codec holds no state.
package wire
