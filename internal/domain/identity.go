package domain

import (
	"fmt"
	"unicode"
)

// Identity names a conversation participant. It travels in the clear in the
// first field of every frame and in the relay pairing path, so it must never
// contain the frame delimiter or the relay's pairing separator.
type Identity string

// reservedIdentityRunes are characters with structural meaning on the wire:
// '|' delimits frame fields, '@' separates the pairing path, ':' tags
// payload bodies.
const reservedIdentityRunes = "|@:"

// Validate reports whether the identity is usable on the wire.
func (i Identity) Validate() error {
	if i == "" {
		return fmt.Errorf("identity is empty")
	}
	for _, r := range i {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("identity %q contains whitespace or control characters", string(i))
		}
		for _, res := range reservedIdentityRunes {
			if r == res {
				return fmt.Errorf("identity %q contains reserved character %q", string(i), string(res))
			}
		}
	}
	return nil
}

func (i Identity) String() string { return string(i) }
