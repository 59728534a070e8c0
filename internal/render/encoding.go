package render

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Encoding selects how bytes fields (addresses, signatures, hashes) are shown.
type Encoding uint8

const (
	// Base58 is the Solana convention and the default.
	Base58 Encoding = iota
	// Hex is lowercase hex without a 0x prefix.
	Hex
)

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "base58":
		return Base58, nil
	case "hex":
		return Hex, nil
	default:
		return Base58, fmt.Errorf("%w: unknown encoding %q (want base58|hex)", ErrRender, s)
	}
}

func (e Encoding) String() string {
	switch e {
	case Base58:
		return "base58"
	case Hex:
		return "hex"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

func (e Encoding) Encode(b []byte) string {
	if e == Hex {
		return hex.EncodeToString(b)
	}
	return base58.Encode(b)
}
