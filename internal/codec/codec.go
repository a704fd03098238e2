package codec

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Octas is the number of minor units in one display unit of the chain currency.
const Octas = 100_000_000

const hexPrefix = "0x"

var octasScale = decimal.NewFromInt(Octas)

// DecodeHexBytes converts a 0x-prefixed hex string into raw bytes. Decoding is
// best-effort: on malformed input the valid prefix is returned, matching the
// garble-don't-fail behavior the on-chain string fields are read with.
func DecodeHexBytes(s string) []byte {
	s = strings.TrimPrefix(s, hexPrefix)
	buf := make([]byte, hex.DecodedLen(len(s)))
	n, _ := hex.Decode(buf, []byte(s))
	return buf[:n]
}

// DecodeHexString converts a 0x-prefixed hex string into UTF-8 text.
func DecodeHexString(s string) string {
	return string(DecodeHexBytes(s))
}

// ToDisplayAmount converts octas into display currency units. Display precision
// only; not suitable for custody accounting.
func ToDisplayAmount(octas uint64) float64 {
	return float64(octas) / Octas
}

// DisplayAmountFromString parses a decimal-string octas amount, as returned by
// view calls, into display currency units.
func DisplayAmountFromString(s string) (float64, error) {
	octas, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ToDisplayAmount(octas), nil
}

// ToOctas converts a display amount into octas, serialized as a decimal integer
// string since the node expects string-encoded u64 arguments.
func ToOctas(display float64) string {
	return decimal.NewFromFloat(display).Mul(octasScale).Round(0).String()
}
