// Package codec is the binary-to-text transform used for envelope content.
package codec

import (
	"encoding/base64"

	"github.com/moyoez/qrdrop/types"
)

// standard alphabet, '=' padding, non-zero trailing bits rejected
var encoding = base64.StdEncoding.Strict()

// Encode returns the base64 text for b. The output never contains line breaks.
func Encode(b []byte) string {
	return encoding.EncodeToString(b)
}

// Decode reverses Encode. Line breaks are ignored so content wrapped at 76
// columns is still accepted; any other character outside the alphabet, or bad
// padding, is a MalformedEncoding error.
func Decode(text string) ([]byte, error) {
	b, err := encoding.DecodeString(text)
	if err != nil {
		return nil, types.NewError(types.KindMalformedEncoding, err)
	}
	return b, nil
}

// EncodedLen returns the length of Encode output for n input bytes.
func EncodedLen(n int) int {
	return encoding.EncodedLen(n)
}
