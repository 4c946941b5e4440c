package jsonski

import "github.com/aparx/jsonski/internal/structural"

// Pad returns data extended with trailing zero bytes, if necessary, so its
// length is a multiple of the Structural Index's window size. The padding
// bytes never match any structural character, so they are invisible to
// every class bitmap and to the quote/string-boundary scan; a record that
// is already window-aligned is returned unchanged, without copying.
func Pad(data []byte) []byte {
	rem := len(data) % structural.WindowSize
	if rem == 0 {
		return data
	}
	padded := make([]byte, len(data)+structural.WindowSize-rem)
	copy(padded, data)
	return padded
}
