package engine

import "errors"

// ErrMalformedRecord is returned when the record being scanned does not
// parse as the caller navigates it — an unterminated string, a missing
// colon after a key, a stray character where ',' or a closing bracket was
// expected, and so on. The Structural Index never validates the record up
// front; malformed input is only ever discovered as the Query Engine walks
// into it.
var ErrMalformedRecord = errors.New("engine: malformed record")

// ErrUnexpectedEOF is returned when the record ends before a container
// that was opened ('{' or '[') is closed.
var ErrUnexpectedEOF = errors.New("engine: unexpected end of record")
