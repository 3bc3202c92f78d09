package api

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"unicode/utf8"
)

// chunkSize is how much of a request body is pulled per read.
const chunkSize = 32 << 10

var (
	// ErrPayloadTooLarge means the value exceeded the per-key size cap.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrInvalidEncoding means the value was not valid UTF-8.
	ErrInvalidEncoding = errors.New("value is not valid UTF-8")
	// ErrStream means the request body failed mid-read.
	ErrStream = errors.New("failed to read request body")
)

// chunks yields successive reads from r. The yielded slice is reused and
// is only valid until the next iteration.
func chunks(r io.Reader, size int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		buf := make([]byte, size)
		for {
			n, err := r.Read(buf)
			if n > 0 && !yield(buf[:n], nil) {
				return
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// readValue accumulates r into a string, giving up as soon as more than
// limit bytes have arrived. The result must be valid UTF-8.
func readValue(r io.Reader, limit int) (string, error) {
	var body []byte
	for chunk, err := range chunks(r, chunkSize) {
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStream, err)
		}
		if len(body)+len(chunk) > limit {
			return "", ErrPayloadTooLarge
		}
		body = append(body, chunk...)
	}
	if !utf8.Valid(body) {
		return "", ErrInvalidEncoding
	}
	return string(body), nil
}

// checkValue applies the body rules to a value that arrived whole.
func checkValue(value string, limit int) error {
	if len(value) > limit {
		return ErrPayloadTooLarge
	}
	if !utf8.ValidString(value) {
		return ErrInvalidEncoding
	}
	return nil
}
