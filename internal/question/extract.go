package question

import (
	"errors"
	"strings"
)

// ErrInvalidQuery means the queried name cannot carry a question: too few
// labels, or nothing left after extraction.
var ErrInvalidQuery = errors.New("invalid query")

// ErrUnsafeQuery means the extracted question failed the safety check.
var ErrUnsafeQuery = errors.New("unsafe query")

// FromDomain converts a queried domain name into a sanitized prompt.
//
//	what.is.the.weather.com → "what is the weather"
//	hello-world.example.com → "hello world example"
//
// The last label is treated as a TLD and dropped; the rest are joined with
// spaces, with `-` and `_` also becoming spaces. The returned string is the
// Sanitize output and doubles as the cache fingerprint.
func FromDomain(name string) (string, error) {
	name = strings.TrimSuffix(name, ".")

	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return "", ErrInvalidQuery
	}

	raw := strings.Join(labels[:len(labels)-1], " ")
	raw = strings.NewReplacer("-", " ", "_", " ").Replace(raw)

	if !IsSafe(raw) {
		return "", ErrUnsafeQuery
	}
	return Sanitize(raw), nil
}
