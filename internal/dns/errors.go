package dns

import "errors"

// ErrWire is the sentinel for any wire-format violation: truncated header,
// bad label length, compression loop, oversized character-string.
// Wrap it with fmt.Errorf("context: %w", ErrWire) to add context.
// Callers that cannot decode a datagram at all must drop it without replying;
// the transaction ID cannot be trusted.
var ErrWire = errors.New("dns wire error")
