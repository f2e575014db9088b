package dns

import (
	"errors"
	"fmt"
)

// MaxMessageSize bounds inbound datagrams: classic DNS over UDP without EDNS
// (RFC 1035 Section 2.3.4). ParseRequest enforces it; replies are not held to
// it, so an answer packed into several TXT records can exceed it.
const MaxMessageSize = 512

// ParseRequest parses and validates an inbound query datagram.
//
// A request is accepted only when:
//   - it is at most MaxMessageSize bytes,
//   - the QR flag is clear (it is a query, not a response),
//   - the opcode is 0 (standard QUERY),
//   - it carries exactly one question.
//
// Anything else is a wire error; the caller drops the datagram without
// replying because a message that fails here cannot be trusted to carry a
// meaningful transaction ID and question.
func ParseRequest(msg []byte) (Packet, error) {
	if len(msg) > MaxMessageSize {
		return Packet{}, fmt.Errorf("%w: datagram is %d bytes (max %d)", ErrWire, len(msg), MaxMessageSize)
	}
	p, err := ParsePacket(msg)
	if err != nil {
		return Packet{}, err
	}
	if IsResponse(p.Header.Flags) {
		return Packet{}, fmt.Errorf("%w: QR flag set on a query", ErrWire)
	}
	if op := Opcode(p.Header.Flags); op != 0 {
		return Packet{}, fmt.Errorf("%w: unsupported opcode %d", ErrWire, op)
	}
	if len(p.Questions) != 1 {
		return Packet{}, fmt.Errorf("%w: question count %d (want 1)", ErrWire, len(p.Questions))
	}
	return p, nil
}

// BuildResponse constructs a reply skeleton for a request: transaction ID and
// RD copied from the query, QR and AA set, RA clear, the question echoed, and
// the given response code applied. Answers are appended by the caller.
func BuildResponse(req Packet, rcode RCode) Packet {
	flags := QRFlag | AAFlag
	flags |= req.Header.Flags & RDFlag
	flags |= uint16(rcode) & RCodeMask

	return Packet{
		Header:    Header{ID: req.Header.ID, Flags: flags},
		Questions: req.Questions,
	}
}

// MarshalResponse serializes a reply, falling back to a bare header when the
// full message does not serialize (an over-long echoed name, for instance).
// The fallback carries the same ID and flags with the rcode forced to
// SERVFAIL and an empty question section; if even the original reply's
// question was the problem, the ID is still enough for the client to
// correlate the failure.
func MarshalResponse(resp Packet) ([]byte, error) {
	b, err := resp.Marshal()
	if err == nil {
		return b, nil
	}

	minimal := Packet{Header: Header{
		ID:    resp.Header.ID,
		Flags: (resp.Header.Flags &^ RCodeMask) | uint16(RCodeServFail),
	}}
	b, err2 := minimal.Marshal()
	if err2 != nil {
		return nil, errors.Join(err, err2)
	}
	return b, nil
}
