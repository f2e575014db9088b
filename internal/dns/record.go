package dns

import (
	"encoding/binary"
	"fmt"
)

// MaxTXTStringLen is the maximum length of one TXT character-string.
// TXT RDATA is a sequence of <length byte><bytes> strings; the length byte
// caps each string at 255.
const MaxTXTStringLen = 255

// Record is a resource record with pre-encoded RDATA. The server only ever
// emits TXT records, but parsing keeps RDATA opaque so replies from other
// servers can still be walked by the client tool and the tests.
type Record struct {
	Name  string
	Type  uint16
	Class uint16
	TTL   uint32
	Data  []byte // RDATA in wire form
}

// TXT builds a TXT record carrying a single character-string.
// The string must be at most MaxTXTStringLen bytes; longer input is a caller
// bug, not something to silently split.
func TXT(name string, ttl uint32, s string) (Record, error) {
	if len(s) > MaxTXTStringLen {
		return Record{}, fmt.Errorf("%w: TXT character-string is %d bytes (max %d)", ErrWire, len(s), MaxTXTStringLen)
	}
	data := make([]byte, 1+len(s))
	data[0] = byte(len(s))
	copy(data[1:], s)
	return Record{Name: name, Type: TypeTXT, Class: ClassIN, TTL: ttl, Data: data}, nil
}

// TXTStrings decodes the character-strings out of a TXT record's RDATA.
// Returns nil for non-TXT records or malformed RDATA.
func (rr Record) TXTStrings() []string {
	if rr.Type != TypeTXT {
		return nil
	}
	var out []string
	for i := 0; i < len(rr.Data); {
		n := int(rr.Data[i])
		i++
		if i+n > len(rr.Data) {
			return nil
		}
		out = append(out, string(rr.Data[i:i+n]))
		i += n
	}
	return out
}

// Marshal serializes the record to wire format.
func (rr Record) Marshal() ([]byte, error) {
	name, err := EncodeName(rr.Name)
	if err != nil {
		return nil, err
	}
	if len(rr.Data) > 0xFFFF {
		return nil, fmt.Errorf("%w: RDATA exceeds 65535 bytes", ErrWire)
	}
	out := make([]byte, 0, len(name)+10+len(rr.Data))
	out = append(out, name...)
	fixed := make([]byte, 10)
	binary.BigEndian.PutUint16(fixed[0:2], rr.Type)
	binary.BigEndian.PutUint16(fixed[2:4], rr.Class)
	binary.BigEndian.PutUint32(fixed[4:8], rr.TTL)
	binary.BigEndian.PutUint16(fixed[8:10], uint16(len(rr.Data)))
	out = append(out, fixed...)
	out = append(out, rr.Data...)
	return out, nil
}

// ParseRecord parses a record at *off and advances *off past it.
// RDATA is copied verbatim; name-typed RDATA is not decompressed because the
// record types this system consumes (TXT) never contain names.
func ParseRecord(msg []byte, off *int) (Record, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return Record{}, err
	}
	if *off+10 > len(msg) {
		return Record{}, fmt.Errorf("%w: truncated record header", ErrWire)
	}
	rr := Record{
		Name:  name,
		Type:  binary.BigEndian.Uint16(msg[*off : *off+2]),
		Class: binary.BigEndian.Uint16(msg[*off+2 : *off+4]),
		TTL:   binary.BigEndian.Uint32(msg[*off+4 : *off+8]),
	}
	rdlen := int(binary.BigEndian.Uint16(msg[*off+8 : *off+10]))
	*off += 10
	if *off+rdlen > len(msg) {
		return Record{}, fmt.Errorf("%w: truncated RDATA", ErrWire)
	}
	rr.Data = make([]byte, rdlen)
	copy(rr.Data, msg[*off:*off+rdlen])
	*off += rdlen
	return rr, nil
}
