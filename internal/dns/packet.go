package dns

// Packet represents a complete DNS message: header plus the question and
// answer sections. Authority and additional sections are parsed only to be
// skipped; this server never populates them.
type Packet struct {
	Header    Header
	Questions []Question
	Answers   []Record
}

// Marshal serializes the packet, recomputing the section counts from the
// actual section lengths.
func (p Packet) Marshal() ([]byte, error) {
	h := p.Header
	h.QDCount = uint16(len(p.Questions))
	h.ANCount = uint16(len(p.Answers))
	h.NSCount = 0
	h.ARCount = 0

	out := make([]byte, 0, HeaderSize+len(p.Questions)*32+len(p.Answers)*300)
	out = append(out, h.Marshal()...)
	for _, q := range p.Questions {
		qb, err := q.Marshal()
		if err != nil {
			return nil, err
		}
		out = append(out, qb...)
	}
	for _, rr := range p.Answers {
		rb, err := rr.Marshal()
		if err != nil {
			return nil, err
		}
		out = append(out, rb...)
	}
	return out, nil
}

// ParsePacket parses a full DNS message. Authority and additional records are
// consumed but folded into Answers' tail is NOT done; they are discarded.
func ParsePacket(msg []byte) (Packet, error) {
	off := 0
	h, err := ParseHeader(msg, &off)
	if err != nil {
		return Packet{}, err
	}

	p := Packet{Header: h}
	for range h.QDCount {
		q, err := ParseQuestion(msg, &off)
		if err != nil {
			return Packet{}, err
		}
		p.Questions = append(p.Questions, q)
	}
	for range h.ANCount {
		rr, err := ParseRecord(msg, &off)
		if err != nil {
			return Packet{}, err
		}
		p.Answers = append(p.Answers, rr)
	}
	for range int(h.NSCount) + int(h.ARCount) {
		if _, err := ParseRecord(msg, &off); err != nil {
			return Packet{}, err
		}
	}
	return p, nil
}
