package tlv

import (
	"fmt"

	"github.com/malivvan/emvcap/bcd"
)

type dolEntry struct {
	Tag    Tag
	Length int
}

// DOL is an ordered (Tag, fixed length) list: a Data Object List. Unlike
// the surrounding BER-TLV lengths, a DOL's per-tag length is always a
// single raw byte (0-255), not a BER long/short form — this follows the
// reference implementation, which the spec itself leaves unstated.
type DOL struct {
	entries []dolEntry
}

// ParseDOL decodes a DOL's wire bytes: repeated (tag, 1-byte length) pairs
// until the input is exhausted, keeping insertion order.
func ParseDOL(data []byte) *DOL {
	d := &DOL{}
	i := 0
	for i < len(data) {
		tag, tn, err := ReadTag(data[i:])
		if err != nil {
			break
		}
		i += tn
		if i >= len(data) {
			break
		}
		length := int(data[i])
		i++
		d.entries = append(d.entries, dolEntry{Tag: tag, Length: length})
	}
	return d
}

// Size returns the sum of every entry's length: the exact byte count a
// matching data block must have.
func (d *DOL) Size() int {
	n := 0
	for _, e := range d.entries {
		n += e.Length
	}
	return n
}

// Unserialise splits data into one TLV entry per DOL slot, in order. It
// fails if len(data) does not exactly equal Size().
func (d *DOL) Unserialise(data []byte) (*TLV, error) {
	if len(data) != d.Size() {
		return nil, fmt.Errorf("tlv: dol unserialise: expected %d bytes, got %d", d.Size(), len(data))
	}
	t := NewTLV()
	i := 0
	for _, e := range d.entries {
		t.Insert(e.Tag, rawValue(data[i:i+e.Length]))
		i += e.Length
	}
	return t, nil
}

// Serialise builds a DOL-shaped byte payload from a tag->value map: the hot
// path for CAP's CDOL1 request construction (§4.3, §4.8). Per slot, in
// order: a missing tag contributes length zero bytes; a shorter value is
// left-padded with zeros; a longer value is an error.
func (d *DOL) Serialise(data map[Tag][]byte) ([]byte, error) {
	out := make([]byte, 0, d.Size())
	for _, e := range d.entries {
		value, ok := data[e.Tag]
		if !ok {
			out = append(out, make([]byte, e.Length)...)
			continue
		}
		if len(value) > e.Length {
			return nil, fmt.Errorf("tlv: dol serialise: data too long for tag %s (got %d bytes, want at most %d)", e.Tag, len(value), e.Length)
		}
		out = append(out, bcd.PadLeft(value, e.Length)...)
	}
	if len(out) != d.Size() {
		panic("tlv: dol serialise: internal length mismatch")
	}
	return out, nil
}
