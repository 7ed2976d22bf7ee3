// Package tlv implements the BER-TLV codec at the heart of the EMV wire
// format: variable-length tags and lengths, the static EMV data dictionary,
// and the structured sub-encodings (DOL, TagList, CVMList, AUC, ASRPD) that
// particular tags decode into.
package tlv

import (
	"fmt"

	"github.com/malivvan/emvcap/bcd"
)

// Tag identifies a data element. It is 1-3 bytes on the wire, immutable
// once constructed, and comparable/hashable by value — so it is represented
// as a Go string (which is comparable and usable as a map key) holding the
// raw tag bytes in wire order, never as a slice.
type Tag string

// New builds a Tag from its raw wire bytes. A single byte and a multi-byte
// tag are both valid; equality is purely by byte value, so New(0x57) and a
// Tag built any other way from the single byte 0x57 compare equal.
func New(b ...byte) Tag {
	return Tag(b)
}

// Bytes returns the tag's raw wire-format bytes.
func (t Tag) Bytes() []byte {
	return []byte(t)
}

// IsConstructed reports whether the tag names a constructed (nested TLV)
// value: bit 0x20 of the first byte.
func (t Tag) IsConstructed() bool {
	if len(t) == 0 {
		return false
	}
	return isConstructed(t[0])
}

func isConstructed(firstByte byte) bool {
	return firstByte&0b00100000 == 0b00100000
}

// isTwoByte reports whether a tag's first byte signals that more tag bytes
// follow: the low 5 bits are all set.
func isTwoByte(b byte) bool {
	return b&0b00011111 == 0b00011111
}

// isContinuation reports whether a subsequent tag byte is itself followed
// by more tag bytes: the MSB is set.
func isContinuation(b byte) bool {
	return b&0b10000000 == 0b10000000
}

// ReadTag reads a variable-length tag from the front of data, EMV 4.3 Book 3
// Annex B1. It returns the tag and the number of bytes consumed.
func ReadTag(data []byte) (Tag, int, error) {
	if len(data) == 0 {
		return "", 0, fmt.Errorf("tlv: read tag: empty input")
	}
	i := 0
	out := []byte{data[i]}
	if isTwoByte(data[i]) {
		i++
		if i >= len(data) {
			return "", 0, fmt.Errorf("tlv: read tag: truncated multi-byte tag")
		}
		out = append(out, data[i])
		i++
		for i < len(data) && isContinuation(data[i-1]) {
			out = append(out, data[i])
			i++
		}
	} else {
		i++
	}
	return Tag(out), i, nil
}

// ReadLength reads a BER length field from the front of data: short form is
// a single byte; long form is 0x80|n followed by n big-endian length bytes,
// n in {1,2,3}.
func ReadLength(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("tlv: read length: empty input")
	}
	b0 := data[0]
	if b0&0x80 == 0 {
		return int(b0), 1, nil
	}
	n := int(b0 & 0x7F)
	if n < 1 || n > 3 {
		return 0, 0, fmt.Errorf("tlv: read length: unsupported long-form length of %d bytes", n)
	}
	if len(data) < 1+n {
		return 0, 0, fmt.Errorf("tlv: read length: truncated long-form length")
	}
	length := int(bcd.DecodeBigEndianUint(data[1 : 1+n]))
	return length, 1 + n, nil
}

// Name returns the tag's human-readable dictionary name, or "" if unknown.
func (t Tag) Name() string {
	if e, ok := dictionary[t]; ok {
		return e.Name
	}
	return ""
}

// ParseKind returns the tag's dictionary parse kind, defaulting to Bytes for
// tags the dictionary does not name.
func (t Tag) ParseKind() ParseKind {
	if e, ok := dictionary[t]; ok {
		return e.Kind
	}
	return Bytes
}

// Sensitive reports whether the tag is in the redaction set (PAN, tracks,
// and similar cardholder-identifying data).
func (t Tag) Sensitive() bool {
	return sensitiveTags[t]
}

func (t Tag) String() string {
	val := bcd.Standard.Encode(t.Bytes())
	if name := t.Name(); name != "" {
		return fmt.Sprintf("(%s) %s", val, name)
	}
	return val
}
