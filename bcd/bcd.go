// Package bcd implements the byte-level helpers the rest of the stack builds
// on: hex formatting/parsing for logs and test fixtures, and the
// binary-coded-decimal packing EMV uses for amounts and challenge numbers.
package bcd

import (
	"fmt"
	"strconv"
	"strings"
)

// Encoding packs nibbles through a 16-character alphabet, the way hex
// encoding does. Standard returns the conventional 0-9a-f alphabet used for
// rendering and parsing card byte sequences.
type Encoding []byte

// Standard is the plain hexadecimal alphabet.
var Standard = New("0123456789abcdef")

func New(alphabet string) Encoding {
	enc := []byte(alphabet)
	if len(enc) != 16 {
		panic("bcd: alphabet length must be 16")
	}
	return enc
}

func (e Encoding) Encode(data []byte) string {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[i*2] = e[b>>4]
		out[i*2+1] = e[b&0x0F]
	}
	return string(out)
}

func (e Encoding) Decode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("bcd: hex string length must be a multiple of 2")
	}
	index := func(c byte) (int, error) {
		for i := range e {
			if e[i] == c {
				return i, nil
			}
		}
		return -1, fmt.Errorf("bcd: invalid digit %q", c)
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		hi, err := index(s[i])
		if err != nil {
			return nil, err
		}
		lo, err := index(s[i+1])
		if err != nil {
			return nil, err
		}
		out[i/2] = byte(hi<<4 | lo)
	}
	return out, nil
}

// FormatBytes renders a byte slice the way card traces are logged:
// "[AA BB CC]", upper-cased.
func FormatBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.ToUpper("[" + strings.Join(parts, " ") + "]")
}

// ParseBytes parses whitespace-separated hex byte tokens, as used throughout
// the test vectors (e.g. "6F 1D 84 07 A0 00 00 00 03 80 02").
func ParseBytes(s string) ([]byte, error) {
	fields := strings.Fields(s)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bcd: invalid hex token %q: %w", f, err)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// EncodeDecimal renders n as a decimal string, left-pads it to an even
// number of digits with '0', and packs each digit pair into one byte. This
// is how EMV encodes challenge numbers and monetary amounts ("BCD-in-hex")
// for placement into CDOL1 fields such as Unpredictable Number and Amount
// Authorised.
func EncodeDecimal(n uint64) []byte {
	s := strconv.FormatUint(n, 10)
	if len(s)%2 != 0 {
		s = "0" + s
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		v, _ := strconv.ParseUint(s[i:i+2], 16, 8)
		out[i/2] = byte(v)
	}
	return out
}

// DecodeBigEndianUint interprets data as a big-endian unsigned integer, used
// for the INT parse kind (ATC, last-online-ATC, PAN sequence number, ...).
func DecodeBigEndianUint(data []byte) uint64 {
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	return v
}

// PadLeft returns value left-padded with zero bytes to length n. A value
// that is already n bytes or longer is returned unchanged, not truncated;
// callers that need a "too long" error (DOL serialisation) check the
// length themselves beforehand.
func PadLeft(value []byte, n int) []byte {
	if len(value) >= n {
		return value
	}
	out := make([]byte, n)
	copy(out[n-len(value):], value)
	return out
}
