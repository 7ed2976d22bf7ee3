// Package apdu implements the command/response APDU codec: CAPDU
// construction for the SELECT, READ RECORD, GET DATA, VERIFY, GPO and GEN AC
// commands, and RAPDU classification into Success/Warning/Error.
package apdu

import (
	"fmt"

	"github.com/malivvan/emvcap/tlv"
)

// CAPDU is a Command APDU: cla, ins, p1, p2, an optional data body, and an
// optional expected-length byte. Data == nil means "no Lc/body"; Le == nil
// means "no trailing expected-length byte" — both are meaningfully distinct
// from a present-but-empty body.
type CAPDU struct {
	CLA, INS, P1, P2 byte
	Data             []byte
	Le               *byte
}

func le(b byte) *byte { return &b }

// ParseCommand decodes a raw command APDU back into a CAPDU. It infers the
// ISO 7816-4 "case" from the wire length alone:
//   - 4 bytes: header only, no data, no Le (case 1).
//   - 5 bytes: header + a single trailing Le byte (case 2).
//   - 4+1+n bytes: header + Lc + n bytes of data (case 3).
//   - 4+1+n+1 bytes: header + Lc + n bytes of data + Le (case 4, the shape
//     of SELECT, VERIFY, GPO and GEN AC as built in this package).
func ParseCommand(wire []byte) (CAPDU, error) {
	if len(wire) < 4 {
		return CAPDU{}, fmt.Errorf("apdu: command too short: %d bytes", len(wire))
	}
	c := CAPDU{CLA: wire[0], INS: wire[1], P1: wire[2], P2: wire[3]}
	rest := wire[4:]
	switch {
	case len(rest) == 0:
		return c, nil
	case len(rest) == 1:
		c.Le = le(rest[0])
		return c, nil
	default:
		n := int(rest[0])
		if 1+n > len(rest) {
			return CAPDU{}, fmt.Errorf("apdu: command Lc=%d exceeds remaining %d bytes", n, len(rest)-1)
		}
		c.Data = rest[1 : 1+n]
		if len(rest) == 1+n+1 {
			c.Le = le(rest[1+n])
		} else if len(rest) != 1+n {
			return CAPDU{}, fmt.Errorf("apdu: command has %d trailing bytes after Lc-declared data", len(rest)-(1+n))
		}
		return c, nil
	}
}

// Marshal renders the CAPDU to its wire bytes: CLA INS P1 P2 [Lc data...] [Le].
func (c CAPDU) Marshal() []byte {
	out := []byte{c.CLA, c.INS, c.P1, c.P2}
	if c.Data != nil {
		out = append(out, byte(len(c.Data)))
		out = append(out, c.Data...)
	}
	if c.Le != nil {
		out = append(out, *c.Le)
	}
	return out
}

// Cryptogram type constants for GenerateAC's P1.
const (
	CryptogramAAC  byte = 0x00
	CryptogramTC   byte = 0x40
	CryptogramARQC byte = 0x80
	cdaSignatureMask byte = 0x10
)

// Select builds a SELECT-by-name command, e.g. "1PAY.SYS.DDF01" or a raw
// application AID. nextOccurrence requests P2's "next occurrence" form,
// used to iterate same-named directory entries.
func Select(name []byte, nextOccurrence bool) CAPDU {
	p2 := byte(0x00)
	if nextOccurrence {
		p2 = 0x02
	}
	return CAPDU{CLA: 0x00, INS: 0xA4, P1: 0x04, P2: p2, Data: name, Le: le(0x00)}
}

// SelectByFID builds a SELECT-by-file-identifier command, used for the
// master file (3F00).
func SelectByFID(fid []byte) CAPDU {
	return CAPDU{CLA: 0x00, INS: 0xA4, P1: 0x00, P2: 0x00, Data: fid, Le: le(0x00)}
}

// ReadRecord builds a READ RECORD command. sfi == nil reads the currently
// selected file's record directly (P2 = 0x04); otherwise P2 encodes the SFI
// in its upper 5 bits.
func ReadRecord(record byte, sfi *byte) CAPDU {
	p2 := byte(0x04)
	if sfi != nil {
		p2 = (*sfi << 3) | 0x04
	}
	return CAPDU{CLA: 0x00, INS: 0xB2, P1: record, P2: p2, Le: le(0x00)}
}

// GetDataItem constants: the well-known 2-byte tags GET DATA is used for in
// a card session (§4.7 get_metadata).
var (
	GetDataATC           = tlv.ATC
	GetDataLastOnlineATC = tlv.LastOnlineATC
	GetDataPINTryCount   = tlv.PINTryCount
)

// GetData builds a GET DATA command for a 2-byte tag.
func GetData(tag tlv.Tag) (CAPDU, error) {
	b := tag.Bytes()
	if len(b) != 2 {
		return CAPDU{}, fmt.Errorf("apdu: GET DATA requires a 2-byte tag, got %d bytes", len(b))
	}
	return CAPDU{CLA: 0x80, INS: 0xCA, P1: b[0], P2: b[1], Le: le(0x00)}, nil
}

// Verify builds a VERIFY command carrying a plaintext PIN block (format 2):
// "2 L d1 d2 d3 d4 [d5...d12] F F..." packed as 8 bytes of BCD, where L is
// the PIN's decimal-digit length (4-12) and the block is right-padded with
// F nibbles to 16 nibbles.
//
// Only plaintext PIN verification is implemented. Enciphered PIN (P2 =
// 0b10001000) is part of the EMV command set but has no encryption key
// material to drive it in this design and is left as future work.
func Verify(pin string) (CAPDU, error) {
	if len(pin) < 4 || len(pin) > 12 {
		return CAPDU{}, fmt.Errorf("apdu: PIN length must be 4-12 digits, got %d", len(pin))
	}
	nibbles := make([]byte, 16)
	nibbles[0] = 0x2
	nibbles[1] = byte(len(pin))
	for i, c := range pin {
		if c < '0' || c > '9' {
			return CAPDU{}, fmt.Errorf("apdu: PIN must be all digits")
		}
		nibbles[2+i] = byte(c - '0')
	}
	for i := 2 + len(pin); i < 16; i++ {
		nibbles[i] = 0xF
	}
	block := make([]byte, 8)
	for i := 0; i < 8; i++ {
		block[i] = nibbles[i*2]<<4 | nibbles[i*2+1]
	}
	return CAPDU{CLA: 0x00, INS: 0x20, P1: 0x00, P2: 0x80, Data: block, Le: le(0x00)}, nil
}

// GetProcessingOptions builds a GPO command. pdol == nil sends the minimal
// "no PDOL data requested" body [0x83, 0x00].
func GetProcessingOptions(pdol []byte) CAPDU {
	data := pdol
	if data == nil {
		data = []byte{0x83, 0x00}
	}
	return CAPDU{CLA: 0x80, INS: 0xA8, P1: 0x00, P2: 0x00, Data: data, Le: le(0x00)}
}

// GenerateAC builds a GEN AC command. cryptogramType is one of
// CryptogramAAC/TC/ARQC; cdaSignature OR-masks in a combined
// dynamic-signature request.
func GenerateAC(cryptogramType byte, cdaSignature bool, data []byte) CAPDU {
	p1 := cryptogramType
	if cdaSignature {
		p1 |= cdaSignatureMask
	}
	return CAPDU{CLA: 0x80, INS: 0xAE, P1: p1, P2: 0x00, Data: data, Le: le(0x00)}
}
