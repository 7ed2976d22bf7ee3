package apdu

import (
	"fmt"

	"github.com/malivvan/emvcap/tlv"
)

// ResponseKind discriminates the RAPDU sum type (§3.7, §9 "sum-typed
// responses"): the source models this with a class hierarchy plus
// exception semantics, re-expressed here as Success | Warning | Error with
// Error convertible to a failure via AsError.
type ResponseKind int

const (
	Success ResponseKind = iota
	Warning
	ErrorResp
)

// RAPDU is a parsed Response APDU.
type RAPDU struct {
	Kind ResponseKind
	SW1  byte
	SW2  byte
	Data *tlv.TLV
}

// Status renders the response's human-readable status string (§4.5).
func (r RAPDU) Status() string {
	switch r.Kind {
	case Success:
		return "Process completed"
	case Warning:
		return warningStatus(r.SW1, r.SW2)
	default:
		return CardErrorStatus(r.SW1, r.SW2)
	}
}

func (r RAPDU) String() string {
	if r.Data != nil {
		return fmt.Sprintf("<RAPDU %02X%02X: %q, %d entries>", r.SW1, r.SW2, r.Status(), r.Data.Len())
	}
	return fmt.Sprintf("<RAPDU %02X%02X: %q>", r.SW1, r.SW2, r.Status())
}

// AsError converts an Error-kind RAPDU to a classified *Error, or returns
// nil for Success/Warning. Warning responses are not failures by
// themselves — VERIFY's Warning handling (§4.7 verify_pin) upgrades a
// specific warning to an InvalidPIN failure; callers elsewhere may choose
// to treat any Warning as a soft failure too.
func (r RAPDU) AsError() error {
	if r.Kind != ErrorResp {
		return nil
	}
	return NewCardError(r.SW1, r.SW2)
}

func warningStatus(sw1, sw2 byte) string {
	switch {
	case sw1 == 0x62 && sw2 == 0x83:
		return "selected file invalidated"
	case sw1 == 0x63 && sw2 == 0x00:
		return "authentication failed"
	case sw1 == 0x63 && sw2&0xC0 == 0xC0:
		return fmt.Sprintf("counter is %d", sw2&0x0F)
	default:
		return fmt.Sprintf("SW1: %02x, SW2: %02x", sw1, sw2)
	}
}

// Unmarshal classifies a complete response — data bytes followed by the
// trailing (sw1, sw2) — into a RAPDU (§4.5, §3.7).
//
// 61/6C must already have been handled by the transport layer (§4.6);
// encountering either here is a contract violation and is reported as a
// protocol error rather than silently misclassified.
func Unmarshal(data []byte, sw1, sw2 byte) (RAPDU, error) {
	if sw1 == 0x61 || sw1 == 0x6C {
		return RAPDU{}, NewProtocolError("RAPDU.Unmarshal: sw1=%02X should have been handled by the transport layer", sw1)
	}

	var kind ResponseKind
	switch {
	case sw1 == 0x90 && sw2 == 0x00:
		kind = Success
	case sw1 == 0x62 || sw1 == 0x63:
		kind = Warning
	default:
		kind = ErrorResp
	}

	r := RAPDU{Kind: kind, SW1: sw1, SW2: sw2}
	if len(data) > 0 {
		parsed, err := tlv.Parse(data)
		if err != nil {
			return RAPDU{}, NewProtocolError("RAPDU.Unmarshal: %v", err)
		}
		r.Data = parsed
	}
	return r, nil
}
