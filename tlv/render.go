package tlv

import (
	"github.com/malivvan/emvcap/bcd"
	"golang.org/x/text/language"
)

// decodeDisplayInt renders the numeric parse kinds for display. Dec,
// Country and Currency are packed two decimal digits per byte (BCD); Int is
// a plain big-endian binary integer (ATC, PAN sequence number, ...).
func decodeDisplayInt(kind ParseKind, raw []byte) uint64 {
	switch kind {
	case Int:
		return bcd.DecodeBigEndianUint(raw)
	default:
		var v uint64
		for _, b := range raw {
			v = v*100 + uint64(b>>4)*10 + uint64(b&0x0F)
		}
		return v
	}
}

// countryAlpha renders an ISO-3166 numeric country code (EMV's COUNTRY
// parse kind) as its alpha-2 code, e.g. 826 -> "GB". The numeric encoding
// EMV uses is the UN M49 scheme ISO-3166 numeric is built on, so
// language.EncodeM49 resolves it directly without a bespoke lookup table.
func countryAlpha(numeric uint64) string {
	region, err := language.EncodeM49(int(numeric))
	if err != nil {
		return ""
	}
	return region.String()
}

func formatHex(raw []byte) string {
	return bcd.FormatBytes(raw)
}
