// Package fixtures holds fixed byte vectors: a real (Barclays) application
// data record, its Issuer Proprietary Bitmap, and two GEN AC responses with
// their known CAP values. They are checked by this package's own test and
// replayed by cmd/replay; the other packages' tests carry their own inline
// copies of the same bytes.
package fixtures

import "github.com/malivvan/emvcap/bcd"

// AppData is the READ RECORD response body for a Barclays application,
// including CDOL1, the Issuer Proprietary Bitmap, and the Issuer
// Authentication Flags.
var AppData = mustHex(`70 68 8C 15 9F 02 06 9F 03 06 9F 1A 02 95 05 5F 2A 02 9A 03 9C
	01 9F 37 04 8D 17 8A 02 9F 02 06 9F 03 06 9F 1A 02 95 05 5F 2A
	02 9A 03 9C 01 9F 37 04 8E 0A 00 00 00 00 00 00 00 00 01 00 9F
	56 12 80 00 FF 00 00 00 00 00 01 FF FF 00 00 00 00 00 00 00 9F
	55 01 A0 5A 08 46 58 12 34 56 78 90 09 5F 34 01 00 9F 08 02 00
	01`)

// BarclaysIPB is the Issuer Proprietary Bitmap used by Barclays cards: the
// CID's top bit (bit 25 of the result), the ATC's low byte, and the AC's low
// 17 bits; it selects no Issuer Application Data bits.
var BarclaysIPB = mustHex("80 00 FF 00 00 00 00 00 01 FF FF 00 00 00 00 00 00 00")

// GACResponseRMTF1 and GACResponseRMTF2 are real GEN AC responses recorded
// against Barclays cards of two different generations, paired with the CAP
// values the reference Pinsentry implementation derives from them using
// BarclaysIPB.
var (
	GACResponseRMTF1        = mustHex("80 12 80 09 5F 0F 9D 37 98 E9 3F 12 9A 06 0A 0A 03 A4 90 00")
	GACResponseRMTF1CAPCode = uint64(46076570)

	GACResponseRMTF2 = mustHex(`77 1E 9F 27 01 80 9F 36 02 00 16 9F 26 08 29 9C C8 F1 0B 9B C8
		30 9F 10 07 06 0B 0A 03 A4 90 00`)
	GACResponseRMTF2CAPCode = uint64(36554800)
)

// SelectFCIResponse is a real SELECT response FCI template, the same bytes
// the apdu, tlv and transport tests inline.
var SelectFCIResponse = mustHex(`6F 1D 84 07 A0 00 00 00 03 80 02 A5 12 50 08 42 41 52 43 4C 41 59
	53 87 01 00 5F 2D 02 65 6E`)

func mustHex(s string) []byte {
	b, err := bcd.ParseBytes(s)
	if err != nil {
		panic(err)
	}
	return b
}
