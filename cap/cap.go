// Package cap implements the EMV Chip Authentication Program (CAP, a.k.a
// DPA, a.k.a Pinsentry): building a GENERATE APPLICATION CRYPTOGRAM request
// from a card's CDOL1, and deriving the short decimal one-time code from
// the card's response via an Issuer Proprietary Bitmap (IPB) bit-selection
// mask.
//
// There is no public specification for CAP. This package's algorithm
// matches what UK issuers' Pinsentry devices do; other issuers are known to
// customise it.
package cap

import (
	"math"

	"github.com/malivvan/emvcap/apdu"
	"github.com/malivvan/emvcap/bcd"
	"github.com/malivvan/emvcap/tlv"
)

// gacResponseDOL deserialises the older, opaque RMTF1 response format:
// Cryptogram Information Data, Application Transaction Counter, Application
// Cryptogram, Issuer Application Data, and a zero-length terminator tag.
var gacResponseDOL = tlv.ParseDOL([]byte{
	0x9F, 0x27, 0x01,
	0x9F, 0x36, 0x02,
	0x9F, 0x26, 0x08,
	0x9F, 0x10, 0x07,
	0x90, 0x00,
})

// BuildARQCRequest builds the GEN AC command to request an Authorisation
// Request Cryptogram, seeding CDOL1 with a fixed transaction date and TVR
// plus the caller's optional challenge and value.
//
// value is a monetary amount in major units (e.g. 15.00); challenge is an
// account number or raw numeric challenge. Either, both, or neither may be
// given.
func BuildARQCRequest(appData *tlv.TLV, value *float64, challenge *uint64) (apdu.CAPDU, error) {
	cdol1, ok := appData.Get(tlv.CDOL1)
	if !ok || cdol1.Kind != tlv.KindDOL {
		return apdu.CAPDU{}, apdu.NewCAPError("application data doesn't include a CDOL1 field")
	}

	data := map[tlv.Tag][]byte{
		tlv.TransactionDate: {0x01, 0x01, 0x01},
		tlv.TVR:             {0x80, 0x00, 0x00, 0x00, 0x00},
	}

	if challenge != nil {
		data[tlv.UnpredictableNumber] = bcd.EncodeDecimal(*challenge)
	}
	if value != nil {
		minorUnits := uint64(math.Round(*value * 100))
		data[tlv.AmountAuthorised] = bcd.EncodeDecimal(minorUnits)
	}

	body, err := cdol1.DOL.Serialise(data)
	if err != nil {
		return apdu.CAPDU{}, apdu.NewCAPError("serialising CDOL1: %v", err)
	}

	return apdu.GenerateAC(apdu.CryptogramARQC, false, body), nil
}

// ComputeCAPValue derives the decimal CAP code from a GEN AC response, an
// Issuer Proprietary Bitmap, and an optional PAN Sequence Number prefix.
//
// The IPB is a bitmask selecting specific bits from the flattened response
// bytes; CAP reads out those selected bits, in card bit order, as a single
// integer. Most UK issuers share one IPB; the proper approach is always to
// use the one the card itself reports (tag 9F56).
func ComputeCAPValue(resp apdu.RAPDU, ipb []byte, psn []byte) (uint64, error) {
	if resp.Data == nil {
		return 0, apdu.NewCAPError("empty GEN AC response")
	}

	var inner *tlv.TLV
	if v, ok := resp.Data.Get(tlv.RMTF1); ok {
		t, err := gacResponseDOL.Unserialise(v.Raw)
		if err != nil {
			return 0, apdu.NewCAPError("unserialising RMTF1 response: %v", err)
		}
		inner = t
	} else if t, ok := resp.Data.GetTLV(tlv.RMTF2); ok {
		inner = t
	} else {
		return 0, apdu.NewCAPError("unknown response template in GEN AC response")
	}

	r := inner.Flatten()
	if psn != nil {
		r = append(append([]byte(nil), psn...), r...)
	}

	m := len(ipb)
	if len(r) < m {
		m = len(r)
	}

	var acc uint64
	var bits uint
	for i := m - 1; i >= 0; i-- {
		mask := ipb[i]
		d := r[i]
		for mask != 0 {
			if mask&1 != 0 {
				acc |= uint64(d&1) << bits
				bits++
			}
			mask >>= 1
			d >>= 1
		}
	}
	return acc, nil
}
