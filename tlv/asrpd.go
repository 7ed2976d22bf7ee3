package tlv

import "fmt"

// ASRPDEntry is one Application Selection Registered Proprietary Data
// record: a 4-digit decimal product-identifier (PDI) plus its value.
type ASRPDEntry struct {
	PDI   string
	Value []byte
}

// ASRPD is the "almost-TLV" encoding of tag 9F0A: a sequence of
// (2-byte PDI, 1-byte length, value) records, with no tag byte at all.
type ASRPD []ASRPDEntry

// EPCProductID names the EPC product-identifier codes under PDI "0001".
var EPCProductID = map[int]string{
	1: "Debit",
	2: "Credit",
	3: "Commercial",
	4: "Pre-paid",
}

// ParseASRPD decodes an ASRPD's wire bytes.
func ParseASRPD(data []byte) ASRPD {
	var out ASRPD
	i := 0
	for i+3 <= len(data) {
		pdi := fmt.Sprintf("%02d%02d", data[i], data[i+1])
		i += 2
		length := int(data[i])
		i++
		if i+length > len(data) {
			length = len(data) - i
		}
		out = append(out, ASRPDEntry{PDI: pdi, Value: data[i : i+length]})
		i += length
	}
	return out
}
