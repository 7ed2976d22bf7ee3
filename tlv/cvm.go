package tlv

import "github.com/malivvan/emvcap/bcd"

// cvmMethods maps the low 6 bits of a CVM rule's first byte to a method
// description, a fixed lookup table per EMV 4.3 Book 3 Annex C3.
var cvmMethods = map[byte]string{
	0b000000: "Fail CVM processing",
	0b000001: "Plaintext PIN verification performed by ICC",
	0b000010: "Enciphered PIN verified online",
	0b000011: "Plaintext PIN verification performed by ICC and signature (paper)",
	0b000100: "Enciphered PIN verification performed by ICC",
	0b000101: "Enciphered PIN verification performed by ICC and signature (paper)",
	0b011110: "Signature (paper)",
	0b011111: "No CVM required",
	0b111111: "No CVM performed",
}

// cvmConditions maps a CVM rule's second byte to a condition description.
var cvmConditions = map[byte]string{
	0x00: "Always",
	0x01: "If unattended cash",
	0x02: "If not unattended cash and not manual cash and not purchase with cashback",
	0x03: "If terminal supports the CVM",
	0x04: "If manual cash",
	0x05: "If purchase with cashback",
	0x06: "If transaction is in the application currency and under X value",
	0x07: "If transaction is in the application currency and over X value",
	0x08: "If transaction is in the application currency and under Y value",
	0x09: "If transaction is in the application currency and over Y value",
}

// CVMRule is one (b1, b2) entry from a CVMList: a cardholder-verification
// method plus the condition under which it applies.
type CVMRule struct {
	B1, B2 byte
}

// Method returns the rule's verification-method description.
func (r CVMRule) Method() string {
	if desc, ok := cvmMethods[r.B1&0b00111111]; ok {
		return desc
	}
	return "Fail CVM processing"
}

// Condition returns the rule's applicability-condition description.
func (r CVMRule) Condition() string {
	if desc, ok := cvmConditions[r.B2]; ok {
		return desc
	}
	return "Unknown condition"
}

// FailIfUnsuccessful reports whether CVM processing should fail outright if
// this rule's method cannot be performed (bit 6 of b1).
func (r CVMRule) FailIfUnsuccessful() bool {
	return r.B1&0b01000000 == 0b01000000
}

// CVMList is the Cardholder Verification Method List (tag 8E): two 4-byte
// amount thresholds followed by zero or more 2-byte rules.
type CVMList struct {
	X, Y  uint64
	Rules []CVMRule
}

// ParseCVMList decodes a CVMList's wire bytes. Following the reference
// implementation, malformed input (fewer than 10 bytes, or an odd length)
// yields an empty CVMList rather than an error.
func ParseCVMList(data []byte) *CVMList {
	if len(data) < 10 || len(data)%2 != 0 {
		return &CVMList{}
	}
	c := &CVMList{
		X: bcd.DecodeBigEndianUint(data[0:4]),
		Y: bcd.DecodeBigEndianUint(data[4:8]),
	}
	for i := 8; i < len(data); i += 2 {
		c.Rules = append(c.Rules, CVMRule{B1: data[i], B2: data[i+1]})
	}
	return c
}
