package apdu

import (
	"bytes"
	"testing"

	"github.com/malivvan/emvcap/bcd"
	"github.com/malivvan/emvcap/tlv"
	"github.com/stretchr/testify/assert"
)

func TestParseCommandSelect(t *testing.T) {
	wire, err := bcd.ParseBytes("00 A4 04 00 07 A0 00 00 00 03 80 02")
	assert.NoError(t, err)
	c, err := ParseCommand(wire)
	assert.NoError(t, err)
	assert.EqualValues(t, 0x04, c.P1)
	assert.EqualValues(t, 0x00, c.P2)
	assert.Len(t, c.Data, 7)
	assert.Nil(t, c.Le)
}

func TestSelectMarshal(t *testing.T) {
	c := Select([]byte("1PAY.SYS.DDF01"), false)
	got := c.Marshal()
	want, err := bcd.ParseBytes("00 A4 04 00 0E 31 50 41 59 2E 53 59 53 2E 44 44 46 30 31 00")
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSelectByFIDMarshal(t *testing.T) {
	c := SelectByFID([]byte{0x3F, 0x00})
	got := c.Marshal()
	want, err := bcd.ParseBytes("00 A4 00 00 02 3F 00 00")
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetDataMarshal(t *testing.T) {
	c, err := GetData(tlv.PINTryCount)
	assert.NoError(t, err)
	got := c.Marshal()
	want, err := bcd.ParseBytes("80 CA 9F 17 00")
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVerifyPINBlock(t *testing.T) {
	c, err := Verify("1234")
	assert.NoError(t, err)
	// cla,ins,p1,p2=00 20 00 80; Lc=08; block = 2 4 1 2 3 4 F F F F F F F F F F
	want, err := bcd.ParseBytes("00 20 00 80 08 24 12 34 FF FF FF FF FF 00")
	assert.NoError(t, err)
	assert.Equal(t, want, c.Marshal())
}

func TestVerifyRejectsBadLength(t *testing.T) {
	_, err := Verify("12")
	assert.Error(t, err)
}

func TestGenerateACCryptogramType(t *testing.T) {
	c := GenerateAC(CryptogramARQC, false, []byte{0x01, 0x02})
	assert.EqualValues(t, 0x80, c.P1)
	assert.EqualValues(t, 0x80, c.CLA)
	assert.EqualValues(t, 0xAE, c.INS)
}

func TestRAPDUClassification(t *testing.T) {
	r, err := Unmarshal(nil, 0x90, 0x00)
	assert.NoError(t, err)
	assert.Equal(t, Success, r.Kind)
	assert.Equal(t, "Process completed", r.Status())

	r, err = Unmarshal(nil, 0x63, 0xC2)
	assert.NoError(t, err)
	assert.Equal(t, Warning, r.Kind)
	assert.Equal(t, "counter is 2", r.Status())

	r, err = Unmarshal(nil, 0x6A, 0x82)
	assert.NoError(t, err)
	assert.Equal(t, ErrorResp, r.Kind)
	assert.Error(t, r.AsError())
}

func TestRAPDURejectsUnhandled61And6C(t *testing.T) {
	_, err := Unmarshal(nil, 0x61, 0x1F)
	assert.Error(t, err)
	_, err = Unmarshal(nil, 0x6C, 0x10)
	assert.Error(t, err)
}

func TestRAPDUParsesDataAsTLV(t *testing.T) {
	data, err := bcd.ParseBytes("6F 1D 84 07 A0 00 00 00 03 80 02 A5 12 50 08 42 41 52 43 4C 41 59 53 87 01 00 5F 2D 02 65 6E")
	assert.NoError(t, err)
	r, err := Unmarshal(data, 0x90, 0x00)
	assert.NoError(t, err)
	assert.NotNil(t, r.Data)
	fci, ok := r.Data.GetTLV(tlv.FCI)
	assert.True(t, ok)
	assert.True(t, fci.Has(tlv.DF))
}

func TestCAPDUMarshalRoundTrip(t *testing.T) {
	original := []byte{0x00, 0xB2, 0x01, 0x0C, 0x00}
	c, err := ParseCommand(original)
	assert.NoError(t, err)
	assert.True(t, bytes.Equal(c.Marshal(), original))
}
