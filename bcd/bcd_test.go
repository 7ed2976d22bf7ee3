package bcd

import (
	"bytes"
	"testing"
)

func TestEncoding(t *testing.T) {
	cases := []struct {
		data []byte
		str  string
	}{
		{[]byte{0x00}, "00"},
		{[]byte{0xDE, 0xAD, 0xBE, 0xEF}, "deadbeef"},
		{[]byte{}, ""},
	}
	for i, c := range cases {
		t.Run(string(rune('0'+i)), func(t *testing.T) {
			got := Standard.Encode(c.data)
			if got != c.str {
				t.Fatalf("Encode(%v) = %q, want %q", c.data, got, c.str)
			}
			back, err := Standard.Decode(got)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(back, c.data) {
				t.Fatalf("round-trip mismatch: got %v, want %v", back, c.data)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	got := FormatBytes([]byte{0xA0, 0x00, 0x00, 0x00, 0x03, 0x80, 0x02})
	want := "[A0 00 00 00 03 80 02]"
	if got != want {
		t.Fatalf("FormatBytes = %q, want %q", got, want)
	}
}

func TestParseBytes(t *testing.T) {
	got, err := ParseBytes("6F 1D 84 07 A0 00 00 00 03 80 02")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	want := []byte{0x6F, 0x1D, 0x84, 0x07, 0xA0, 0x00, 0x00, 0x00, 0x03, 0x80, 0x02}
	if !bytes.Equal(got, want) {
		t.Fatalf("ParseBytes = %v, want %v", got, want)
	}
}

func TestEncodeDecimal(t *testing.T) {
	cases := []struct {
		n    uint64
		want []byte
	}{
		{78901234, []byte{0x78, 0x90, 0x12, 0x34}},
		{123456, []byte{0x12, 0x34, 0x56}},
		{1500, []byte{0x15, 0x00}},
		{0, []byte{0x00}},
	}
	for _, c := range cases {
		got := EncodeDecimal(c.n)
		if !bytes.Equal(got, c.want) {
			t.Fatalf("EncodeDecimal(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestDecodeBigEndianUint(t *testing.T) {
	got := DecodeBigEndianUint([]byte{0x00, 0x16})
	if got != 22 {
		t.Fatalf("DecodeBigEndianUint = %d, want 22", got)
	}
}

func TestPadLeft(t *testing.T) {
	got := PadLeft([]byte{0x01, 0x02}, 5)
	want := []byte{0x00, 0x00, 0x00, 0x01, 0x02}
	if !bytes.Equal(got, want) {
		t.Fatalf("PadLeft = %v, want %v", got, want)
	}
}
