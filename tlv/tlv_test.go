package tlv

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/malivvan/emvcap/bcd"
)

// tlvStructure reduces a *TLV to a comparable tree of tag names: go-cmp
// can't walk the unexported entries/index fields directly, but reparsing
// the same bytes twice and diffing this projection still catches any
// nondeterminism in parseEntries' recursion or insertion order.
func tlvStructure(t *TLV) []string {
	var names []string
	for _, e := range t.entries {
		names = append(names, e.Tag.String())
		if e.Value.Kind == KindNested {
			names = append(names, tlvStructure(e.Value.Nested)...)
		}
	}
	return names
}

func TestReadTagTwoByte(t *testing.T) {
	for b := 0; b <= 0xFF; b++ {
		got := isTwoByte(byte(b))
		want := byte(b)&0x1F == 0x1F
		if got != want {
			t.Fatalf("isTwoByte(%#x) = %v, want %v", b, got, want)
		}
	}
}

func TestReadTagSingleByte(t *testing.T) {
	tag, n, err := ReadTag([]byte{0x9A, 0xFF})
	if err != nil {
		t.Fatalf("ReadTag: %v", err)
	}
	if n != 1 || tag != Tag([]byte{0x9A}) {
		t.Fatalf("ReadTag = %v, %d; want 9A, 1", tag.Bytes(), n)
	}
}

func TestReadTagMultiByte(t *testing.T) {
	tag, n, err := ReadTag([]byte{0x9F, 0x37, 0x04})
	if err != nil {
		t.Fatalf("ReadTag: %v", err)
	}
	if n != 2 {
		t.Fatalf("consumed = %d, want 2", n)
	}
	if !bytes.Equal(tag.Bytes(), []byte{0x9F, 0x37}) {
		t.Fatalf("tag = %v, want 9F37", tag.Bytes())
	}
}

func TestReadLength(t *testing.T) {
	cases := []struct {
		data []byte
		want int
		n    int
	}{
		{[]byte{0x1D}, 0x1D, 1},
		{[]byte{0x81, 0x80}, 0x80, 2},
		{[]byte{0x82, 0x01, 0x00}, 256, 3},
	}
	for _, c := range cases {
		got, n, err := ReadLength(c.data)
		if err != nil {
			t.Fatalf("ReadLength(%v): %v", c.data, err)
		}
		if got != c.want || n != c.n {
			t.Fatalf("ReadLength(%v) = %d,%d want %d,%d", c.data, got, n, c.want, c.n)
		}
	}
}

func TestParseFCI(t *testing.T) {
	data, err := bcd.ParseBytes("6F 1D 84 07 A0 00 00 00 03 80 02 A5 12 50 08 42 41 52 43 4C 41 59 53 87 01 00 5F 2D 02 65 6E")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fci, ok := parsed.GetTLV(FCI)
	if !ok {
		t.Fatalf("FCI not found")
	}
	prop, ok := fci.GetTLV(FCIProp)
	if !ok {
		t.Fatalf("FCI_PROP not found")
	}
	label, ok := prop.GetBytes(AppLabel)
	if !ok {
		t.Fatalf("AppLabel not found")
	}
	if string(label) != "BARCLAYS" {
		t.Fatalf("AppLabel = %q, want BARCLAYS", label)
	}
}

func TestParseShortInputPassthrough(t *testing.T) {
	parsed, err := Parse([]byte{0x61})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	raw, ok := RawPassthrough(parsed)
	if !ok {
		t.Fatalf("expected raw passthrough for short input")
	}
	if !bytes.Equal(raw, []byte{0x61}) {
		t.Fatalf("raw = %v, want [0x61]", raw)
	}
}

func TestDOLRoundTrip(t *testing.T) {
	wire, err := bcd.ParseBytes("9F 02 06 9F 03 06 9F 1A 02 95 05 5F 2A 02 9A 03 9C 01 9F 37 04")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	d := ParseDOL(wire)
	if d.Size() != 29 {
		t.Fatalf("DOL size = %d, want 29", d.Size())
	}
	input := make([]byte, 29)
	for i := range input {
		input[i] = byte(i + 1)
	}
	parsed, err := d.Unserialise(input)
	if err != nil {
		t.Fatalf("Unserialise: %v", err)
	}
	data := map[Tag][]byte{}
	for _, e := range parsed.Entries() {
		b, _ := parsed.GetBytes(e.Tag)
		data[e.Tag] = b
	}
	out, err := d.Serialise(data)
	if err != nil {
		t.Fatalf("Serialise: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("round-trip mismatch: got %v, want %v", out, input)
	}
}

func TestDOLPadding(t *testing.T) {
	wire, err := bcd.ParseBytes("9F 37 04")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	d := ParseDOL(wire)
	out, err := d.Serialise(map[Tag][]byte{
		UnpredictableNumber: {0x12, 0x34},
	})
	if err != nil {
		t.Fatalf("Serialise: %v", err)
	}
	if !bytes.Equal(out, []byte{0x00, 0x00, 0x12, 0x34}) {
		t.Fatalf("got %v, want left-padded 00 00 12 34", out)
	}
}

func TestDOLMissingTagDefaultsToZero(t *testing.T) {
	wire, err := bcd.ParseBytes("9A 03")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	d := ParseDOL(wire)
	out, err := d.Serialise(map[Tag][]byte{})
	if err != nil {
		t.Fatalf("Serialise: %v", err)
	}
	if !bytes.Equal(out, []byte{0x00, 0x00, 0x00}) {
		t.Fatalf("got %v, want 00 00 00", out)
	}
}

func TestDOLOverlongFails(t *testing.T) {
	wire, err := bcd.ParseBytes("9A 03")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	d := ParseDOL(wire)
	_, err = d.Serialise(map[Tag][]byte{
		TransactionDate: {0x01, 0x02, 0x03, 0x04},
	})
	if err == nil {
		t.Fatalf("expected error for over-long value")
	}
}

func TestParseIsDeterministic(t *testing.T) {
	data, err := bcd.ParseBytes("6F 1D 84 07 A0 00 00 00 03 80 02 A5 12 50 08 42 41 52 43 4C 41 59 53 87 01 00 5F 2D 02 65 6E")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	a, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(tlvStructure(a), tlvStructure(b)); diff != "" {
		t.Fatalf("re-parsing the same bytes produced a different tag tree (-first +second):\n%s", diff)
	}
}

func TestRenderElementCountryAlpha(t *testing.T) {
	got := RenderElement(New(0x5F, 0x28), rawValue([]byte{0x08, 0x26}), false)
	if got != "GB" {
		t.Fatalf("RenderElement(country 826) = %q, want GB", got)
	}
}

func TestDictionaryUniqueness(t *testing.T) {
	seenTag := map[Tag]bool{}
	seenAlias := map[string]bool{}
	for _, e := range elementTable {
		if seenTag[e.Tag] {
			t.Fatalf("duplicate tag %s", e.Tag)
		}
		seenTag[e.Tag] = true
		if e.Alias == "" {
			continue
		}
		if seenAlias[e.Alias] {
			t.Fatalf("duplicate alias %s", e.Alias)
		}
		seenAlias[e.Alias] = true
	}
}
