package tlv

// b1Fields and b2Fields name the Application Usage Control bit flags, EMV
// 4.3 Book 3 Annex C6, most-significant bit first within each byte.
var b1Fields = [8]string{
	"Valid for domestic cash transactions",
	"Valid for international cash transactions",
	"Valid for domestic goods",
	"Valid for international goods",
	"Valid for domestic services",
	"Valid for international services",
	"Valid at ATMs",
	"Valid at terminals other than ATMs",
}

var b2Fields = [2]string{
	"Domestic cashback allowed",
	"International cashback allowed",
}

// AUC is the Application Usage Control (tag 9F07): two bytes of bit flags
// naming the transaction categories the application may be used for.
type AUC []byte

// ParseAUC decodes an AUC's wire bytes. Anything other than exactly 2 bytes
// yields an empty AUC, following the reference implementation.
func ParseAUC(data []byte) AUC {
	if len(data) != 2 {
		return nil
	}
	return AUC(append([]byte(nil), data...))
}

// Uses returns the human-readable list of usage categories this AUC
// allows.
func (a AUC) Uses() []string {
	if len(a) != 2 {
		return nil
	}
	var out []string
	for i, name := range b1Fields {
		if a[0]&(0x80>>uint(i)) != 0 {
			out = append(out, name)
		}
	}
	for i, name := range b2Fields {
		if a[1]&(0x80>>uint(i)) != 0 {
			out = append(out, name)
		}
	}
	return out
}
