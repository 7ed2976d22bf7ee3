package tlv

import "fmt"

// entry is one (Tag, Value) pair. TLV keeps entries in an ordered slice
// rather than a native Go map because the original insertion order is
// load-bearing: CAP's IPB bit-selection (§4.8) flattens a TLV's values in
// their original encounter order, and a Go map provides no iteration-order
// guarantee at all.
type entry struct {
	Tag   Tag
	Value Value
}

// TLV is an insertion-ordered mapping from Tag to Value, with duplicate
// tags at one nesting level promoted to an ordered Value.Many list.
type TLV struct {
	entries []entry
	index   map[Tag]int
}

// NewTLV returns an empty TLV, ready for Insert.
func NewTLV() *TLV {
	return &TLV{index: map[Tag]int{}}
}

// Insert adds tag -> value, preserving order. If tag is already present,
// the existing value (or list) is promoted/extended into a Value.Many list,
// per §4.2 step 5.
func (t *TLV) Insert(tag Tag, value Value) {
	if i, ok := t.index[tag]; ok {
		existing := t.entries[i].Value
		if existing.Kind == KindMany {
			existing.Many = append(existing.Many, value)
		} else {
			existing = Value{Kind: KindMany, Many: []Value{existing, value}}
		}
		t.entries[i].Value = existing
		return
	}
	t.index[tag] = len(t.entries)
	t.entries = append(t.entries, entry{Tag: tag, Value: value})
}

// Merge inserts every entry of other into t, in other's order, applying the
// same promotion-to-list rule as Insert. Used to accumulate application
// data across several READ RECORD responses (§4.7 get_application_data).
func (t *TLV) Merge(other *TLV) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		t.Insert(e.Tag, e.Value)
	}
}

// Len reports the number of distinct top-level tags.
func (t *TLV) Len() int { return len(t.entries) }

// Entries returns the top-level (Tag, Value) pairs in insertion order.
func (t *TLV) Entries() []struct {
	Tag   Tag
	Value Value
} {
	out := make([]struct {
		Tag   Tag
		Value Value
	}, len(t.entries))
	for i, e := range t.entries {
		out[i] = struct {
			Tag   Tag
			Value Value
		}{e.Tag, e.Value}
	}
	return out
}

// Has reports whether tag is present at this level.
func (t *TLV) Has(tag Tag) bool {
	_, ok := t.index[tag]
	return ok
}

// Get returns the value stored under tag, if any.
func (t *TLV) Get(tag Tag) (Value, bool) {
	i, ok := t.index[tag]
	if !ok {
		return Value{}, false
	}
	return t.entries[i].Value, true
}

// GetBytes returns the raw bytes under tag. For a tag promoted to a Many
// list it looks only at the first element; the value it looks at must be
// Raw-kinded.
func (t *TLV) GetBytes(tag Tag) ([]byte, bool) {
	v, ok := t.Get(tag)
	if !ok {
		return nil, false
	}
	if v.Kind == KindMany && len(v.Many) > 0 {
		v = v.Many[0]
	}
	if v.Kind != KindRaw {
		return nil, false
	}
	return v.Raw, true
}

// GetTLV returns the nested TLV stored under tag.
func (t *TLV) GetTLV(tag Tag) (*TLV, bool) {
	v, ok := t.Get(tag)
	if !ok {
		return nil, false
	}
	if v.Kind == KindMany && len(v.Many) > 0 {
		v = v.Many[0]
	}
	if v.Kind != KindNested {
		return nil, false
	}
	return v.Nested, true
}

// GetMany returns every value stored under tag, expanding a Many
// promotion, or a one-element slice if the tag was seen only once.
func (t *TLV) GetMany(tag Tag) ([]Value, bool) {
	v, ok := t.Get(tag)
	if !ok {
		return nil, false
	}
	if v.Kind == KindMany {
		return v.Many, true
	}
	return []Value{v}, true
}

// Flatten concatenates the byte representation of every top-level value, in
// insertion order. This is the "flatten all values of the inner data" step
// of CAP's compute_cap_value (§4.8).
func (t *TLV) Flatten() []byte {
	var out []byte
	for _, e := range t.entries {
		out = append(out, e.Value.Flatten()...)
	}
	return out
}

// Parse decodes data as a BER-TLV stream, per §4.2.
//
// A quirk in real card responses: some cards return a bare "61 xx" as
// response data with nothing else, which is shorter than the minimum
// 3-byte tag+length+value a single TLV entry needs. Rather than treat that
// as a parse error, Parse returns the raw bytes untouched via a
// single-entry escape hatch the caller can detect with RawPassthrough.
func Parse(data []byte) (*TLV, error) {
	if len(data) < 3 {
		t := NewTLV()
		t.entries = append(t.entries, entry{Tag: rawPassthroughTag, Value: rawValue(data)})
		t.index[rawPassthroughTag] = 0
		return t, nil
	}
	return parseEntries(data), nil
}

// rawPassthroughTag is an internal marker tag (not a valid wire tag, since
// wire tags are never empty) used only for the short-input passthrough
// case. RawPassthrough extracts the bytes it wraps, if any.
const rawPassthroughTag = Tag("")

// RawPassthrough reports whether t is the short-input passthrough form
// produced by Parse, returning the original bytes if so.
func RawPassthrough(t *TLV) ([]byte, bool) {
	if t.Len() != 1 {
		return nil, false
	}
	if t.entries[0].Tag != rawPassthroughTag {
		return nil, false
	}
	return t.entries[0].Value.Raw, true
}

// parseEntries runs the main TLV loop, tolerating truncation by returning
// whatever was parsed so far instead of failing.
func parseEntries(data []byte) *TLV {
	t := NewTLV()
	i := 0
	for i < len(data) {
		tag, tn, err := ReadTag(data[i:])
		if err != nil {
			break // truncated mid-tag: return what we have (§4.2 step 1)
		}
		i += tn
		if i >= len(data) {
			break // truncated: no length byte available
		}
		length, ln, err := ReadLength(data[i:])
		if err != nil {
			break
		}
		i += ln
		if i+length > len(data) {
			length = len(data) - i // truncated value: take what remains
		}
		value := data[i : i+length]
		i += length

		t.Insert(tag, decodeValue(tag, value))
	}
	return t
}

// decodeValue builds the appropriately-shaped Value for one (tag, value)
// pair: constructed tags recurse as nested TLV; otherwise the tag's
// dictionary parse kind selects a structural sub-decoder; anything else
// stays raw bytes.
func decodeValue(tag Tag, value []byte) Value {
	if tag.IsConstructed() {
		return Value{Kind: KindNested, Raw: value, Nested: parseEntries(value)}
	}
	switch tag.ParseKind() {
	case DOL:
		return Value{Kind: KindDOL, Raw: value, DOL: ParseDOL(value)}
	case TagListKind:
		return Value{Kind: KindTagList, Raw: value, TagList: ParseTagList(value)}
	case Asrpd:
		return Value{Kind: KindASRPD, Raw: value, ASRPD: ParseASRPD(value)}
	case CVMListKind:
		return Value{Kind: KindCVMList, Raw: value, CVM: ParseCVMList(value)}
	case AUCKind:
		return Value{Kind: KindAUC, Raw: value, AUC: ParseAUC(value)}
	default:
		return rawValue(value)
	}
}

// RenderElement renders a single (tag, value) pair for display, dispatching
// on the tag's parse kind (§4.2 "Rendering"). If redact is true and the tag
// is marked sensitive, it returns "[REDACTED]" regardless of kind.
func RenderElement(tag Tag, value Value, redact bool) string {
	if redact && tag.Sensitive() {
		return "[REDACTED]"
	}
	raw := value.Raw
	switch tag.ParseKind() {
	case ASCII:
		return fmt.Sprintf("%q", string(raw))
	case Dec, Int:
		return fmt.Sprintf("%d", decodeDisplayInt(tag.ParseKind(), raw))
	case Date:
		if len(raw) == 3 {
			return fmt.Sprintf("%02x/%02x/%02x", raw[0], raw[1], raw[2])
		}
	case Country:
		n := decodeDisplayInt(tag.ParseKind(), raw)
		if alpha := countryAlpha(n); alpha != "" {
			return alpha
		}
		return fmt.Sprintf("%03d", n)
	case Currency:
		return fmt.Sprintf("%03d", decodeDisplayInt(tag.ParseKind(), raw))
	}
	switch value.Kind {
	case KindNested:
		return fmt.Sprintf("<nested TLV, %d entries>", value.Nested.Len())
	case KindDOL:
		return fmt.Sprintf("<DOL, %d tags>", len(value.DOL.entries))
	case KindTagList:
		return fmt.Sprintf("<TagList, %d tags>", len(value.TagList))
	case KindCVMList:
		return fmt.Sprintf("<CVMList, %d rules>", len(value.CVM.Rules))
	case KindAUC:
		return fmt.Sprintf("%v", value.AUC.Uses())
	case KindASRPD:
		return fmt.Sprintf("<ASRPD, %d entries>", len(value.ASRPD))
	}
	return formatHex(raw)
}
