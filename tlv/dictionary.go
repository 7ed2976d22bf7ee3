package tlv

// ParseKind names how a tag's raw bytes are interpreted. The "structural"
// kinds (DOL, TagList, ASRPD, CVMList, AUC) change how the TLV parser
// recurses into the value (§4.2); the rest only affect rendering.
type ParseKind int

const (
	Bytes ParseKind = iota
	ASCII
	DOL
	Dec
	Date
	Int
	Country
	Currency
	TagListKind
	Asrpd
	CVMListKind
	AUCKind
)

type dictEntry struct {
	Tag   Tag
	Name  string
	Kind  ParseKind
	Alias string
}

// elementTable is the static EMV data dictionary: one entry per known tag,
// in EMV 4.3 Book 3 Annex A order. It is consulted by Tag.Name/ParseKind,
// and its Alias column seeds the package-level shortname variables below —
// mirroring the EMV spec's habit of referring to fields by mnemonic
// (ADF_NAME, AIP, AFL, ...) rather than by raw tag.
var elementTable = []dictEntry{
	{New(0x42), "Issuer Identification Number", Bytes, ""},
	{New(0x4F), "Application DF Name", Bytes, "ADFName"},
	{New(0x50), "Application Label", ASCII, "AppLabel"},
	{New(0x57), "Track 2 Equivalent Data", Bytes, ""},
	{New(0x5A), "Application PAN", Dec, "PAN"},
	{New(0x5F, 0x20), "Cardholder Name", ASCII, ""},
	{New(0x5F, 0x24), "Application Expiration Date", Date, ""},
	{New(0x5F, 0x25), "Application Effective Date", Date, ""},
	{New(0x5F, 0x28), "Issuer Country Code", Country, ""},
	{New(0x5F, 0x2A), "Transaction Currency Code", Currency, ""},
	{New(0x5F, 0x2D), "Language Preference", ASCII, ""},
	{New(0x5F, 0x34), "Application PAN Sequence Number", Int, "PANSN"},
	{New(0x5F, 0x50), "Issuer URL", ASCII, ""},
	{New(0x5F, 0x53), "International Bank Account Number", Bytes, ""},
	{New(0x5F, 0x54), "Bank Identifier Code", Bytes, ""},
	{New(0x61), "Application Template", Bytes, "App"},
	{New(0x6F), "File Control Information Template", Bytes, "FCI"},
	{New(0x70), "READ RECORD Response Template", Bytes, "Record"},
	{New(0x77), "Response Message Template Format 2", Bytes, "RMTF2"},
	{New(0x80), "Response Message Template Format 1", Bytes, "RMTF1"},
	{New(0x82), "Application Interchange Profile", Bytes, "AIP"},
	{New(0x84), "Dedicated File Name", Bytes, "DF"},
	{New(0x88), "Short File Identifier", Bytes, "SFI"},
	{New(0x8C), "Card Risk Management Data Object List 1", DOL, "CDOL1"},
	{New(0x8D), "Card Risk Management Data Object List 2", DOL, "CDOL2"},
	{New(0x8E), "Cardholder Verification Method List", CVMListKind, "CVMList"},
	{New(0x90), "Issuer Public Key Certificate", Bytes, ""},
	{New(0x94), "Application File Locator", Bytes, "AFL"},
	{New(0x95), "Terminal Verification Results", Bytes, "TVR"},
	{New(0x97), "Transaction Certificate Data Object List", DOL, "TDOL"},
	{New(0x9A), "Transaction Date", Date, "TransactionDate"},
	{New(0x9D), "Directory Definition File Name", Bytes, ""},
	{New(0xA5), "FCI Proprietary Template", Bytes, "FCIProp"},
	{New(0xC8), "Card Risk Management Country Code", Country, ""},
	{New(0xC9), "Card Risk Management Currency Code", Currency, ""},
	{New(0x9F, 0x02), "Amount, Authorised", Dec, "AmountAuthorised"},
	{New(0x9F, 0x07), "Application Usage Control", AUCKind, ""},
	{New(0x9F, 0x0A), "Application Selection Registered Proprietary Data", Asrpd, ""},
	{New(0x9F, 0x10), "Issuer Application Data", Bytes, "IssuerApplicationData"},
	{New(0x9F, 0x13), "Last Online Application Transaction Counter", Int, "LastOnlineATC"},
	{New(0x9F, 0x17), "PIN Try Counter", Int, "PINTryCount"},
	{New(0x9F, 0x1A), "Terminal Country Code", Country, ""},
	{New(0x9F, 0x26), "Application Cryptogram", Bytes, "ApplicationCryptogram"},
	{New(0x9F, 0x27), "Cryptogram Information Data", Bytes, "CryptogramInfoData"},
	{New(0x9F, 0x36), "Application Transaction Counter", Int, "ATC"},
	{New(0x9F, 0x37), "Unpredictable Number", Bytes, "UnpredictableNumber"},
	{New(0x9F, 0x38), "Processing Options Data Object List", DOL, "PDOL"},
	{New(0x9F, 0x4F), "Log Format", TagListKind, ""},
	{New(0x9F, 0x55), "Issuer Authentication Flags", Bytes, "IAF"},
	{New(0x9F, 0x56), "Issuer Proprietary Bitmap", Bytes, "IPB"},
	{New(0x9F, 0x5C), "Cumulative Total Transaction Amount Upper Limit", Int, ""},
	{New(0x9F, 0x5D), "Available Offline Spending Amount", Int, ""},
	{New(0x9F, 0x5E), "Cumulative Total Transaction Amount Including Fees Upper Limit", Int, ""},
	{New(0xBF, 0x0C), "FCI Issuer Discretionary Data", Bytes, ""},
}

// sensitiveTags marks tags that must be redacted from any human-facing
// rendering: PAN, track data, and discretionary track-equivalent data.
var sensitiveTags = map[Tag]bool{
	New(0x5A):             true,
	New(0x9F, 0x1F):       true,
	New(0x57):             true,
	New(0x56):             true,
	New(0x9F, 0x6B):       true,
}

var dictionary = map[Tag]dictEntry{}

// Shortname aliases, resolved once from elementTable so the table remains
// the single source of truth.
var (
	ADFName                Tag
	AppLabel               Tag
	PAN                    Tag
	PANSN                  Tag
	App                    Tag
	FCI                    Tag
	Record                 Tag
	RMTF2                  Tag
	RMTF1                  Tag
	AIP                    Tag
	DF                     Tag
	SFI                    Tag
	CDOL1                  Tag
	CDOL2                  Tag
	CVMList                Tag
	AFL                    Tag
	TVR                    Tag
	TDOL                   Tag
	TransactionDate        Tag
	FCIProp                Tag
	AmountAuthorised       Tag
	IssuerApplicationData  Tag
	LastOnlineATC          Tag
	PINTryCount            Tag
	ApplicationCryptogram  Tag
	CryptogramInfoData     Tag
	ATC                    Tag
	UnpredictableNumber    Tag
	PDOL                   Tag
	IAF                    Tag
	IPB                    Tag
)

func init() {
	aliases := map[string]*Tag{
		"ADFName":               &ADFName,
		"AppLabel":              &AppLabel,
		"PAN":                   &PAN,
		"PANSN":                 &PANSN,
		"App":                   &App,
		"FCI":                   &FCI,
		"Record":                &Record,
		"RMTF2":                 &RMTF2,
		"RMTF1":                 &RMTF1,
		"AIP":                   &AIP,
		"DF":                    &DF,
		"SFI":                   &SFI,
		"CDOL1":                 &CDOL1,
		"CDOL2":                 &CDOL2,
		"CVMList":               &CVMList,
		"AFL":                   &AFL,
		"TVR":                   &TVR,
		"TDOL":                  &TDOL,
		"TransactionDate":       &TransactionDate,
		"FCIProp":               &FCIProp,
		"AmountAuthorised":      &AmountAuthorised,
		"IssuerApplicationData": &IssuerApplicationData,
		"LastOnlineATC":         &LastOnlineATC,
		"PINTryCount":           &PINTryCount,
		"ApplicationCryptogram": &ApplicationCryptogram,
		"CryptogramInfoData":    &CryptogramInfoData,
		"ATC":                   &ATC,
		"UnpredictableNumber":   &UnpredictableNumber,
		"PDOL":                  &PDOL,
		"IAF":                   &IAF,
		"IPB":                   &IPB,
	}

	seenTag := map[Tag]bool{}
	seenAlias := map[string]bool{}
	for _, e := range elementTable {
		if seenTag[e.Tag] {
			panic("tlv: duplicate tag in data dictionary: " + e.Tag.String())
		}
		seenTag[e.Tag] = true
		dictionary[e.Tag] = e

		if e.Alias == "" {
			continue
		}
		if seenAlias[e.Alias] {
			panic("tlv: duplicate alias in data dictionary: " + e.Alias)
		}
		seenAlias[e.Alias] = true
		if slot, ok := aliases[e.Alias]; ok {
			*slot = e.Tag
		}
	}
}
