// Package session implements the high-level card-manipulation API: file
// selection, application discovery, application-data assembly, PIN
// verification, and the end-to-end CAP value flow — built on top of the
// transport and apdu packages the way the reference client's Card class is.
package session

import (
	"github.com/malivvan/emvcap/apdu"
	"github.com/malivvan/emvcap/bcd"
	"github.com/malivvan/emvcap/cap"
	"github.com/malivvan/emvcap/tlv"
	"github.com/malivvan/emvcap/transport"
)

// staticAIDs are the well-known application identifiers used to discover
// applications on older cards that don't expose a PSE directory.
var staticAIDs = [][]byte{
	{0xA0, 0x00, 0x00, 0x00, 0x25, 0x01}, // American Express
	{0xA0, 0x00, 0x00, 0x00, 0x03, 0x10, 0x10}, // Visa
	{0xA0, 0x00, 0x00, 0x00, 0x04, 0x10, 0x10}, // Mastercard
}

// Session is a card manipulation session, exclusively owning one transport.
type Session struct {
	tp *transport.Transport
}

// New wraps an already-connected Transport.
func New(tp *transport.Transport) *Session {
	return &Session{tp: tp}
}

// GetMF selects the master file.
func (s *Session) GetMF() (apdu.RAPDU, error) {
	return s.tp.Exchange(apdu.SelectByFID([]byte{0x3F, 0x00}))
}

// GetPSE selects the Payment System Environment directory.
func (s *Session) GetPSE() (apdu.RAPDU, error) {
	return s.tp.Exchange(apdu.Select([]byte("1PAY.SYS.DDF01"), false))
}

// ReadRecord issues READ RECORD.
func (s *Session) ReadRecord(record byte, sfi *byte) (apdu.RAPDU, error) {
	return s.tp.Exchange(apdu.ReadRecord(record, sfi))
}

// SelectApplication selects an application by ADF name, classifying a
// card-level rejection as a missing-application failure.
func (s *Session) SelectApplication(adfName []byte) (apdu.RAPDU, error) {
	res, err := s.tp.Exchange(apdu.Select(adfName, false))
	if err != nil {
		return apdu.RAPDU{}, err
	}
	if res.Kind == apdu.ErrorResp {
		return apdu.RAPDU{}, apdu.NewMissingApplication(res.AsError())
	}
	return res, nil
}

// ListApplications enumerates applications on the card, preferring the SFI
// method (via the PSE directory) and falling back to a static-AID probe for
// older cards that don't expose a PSE.
func (s *Session) ListApplications() ([]*tlv.TLV, error) {
	apps, err := s.listApplicationsSFI()
	if err == nil {
		return apps, nil
	}
	return s.listApplicationsStaticAID()
}

func (s *Session) listApplicationsStaticAID() ([]*tlv.TLV, error) {
	var apps []*tlv.TLV
	for _, aid := range staticAIDs {
		res, err := s.tp.Exchange(apdu.Select(aid, false))
		if err != nil || res.Kind == apdu.ErrorResp {
			continue
		}
		fci, ok := res.Data.GetTLV(tlv.FCI)
		if !ok {
			continue
		}
		df, _ := fci.GetBytes(tlv.DF)
		var label []byte
		if prop, ok := fci.GetTLV(tlv.FCIProp); ok {
			label, _ = prop.GetBytes(tlv.AppLabel)
		}

		app := tlv.NewTLV()
		app.Insert(tlv.ADFName, tlv.RawValue(df))
		app.Insert(tlv.AppLabel, tlv.RawValue(label))
		apps = append(apps, app)
	}
	return apps, nil
}

func (s *Session) listApplicationsSFI() ([]*tlv.TLV, error) {
	pse, err := s.GetPSE()
	if err != nil {
		return nil, err
	}
	if pse.Kind == apdu.ErrorResp {
		return nil, pse.AsError()
	}
	fci, ok := pse.Data.GetTLV(tlv.FCI)
	if !ok {
		return nil, apdu.NewProtocolError("session: PSE response missing FCI template")
	}
	prop, ok := fci.GetTLV(tlv.FCIProp)
	if !ok {
		return nil, apdu.NewProtocolError("session: PSE FCI missing proprietary template")
	}
	sfiBytes, ok := prop.GetBytes(tlv.SFI)
	if !ok || len(sfiBytes) == 0 {
		return nil, apdu.NewProtocolError("session: PSE response missing SFI")
	}
	sfi := sfiBytes[0]

	var apps []*tlv.TLV
	for i := byte(1); i <= 30; i++ {
		res, err := s.ReadRecord(i, &sfi)
		if err != nil {
			return nil, err
		}
		if res.Kind == apdu.ErrorResp {
			break
		}
		record, ok := res.Data.GetTLV(tlv.Record)
		if !ok {
			break
		}
		entries, ok := record.GetMany(tlv.App)
		if !ok {
			continue
		}
		for _, v := range entries {
			if v.Kind == tlv.KindNested {
				apps = append(apps, v.Nested)
			}
		}
	}
	return apps, nil
}

// GetDataItem issues GET DATA for a 2-byte tag, soft-failing to (nil, false)
// on any card error rather than propagating it.
func (s *Session) GetDataItem(tag tlv.Tag) ([]byte, bool) {
	cmd, err := apdu.GetData(tag)
	if err != nil {
		return nil, false
	}
	res, err := s.tp.Exchange(cmd)
	if err != nil || res.Kind == apdu.ErrorResp || res.Data == nil {
		return nil, false
	}
	return res.Data.GetBytes(tag)
}

// Metadata is the best-effort bundle GetMetadata assembles.
type Metadata struct {
	PINTryCount  *byte
	ATC          *uint64
	LastOnlineATC *uint64
}

// GetMetadata fetches PIN try counter, ATC, and last-online ATC, tolerating
// the absence of any individual item.
func (s *Session) GetMetadata() Metadata {
	var m Metadata
	if b, ok := s.GetDataItem(tlv.PINTryCount); ok && len(b) > 0 {
		v := b[0]
		m.PINTryCount = &v
	}
	if b, ok := s.GetDataItem(tlv.ATC); ok {
		v := bcd.DecodeBigEndianUint(b)
		m.ATC = &v
	}
	if b, ok := s.GetDataItem(tlv.LastOnlineATC); ok {
		v := bcd.DecodeBigEndianUint(b)
		m.LastOnlineATC = &v
	}
	return m
}

// ProcessingOptions is the AIP/AFL pair GetProcessingOptions extracts.
type ProcessingOptions struct {
	AIP []byte
	AFL []byte
}

// GetProcessingOptions issues GPO and extracts AIP/AFL, handling both RMTF1
// (concatenated bytes) and RMTF2 (TLV with tags 82/94).
func (s *Session) GetProcessingOptions() (ProcessingOptions, error) {
	res, err := s.tp.Exchange(apdu.GetProcessingOptions(nil))
	if err != nil {
		return ProcessingOptions{}, err
	}
	if res.Kind == apdu.ErrorResp {
		return ProcessingOptions{}, res.AsError()
	}
	if v, ok := res.Data.Get(tlv.RMTF1); ok {
		if len(v.Raw) < 2 {
			return ProcessingOptions{}, apdu.NewProtocolError("session: RMTF1 GPO response too short")
		}
		return ProcessingOptions{AIP: v.Raw[:2], AFL: v.Raw[2:]}, nil
	}
	if t, ok := res.Data.GetTLV(tlv.RMTF2); ok {
		aip, _ := t.GetBytes(tlv.AIP)
		afl, _ := t.GetBytes(tlv.AFL)
		return ProcessingOptions{AIP: aip, AFL: afl}, nil
	}
	return ProcessingOptions{}, apdu.NewProtocolError("session: GPO response has no recognised template")
}

// GetApplicationData reads every record named by an AFL (a multiple of 4
// bytes: (sfi<<3)|flags, first record, last record, offline-auth count per
// group) and merges their record bodies into one accumulating TLV.
func (s *Session) GetApplicationData(afl []byte) (*tlv.TLV, error) {
	if len(afl)%4 != 0 {
		return nil, apdu.NewProtocolError("session: AFL length %d is not a multiple of 4", len(afl))
	}
	data := tlv.NewTLV()
	for i := 0; i < len(afl); i += 4 {
		sfi := afl[i] >> 3
		firstRec, lastRec := afl[i+1], afl[i+2]
		for rec := firstRec; rec <= lastRec; rec++ {
			res, err := s.ReadRecord(rec, &sfi)
			if err != nil {
				return nil, err
			}
			if res.Kind == apdu.ErrorResp {
				return nil, res.AsError()
			}
			record, ok := res.Data.GetTLV(tlv.Record)
			if !ok {
				return nil, apdu.NewProtocolError("session: READ RECORD response missing record template")
			}
			data.Merge(record)
			if rec == 0xFF {
				break
			}
		}
	}
	return data, nil
}

// VerifyPIN verifies a plaintext PIN, reporting an InvalidPIN failure
// (carrying the remaining-tries status string) for a Warning response.
func (s *Session) VerifyPIN(pin string) error {
	cmd, err := apdu.Verify(pin)
	if err != nil {
		return err
	}
	res, err := s.tp.Exchange(cmd)
	if err != nil {
		return err
	}
	if res.Kind == apdu.Warning {
		return apdu.NewInvalidPIN(res.Status())
	}
	if res.Kind == apdu.ErrorResp {
		return res.AsError()
	}
	return nil
}

// GenerateCAPValue performs a full CAP transaction: select the application,
// start it with GPO, fetch the CDOL-bearing application data, verify the
// PIN, and derive the decimal code from the resulting ARQC.
func (s *Session) GenerateCAPValue(pin string, challenge *uint64, value *float64) (uint64, error) {
	apps, err := s.ListApplications()
	if err != nil {
		return 0, err
	}
	if len(apps) == 0 {
		return 0, apdu.NewMissingApplication(nil)
	}

	// The last listed application is selected here, matching the
	// reference client's own (bank-specific, unprincipled) heuristic: if
	// this isn't always correct, selecting by the fixed ADF
	// A0 00 00 00 03 80 02 would be the alternative.
	last := apps[len(apps)-1]
	adfName, ok := last.GetBytes(tlv.ADFName)
	if !ok {
		return 0, apdu.NewProtocolError("session: application entry missing ADF name")
	}
	if _, err := s.SelectApplication(adfName); err != nil {
		return 0, err
	}

	opts, err := s.GetProcessingOptions()
	if err != nil {
		return 0, err
	}

	appData, err := s.GetApplicationData(opts.AFL)
	if err != nil {
		return 0, err
	}

	ipb, ok := appData.GetBytes(tlv.IPB)
	if !ok {
		return 0, apdu.NewProtocolError("session: Issuer Proprietary Bitmap not found in application data")
	}

	if err := s.VerifyPIN(pin); err != nil {
		return 0, err
	}

	req, err := cap.BuildARQCRequest(appData, value, challenge)
	if err != nil {
		return 0, err
	}
	resp, err := s.tp.Exchange(req)
	if err != nil {
		return 0, err
	}
	if resp.Kind == apdu.ErrorResp {
		return 0, resp.AsError()
	}

	var psn []byte
	if iaf, ok := appData.GetBytes(tlv.IAF); ok && len(iaf) > 0 && iaf[0]&0x40 != 0 {
		psn, _ = appData.GetBytes(tlv.PANSN)
	}

	return cap.ComputeCAPValue(resp, ipb, psn)
}
