package session

import (
	"log"
	"testing"

	"github.com/malivvan/emvcap/apdu"
	"github.com/malivvan/emvcap/bcd"
	"github.com/malivvan/emvcap/channel"
	"github.com/malivvan/emvcap/tlv"
	"github.com/malivvan/emvcap/transport"
	"github.com/stretchr/testify/assert"
)

type scriptedResponse struct {
	data     []byte
	sw1, sw2 byte
}

type scriptedChannel struct {
	responses []scriptedResponse
	sent      [][]byte
}

func (s *scriptedChannel) Connect() error            { return nil }
func (s *scriptedChannel) Protocol() channel.Protocol { return channel.T0 }
func (s *scriptedChannel) Disconnect() error          { return nil }

func (s *scriptedChannel) Transmit(wire []byte) ([]byte, byte, byte, error) {
	s.sent = append(s.sent, wire)
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r.data, r.sw1, r.sw2, nil
}

func newSession(t *testing.T, responses ...scriptedResponse) *Session {
	t.Helper()
	ch := &scriptedChannel{responses: responses}
	tp, err := transport.New(ch, log.Default())
	assert.NoError(t, err)
	return New(tp)
}

func hex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := bcd.ParseBytes(s)
	assert.NoError(t, err)
	return b
}

func TestGetMF(t *testing.T) {
	s := newSession(t, scriptedResponse{nil, 0x90, 0x00})
	res, err := s.GetMF()
	assert.NoError(t, err)
	assert.Equal(t, apdu.Success, res.Kind)
}

func TestVerifyPINMapsWarningToInvalidPIN(t *testing.T) {
	s := newSession(t, scriptedResponse{nil, 0x63, 0xC2})
	err := s.VerifyPIN("1234")
	assert.Error(t, err)
	var apduErr *apdu.Error
	assert.ErrorAs(t, err, &apduErr)
	assert.Equal(t, apdu.KindInvalidPIN, apduErr.Kind)
}

func TestVerifyPINSuccess(t *testing.T) {
	s := newSession(t, scriptedResponse{nil, 0x90, 0x00})
	assert.NoError(t, s.VerifyPIN("1234"))
}

func TestGetProcessingOptionsRMTF1(t *testing.T) {
	s := newSession(t, scriptedResponse{hex(t, "80 04 1C 00 18 01"), 0x90, 0x00})
	opts, err := s.GetProcessingOptions()
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x1C, 0x00}, opts.AIP)
	assert.Equal(t, []byte{0x18, 0x01}, opts.AFL)
}

func TestGetApplicationDataMergesRecords(t *testing.T) {
	rec1 := hex(t, "70 05 9F 02 02 01 02")
	rec2 := hex(t, "70 05 9F 03 02 03 04")
	s := newSession(t,
		scriptedResponse{rec1, 0x90, 0x00},
		scriptedResponse{rec2, 0x90, 0x00},
	)
	// SFI 1 (afl[0] = 1<<3 = 0x08), records 1 through 2.
	data, err := s.GetApplicationData([]byte{0x08, 0x01, 0x02, 0x00})
	assert.NoError(t, err)
	assert.Equal(t, 2, data.Len())
}

func TestGetApplicationDataRejectsMisalignedAFL(t *testing.T) {
	s := newSession(t)
	_, err := s.GetApplicationData([]byte{0x08, 0x01, 0x02})
	assert.Error(t, err)
}

func TestGetDataItemSoftFailsOnCardError(t *testing.T) {
	s := newSession(t, scriptedResponse{nil, 0x6A, 0x88})
	_, ok := s.GetDataItem(tlv.PINTryCount)
	assert.False(t, ok)
}
