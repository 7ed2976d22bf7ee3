package transport

import (
	"log"
	"testing"

	"github.com/malivvan/emvcap/apdu"
	"github.com/malivvan/emvcap/bcd"
	"github.com/malivvan/emvcap/channel"
	"github.com/stretchr/testify/assert"
)

// scriptedChannel replays a fixed sequence of responses, one per Transmit
// call, and records every command it was sent — mirroring the teacher's
// fake-hardware test doubles.
type scriptedChannel struct {
	responses []scriptedResponse
	sent      [][]byte
	proto     channel.Protocol
}

type scriptedResponse struct {
	data     []byte
	sw1, sw2 byte
}

func (s *scriptedChannel) Connect() error            { return nil }
func (s *scriptedChannel) Protocol() channel.Protocol { return s.proto }
func (s *scriptedChannel) Disconnect() error          { return nil }

func (s *scriptedChannel) Transmit(wire []byte) ([]byte, byte, byte, error) {
	s.sent = append(s.sent, wire)
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r.data, r.sw1, r.sw2, nil
}

func TestExchangeSimpleSuccess(t *testing.T) {
	ch := &scriptedChannel{responses: []scriptedResponse{{nil, 0x90, 0x00}}}
	tr, err := New(ch, log.Default())
	assert.NoError(t, err)

	res, err := tr.Exchange(apdu.Select([]byte("test"), false))
	assert.NoError(t, err)
	assert.Equal(t, apdu.Success, res.Kind)
}

func TestExchangeFollowsGetResponseLoop(t *testing.T) {
	rdata, err := bcd.ParseBytes("6F 1D 84 07 A0 00 00 00 03 80 02 A5 12 50 08 42 41 52 43 4C 41 59 53 87 01 00 5F 2D 02 65 6E")
	assert.NoError(t, err)

	ch := &scriptedChannel{responses: []scriptedResponse{
		{nil, 0x61, 0x1F},
		{rdata, 0x90, 0x00},
	}}
	tr, err := New(ch, log.Default())
	assert.NoError(t, err)

	res, err := tr.Exchange(apdu.Select([]byte{0xA0, 0x00, 0x00, 0x00, 0x03, 0x80, 0x02}, false))
	assert.NoError(t, err)
	assert.Equal(t, apdu.Success, res.Kind)
	assert.Len(t, ch.sent, 2)
	assert.Equal(t, byte(0xC0), ch.sent[1][1])
	assert.Equal(t, byte(0x1F), ch.sent[1][4])
}

func TestExchangeFollowsWrongLeRetry(t *testing.T) {
	ch := &scriptedChannel{responses: []scriptedResponse{
		{nil, 0x6C, 0x1A},
		{[]byte{0x01, 0x02}, 0x90, 0x00},
	}}
	tr, err := New(ch, log.Default())
	assert.NoError(t, err)

	res, err := tr.Exchange(apdu.ReadRecord(1, nil))
	assert.NoError(t, err)
	assert.Equal(t, apdu.Success, res.Kind)
	assert.Len(t, ch.sent, 2)
	assert.Equal(t, byte(0x1A), ch.sent[1][len(ch.sent[1])-1])
}

func TestNewRejectsWrongProtocol(t *testing.T) {
	ch := &scriptedChannel{proto: channel.T1}
	_, err := New(ch, log.Default())
	assert.Error(t, err)
}
