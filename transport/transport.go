// Package transport implements the T=0 exchange protocol (EMV 4.3 Book 1
// §9): send a command, transparently retry on 6C (wrong Le) and loop on
// 61 (more data available) via GET RESPONSE, then hand the accumulated
// bytes to the apdu package for classification.
package transport

import (
	"log"

	"github.com/malivvan/emvcap/apdu"
	"github.com/malivvan/emvcap/bcd"
	"github.com/malivvan/emvcap/channel"
)

// Transport drives a single Channel through the T=0 retry dance.
type Transport struct {
	ch  channel.Channel
	log *log.Logger
}

// New wires a Transport to an already-constructed Channel and connects it,
// verifying the negotiated protocol is T0.
func New(ch channel.Channel, logger *log.Logger) (*Transport, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := ch.Connect(); err != nil {
		return nil, apdu.NewTransportError(err)
	}
	if ch.Protocol() != channel.T0 {
		return nil, apdu.NewProtocolError("transport: channel negotiated protocol %v, want T0", ch.Protocol())
	}
	return &Transport{ch: ch, log: logger}, nil
}

func (t *Transport) transmit(wire []byte) ([]byte, byte, byte, error) {
	t.log.Printf("tx: %s", bcd.FormatBytes(wire))
	data, sw1, sw2, err := t.ch.Transmit(wire)
	if err != nil {
		return nil, 0, 0, apdu.NewTransportError(err)
	}
	t.log.Printf("rx: %s, sw1: %02x, sw2: %02x", bcd.FormatBytes(data), sw1, sw2)
	return data, sw1, sw2, nil
}

// Exchange sends a CAPDU and returns the classified RAPDU, transparently
// handling the 6C "wrong Le" single retry and the 61 "more data"
// GET RESPONSE loop.
func (t *Transport) Exchange(c apdu.CAPDU) (apdu.RAPDU, error) {
	wire := c.Marshal()
	data, sw1, sw2, err := t.transmit(wire)
	if err != nil {
		return apdu.RAPDU{}, err
	}

	if sw1 == 0x6C {
		// The ICC is telling us the exact Le it wants; retry exactly once
		// with the corrected length, per the command's own wire layout
		// (last byte is Le).
		retry := append([]byte(nil), wire...)
		retry[len(retry)-1] = sw2
		data, sw1, sw2, err = t.transmit(retry)
		if err != nil {
			return apdu.RAPDU{}, err
		}
	}

	for sw1 == 0x61 {
		more, nsw1, nsw2, err := t.transmit([]byte{0x00, 0xC0, 0x00, 0x00, sw2})
		if err != nil {
			return apdu.RAPDU{}, err
		}
		data = append(data, more...)
		sw1, sw2 = nsw1, nsw2
	}

	return apdu.Unmarshal(data, sw1, sw2)
}
