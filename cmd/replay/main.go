// Command replay drives a full generate_cap_value transaction against a
// scripted, pre-recorded channel instead of a physical reader — useful for
// exercising the session/transport/cap stack end to end without hardware.
//
// The recorded exchange is a real Barclays card trace (the same fixture
// data the cap package's own tests check against), reached here via a
// static-AID application-discovery fallback rather than a PSE directory, to
// demonstrate that code path too.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/malivvan/emvcap/apdu"
	"github.com/malivvan/emvcap/bcd"
	"github.com/malivvan/emvcap/channel"
	"github.com/malivvan/emvcap/fixtures"
	"github.com/malivvan/emvcap/session"
	"github.com/malivvan/emvcap/transport"
)

type recordedResponse struct {
	data     []byte
	sw1, sw2 byte
}

// replayChannel hands back one recorded response per Transmit call, in
// order, ignoring the command sent. It never touches real hardware.
type replayChannel struct {
	responses []recordedResponse
}

func (r *replayChannel) Connect() error            { return nil }
func (r *replayChannel) Protocol() channel.Protocol { return channel.T0 }
func (r *replayChannel) Disconnect() error          { return nil }

func (r *replayChannel) Transmit(wire []byte) ([]byte, byte, byte, error) {
	if len(r.responses) == 0 {
		return nil, 0, 0, fmt.Errorf("replay: no more recorded responses (sent %s)", bcd.FormatBytes(wire))
	}
	res := r.responses[0]
	r.responses = r.responses[1:]
	return res.data, res.sw1, res.sw2, nil
}

func hex(s string) []byte {
	b, err := bcd.ParseBytes(s)
	if err != nil {
		panic(err)
	}
	return b
}

var fciTemplate = hex("6F 1D 84 07 A0 00 00 00 03 80 02 A5 12 50 08 42 41 52 43 4C 41 59 53 87 01 00 5F 2D 02 65 6E")

var gpoResponse = hex("77 0A 82 02 1C 00 94 04 08 01 01 00")

func scriptedResponses() []recordedResponse {
	return []recordedResponse{
		{nil, 0x6A, 0x82},              // SELECT 1PAY.SYS.DDF01: not found, no PSE on this card
		{nil, 0x6A, 0x82},              // SELECT Amex AID: not found
		{nil, 0x6A, 0x82},              // SELECT Visa AID: not found
		{fciTemplate, 0x90, 0x00},      // SELECT Mastercard AID: found
		{fciTemplate, 0x90, 0x00},      // select_application(adfName)
		{gpoResponse, 0x90, 0x00},      // GET PROCESSING OPTIONS
		{fixtures.AppData, 0x90, 0x00}, // READ RECORD 1, SFI 1
		{nil, 0x90, 0x00},              // VERIFY PIN
		{fixtures.GACResponseRMTF2, 0x90, 0x00}, // GENERATE APPLICATION CRYPTOGRAM
	}
}

func main() {
	ch := &replayChannel{responses: scriptedResponses()}
	tp, err := transport.New(ch, log.New(os.Stderr, "replay: ", 0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	s := session.New(tp)

	code, err := s.GenerateCAPValue("1234", nil, nil)
	if err != nil {
		var apduErr *apdu.Error
		if e, ok := err.(*apdu.Error); ok {
			apduErr = e
		}
		fmt.Fprintf(os.Stderr, "generate_cap_value failed (%v): %v\n", apduErr, err)
		os.Exit(1)
	}
	fmt.Printf("CAP value: %08d\n", code)
}
