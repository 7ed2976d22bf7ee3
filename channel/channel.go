// Package channel defines the abstract card-channel interface the protocol
// core consumes. The concrete reader driver — PC/SC, a USB CCID stack, a
// test replay fixture — is an external collaborator and explicitly out of
// scope for this module (see SPEC_FULL.md §1); this package only names the
// contract such a driver must satisfy.
package channel

// Protocol names the physical transport protocol a channel negotiates.
// Only T0 is supported by this stack (§4.6).
type Protocol int

const (
	T0 Protocol = iota
	T1
)

// Channel is a synchronous card transport: connect once, then exchange one
// command for one response at a time. Implementations are not required to
// be safe for concurrent use — the protocol is inherently sequential
// (§5) and a Channel is owned by exactly one Transport at a time.
type Channel interface {
	// Connect establishes the link to the card, if not already connected.
	// It is idempotent.
	Connect() error

	// Protocol reports the negotiated transport protocol. The transport
	// layer requires this to be T0.
	Protocol() Protocol

	// Transmit sends a raw command APDU and returns the response data
	// (excluding the trailing two status bytes) plus sw1/sw2.
	Transmit(capdu []byte) (data []byte, sw1 byte, sw2 byte, err error)

	// Disconnect releases the link. Calling Transmit after Disconnect is
	// an error.
	Disconnect() error
}

// Enumerator lists the card readers a driver knows about, by index — the
// "reader-selection metadata" named in §1.
type Enumerator interface {
	// Readers returns the human-readable names of available readers, in
	// the stable index order the --reader/-r flag addresses them by.
	Readers() ([]string, error)
}
