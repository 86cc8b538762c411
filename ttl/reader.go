// Package ttl implements the Terminal Transport Layer: a case-aware
// ISO/IEC 7816-4 APDU engine that drives an APDU-mode or TPDU-mode
// reader, performs GET RESPONSE / Le-retry chaining, and exposes the
// EMV command primitives the transaction orchestrator calls.
package ttl

import "context"

// Mode selects the framing a Reader expects: APDU mode sends a full
// C-APDU and gets a full R-APDU back; TPDU mode drives ISO 7816-3
// character-level T=0 procedure bytes instead, one case/class pairing
// at a time.
type Mode int

const (
	ModeAPDU Mode = iota
	ModeTPDU
)

// Reader is the sole I/O boundary this package depends on: one
// synchronous C-APDU/C-TPDU transceive. Grounded on the teacher's Card
// interface (pkg/ntag424/card.go): Transmit(apdu []byte) ([]byte, error).
// ttl generalizes it with a context for cancellation of the blocking
// transceive and a Mode so the same commands package drives either
// framing.
type Reader interface {
	Mode() Mode
	Transceive(ctx context.Context, capdu []byte) (rapdu []byte, err error)
}
