// Package reader provides the two ttl.Reader implementations the rest
// of this module uses: PCSC, a thin wrapper over github.com/ebfe/scard
// for real card readers, and Script, a canned-transcript test double.
package reader

import (
	"context"
	"fmt"

	"github.com/ebfe/scard"

	"github.com/barnettlynn/emvterm/ttl"
)

// PCSC is a ttl.Reader backed by a PC/SC connection. Grounded on the
// teacher's Connection/Connect/Transmit trio (pkg/ntag424/pcsc.go):
// same EstablishContext -> ListReaders -> Connect -> Transmit shape,
// generalized from a single hardcoded NTAG224 connect path to an
// index-selected reader plus an explicit ttl.Mode (APDU-mode PC/SC
// readers are the default; TPDU-mode synthetic contact readers are rare
// but the interface supports them via the same struct).
type PCSC struct {
	ctx    *scard.Context
	card   *scard.Card
	reader string
	mode   ttl.Mode
}

// Connect establishes a PC/SC context and connects to the reader at
// readerIndex in mode.
func Connect(readerIndex int, mode ttl.Mode) (*PCSC, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("reader: EstablishContext failed: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		ctx.Release()
		return nil, fmt.Errorf("reader: no readers found: %v", err)
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, fmt.Errorf("reader: index out of range (0..%d)", len(readers)-1)
	}

	name := readers[readerIndex]
	card, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("reader: connect failed: %w", err)
	}

	return &PCSC{ctx: ctx, card: card, reader: name, mode: mode}, nil
}

// Close disconnects the card and releases the PC/SC context.
func (p *PCSC) Close() {
	if p == nil {
		return
	}
	if p.card != nil {
		_ = p.card.Disconnect(scard.LeaveCard)
	}
	if p.ctx != nil {
		_ = p.ctx.Release()
	}
}

// Mode reports the framing this reader was configured for.
func (p *PCSC) Mode() ttl.Mode {
	return p.mode
}

// Transceive sends capdu to the card and returns its raw response.
// ctx cancellation is not honored mid-transceive: the underlying PC/SC
// call has no cancellation hook, matching spec.md §5's "suspension
// occurs only inside cardreader.trx" model where the blocking call is
// the one atomic unit of work.
func (p *PCSC) Transceive(ctx context.Context, capdu []byte) ([]byte, error) {
	if p == nil || p.card == nil {
		return nil, fmt.Errorf("reader: connection not established")
	}
	return p.card.Transmit(capdu)
}
