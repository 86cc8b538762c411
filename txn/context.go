// Package txn implements the EMV transaction orchestrator: the state
// machine that walks a transaction from ATR validation through
// application selection, GPO, record reading, Offline Data
// Authentication and processing restrictions, per spec.md §4.8. It owns
// the shared emv_ctx (Context) and the outcome/error taxonomy every
// other package's errors eventually surface through.
package txn

import (
	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/capk"
	"github.com/barnettlynn/emvterm/cryptoengine"
	"github.com/barnettlynn/emvterm/dol"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/rsaengine"
	"github.com/barnettlynn/emvterm/secutil"
	"github.com/barnettlynn/emvterm/selection"
	"github.com/barnettlynn/emvterm/ttl"
)

const (
	aidTag = emvfield.TagAID
	aipTag = emvfield.TagAIP
)

// ODAMethod identifies which offline data authentication method a
// Context selected, or that none was common to card and terminal.
type ODAMethod int

const (
	ODANone ODAMethod = iota
	ODASDA
	ODADDA
	ODACDA
)

func (m ODAMethod) String() string {
	switch m {
	case ODASDA:
		return "SDA"
	case ODADDA:
		return "DDA"
	case ODACDA:
		return "CDA"
	default:
		return "none"
	}
}

// ODAContext owns the growing record buffer ODA hashes are computed
// over, plus the cached request/response fragments CDA needs to defer
// its SDAD hash check to the GENERATE AC step, per spec.md §3.
type ODAContext struct {
	// RecordBuffer accumulates the bytes read from AFL entries flagged
	// for offline data authentication (template-wrapped for SFI 1..10,
	// template-stripped for SFI 11..30).
	RecordBuffer []byte

	Method ODAMethod
	ICCKey rsaengine.ICCPublicKey

	PDOLData  []byte
	CDOL1Data []byte
	// GenACResponseNoSDAD is the GENERATE AC response with its SDAD (tag
	// 0x9F4B) field excised, cached so CDA can reconstruct the hash input
	// once the SDAD itself has been decrypted.
	GenACResponseNoSDAD []byte
}

// Context is the EMV transaction context (emv_ctx in spec.md §3): the
// four owned TLV lists, weak references into them, the optional selected
// application, the ODA context, and a borrowed TTL handle. It is created
// per transaction and is not safe for concurrent use, the same posture
// as the teacher's Session/Connection types (no internal locking).
type Context struct {
	Config   ber.TLVList
	Params   ber.TLVList
	Terminal ber.TLVList
	ICC      ber.TLVList

	// Candidates holds the sorted result of BuildCandidates, consumed by
	// SelectApplication; entries are removed as the caller works through
	// rejected candidates, per spec.md §4.7 step 5.
	Candidates  []selection.Candidate
	SelectedApp *selection.Candidate
	ODA         ODAContext

	Reader ttl.Reader
	CAPK   capk.Table
	Engine cryptoengine.Engine

	state State

	tvr [5]byte
	tsi [2]byte
}

// NewContext builds a fresh Context bound to r, capkTable and engine.
// config and params are cloned into the new context's owned lists;
// Terminal and ICC start empty.
func NewContext(r ttl.Reader, capkTable capk.Table, engine cryptoengine.Engine, config, params ber.TLVList) *Context {
	return &Context{
		Config: config.Clone(),
		Params: params.Clone(),
		Reader: r,
		CAPK:   capkTable,
		Engine: engine,
		state:  Init,
	}
}

// State returns the context's current position in the transaction state
// machine.
func (c *Context) State() State {
	return c.state
}

// AID returns the weak reference to the currently selected application's
// AID (tag 0x4F), re-found by tag in the ICC list on every call rather
// than cached as a pointer, since the list can grow and reallocate.
func (c *Context) AID() ([]byte, bool) {
	if tlv, ok := c.ICC.FindFirst(aidTag); ok {
		return tlv.Value, true
	}
	return nil, false
}

// AIP returns the weak reference to the Application Interchange Profile
// (tag 0x82), if GPO has populated it.
func (c *Context) AIP() ([]byte, bool) {
	if tlv, ok := c.ICC.FindFirst(aipTag); ok {
		return tlv.Value, true
	}
	return nil, false
}

// dolSources returns the standard params > terminal > config priority
// order spec.md §4.8's GPO step and every other DOL build in this
// package consults.
func (c *Context) dolSources() []dol.Source {
	return []dol.Source{&c.Params, &c.Terminal, &c.Config}
}

// Terminate releases the context: zeroises any recovered key material in
// the ODA context and marks the state machine Terminated. Per spec.md
// §5, the caller cancels a transaction simply by destroying its Context;
// Terminate is the explicit, zeroising version of that for callers that
// want to reuse the struct's memory immediately rather than waiting on
// the garbage collector.
func (c *Context) Terminate() {
	secutil.Zeroise(c.ODA.RecordBuffer)
	secutil.Zeroise(c.ODA.ICCKey.Modulus)
	secutil.Zeroise(c.ODA.ICCKey.Exponent)
	c.state = Terminated
}
