package txn

import (
	"context"
	"testing"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/reader"
	"github.com/barnettlynn/emvterm/selection"
	"github.com/barnettlynn/emvterm/ttl"
)

func fciResponse(dfName []byte, pdol []byte) []byte {
	var inner ber.TLVList
	inner.PushBack(ber.TLV{Tag: emvfield.TagDFName, Value: dfName})
	if pdol != nil {
		inner.PushBack(ber.TLV{Tag: emvfield.TagPDOL, Value: pdol})
	}
	innerBytes := ber.EncodeAll(nil, inner)
	return append([]byte{byte(emvfield.TagFCITemplate), byte(len(innerBytes))}, innerBytes...)
}

func TestBuildCandidatesRejectsWrongState(t *testing.T) {
	c := contextAt(Init)
	if err := c.BuildCandidates(context.Background(), nil, nil); err == nil {
		t.Fatal("want StateError before ATRValidated")
	}
}

func TestBuildCandidatesMergesAndSorts(t *testing.T) {
	aidVisa := []byte{0xA0, 0x00, 0x00, 0x00, 0x03, 0x10, 0x10}
	fci := fciResponse(aidVisa, []byte{0x9F, 0x1A, 0x02})

	script := reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: nil, Resp: []byte{0x6A, 0x82}}, // PSE not found
		{Want: nil, Resp: append(append([]byte(nil), fci...), 0x90, 0x00)},
	})

	c := contextAt(ATRValidated)
	c.Reader = script

	err := c.BuildCandidates(context.Background(), selection.PSEName, []selection.TerminalAID{{AID: aidVisa}})
	if err != nil {
		t.Fatalf("BuildCandidates: %v", err)
	}
	if len(c.Candidates) != 1 {
		t.Fatalf("len(Candidates) = %d, want 1", len(c.Candidates))
	}
	if c.State() != CandidatesBuilt {
		t.Fatalf("state = %v, want CandidatesBuilt", c.State())
	}
}

func TestSelectApplicationRejectsWrongState(t *testing.T) {
	c := contextAt(ATRValidated)
	if err := c.SelectApplication(context.Background(), 0); err == nil {
		t.Fatal("want StateError before CandidatesBuilt")
	}
}

func TestSelectApplicationIndexOutOfRange(t *testing.T) {
	c := contextAt(CandidatesBuilt)
	if err := c.SelectApplication(context.Background(), 0); err != errCandidateIndex {
		t.Fatalf("err = %v, want errCandidateIndex", err)
	}
}

func TestSelectApplicationSuccess(t *testing.T) {
	aid := []byte{0xA0, 0x00, 0x00, 0x00, 0x03, 0x10, 0x10}
	pdol := []byte{0x9F, 0x1A, 0x02}
	fci := fciResponse(aid, pdol)

	script := reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: nil, Resp: append(append([]byte(nil), fci...), 0x90, 0x00)},
	})

	c := contextAt(CandidatesBuilt)
	c.Reader = script
	c.Candidates = []selection.Candidate{{AID: aid, DFName: aid, Priority: 1}}

	if err := c.SelectApplication(context.Background(), 0); err != nil {
		t.Fatalf("SelectApplication: %v", err)
	}
	if c.State() != AppSelected {
		t.Fatalf("state = %v, want AppSelected", c.State())
	}
	gotAID, ok := c.AID()
	if !ok || string(gotAID) != string(aid) {
		t.Fatalf("AID() = %x, %v", gotAID, ok)
	}
	pdolTLV, ok := c.ICC.FindFirst(emvfield.TagPDOL)
	if !ok || string(pdolTLV.Value) != string(pdol) {
		t.Fatalf("PDOL not pushed correctly: %v, %x", ok, pdolTLV.Value)
	}
	if c.SelectedApp == nil {
		t.Fatal("SelectedApp not set")
	}
}

func TestSelectApplicationRejectedTriesAgain(t *testing.T) {
	aid1 := []byte{0xA0, 0x00, 0x00, 0x00, 0x03, 0x10, 0x10}
	aid2 := []byte{0xA0, 0x00, 0x00, 0x00, 0x04, 0x10, 0x10}

	script := reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: nil, Resp: []byte{0x6A, 0x82}},
	})

	c := contextAt(CandidatesBuilt)
	c.Reader = script
	c.Candidates = []selection.Candidate{{AID: aid1, DFName: aid1}, {AID: aid2, DFName: aid2}}

	err := c.SelectApplication(context.Background(), 0)
	oe, ok := err.(*OutcomeError)
	if !ok || oe.Outcome != OutcomeTryAgain {
		t.Fatalf("err = %v, want OutcomeTryAgain", err)
	}
	if len(c.Candidates) != 1 {
		t.Fatalf("len(Candidates) = %d, want 1", len(c.Candidates))
	}
	if c.State() != CandidatesBuilt {
		t.Fatalf("state = %v, want CandidatesBuilt still", c.State())
	}
}

func TestSelectApplicationRejectedLastCandidateNotAccepted(t *testing.T) {
	aid1 := []byte{0xA0, 0x00, 0x00, 0x00, 0x03, 0x10, 0x10}

	script := reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: nil, Resp: []byte{0x6A, 0x82}},
	})

	c := contextAt(CandidatesBuilt)
	c.Reader = script
	c.Candidates = []selection.Candidate{{AID: aid1, DFName: aid1}}

	err := c.SelectApplication(context.Background(), 0)
	oe, ok := err.(*OutcomeError)
	if !ok || oe.Outcome != OutcomeNotAccepted {
		t.Fatalf("err = %v, want OutcomeNotAccepted", err)
	}
	if len(c.Candidates) != 0 {
		t.Fatalf("len(Candidates) = %d, want 0", len(c.Candidates))
	}
}
