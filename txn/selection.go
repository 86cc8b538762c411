package txn

import (
	"context"
	"errors"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/selection"
	"github.com/barnettlynn/emvterm/ttl"
)

var (
	errCandidateIndex       = errors.New("txn: candidate index out of range")
	errSelectFCIMissingName = errors.New("txn: SELECT response FCI missing DF name (tag 0x84)")
)

// BuildCandidates discovers candidate applications and advances the
// context from ATRValidated to CandidatesBuilt, per spec.md §4.7 steps
// 1-4: PSE/PPSE directory traversal (dfName, typically
// selection.PSEName or selection.PPSEName; nil skips this step since
// not finding PSE/PPSE is not itself fatal) merged with independent
// terminal-AID discovery (terminalAIDs), then sorted by priority.
func (c *Context) BuildCandidates(ctx context.Context, dfName []byte, terminalAIDs []selection.TerminalAID) error {
	if err := mustBeIn("BuildCandidates", c.state, ATRValidated); err != nil {
		return err
	}

	var cands []selection.Candidate
	if len(dfName) > 0 {
		pseCands, err := selection.DiscoverPSE(ctx, c.Reader, dfName)
		if err != nil && !errors.Is(err, selection.ErrNoPSE) {
			return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
		}
		cands = append(cands, pseCands...)
	}

	aidCands, err := selection.DiscoverByTerminalAIDs(ctx, c.Reader, terminalAIDs)
	if err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}
	cands = append(cands, aidCands...)

	selection.SortCandidates(cands)
	c.Candidates = cands
	c.state = CandidatesBuilt
	return nil
}

// SelectApplication issues SELECT by DF name for c.Candidates[index] and,
// on an accepted status word, parses the FCI for the confirmed DF name
// and PDOL, pushes them into the ICC list, and advances to AppSelected,
// per spec.md §4.7 step 5. On a non-accept status word the candidate is
// removed from c.Candidates; the state stays CandidatesBuilt so the
// caller can retry with a different index, and the returned
// *OutcomeError carries OutcomeTryAgain if candidates remain or
// OutcomeNotAccepted if none do.
func (c *Context) SelectApplication(ctx context.Context, index int) error {
	if err := mustBeIn("SelectApplication", c.state, CandidatesBuilt); err != nil {
		return err
	}
	if index < 0 || index >= len(c.Candidates) {
		return errCandidateIndex
	}
	cand := c.Candidates[index]

	name := cand.DFName
	if len(name) == 0 {
		name = cand.AID
	}
	fci, sw, err := ttl.SelectByName(ctx, c.Reader, name, ttl.SelectFirst)
	if err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}
	if sw != ttl.SW9000 {
		c.Candidates = append(c.Candidates[:index], c.Candidates[index+1:]...)
		if len(c.Candidates) > 0 {
			return &OutcomeError{Outcome: OutcomeTryAgain, Cause: &ttl.SWError{Cmd: 0xA4, SW: sw}}
		}
		return &OutcomeError{Outcome: OutcomeNotAccepted, Cause: &ttl.SWError{Cmd: 0xA4, SW: sw}}
	}

	list, err := ber.ParseAll(fci)
	if err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}
	dfTLV, ok := list.FindFirst(emvfield.TagDFName)
	if !ok {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: errSelectFCIMissingName}
	}
	c.ICC.PushBack(ber.TLV{Tag: emvfield.TagAID, Value: append([]byte(nil), dfTLV.Value...)})
	if pdol, ok := list.FindFirst(emvfield.TagPDOL); ok {
		c.ICC.PushBack(ber.TLV{Tag: emvfield.TagPDOL, Value: append([]byte(nil), pdol.Value...)})
	}
	if label, ok := list.FindFirst(emvfield.TagApplicationTemplate2); ok {
		cand.Label = string(label.Value)
	}

	selected := cand
	c.SelectedApp = &selected
	c.state = AppSelected
	return nil
}
