package txn

import (
	"context"
	"errors"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/dol"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/ttl"
)

var errGPOResponseMalformed = errors.New("txn: GPO response template malformed")

// PerformGPO builds PDOL data from params/terminal/config (in that
// priority order, per spec.md §4.8), issues GET PROCESSING OPTIONS, and
// parses the response in either Format 1 (template 0x80: AIP ‖ AFL) or
// Format 2 (template 0x77, a normal TLV sequence). pdol is the raw PDOL
// value from the selected application's FCI; a nil/empty pdol sends an
// empty GPO command (spec.md §4.6: "empty data sent as 83 00").
//
// On status 0x6985 this returns an *OutcomeError wrapping
// OutcomeGPONotAccepted; any other non-0x9000 status or transport error
// returns OutcomeCardError. On success, AIP and AFL are pushed into the
// context's ICC list and the state advances to GPODone.
func (c *Context) PerformGPO(ctx context.Context, pdol []byte) error {
	if err := mustBeIn("PerformGPO", c.state, AppSelected); err != nil {
		return err
	}

	entries, err := dol.Parse(pdol)
	if err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}
	data := make([]byte, dol.RequiredLength(entries))
	if _, err := dol.Build(data, entries, c.dolSources(), emvfield.IsFormatN); err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}
	c.ODA.PDOLData = data

	resp, sw, err := ttl.GetProcessingOptions(ctx, c.Reader, data)
	if err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}
	if sw == ttl.SW6985 {
		return &OutcomeError{Outcome: OutcomeGPONotAccepted}
	}
	if !ttl.IsSuccess(sw) {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: &ttl.SWError{Cmd: 0xA8, SW: sw}}
	}

	aip, afl, err := parseGPOResponse(resp)
	if err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}

	c.ICC.PushBack(ber.TLV{Tag: emvfield.TagAIP, Value: aip})
	c.ICC.PushBack(ber.TLV{Tag: emvfield.TagAFL, Value: afl})

	c.state = GPODone
	return nil
}

// parseGPOResponse extracts AIP and AFL from a GPO response in either
// wire format.
func parseGPOResponse(resp []byte) (aip, afl []byte, err error) {
	tlv, n, err := ber.DecodeOne(resp)
	if err != nil {
		return nil, nil, err
	}
	if n != len(resp) {
		return nil, nil, errGPOResponseMalformed
	}

	switch tlv.Tag {
	case emvfield.TagResponseMessageTemplateFmt1:
		if len(tlv.Value) < 2 {
			return nil, nil, errGPOResponseMalformed
		}
		aip = append([]byte(nil), tlv.Value[:2]...)
		afl = append([]byte(nil), tlv.Value[2:]...)
		return aip, afl, nil

	case emvfield.TagResponseMessageTemplateFmt2:
		list, err := ber.ParseAll(tlv.Value)
		if err != nil {
			return nil, nil, err
		}
		aipTLV, ok := list.FindFirst(emvfield.TagAIP)
		if !ok {
			return nil, nil, errGPOResponseMalformed
		}
		aflTLV, ok := list.FindFirst(emvfield.TagAFL)
		if !ok {
			return nil, nil, errGPOResponseMalformed
		}
		return append([]byte(nil), aipTLV.Value...), append([]byte(nil), aflTLV.Value...), nil

	default:
		return nil, nil, errGPOResponseMalformed
	}
}
