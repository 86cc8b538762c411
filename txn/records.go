package txn

import (
	"context"
	"errors"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/ttl"
)

var (
	errRecordMalformed = errors.New("txn: READ RECORD response not a well-formed template 0x70")
	errRecordRedundant = errors.New("txn: ICC record contains a field already present")
	errMissingPAN      = errors.New("txn: PAN (0x5A) missing after reading application data")
	errMissingCDOL1    = errors.New("txn: CDOL1 (0x8C) missing after reading application data")
	errMissingCDOL2    = errors.New("txn: CDOL2 (0x8D) missing after reading application data")
)

// ReadApplicationData issues READ RECORD for every record named by the
// AFL pushed during GPO, validates each record's template-0x70 wrapping,
// accumulates the offline-data-authentication record buffer, and checks
// that PAN/CDOL1/CDOL2 ended up in the ICC list, per spec.md §4.8.
func (c *Context) ReadApplicationData(ctx context.Context) error {
	if err := mustBeIn("ReadApplicationData", c.state, GPODone); err != nil {
		return err
	}

	aflTLV, ok := c.ICC.FindFirst(emvfield.TagAFL)
	if !ok {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: errors.New("txn: AFL missing after GPO")}
	}
	entries, err := emvfield.ParseAFL(aflTLV.Value)
	if err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}

	for _, e := range entries {
		odaLast := int(e.FirstRecord) + int(e.ODARecordCount) - 1
		for record := e.FirstRecord; record <= e.LastRecord; record++ {
			data, sw, err := ttl.ReadRecord(ctx, c.Reader, e.SFI, record)
			if err != nil {
				return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
			}
			if !ttl.IsSuccess(sw) {
				return &OutcomeError{Outcome: OutcomeCardError, Cause: &ttl.SWError{Cmd: 0xB2, SW: sw}}
			}

			tlv, n, err := ber.DecodeOne(data)
			if err != nil || n != len(data) || tlv.Tag != emvfield.TagReadRecordResponseTemplate {
				return &OutcomeError{Outcome: OutcomeCardError, Cause: errRecordMalformed}
			}

			if int(record) <= odaLast {
				if e.SFI <= 10 {
					c.ODA.RecordBuffer = append(c.ODA.RecordBuffer, data...)
				} else {
					c.ODA.RecordBuffer = append(c.ODA.RecordBuffer, tlv.Value...)
				}
			}

			fields, err := ber.ParseAll(tlv.Value)
			if err != nil {
				return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
			}
			for _, f := range fields.All() {
				if _, exists := c.ICC.FindFirst(f.Tag); exists {
					return &OutcomeError{Outcome: OutcomeCardError, Cause: errRecordRedundant}
				}
				c.ICC.PushBack(f)
			}
		}
	}

	if _, ok := c.ICC.FindFirst(emvfield.TagPAN); !ok {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: errMissingPAN}
	}
	if _, ok := c.ICC.FindFirst(emvfield.TagCDOL1RelatedData); !ok {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: errMissingCDOL1}
	}
	if _, ok := c.ICC.FindFirst(emvfield.TagCDOL2RelatedData); !ok {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: errMissingCDOL2}
	}

	c.state = RecordsRead
	return nil
}
