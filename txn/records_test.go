package txn

import (
	"context"
	"testing"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/reader"
	"github.com/barnettlynn/emvterm/ttl"
)

// afl builds a one-entry AFL for sfi, records first..last, with
// odaCount records feeding offline data authentication.
func afl(sfi, first, last, odaCount byte) []byte {
	return []byte{sfi << 3, first, last, odaCount}
}

func recordTemplate(fields ...ber.TLV) []byte {
	var list ber.TLVList
	for _, f := range fields {
		list.PushBack(f)
	}
	inner := ber.EncodeAll(nil, list)
	return append([]byte{byte(emvfield.TagReadRecordResponseTemplate), byte(len(inner))}, inner...)
}

func TestReadApplicationDataHappyPath(t *testing.T) {
	panField := ber.TLV{Tag: emvfield.TagPAN, Value: []byte{0x12, 0x34, 0x56, 0x78, 0x90, 0x12, 0x34, 0x5F}}
	cdol1 := ber.TLV{Tag: emvfield.TagCDOL1RelatedData, Value: []byte{0x9F, 0x02, 0x06}}
	cdol2 := ber.TLV{Tag: emvfield.TagCDOL2RelatedData, Value: []byte{0x9F, 0x37, 0x04}}
	record := recordTemplate(panField, cdol1, cdol2)

	c := contextAt(GPODone)
	c.ICC.PushBack(ber.TLV{Tag: emvfield.TagAFL, Value: afl(1, 1, 1, 1)})
	c.Reader = reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: nil, Resp: append(append([]byte(nil), record...), 0x90, 0x00)},
	})

	if err := c.ReadApplicationData(context.Background()); err != nil {
		t.Fatalf("ReadApplicationData: %v", err)
	}
	if c.State() != RecordsRead {
		t.Fatalf("state = %v, want RecordsRead", c.State())
	}
	if len(c.ODA.RecordBuffer) != len(record) {
		t.Fatalf("RecordBuffer len = %d, want %d (SFI<=10 keeps full record)", len(c.ODA.RecordBuffer), len(record))
	}
	if _, ok := c.ICC.FindFirst(emvfield.TagPAN); !ok {
		t.Fatal("PAN not pushed into ICC list")
	}
}

func TestReadApplicationDataMissingCDOL(t *testing.T) {
	panField := ber.TLV{Tag: emvfield.TagPAN, Value: []byte{0x12, 0x34}}
	record := recordTemplate(panField)

	c := contextAt(GPODone)
	c.ICC.PushBack(ber.TLV{Tag: emvfield.TagAFL, Value: afl(1, 1, 1, 0)})
	c.Reader = reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: nil, Resp: append(append([]byte(nil), record...), 0x90, 0x00)},
	})

	err := c.ReadApplicationData(context.Background())
	if err == nil {
		t.Fatal("want error for missing CDOL1/CDOL2")
	}
}

func TestReadApplicationDataRedundantField(t *testing.T) {
	dup := ber.TLV{Tag: emvfield.TagPAN, Value: []byte{0x11}}
	record1 := recordTemplate(dup)
	record2 := recordTemplate(dup)

	c := contextAt(GPODone)
	c.ICC.PushBack(ber.TLV{Tag: emvfield.TagAFL, Value: afl(1, 1, 2, 0)})
	c.Reader = reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: nil, Resp: append(append([]byte(nil), record1...), 0x90, 0x00)},
		{Want: nil, Resp: append(append([]byte(nil), record2...), 0x90, 0x00)},
	})

	err := c.ReadApplicationData(context.Background())
	if err == nil {
		t.Fatal("want error for redundant field across records")
	}
}

func TestReadApplicationDataODABufferStripsTemplateAboveSFI10(t *testing.T) {
	panField := ber.TLV{Tag: emvfield.TagPAN, Value: []byte{0x12}}
	cdol1 := ber.TLV{Tag: emvfield.TagCDOL1RelatedData, Value: []byte{0x9F, 0x02, 0x06}}
	cdol2 := ber.TLV{Tag: emvfield.TagCDOL2RelatedData, Value: []byte{0x9F, 0x37, 0x04}}
	record := recordTemplate(panField, cdol1, cdol2)

	c := contextAt(GPODone)
	c.ICC.PushBack(ber.TLV{Tag: emvfield.TagAFL, Value: afl(11, 1, 1, 1)})
	c.Reader = reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: nil, Resp: append(append([]byte(nil), record...), 0x90, 0x00)},
	})

	if err := c.ReadApplicationData(context.Background()); err != nil {
		t.Fatalf("ReadApplicationData: %v", err)
	}
	// record = [tag,len] + inner; SFI>10 strips the 2-byte template header.
	if len(c.ODA.RecordBuffer) != len(record)-2 {
		t.Fatalf("RecordBuffer len = %d, want %d (SFI>10 strips template)", len(c.ODA.RecordBuffer), len(record)-2)
	}
}
