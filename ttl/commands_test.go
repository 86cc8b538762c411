package ttl_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/barnettlynn/emvterm/reader"
	"github.com/barnettlynn/emvterm/ttl"
)

func TestSelectByNameRejectsBadLength(t *testing.T) {
	script := reader.NewScript(ttl.ModeAPDU, nil)
	_, _, err := ttl.SelectByName(context.Background(), script, []byte{0x01, 0x02}, ttl.SelectFirst)
	if err != ttl.ErrInvalidSelectData {
		t.Fatalf("err = %v, want ErrInvalidSelectData", err)
	}
}

func TestReadRecordRejectsBadSFI(t *testing.T) {
	script := reader.NewScript(ttl.ModeAPDU, nil)
	_, _, err := ttl.ReadRecord(context.Background(), script, 31, 1)
	if err != ttl.ErrInvalidSFI {
		t.Fatalf("err = %v, want ErrInvalidSFI", err)
	}
}

func TestReadRecordBuildsExpectedP2(t *testing.T) {
	// SFI=3, record 1: P2 = (3<<3)|0x04 = 0x1C.
	want := []byte{0x00, 0xB2, 0x01, 0x1C, 0x00}
	script := reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: want, Resp: []byte{0x90, 0x00}},
	})
	_, sw, err := ttl.ReadRecord(context.Background(), script, 3, 1)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if sw != ttl.SW9000 {
		t.Fatalf("sw = 0x%04X, want 0x9000", sw)
	}
}

func TestGetProcessingOptionsEmptyData(t *testing.T) {
	want := []byte{0x80, 0xA8, 0x00, 0x00, 0x02, 0x83, 0x00, 0x00}
	script := reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: want, Resp: []byte{0x90, 0x00}},
	})
	_, sw, err := ttl.GetProcessingOptions(context.Background(), script, nil)
	if err != nil {
		t.Fatalf("GetProcessingOptions: %v", err)
	}
	if sw != ttl.SW9000 {
		t.Fatalf("sw = 0x%04X, want 0x9000", sw)
	}
}

func TestGenerateACEncodesCDABit(t *testing.T) {
	want := []byte{0x80, 0xAE, 0x90, 0x00, 0x00}
	script := reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: want, Resp: []byte{0x90, 0x00}},
	})
	_, _, err := ttl.GenerateAC(context.Background(), script, ttl.ACTypeARQC, true, nil)
	if err != nil {
		t.Fatalf("GenerateAC: %v", err)
	}
}

func TestSelectByNameWiresPSEName(t *testing.T) {
	name := []byte("1PAY.SYS.DDF01")
	want := append(append([]byte{0x00, 0xA4, 0x04, 0x00, byte(len(name))}, name...), 0x00)
	script := reader.NewScript(ttl.ModeAPDU, []reader.Step{
		{Want: want, Resp: []byte{0x6F, 0x00, 0x90, 0x00}},
	})
	fci, sw, err := ttl.SelectByName(context.Background(), script, name, ttl.SelectFirst)
	if err != nil {
		t.Fatalf("SelectByName: %v", err)
	}
	if sw != ttl.SW9000 || !bytes.Equal(fci, []byte{0x6F, 0x00}) {
		t.Fatalf("fci=%x sw=0x%04X", fci, sw)
	}
}
