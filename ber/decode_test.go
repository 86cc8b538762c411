package ber

import (
	"bytes"
	"testing"
)

func TestDecodeOneScenario1(t *testing.T) {
	// spec.md §8 scenario 1: 70 07 5A 05 47 61 73 90 01
	input := []byte{0x70, 0x07, 0x5A, 0x05, 0x47, 0x61, 0x73, 0x90, 0x01}

	tlv, n, err := DecodeOne(input)
	if err != nil {
		t.Fatalf("DecodeOne outer: %v", err)
	}
	if tlv.Tag != 0x70 || !tlv.Flags.Constructed {
		t.Fatalf("outer tag/constructed mismatch: %+v", tlv)
	}
	if n != len(input) {
		t.Fatalf("consumed = %d, want %d", n, len(input))
	}

	inner, n2, err := DecodeOne(tlv.Value)
	if err != nil {
		t.Fatalf("DecodeOne inner: %v", err)
	}
	want := RawTLV{Tag: 0x5A, Value: []byte{0x47, 0x61, 0x73, 0x90, 0x01}}
	if inner.Tag != want.Tag || !bytes.Equal(inner.Value, want.Value) {
		t.Fatalf("inner = %+v, want %+v", inner, want)
	}
	if n2 != len(tlv.Value) {
		t.Fatalf("inner consumed = %d, want %d", n2, len(tlv.Value))
	}
}

func TestDecodeOneEndOfData(t *testing.T) {
	_, _, err := DecodeOne(nil)
	if err != ErrEndOfData {
		t.Fatalf("err = %v, want ErrEndOfData", err)
	}
}

func TestDecodeOneTruncated(t *testing.T) {
	cases := [][]byte{
		{0x1F},             // high-form tag, no continuation octet
		{0x5A},             // tag only, no length
		{0x5A, 0x05, 0x01}, // length 5 but only 1 value byte
	}
	for _, c := range cases {
		_, _, err := DecodeOne(c)
		if err == nil {
			t.Fatalf("DecodeOne(%x) = nil error, want truncation error", c)
		}
	}
}

func TestHighFormTagRoundTrip(t *testing.T) {
	// 9F 37 04 is a common EMV high-form tag (Unpredictable Number, len 4).
	input := []byte{0x9F, 0x37, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}
	tlv, n, err := DecodeOne(input)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if n != len(input) {
		t.Fatalf("consumed = %d, want %d", n, len(input))
	}
	owned := tlv.Own()
	got := owned.Encode(nil)
	if !bytes.Equal(got, input) {
		t.Fatalf("round trip = %x, want %x", got, input)
	}
}

func TestLowFormTagAboveArcLimitRoundTrip(t *testing.T) {
	// 82 02 00 80 is the AIP tag (0x82), a single-octet low-form tag whose
	// raw value is already above 0x1E once its class bits are counted.
	input := []byte{0x82, 0x02, 0x00, 0x80}
	tlv, n, err := DecodeOne(input)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if n != len(input) {
		t.Fatalf("consumed = %d, want %d", n, len(input))
	}
	if tlv.Tag != 0x82 {
		t.Fatalf("tag = %x, want 0x82", tlv.Tag)
	}
	owned := tlv.Own()
	got := owned.Encode(nil)
	if !bytes.Equal(got, input) {
		t.Fatalf("round trip = %x, want %x", got, input)
	}
}

func TestIndefiniteLength(t *testing.T) {
	// Constructed, indefinite length, containing one primitive 5A 01 2A,
	// terminated by EOC (00 00).
	input := []byte{0x70, 0x80, 0x5A, 0x01, 0x2A, 0x00, 0x00}
	tlv, n, err := DecodeOne(input)
	if err != nil {
		t.Fatalf("DecodeOne: %v", err)
	}
	if n != len(input) {
		t.Fatalf("consumed = %d, want %d (EOC must be consumed)", n, len(input))
	}
	if !bytes.Equal(tlv.Value, []byte{0x5A, 0x01, 0x2A}) {
		t.Fatalf("value = %x, want 5A012A (EOC excluded)", tlv.Value)
	}
}

func TestIndefiniteOnPrimitiveRejected(t *testing.T) {
	// Primitive tag (bit 0x20 clear) with indefinite length marker.
	input := []byte{0x5A, 0x80}
	_, _, err := DecodeOne(input)
	if err != ErrIndefiniteOnPrimitive {
		t.Fatalf("err = %v, want ErrIndefiniteOnPrimitive", err)
	}
}

func TestParseAllFlattensTemplates(t *testing.T) {
	// 70 07 5A 05 ... wrapped again in an outer 6F template.
	inner := []byte{0x70, 0x07, 0x5A, 0x05, 0x47, 0x61, 0x73, 0x90, 0x01}
	outer := append([]byte{0x6F, byte(len(inner))}, inner...)

	list, err := ParseAll(outer)
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if list.Len() != 1 {
		t.Fatalf("list.Len() = %d, want 1 (templates unwrapped)", list.Len())
	}
	got, ok := list.FindFirst(0x5A)
	if !ok {
		t.Fatalf("tag 0x5A not found")
	}
	if !bytes.Equal(got.Value, []byte{0x47, 0x61, 0x73, 0x90, 0x01}) {
		t.Fatalf("value = %x", got.Value)
	}
}

func TestParseAllReturnsPartialListOnError(t *testing.T) {
	good := []byte{0x5A, 0x02, 0x11, 0x22}
	bad := []byte{0x5F, 0x20, 0x05, 0x00} // claims 5 bytes, only 1 present
	input := append(append([]byte{}, good...), bad...)

	list, err := ParseAll(input)
	if err == nil {
		t.Fatalf("expected error from truncated trailing TLV")
	}
	if list.Len() != 1 {
		t.Fatalf("partial list len = %d, want 1", list.Len())
	}
}

func TestOIDDecode(t *testing.T) {
	// 1.2.840.113549 (PKCS namespace), encoded 2A 86 48 86 F7 0D.
	arcs, err := DecodeOID([]byte{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D})
	if err != nil {
		t.Fatalf("DecodeOID: %v", err)
	}
	want := []uint64{1, 2, 840, 113549}
	if len(arcs) != len(want) {
		t.Fatalf("arcs = %v, want %v", arcs, want)
	}
	for i := range want {
		if arcs[i] != want[i] {
			t.Fatalf("arcs = %v, want %v", arcs, want)
		}
	}
}

func TestEncodeLengthLongForm(t *testing.T) {
	dst := encodeLength(nil, 300)
	// 300 = 0x012C, needs 2 length octets: 0x82 0x01 0x2C
	want := []byte{0x82, 0x01, 0x2C}
	if !bytes.Equal(dst, want) {
		t.Fatalf("encodeLength(300) = %x, want %x", dst, want)
	}
	length, indef, consumed, err := decodeLength(dst, true)
	if err != nil || indef || length != 300 || consumed != len(want) {
		t.Fatalf("decodeLength round trip failed: length=%d indef=%v consumed=%d err=%v", length, indef, consumed, err)
	}
}
