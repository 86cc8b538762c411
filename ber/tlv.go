package ber

// Flags carries the class/constructed bits decoded from a TLV's leading
// tag octet, plus room for an EMV-specific extension byte (e.g. the
// Application Selection Indicator stashed on discovered AID entries by
// the selection package). It is the one place the BER view and the EMV
// view of a TLV diverge, per the "single TLV type" design note: tag,
// length and value are shared; Flags is the extension.
type Flags struct {
	Class       Class
	Constructed bool
	EMV         byte
}

// RawTLV is a TLV decoded directly out of a caller-owned buffer: Value
// borrows a sub-slice of that buffer and must not be retained past the
// buffer's lifetime. Call Own to copy it into a TLV safe to place in a
// TLVList.
type RawTLV struct {
	Tag   Tag
	Flags Flags
	Value []byte
}

// Own copies a RawTLV's borrowed value into a freshly allocated buffer,
// producing a TLV suitable for insertion into a TLVList.
func (r RawTLV) Own() TLV {
	v := make([]byte, len(r.Value))
	copy(v, r.Value)
	return TLV{Tag: r.Tag, Flags: r.Flags, Value: v}
}

// TLV is an owned tag-length-value triple: Value is a private copy, not a
// slice into any containing buffer. TLVList stores only TLV values.
type TLV struct {
	Tag   Tag
	Flags Flags
	Value []byte
}

// Length returns the length of the TLV's value, i.e. what would appear
// in the BER length octets if this TLV were re-encoded.
func (t TLV) Length() int {
	return len(t.Value)
}

// Encode appends this TLV's BER encoding to dst and returns the result.
func (t TLV) Encode(dst []byte) []byte {
	dst = encodeTag(dst, t.Tag, t.Flags.Class, t.Flags.Constructed)
	dst = encodeLength(dst, len(t.Value))
	return append(dst, t.Value...)
}
