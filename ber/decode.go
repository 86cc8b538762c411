package ber

import "errors"

var (
	// ErrEndOfData is returned by DecodeOne/Iterate when the input slice
	// is empty; it signals "no more TLVs", not a malformed stream.
	ErrEndOfData    = errors.New("ber: end of data")
	ErrValueTruncated = errors.New("ber: value truncated")
)

// DecodeOne decodes a single TLV from the front of b. It returns the
// decoded TLV (borrowing from b), the number of octets consumed, and an
// error: ErrEndOfData if b is empty, or a specific parse error otherwise.
//
// For indefinite-length constructed TLVs, DecodeOne recursively decodes
// nested TLVs until the end-of-content marker (tag 0x00, zero length) is
// found; the EOC octets are consumed but excluded from the reported
// value and consumed count is adjusted to include them.
func DecodeOne(b []byte) (RawTLV, int, error) {
	if len(b) == 0 {
		return RawTLV{}, 0, ErrEndOfData
	}

	tag, class, constructed, tagLen, err := decodeTag(b)
	if err != nil {
		return RawTLV{}, 0, err
	}
	rest := b[tagLen:]

	length, indefinite, lenLen, err := decodeLength(rest, constructed)
	if err != nil {
		return RawTLV{}, 0, err
	}
	rest = rest[lenLen:]
	consumedHeader := tagLen + lenLen

	flags := Flags{Class: class, Constructed: constructed}

	if !indefinite {
		if length > len(rest) {
			return RawTLV{}, 0, ErrValueTruncated
		}
		return RawTLV{Tag: tag, Flags: flags, Value: rest[:length]}, consumedHeader + length, nil
	}

	// Indefinite length: recursively decode children until EOC (00 00).
	start := rest
	pos := 0
	for {
		if pos+2 <= len(start) && start[pos] == 0x00 && start[pos+1] == 0x00 {
			value := start[:pos]
			return RawTLV{Tag: tag, Flags: flags, Value: value}, consumedHeader + pos + 2, nil
		}
		_, n, err := DecodeOne(start[pos:])
		if err != nil {
			return RawTLV{}, 0, err
		}
		pos += n
		if pos > len(start) {
			return RawTLV{}, 0, ErrValueTruncated
		}
	}
}

// Iterate calls fn for each TLV decoded from b in order, stopping at the
// first decode error (including ErrEndOfData, which Iterate treats as a
// normal end of input and does not propagate) or when fn returns false.
// Iterate returns the first parse error encountered, or nil if the whole
// input was consumed cleanly.
func Iterate(b []byte, fn func(RawTLV) bool) error {
	for len(b) > 0 {
		tlv, n, err := DecodeOne(b)
		if err != nil {
			if errors.Is(err, ErrEndOfData) {
				return nil
			}
			return err
		}
		if !fn(tlv) {
			return nil
		}
		b = b[n:]
	}
	return nil
}
