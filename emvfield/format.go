package emvfield

// PadN left-pads value with zero octets to width, or takes its rightmost
// width octets if it's already longer — the format-n convention used
// throughout DOL building and numeric field normalization.
func PadN(value []byte, width int) []byte {
	if len(value) >= width {
		return append([]byte(nil), value[len(value)-width:]...)
	}
	out := make([]byte, width)
	copy(out[width-len(value):], value)
	return out
}

// PadANS right-pads value with zero octets to width, or truncates to its
// leftmost width octets if longer — the generic (non-format-n)
// convention used for a, an and ans fields.
func PadANS(value []byte, width int) []byte {
	if len(value) >= width {
		return append([]byte(nil), value[:width]...)
	}
	out := make([]byte, width)
	copy(out, value)
	return out
}

// PadB right-pads a binary value the same way PadANS does; kept as a
// distinct name so callers document which EMV format governs a given
// field even though the byte-level rule is identical to ans.
func PadB(value []byte, width int) []byte {
	return PadANS(value, width)
}
