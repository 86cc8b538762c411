package ber

// ParseAll recursively walks b, unwrapping constructed templates and
// returning a flat, insertion-ordered TLVList of primitive TLVs only.
// Template tags are discarded but their children are preserved in
// document order. Each value is copied into a fresh owned buffer.
//
// On a decode error, the TLVList accumulated so far is returned alongside
// the error rather than discarded, so a caller can inspect the partial
// result (e.g. for diagnostics) even though the transaction using it
// must treat the error as fatal.
func ParseAll(b []byte) (TLVList, error) {
	var out TLVList
	err := parseAllInto(&out, b)
	return out, err
}

func parseAllInto(out *TLVList, b []byte) error {
	for len(b) > 0 {
		tlv, n, err := DecodeOne(b)
		if err != nil {
			if err == ErrEndOfData {
				return nil
			}
			return err
		}
		if tlv.Flags.Constructed {
			if err := parseAllInto(out, tlv.Value); err != nil {
				return err
			}
		} else {
			out.PushBack(tlv.Own())
		}
		b = b[n:]
	}
	return nil
}
