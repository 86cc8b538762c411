package ber

// Encode appends t's BER encoding (tag, length, value) to dst and
// returns the result. It is the inverse of DecodeOne for definite-length
// TLVs: decode(encode(t)) reproduces t exactly, including primitive and
// constructed nodes (constructed nodes are re-encoded definite-length,
// never reconstructed as indefinite-length — see parse_all.go).
func Encode(dst []byte, t TLV) []byte {
	return t.Encode(dst)
}

// EncodeAll concatenates the BER encoding of every TLV in list, in order.
func EncodeAll(dst []byte, list TLVList) []byte {
	for _, t := range list.All() {
		dst = t.Encode(dst)
	}
	return dst
}
