package emvfield

import "strings"

// Scheme identifies the payment scheme recognized from an AID's
// Registered Application Provider Identifier (RID, the first 5 bytes).
type Scheme string

const (
	SchemeUnknown    Scheme = ""
	SchemeVisa       Scheme = "Visa"
	SchemeMastercard Scheme = "Mastercard"
	SchemeAmex       Scheme = "American Express"
	SchemeJCB        Scheme = "JCB"
	SchemeDiscover   Scheme = "Discover"
)

// aidEntry pairs an AID prefix (hex, as it would print from the raw
// bytes) with the scheme/product it identifies. Matching is by prefix so
// a single entry can cover an RID-level scheme (e.g. all Visa products)
// while more specific entries for a known Proprietary Identifier
// Extension (PIX) override with a named product.
type aidEntry struct {
	prefix  string
	scheme  Scheme
	product string
}

// aidTable is ordered most-specific-prefix first so PIX-level entries
// are matched before their RID-level fallback.
var aidTable = []aidEntry{
	{"A0000000032020", SchemeVisa, "VPay"},
	{"A0000000031010", SchemeVisa, "Visa Credit/Debit"},
	{"A000000003", SchemeVisa, "Visa"},
	{"A0000000046000", SchemeMastercard, "Cirrus"},
	{"A0000000041010", SchemeMastercard, "Mastercard Credit/Debit"},
	{"A000000004", SchemeMastercard, "Mastercard"},
	{"A00000002501", SchemeAmex, "American Express"},
	{"A000000025", SchemeAmex, "American Express"},
	{"A0000000651010", SchemeJCB, "JCB"},
	{"A000000065", SchemeJCB, "JCB"},
	{"A0000001523010", SchemeDiscover, "Discover"},
	{"A000000152", SchemeDiscover, "Discover"},
}

// Recognition is the result of looking up an AID in the scheme table.
type Recognition struct {
	Scheme  Scheme
	Product string
}

// RecognizeAID classifies aid by its longest matching RID/PIX prefix in
// aidTable. If no entry matches, Recognition is the zero value.
func RecognizeAID(aid []byte) Recognition {
	hex := toHexUpper(aid)
	for _, e := range aidTable {
		if strings.HasPrefix(hex, e.prefix) {
			return Recognition{Scheme: e.scheme, Product: e.product}
		}
	}
	return Recognition{}
}

const hexDigits = "0123456789ABCDEF"

func toHexUpper(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0F]
	}
	return string(out)
}
