package emvfield

import "testing"

func TestRecognizeAIDScenario5(t *testing.T) {
	cases := []struct {
		aid     []byte
		scheme  Scheme
		product string
	}{
		{[]byte{0xA0, 0x00, 0x00, 0x00, 0x03, 0x20, 0x20}, SchemeVisa, "VPay"},
		{[]byte{0xA0, 0x00, 0x00, 0x00, 0x04, 0x60, 0x00}, SchemeMastercard, "Cirrus"},
	}
	for _, c := range cases {
		got := RecognizeAID(c.aid)
		if got.Scheme != c.scheme || got.Product != c.product {
			t.Fatalf("RecognizeAID(%x) = %+v, want {%s %s}", c.aid, got, c.scheme, c.product)
		}
	}
}

func TestRecognizeAIDUnknown(t *testing.T) {
	got := RecognizeAID([]byte{0xF0, 0x00, 0x00, 0x00, 0x00})
	if got.Scheme != SchemeUnknown {
		t.Fatalf("RecognizeAID(unknown) = %+v, want zero value", got)
	}
}
