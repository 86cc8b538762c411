package ttl

import "testing"

func TestClassifyCaseScenario2(t *testing.T) {
	// spec.md §8 scenario 2: SELECT(PSE) command, 20 bytes -> Case 4 short.
	apdu := []byte{
		0x00, 0xA4, 0x04, 0x00, 0x0E,
		0x31, 0x50, 0x41, 0x59, 0x2E, 0x53, 0x59, 0x53, 0x2E, 0x44, 0x44, 0x46, 0x30, 0x31,
		0x00,
	}
	if len(apdu) != 20 {
		t.Fatalf("test fixture length = %d, want 20", len(apdu))
	}
	c, err := ClassifyCase(apdu)
	if err != nil {
		t.Fatalf("ClassifyCase: %v", err)
	}
	if c != Case4Short {
		t.Fatalf("case = %v, want Case4Short", c)
	}
}

func TestClassifyCaseAllShortForms(t *testing.T) {
	cases := []struct {
		name string
		apdu []byte
		want Case
	}{
		{"case1", make([]byte, 4), Case1},
		{"case2short", make([]byte, 5), Case2Short},
		{"case3short", apduWithLc(3), Case3Short},
		{"case4short", apduWithLcAndLe(3), Case4Short},
		{"case2extended", []byte{0, 0, 0, 0, 0, 0, 0}, Case2Extended},
	}
	for _, c := range cases {
		got, err := ClassifyCase(c.apdu)
		if err != nil {
			t.Fatalf("%s: ClassifyCase error: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: case = %v, want %v", c.name, got, c.want)
		}
	}
}

func apduWithLc(dataLen int) []byte {
	apdu := make([]byte, 5+dataLen)
	apdu[4] = byte(dataLen)
	return apdu
}

func apduWithLcAndLe(dataLen int) []byte {
	apdu := make([]byte, 6+dataLen)
	apdu[4] = byte(dataLen)
	return apdu
}

func TestClassifyCaseInvalidLength(t *testing.T) {
	_, err := ClassifyCase([]byte{0x00, 0x00, 0x00})
	if err != ErrInvalidAPDULength {
		t.Fatalf("err = %v, want ErrInvalidAPDULength", err)
	}
}

func TestSupportsGetResponseChaining(t *testing.T) {
	if !Case2Short.SupportsGetResponseChaining() {
		t.Fatalf("Case2Short must support chaining")
	}
	if !Case4Short.SupportsGetResponseChaining() {
		t.Fatalf("Case4Short must support chaining")
	}
	if Case1.SupportsGetResponseChaining() {
		t.Fatalf("Case1 must not support chaining")
	}
	if Case3Short.SupportsGetResponseChaining() {
		t.Fatalf("Case3Short must not support chaining")
	}
}
