package emvfield

import "testing"

func TestDateComparisonScenario8(t *testing.T) {
	txnDate, err := ParseDate([]byte{0x22, 0x04, 0x15})
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}

	notExpired, err := ParseMonthYear([]byte{0x04, 0x22})
	if err != nil {
		t.Fatalf("ParseMonthYear: %v", err)
	}
	if CompareExpiry(txnDate, notExpired) {
		t.Fatalf("expiry 04/22 against txn date 22-04-15: got expired, want not expired")
	}

	expired, err := ParseMonthYear([]byte{0x03, 0x22})
	if err != nil {
		t.Fatalf("ParseMonthYear: %v", err)
	}
	if !CompareExpiry(txnDate, expired) {
		t.Fatalf("expiry 03/22 against txn date 22-04-15: got not expired, want expired")
	}
}

func TestParseDateInvalidBCD(t *testing.T) {
	_, err := ParseDate([]byte{0x2A, 0x04, 0x15})
	if err != ErrBadBCD {
		t.Fatalf("err = %v, want ErrBadBCD", err)
	}
}

func TestCompareEffective(t *testing.T) {
	txnDate, _ := ParseDate([]byte{0x22, 0x04, 0x15})
	future, _ := ParseMonthYear([]byte{0x05, 0x22})
	if !CompareEffective(txnDate, future) {
		t.Fatalf("txn date before effective month: want not-yet-effective")
	}
	past, _ := ParseMonthYear([]byte{0x01, 0x22})
	if CompareEffective(txnDate, past) {
		t.Fatalf("txn date after effective month: want effective")
	}
}
