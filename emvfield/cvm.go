package emvfield

import (
	"encoding/binary"
	"errors"
)

// ErrCVMMalformed is returned when a CVM List's length is odd or shorter
// than the 10-byte minimum (4-byte X, 4-byte Y, at least one 2-byte
// rule), per spec.md §3.
var ErrCVMMalformed = errors.New("emvfield: CVM List malformed")

// CVMCondition is the second byte of a CVM rule (EMV 4.4 Book 3 Annex C3).
type CVMCondition byte

const (
	CondAlways                        CVMCondition = 0x00
	CondUnattendedCash                CVMCondition = 0x01
	CondNotUnattendedNotManualNotCashback CVMCondition = 0x02
	CondCVMSupported                  CVMCondition = 0x03
	CondManualCash                    CVMCondition = 0x04
	CondPurchaseWithCashback          CVMCondition = 0x05
	CondUnderXValue                   CVMCondition = 0x06
	CondOverXValue                    CVMCondition = 0x07
	CondUnderYValue                   CVMCondition = 0x08
	CondOverYValue                    CVMCondition = 0x09
)

// CVMRule is one decoded CVM List rule.
type CVMRule struct {
	// Method is the low 6 bits of the first rule byte.
	Method byte
	// ApplyIfLast reports whether bit 6 (0x40) was set, meaning this
	// rule is only applied if it's the last one the terminal supports.
	ApplyIfLast bool
	Condition   CVMCondition
}

// Known CVM methods (first rule byte, low 6 bits).
const (
	CVMFailCardholderVerification byte = 0x00
	CVMPlaintextPIN               byte = 0x01
	CVMEncipheredPINOnline        byte = 0x02
	CVMPlaintextPINAndSignature   byte = 0x03
	CVMEncipheredPINOffline       byte = 0x04
	CVMEncipheredPINOfflineAndSig byte = 0x05
	CVMSignature                  byte = 0x1E
	CVMNoCVMRequired              byte = 0x1F
)

// CVMList is the decoded CVM List (tag 0x8E): the two amount thresholds
// X and Y plus the ordered rule sequence.
type CVMList struct {
	X     uint32
	Y     uint32
	Rules []CVMRule
}

// ParseCVMList decodes a CVM List value per spec.md §3: total length
// even, at least 10 bytes (4-byte X, 4-byte Y, and at least one 2-byte
// rule).
func ParseCVMList(data []byte) (CVMList, error) {
	if len(data)%2 != 0 || len(data) < 10 {
		return CVMList{}, ErrCVMMalformed
	}
	list := CVMList{
		X: binary.BigEndian.Uint32(data[0:4]),
		Y: binary.BigEndian.Uint32(data[4:8]),
	}
	for i := 8; i < len(data); i += 2 {
		list.Rules = append(list.Rules, CVMRule{
			Method:      data[i] & 0x3F,
			ApplyIfLast: data[i]&0x40 != 0,
			Condition:   CVMCondition(data[i+1]),
		})
	}
	return list, nil
}

// IterateCVMRules calls fn for each rule in the CVM List decoded from
// data, stopping at the first malformed input or when fn returns false.
func IterateCVMRules(data []byte, fn func(CVMRule) bool) error {
	list, err := ParseCVMList(data)
	if err != nil {
		return err
	}
	for _, r := range list.Rules {
		if !fn(r) {
			return nil
		}
	}
	return nil
}
