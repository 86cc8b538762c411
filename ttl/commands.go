package ttl

import (
	"context"
	"errors"
)

// ErrInvalidSFI is returned when an SFI falls outside 1..30.
var ErrInvalidSFI = errors.New("ttl: SFI out of range (1..30)")

// ErrInvalidSelectData is returned when a SELECT by DF name's data
// length falls outside the 5..16 range spec.md §4.6 requires.
var ErrInvalidSelectData = errors.New("ttl: SELECT data length out of range (5..16)")

// SelectNext controls whether SelectByName issues "first or only
// occurrence" (P2=0x00) or "next occurrence" (P2=0x02) SELECT.
type SelectNext bool

const (
	SelectFirst SelectNext = false
	SelectNextOccurrence SelectNext = true
)

// SelectByName issues SELECT (P1=0x04) with dfName as data, returning
// the FCI response data. dfName must be 5..16 bytes (an AID or a PSE/
// PPSE name like "1PAY.SYS.DDF01").
func SelectByName(ctx context.Context, r Reader, dfName []byte, next SelectNext) (fci []byte, sw uint16, err error) {
	if len(dfName) < 5 || len(dfName) > 16 {
		return nil, 0, ErrInvalidSelectData
	}
	p2 := byte(0x00)
	if next {
		p2 = 0x02
	}
	capdu := buildCommandAPDU(0x00, 0xA4, 0x04, p2, dfName, 0x00)
	return Exchange(ctx, r, capdu)
}

// ReadRecord issues READ RECORD for recordNumber on sfi, per spec.md
// §4.6: P2 = (SFI<<3) | 0x04.
func ReadRecord(ctx context.Context, r Reader, sfi byte, recordNumber byte) (record []byte, sw uint16, err error) {
	if sfi < 1 || sfi > 30 {
		return nil, 0, ErrInvalidSFI
	}
	p2 := (sfi << 3) | 0x04
	capdu := buildCommandAPDU(0x00, 0xB2, recordNumber, p2, nil, 0x00)
	return Exchange(ctx, r, capdu)
}

// GetProcessingOptions issues GPO (CLA=80, INS=A8) with pdolData wrapped
// in a 0x83 command template; an empty pdolData is sent as "83 00".
func GetProcessingOptions(ctx context.Context, r Reader, pdolData []byte) (resp []byte, sw uint16, err error) {
	tmpl := make([]byte, 0, len(pdolData)+2)
	tmpl = append(tmpl, 0x83, byte(len(pdolData)))
	tmpl = append(tmpl, pdolData...)
	capdu := buildCommandAPDU(0x80, 0xA8, 0x00, 0x00, tmpl, 0x00)
	return Exchange(ctx, r, capdu)
}

// GetData issues GET DATA (CLA=80, INS=CA) for tag, with P1P2 set to
// tag's two-byte big-endian value.
func GetData(ctx context.Context, r Reader, tag uint16) (data []byte, sw uint16, err error) {
	p1 := byte(tag >> 8)
	p2 := byte(tag)
	capdu := buildCommandAPDU(0x80, 0xCA, p1, p2, nil, 0x00)
	return Exchange(ctx, r, capdu)
}

// InternalAuthenticate issues INTERNAL AUTHENTICATE (CLA=00, INS=88)
// with ddolData as the command data.
func InternalAuthenticate(ctx context.Context, r Reader, ddolData []byte) (sdad []byte, sw uint16, err error) {
	capdu := buildCommandAPDU(0x00, 0x88, 0x00, 0x00, ddolData, 0x00)
	return Exchange(ctx, r, capdu)
}

// ACType selects which Application Cryptogram GENERATE AC requests.
type ACType byte

const (
	ACTypeAAC ACType = 0x00 // decline
	ACTypeTC  ACType = 0x40 // offline approval
	ACTypeARQC ACType = 0x80 // online authorization request
)

// GenerateAC issues GENERATE AC (CLA=80, INS=AE). P1 encodes acType plus
// the CDA signature request bit (bit 0x10) per spec.md §4.6's reference
// to EMV 4.4 Book 3 §6.5.5.
func GenerateAC(ctx context.Context, r Reader, acType ACType, requestCDA bool, cdol1Data []byte) (resp []byte, sw uint16, err error) {
	p1 := byte(acType)
	if requestCDA {
		p1 |= 0x10
	}
	capdu := buildCommandAPDU(0x80, 0xAE, p1, 0x00, cdol1Data, 0x00)
	return Exchange(ctx, r, capdu)
}

// buildCommandAPDU assembles a short-form C-APDU: CLA INS P1 P2 [Lc
// data] Le. Le is always appended (0x00 requests the maximum response
// length), so nil data yields a Case 2 command and a Case 1 command is
// never built.
func buildCommandAPDU(cla, ins, p1, p2 byte, data []byte, le byte) []byte {
	if len(data) == 0 {
		return []byte{cla, ins, p1, p2, le}
	}
	capdu := make([]byte, 0, 5+len(data)+1)
	capdu = append(capdu, cla, ins, p1, p2, byte(len(data)))
	capdu = append(capdu, data...)
	capdu = append(capdu, le)
	return capdu
}
