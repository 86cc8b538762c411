package main

import (
	"fmt"

	"github.com/barnettlynn/emvterm/txn"
)

// parseATR walks an ISO 7816-3 Answer to Reset's interface-byte chain
// (TS, T0, then TAi/TBi/TCi/TDi groups gated by each TDi's presence
// nibble) and extracts the fields txn.ValidateATR inspects. This walk
// lives here rather than in a shared package because SPEC_FULL.md scopes
// this engine's ATR handling to the interface-byte boundary only: no
// reusable structural ATR parser, just enough decoding at the CLI
// boundary to hand txn.ValidateATR the bytes it needs.
func parseATR(raw []byte) (txn.ATR, error) {
	if len(raw) < 2 {
		return txn.ATR{}, fmt.Errorf("atr: too short (%d bytes)", len(raw))
	}

	var atr txn.ATR
	pos := 1 // skip TS
	t0 := raw[pos]
	k := int(t0 & 0x0F)
	y := t0 & 0xF0
	pos++

	sawT1 := false
	group := 1
	for y != 0 {
		var ta, tb, tc, td byte
		var haveTA, haveTB, haveTC, haveTD bool

		if y&0x10 != 0 {
			if pos >= len(raw) {
				return txn.ATR{}, fmt.Errorf("atr: truncated before TA%d", group)
			}
			ta, haveTA = raw[pos], true
			pos++
		}
		if y&0x20 != 0 {
			if pos >= len(raw) {
				return txn.ATR{}, fmt.Errorf("atr: truncated before TB%d", group)
			}
			tb, haveTB = raw[pos], true
			pos++
		}
		if y&0x40 != 0 {
			if pos >= len(raw) {
				return txn.ATR{}, fmt.Errorf("atr: truncated before TC%d", group)
			}
			tc, haveTC = raw[pos], true
			pos++
		}
		if y&0x80 != 0 {
			if pos >= len(raw) {
				return txn.ATR{}, fmt.Errorf("atr: truncated before TD%d", group)
			}
			td, haveTD = raw[pos], true
			pos++
		}

		switch group {
		case 1:
			atr.TA1 = ta
			atr.TC1 = tc
			atr.TD1 = td
		case 2:
			atr.TA2, atr.TA2Valid = ta, haveTA
			atr.TC2, atr.TC2Valid = tc, haveTC
			atr.TD2, atr.TD2Valid = td, haveTD
		case 3:
			atr.TA3, atr.TA3Valid = ta, haveTA
			atr.TB3, atr.TB3Valid = tb, haveTB
			atr.TC3, atr.TC3Valid = tc, haveTC
		}

		if !haveTD {
			break
		}
		if td&0x0F == 0x01 {
			sawT1 = true
		}
		y = td & 0xF0
		group++
	}

	if pos+k > len(raw) {
		return txn.ATR{}, fmt.Errorf("atr: truncated historical bytes (want %d, have %d)", k, len(raw)-pos)
	}
	pos += k

	atr.CheckedBytes = append([]byte(nil), raw[1:pos]...)
	if sawT1 {
		if pos >= len(raw) {
			return txn.ATR{}, fmt.Errorf("atr: missing TCK")
		}
		atr.TCK = raw[pos]
		atr.HasTCK = true
		pos++
	}

	return atr, nil
}
