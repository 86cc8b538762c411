package txn

import (
	"context"
	"errors"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/dol"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/rsaengine"
	"github.com/barnettlynn/emvterm/ttl"
)

// defaultDDOL is the wire encoding of "9F37 04" (Unpredictable Number,
// 4 bytes), the DDOL this engine builds when the card provides none, per
// spec.md §4.8.
var defaultDDOL = []byte{0x9F, 0x37, 0x04}

// terminal capabilities byte 3 (security capability) bit masks.
const (
	secCapSDA byte = 0x80
	secCapDDA byte = 0x40
	secCapCDA byte = 0x08
)

// AIP byte 1 bit masks.
const (
	aipSDA byte = 0x40
	aipDDA byte = 0x20
	aipCDA byte = 0x01
)

// PerformODA selects the strongest Offline Data Authentication method
// jointly supported by the terminal's security capability and the
// card's AIP (CDA > DDA > SDA), runs it, and advances the state to
// ODADone. Failures never abort the transaction: they set the matching
// TVR bit and PerformODA still returns nil, per spec.md §4.8. It returns
// an error only for a state violation, for a missing or short AIP (an
// *OutcomeError wrapping OutcomeCardError), or for a reader transport
// fault during DDA's INTERNAL AUTHENTICATE.
func (c *Context) PerformODA(ctx context.Context) error {
	if err := mustBeIn("PerformODA", c.state, RecordsRead); err != nil {
		return err
	}

	aip, ok := c.AIP()
	if !ok || len(aip) < 2 {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: errors.New("txn: AIP missing before ODA")}
	}
	var termCap byte
	if tlv, ok := c.Terminal.FindFirst(emvfield.TagTerminalCapabilities); ok && len(tlv.Value) >= 3 {
		termCap = tlv.Value[2]
	}

	switch {
	case termCap&secCapCDA != 0 && aip[0]&aipCDA != 0:
		c.ODA.Method = ODACDA
	case termCap&secCapDDA != 0 && aip[0]&aipDDA != 0:
		c.ODA.Method = ODADDA
	case termCap&secCapSDA != 0 && aip[0]&aipSDA != 0:
		c.ODA.Method = ODASDA
	default:
		c.ODA.Method = ODANone
		c.SetTVRBit(TVROfflineDataAuthNotPerformed)
		c.state = ODADone
		return nil
	}
	c.SetTSIBit(TSIOfflineDataAuthPerformed)

	issuer, ok := c.recoverIssuerKey()
	if !ok {
		c.SetTVRBit(TVRICCDataMissing)
		c.state = ODADone
		return nil
	}

	switch c.ODA.Method {
	case ODASDA:
		c.performSDA(issuer)
	case ODADDA:
		if err := c.performDDA(ctx, issuer); err != nil {
			return err
		}
	case ODACDA:
		c.performCDAKeySetup(issuer)
	}

	c.state = ODADone
	return nil
}

// recoverIssuerKey looks up the selected application's CAPK by (AID
// RID, CAPK index) and recovers the issuer public key from the ICC's
// certificate, remainder and exponent fields.
func (c *Context) recoverIssuerKey() (rsaengine.IssuerPublicKey, bool) {
	aidTLV, ok := c.ICC.FindFirst(emvfield.TagAID)
	if !ok || len(aidTLV.Value) < 5 {
		return rsaengine.IssuerPublicKey{}, false
	}
	var rid [5]byte
	copy(rid[:], aidTLV.Value[:5])

	idxTLV, ok := c.ICC.FindFirst(emvfield.TagCAPKIndex)
	if !ok || len(idxTLV.Value) != 1 {
		return rsaengine.IssuerPublicKey{}, false
	}
	key, ok := c.CAPK.Lookup(rid, idxTLV.Value[0])
	if !ok {
		return rsaengine.IssuerPublicKey{}, false
	}

	certTLV, ok := c.ICC.FindFirst(emvfield.TagIssuerPublicKeyCertificate)
	if !ok {
		return rsaengine.IssuerPublicKey{}, false
	}
	expTLV, ok := c.ICC.FindFirst(emvfield.TagIssuerPublicKeyExponent)
	if !ok {
		return rsaengine.IssuerPublicKey{}, false
	}
	var remainder []byte
	if t, ok := c.ICC.FindFirst(emvfield.TagIssuerPublicKeyRemainder); ok {
		remainder = t.Value
	}

	pk, outcome := rsaengine.RecoverIssuerPublicKey(c.Engine, key, certTLV.Value, remainder, expTLV.Value)
	if outcome.IsFatal() {
		return rsaengine.IssuerPublicKey{}, false
	}
	return pk, true
}

// recoverICCKey recovers the ICC public key from the issuer key, folding
// the static authentication data (the ODA record buffer, plus AIP when
// the SDA Tag List names it) into the hash, per spec.md §4.5's ICC key
// recovery note.
func (c *Context) recoverICCKey(issuer rsaengine.IssuerPublicKey) (rsaengine.ICCPublicKey, bool) {
	certTLV, ok := c.ICC.FindFirst(emvfield.TagICCPublicKeyCertificate)
	if !ok {
		return rsaengine.ICCPublicKey{}, false
	}
	expTLV, ok := c.ICC.FindFirst(emvfield.TagICCPublicKeyExponent)
	if !ok {
		return rsaengine.ICCPublicKey{}, false
	}
	var remainder []byte
	if t, ok := c.ICC.FindFirst(emvfield.TagICCPublicKeyRemainder); ok {
		remainder = t.Value
	}

	pk, outcome := rsaengine.RecoverICCPublicKey(c.Engine, issuer, certTLV.Value, remainder, expTLV.Value, c.staticAuthData())
	if outcome.IsFatal() {
		return rsaengine.ICCPublicKey{}, false
	}
	return pk, true
}

// staticAuthData returns the ODA record buffer, with AIP appended when
// the SDA Tag List (tag 0x9F4A) references it, per spec.md §4.6/§4.7.
func (c *Context) staticAuthData() []byte {
	data := append([]byte(nil), c.ODA.RecordBuffer...)
	listTLV, ok := c.ICC.FindFirst(emvfield.TagSDATagList)
	if !ok {
		return data
	}
	if referencesTag(listTLV.Value, emvfield.TagAIP) {
		if aip, ok := c.AIP(); ok {
			data = append(data, aip...)
		}
	}
	return data
}

// referencesTag reports whether data, a bare sequence of BER tags with
// no length octets (the SDA Tag List's wire format), names want.
func referencesTag(data []byte, want ber.Tag) bool {
	for len(data) > 0 {
		tag, _, _, n, err := ber.DecodeTag(data)
		if err != nil {
			return false
		}
		if tag == want {
			return true
		}
		data = data[n:]
	}
	return false
}

func (c *Context) performSDA(issuer rsaengine.IssuerPublicKey) {
	ssadTLV, ok := c.ICC.FindFirst(emvfield.TagSSAD)
	if !ok {
		c.SetTVRBit(TVRSDAFailed)
		return
	}
	_, outcome := rsaengine.RecoverSSAD(c.Engine, issuer, ssadTLV.Value, c.staticAuthData())
	if outcome.IsFatal() {
		c.SetTVRBit(TVRSDAFailed)
	}
}

func (c *Context) performDDA(ctx context.Context, issuer rsaengine.IssuerPublicKey) error {
	icc, ok := c.recoverICCKey(issuer)
	if !ok {
		c.SetTVRBit(TVRDDAFailed)
		return nil
	}
	c.ODA.ICCKey = icc

	ddolData, err := c.buildDDOLData()
	if err != nil {
		c.SetTVRBit(TVRDDAFailed)
		return nil
	}

	sdad, sw, err := ttl.InternalAuthenticate(ctx, c.Reader, ddolData)
	if err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}
	if !ttl.IsSuccess(sw) {
		c.SetTVRBit(TVRDDAFailed)
		return nil
	}

	_, outcome := rsaengine.RecoverSDAD(c.Engine, icc, sdad, ddolData, true)
	if outcome.IsFatal() {
		c.SetTVRBit(TVRDDAFailed)
	}
	return nil
}

// performCDAKeySetup recovers the ICC public key and stashes it, along
// with the PDOL data already cached by PerformGPO, for FinalizeCDA to
// use once the caller issues GENERATE AC — a step spec.md §4.8
// deliberately places outside this package's state machine ("the SDAD
// hash is deferred to the GENERATE AC step").
func (c *Context) performCDAKeySetup(issuer rsaengine.IssuerPublicKey) {
	icc, ok := c.recoverICCKey(issuer)
	if !ok {
		c.SetTVRBit(TVRCDAFailed)
		return
	}
	c.ODA.ICCKey = icc
}

// buildDDOLData builds the INTERNAL AUTHENTICATE command data from the
// card's DDOL (tag 0x9F49), or defaultDDOL if the card provided none.
func (c *Context) buildDDOLData() ([]byte, error) {
	ddol := defaultDDOL
	if tlv, ok := c.ICC.FindFirst(emvfield.TagDDOL); ok {
		ddol = tlv.Value
	}
	entries, err := dol.Parse(ddol)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, dol.RequiredLength(entries))
	if _, err := dol.Build(buf, entries, c.dolSources(), emvfield.IsFormatN); err != nil {
		return nil, err
	}
	return buf, nil
}

// FinalizeCDA verifies a CDA SDAD recovered from a GENERATE AC response
// against the cached PDOL/CDOL1 request data, per spec.md §4.8's
// deferred CDA hash check. It may be called any time after ODADone; a
// hash mismatch sets TVRCDAFailed rather than returning an error, the
// same posture as every other ODA method failure.
func (c *Context) FinalizeCDA(cdol1Data, sdad []byte) error {
	if err := mustBeIn("FinalizeCDA", c.state, ODADone, RestrictionsDone); err != nil {
		return err
	}
	c.ODA.CDOL1Data = cdol1Data
	ddolData := append(append([]byte(nil), c.ODA.PDOLData...), cdol1Data...)
	_, outcome := rsaengine.RecoverSDAD(c.Engine, c.ODA.ICCKey, sdad, ddolData, true)
	if outcome.IsFatal() {
		c.SetTVRBit(TVRCDAFailed)
	}
	return nil
}
