package txn

import (
	"bytes"
	"errors"

	"github.com/barnettlynn/emvterm/emvfield"
)

var (
	errMissingTransactionDate = errors.New("txn: transaction date (0x9A) missing")
)

// atmTerminalTypes are the EMV Book 4 Annex A terminal type values for a
// financial-institution-operated, unattended terminal (an ATM).
var atmTerminalTypes = map[byte]bool{0x14: true, 0x15: true, 0x16: true}

// Application Usage Control (tag 0x9F07) bit masks, byte 1.
const (
	aucDomesticCash          byte = 0x80
	aucInternationalCash     byte = 0x40
	aucDomesticGoods         byte = 0x20
	aucInternationalGoods    byte = 0x10
	aucDomesticServices      byte = 0x08
	aucInternationalServices byte = 0x04
	aucATM                   byte = 0x02
	aucNonATMTerminals       byte = 0x01
)

// cash transaction type (tag 0x9C) value, per ISO 8583 processing codes.
const transactionTypeCash byte = 0x01

// CheckProcessingRestrictions compares the application version, usage
// control and validity dates against the terminal's own configuration,
// per spec.md §4.8. Every failing check sets a TVR bit rather than
// aborting; CheckProcessingRestrictions only returns an error for a
// state violation, or an *OutcomeError wrapping OutcomeCardError when
// the validity-date check fails (a missing transaction date or a
// malformed date field). On success it advances the state to
// RestrictionsDone.
func (c *Context) CheckProcessingRestrictions() error {
	if err := mustBeIn("CheckProcessingRestrictions", c.state, ODADone); err != nil {
		return err
	}

	c.checkApplicationVersion()
	c.checkUsageControl()
	if err := c.checkValidityDates(); err != nil {
		return &OutcomeError{Outcome: OutcomeCardError, Cause: err}
	}

	c.state = RestrictionsDone
	return nil
}

func (c *Context) checkApplicationVersion() {
	cardTLV, cardOK := c.ICC.FindFirst(emvfield.TagApplicationVersionNumberCard)
	termTLV, termOK := c.Terminal.FindFirst(emvfield.TagApplicationVersionNumberTerm)
	if !cardOK || !termOK {
		return
	}
	if len(cardTLV.Value) != len(termTLV.Value) {
		c.SetTVRBit(TVRApplicationVersionsDiffer)
		return
	}
	for i := range cardTLV.Value {
		if cardTLV.Value[i] != termTLV.Value[i] {
			c.SetTVRBit(TVRApplicationVersionsDiffer)
			return
		}
	}
}

// checkUsageControl evaluates the Application Usage Control against
// the transaction type and the terminal's own ATM/domestic posture. A
// missing AUC means "no restriction", per EMV Book 3 §10.5's default.
func (c *Context) checkUsageControl() {
	aucTLV, ok := c.ICC.FindFirst(emvfield.TagApplicationUsageControl)
	if !ok || len(aucTLV.Value) < 1 {
		return
	}
	auc := aucTLV.Value[0]

	txnTypeTLV, ok := c.Params.FindFirst(emvfield.TagTransactionType)
	var txnType byte
	if ok && len(txnTypeTLV.Value) == 1 {
		txnType = txnTypeTLV.Value[0]
	}

	domestic := c.isDomestic()
	atm := c.isATM()

	var required byte
	switch {
	case txnType == transactionTypeCash:
		if domestic {
			required = aucDomesticCash
		} else {
			required = aucInternationalCash
		}
	default:
		if domestic {
			required = aucDomesticGoods
		} else {
			required = aucInternationalGoods
		}
	}
	if auc&required == 0 {
		c.SetTVRBit(TVRServiceNotAllowed)
		return
	}

	if atm {
		if auc&aucATM == 0 {
			c.SetTVRBit(TVRServiceNotAllowed)
		}
	} else if auc&aucNonATMTerminals == 0 {
		c.SetTVRBit(TVRServiceNotAllowed)
	}
}

// isDomestic reports whether the terminal and issuer country codes
// match, per spec.md §4.8's domestic/international comparison. Missing
// either code is treated as domestic (no restriction applies), since an
// issuer that omits its country code names no international exclusion.
func (c *Context) isDomestic() bool {
	termTLV, termOK := c.Terminal.FindFirst(emvfield.TagTerminalCountryCode)
	issuerTLV, issuerOK := c.ICC.FindFirst(emvfield.TagIssuerCountryCode)
	if !termOK || !issuerOK {
		return true
	}
	return bytes.Equal(termTLV.Value, issuerTLV.Value)
}

func (c *Context) isATM() bool {
	tlv, ok := c.Terminal.FindFirst(emvfield.TagTerminalType)
	if !ok || len(tlv.Value) != 1 {
		return false
	}
	return atmTerminalTypes[tlv.Value[0]]
}

// checkValidityDates compares the transaction date against the
// application's effective and expiration dates.
func (c *Context) checkValidityDates() error {
	txnDateTLV, ok := c.Params.FindFirst(emvfield.TagTransactionDate)
	if !ok {
		return errMissingTransactionDate
	}
	txnDate, err := emvfield.ParseDate(txnDateTLV.Value)
	if err != nil {
		return err
	}

	if expTLV, ok := c.ICC.FindFirst(emvfield.TagApplicationExpirationDate); ok {
		expiry, err := dateToMonthYear(expTLV.Value)
		if err != nil {
			return err
		}
		if emvfield.CompareExpiry(txnDate, expiry) {
			c.SetTVRBit(TVRExpired)
		}
	}

	if effTLV, ok := c.ICC.FindFirst(emvfield.TagApplicationEffectiveDate); ok {
		effective, err := dateToMonthYear(effTLV.Value)
		if err != nil {
			return err
		}
		if emvfield.CompareEffective(txnDate, effective) {
			c.SetTVRBit(TVRNotYetEffective)
		}
	}

	return nil
}

// dateToMonthYear reads a 3-byte packed-BCD YYMMDD field (tags 0x5F24
// and 0x5F25 are encoded YYMMDD, not MMYY) and keeps only the month/year
// component CompareExpiry/CompareEffective need.
func dateToMonthYear(data []byte) (emvfield.MonthYear, error) {
	d, err := emvfield.ParseDate(data)
	if err != nil {
		return emvfield.MonthYear{}, err
	}
	return emvfield.MonthYear{Month: d.Month, Year: d.Year}, nil
}
