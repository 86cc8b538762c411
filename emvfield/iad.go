package emvfield

// IADFormat classifies the Issuer Application Data (tag 0x9F10) layout.
// EMV does not standardize IAD contents beyond the first byte in some
// profiles; this is a best-effort classifier used only for diagnostic
// summaries, never for ODA or transaction-flow decisions.
type IADFormat byte

const (
	IADUnknown IADFormat = iota
	IADCCD               // Common Core Definitions (first byte 0x0F/0x1F, len 32)
	IADMChip              // Mastercard M/Chip (first byte 0x06, len 20..28)
	IADVSDC                // Visa VSDC discretionary data (len 20 or 32, first byte format id)
)

// ClassifyIAD inspects an Issuer Application Data value's length and
// leading format byte to guess its structural family, the same
// tag-length-driven branching the pack's EMV tag helpers use for other
// proprietary fields.
func ClassifyIAD(iad []byte) IADFormat {
	if len(iad) == 0 {
		return IADUnknown
	}
	switch {
	case len(iad) == 32 && (iad[0] == 0x0F || iad[0] == 0x1F):
		return IADCCD
	case len(iad) >= 20 && len(iad) <= 28 && iad[0] == 0x06:
		return IADMChip
	case len(iad) == 20 || len(iad) == 32:
		return IADVSDC
	default:
		return IADUnknown
	}
}
