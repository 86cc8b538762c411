package ber

// universalStringTags is the whitelist of universal-class ASN.1 tags
// whose contents are safe to render as text, exposed for callers (e.g.
// diagnostic dumps) that want to classify a TLV's value as a string
// before attempting to print it.
var universalStringTags = map[Tag]bool{
	0x0C: true, // UTF8String
	0x12: true, // NumericString
	0x13: true, // PrintableString
	0x14: true, // T61String
	0x15: true, // VideotexString
	0x16: true, // IA5String
	0x17: true, // UTCTime
	0x18: true, // GeneralizedTime
	0x19: true, // GraphicString
	0x1A: true, // VisibleString
	0x1B: true, // GeneralString
	0x1C: true, // UniversalString
	0x1E: true, // BMPString
}

// IsStringTag reports whether tag is a universal-class ASN.1 string or
// time type whose value a caller might reasonably render as text.
func IsStringTag(tag Tag) bool {
	return universalStringTags[tag]
}
