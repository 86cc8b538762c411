// Package emvfield implements the EMV application-layer helpers that sit
// on top of the ber package: AID/scheme/product recognition, AFL and CVM
// List iteration, IAD format detection, n/b/ans format conversions and
// date comparison.
package emvfield

import "github.com/barnettlynn/emvterm/ber"

// Format identifies the EMV data element format code from EMV 4.4 Book 3
// Annex B.
type Format byte

const (
	FormatUnknown Format = iota
	FormatA              // alphabetic
	FormatAN             // alphanumeric
	FormatANS            // alphanumeric special
	FormatB              // binary
	FormatCN             // compressed numeric
	FormatN              // numeric (packed BCD)
	FormatVar            // variable, format not otherwise specified
	FormatDOL            // data object list
	FormatTagList        // list of BER-TLV tags
)

// Closed set of application-class EMV tags this engine recognizes, per
// spec.md §6. Tags not in this table are still decodable by ber (any
// well-formed BER-TLV parses) but emvfield treats their format as
// FormatUnknown.
const (
	TagApplicationTemplate           ber.Tag = 0x61
	TagFCITemplate                   ber.Tag = 0x6F
	TagReadRecordResponseTemplate    ber.Tag = 0x70
	TagIssuerScriptTemplate1         ber.Tag = 0x71
	TagIssuerScriptTemplate2         ber.Tag = 0x72
	TagFCIDataTemplate               ber.Tag = 0x73
	TagResponseMessageTemplateFmt2   ber.Tag = 0x77
	TagResponseMessageTemplateFmt1   ber.Tag = 0x80
	TagAmountAuthorisedBinary        ber.Tag = 0x81
	TagAIP                           ber.Tag = 0x82
	TagCommandTemplate               ber.Tag = 0x83
	TagDFName                        ber.Tag = 0x84
	TagIssuerScriptCommand           ber.Tag = 0x86
	TagApplicationPriorityIndicator  ber.Tag = 0x87
	TagSFI                           ber.Tag = 0x88
	TagAuthorisationCode             ber.Tag = 0x89
	TagAuthorisationResponseCode     ber.Tag = 0x8A
	TagCDOL1RelatedData              ber.Tag = 0x8C
	TagCDOL2RelatedData              ber.Tag = 0x8D
	TagCVMList                       ber.Tag = 0x8E
	TagCAPKIndex                     ber.Tag = 0x8F
	TagIssuerPublicKeyCertificate    ber.Tag = 0x90
	TagIssuerAuthenticationData      ber.Tag = 0x91
	TagIssuerPublicKeyRemainder      ber.Tag = 0x92
	TagSSAD                          ber.Tag = 0x93
	TagAFL                           ber.Tag = 0x94
	TagTVR                           ber.Tag = 0x95
	TagTSI                           ber.Tag = 0x9B
	TagTransactionType               ber.Tag = 0x9C
	TagDDF                           ber.Tag = 0x9D
	TagFCIIssuerDiscretionaryData    ber.Tag = 0xA5
	TagCardholderName                ber.Tag = 0x5F20
	TagApplicationExpirationDate     ber.Tag = 0x5F24
	TagApplicationEffectiveDate      ber.Tag = 0x5F25
	TagIssuerCountryCode             ber.Tag = 0x5F28
	TagTransactionCurrencyCode       ber.Tag = 0x5F2A
	TagTransactionCurrencyExponent   ber.Tag = 0x5F36
	TagPAN                           ber.Tag = 0x5A
	TagApplicationTemplate2          ber.Tag = 0x50
	TagLanguagePreference            ber.Tag = 0x5F2D
	TagAID                           ber.Tag = 0x4F
	TagTrack2EquivalentData          ber.Tag = 0x57
	TagPANSequenceNumber             ber.Tag = 0x5F34
	TagUnpredictableNumber           ber.Tag = 0x9F37
	TagAmountAuthorisedNumeric       ber.Tag = 0x9F02
	TagAmountOtherNumeric            ber.Tag = 0x9F03
	TagApplicationVersionNumberCard ber.Tag = 0x9F08
	TagApplicationVersionNumberTerm ber.Tag = 0x9F09
	TagIssuerActionCodeDefault       ber.Tag = 0x9F0D
	TagIssuerActionCodeDenial        ber.Tag = 0x9F0E
	TagIssuerActionCodeOnline        ber.Tag = 0x9F0F
	TagIssuerApplicationData         ber.Tag = 0x9F10
	TagTerminalCountryCode           ber.Tag = 0x9F1A
	TagApplicationCryptogram         ber.Tag = 0x9F26
	TagCryptogramInformationData     ber.Tag = 0x9F27
	TagTerminalCapabilities          ber.Tag = 0x9F33
	TagCVMResults                    ber.Tag = 0x9F34
	TagTerminalType                  ber.Tag = 0x9F35
	TagApplicationTransactionCounter ber.Tag = 0x9F36
	TagPDOL                           ber.Tag = 0x9F38
	TagDDOL                          ber.Tag = 0x9F49
	TagSDAD                          ber.Tag = 0x9F4B
	TagSDATagList                    ber.Tag = 0x9F4A
	TagICCDynamicNumber              ber.Tag = 0x9F4C
	TagIssuerPublicKeyExponent       ber.Tag = 0x9F32
	TagICCPublicKeyCertificate       ber.Tag = 0x9F46
	TagICCPublicKeyExponent          ber.Tag = 0x9F47
	TagICCPublicKeyRemainder         ber.Tag = 0x9F48
	TagApplicationUsageControl       ber.Tag = 0x9F07
	TagAdditionalTerminalCapabilities ber.Tag = 0x9F40
	TagTransactionDate               ber.Tag = 0x9A
)

// formatTable maps the recognized tags to their EMV data element format.
// Only tags actually consulted by dol/txn logic (format-n classification,
// date comparison, masking) need entries; others default to FormatUnknown.
var formatTable = map[ber.Tag]Format{
	TagAmountAuthorisedNumeric:        FormatN,
	TagAmountOtherNumeric:             FormatN,
	TagTransactionCurrencyCode:        FormatN,
	TagTransactionType:                FormatN,
	TagTransactionDate:                FormatN,
	TagApplicationVersionNumberCard:   FormatB,
	TagApplicationVersionNumberTerm:   FormatB,
	TagTerminalCountryCode:            FormatN,
	TagApplicationTransactionCounter:  FormatB,
	TagUnpredictableNumber:            FormatB,
	TagAID:                            FormatB,
	TagDFName:                         FormatB,
	TagPAN:                            FormatCN,
	TagApplicationExpirationDate:      FormatN,
	TagApplicationEffectiveDate:       FormatN,
	TagIssuerCountryCode:              FormatN,
	TagCardholderName:                 FormatANS,
	TagTrack2EquivalentData:           FormatB,
	TagAIP:                            FormatB,
	TagAFL:                            FormatB,
	TagTVR:                            FormatB,
	TagTSI:                            FormatB,
	TagCVMResults:                     FormatB,
	TagTerminalCapabilities:           FormatB,
	TagAdditionalTerminalCapabilities: FormatB,
	TagApplicationUsageControl:        FormatB,
	TagTerminalType:                   FormatN,
	TagApplicationCryptogram:          FormatB,
	TagCryptogramInformationData:      FormatB,
	TagCAPKIndex:                      FormatB,
	TagIssuerPublicKeyCertificate:     FormatB,
	TagIssuerPublicKeyRemainder:       FormatB,
	TagSSAD:                           FormatB,
	TagSDAD:                           FormatB,
	TagICCDynamicNumber:               FormatB,
	TagSDATagList:                     FormatTagList,
}

// FormatOf returns the EMV data element format registered for tag, or
// FormatUnknown if the tag is not in the closed table.
func FormatOf(tag ber.Tag) Format {
	if f, ok := formatTable[tag]; ok {
		return f
	}
	return FormatUnknown
}

// IsFormatN reports whether tag's EMV format is packed-BCD numeric (n).
// This is the classifier dol.Build uses to decide rightmost-truncation /
// left-zero-pad vs. the generic leftmost rule.
func IsFormatN(tag ber.Tag) bool {
	return FormatOf(tag) == FormatN
}
