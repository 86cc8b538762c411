package rsaengine

import "github.com/barnettlynn/emvterm/cryptoengine"

const sdadFormat = 0x05

// SDAD is the recovered Signed Dynamic Application Data contents (tag
// 0x9F4B), produced by INTERNAL AUTHENTICATE (DDA) or embedded in the
// GENERATE AC response (CDA).
type SDAD struct {
	HashAlgo               byte
	ICCDynamicNumber       []byte
	CryptogramInfoData     byte
	ApplicationCryptogram  [8]byte
}

// RecoverSDAD decrypts sdad with the ICC public key, validates
// header/format/trailer = 0x05, and verifies the embedded hash against
// SHA-1 over (the certificate body minus its padding and hash) ‖ ddol
// data, per spec.md §4.3/§4.6.
//
// A trailer/header/format mismatch or hash mismatch is fatal (wrong key
// or tampered data); a caller-detected shortage of the optional
// "full key" TLVs is reported as OutcomePartialKeyData so the
// orchestrator can decide whether to proceed with partial
// authentication instead of aborting.
func RecoverSDAD(engine cryptoengine.Engine, icc ICCPublicKey, sdad, ddolData []byte, haveFullKeyData bool) (SDAD, Outcome) {
	if len(sdad) != len(icc.Modulus) {
		return SDAD{}, OutcomeBadFormat
	}

	decrypted := engine.ModExp(sdad, icc.Exponent, icc.Modulus)
	if len(decrypted) != len(sdad) {
		return SDAD{}, OutcomeCryptoFailure
	}
	if decrypted[0] != certHeaderByte {
		return SDAD{}, OutcomeBadHeader
	}
	if decrypted[len(decrypted)-1] != certTrailerByte {
		return SDAD{}, OutcomeWrongCAPK
	}
	if decrypted[1] != sdadFormat {
		return SDAD{}, OutcomeBadFormat
	}

	const fixedHeaderLen = 4 // header + format + hashAlgo + iccDynNumLen
	if len(decrypted) < fixedHeaderLen+1+8+20+1 {
		return SDAD{}, OutcomeBadFormat
	}

	hashAlgo := decrypted[2]
	dynLen := int(decrypted[3])
	pos := fixedHeaderLen
	if pos+dynLen+1+8+20+1 > len(decrypted) {
		return SDAD{}, OutcomeBadFormat
	}
	dynNumber := decrypted[pos : pos+dynLen]
	pos += dynLen
	cid := decrypted[pos]
	pos++
	var ac [8]byte
	copy(ac[:], decrypted[pos:pos+8])

	hash := decrypted[len(decrypted)-21 : len(decrypted)-1]
	// Hash input is the certificate body without the padding that fills
	// the gap between the application cryptogram and the hash (spec.md
	// §4.3: "SDAD body without padding and hash").
	body := decrypted[1 : pos+8]

	recomputed := engine.SHA1(body, ddolData)
	if !bytesEqual(recomputed[:], hash) {
		return SDAD{}, OutcomeHashMismatch
	}

	out := SDAD{HashAlgo: hashAlgo, ICCDynamicNumber: append([]byte(nil), dynNumber...), CryptogramInfoData: cid, ApplicationCryptogram: ac}
	if !haveFullKeyData {
		return out, OutcomePartialKeyData
	}
	return out, OutcomeOK
}
