package rsaengine

import "github.com/barnettlynn/emvterm/cryptoengine"

// iccCertOverheadBytes: header(1) + format(1) + PAN(10) + expiry(2) +
// serial(3) + hash algo(1) + PK algo(1) + PK length(1) + PK exponent
// length(1) + hash(20) + trailer(1).
const iccCertOverheadBytes = 42

const iccCertFormat = 0x04

// ICCPublicKey is the recovered ICC Public Key certificate contents.
// PAN is kept in its 10-byte compressed-numeric (0xF-padded) form, per
// spec.md §3.
type ICCPublicKey struct {
	PAN        [10]byte
	CertExpiry [2]byte
	CertSerial [3]byte
	HashAlgo   byte
	SigAlgo    byte
	Modulus    []byte
	Exponent   []byte
}

// RecoverICCPublicKey decrypts cert with the issuer public key and
// validates it the same way RecoverIssuerPublicKey does, additionally
// folding staticData (the SDA Tag List's referenced fields, used by
// DDA/CDA's chain-check step) into the hash input per EMV Book 2 §6.3.
func RecoverICCPublicKey(engine cryptoengine.Engine, issuer IssuerPublicKey, cert, remainder, exponent, staticData []byte) (ICCPublicKey, Outcome) {
	if len(cert) != len(issuer.Modulus) {
		return ICCPublicKey{}, OutcomeBadFormat
	}
	if len(cert) <= iccCertOverheadBytes {
		return ICCPublicKey{}, OutcomeBadFormat
	}

	decrypted := engine.ModExp(cert, issuer.Exponent, issuer.Modulus)
	if len(decrypted) != len(cert) {
		return ICCPublicKey{}, OutcomeCryptoFailure
	}
	if decrypted[0] != certHeaderByte {
		return ICCPublicKey{}, OutcomeBadHeader
	}
	if decrypted[len(decrypted)-1] != certTrailerByte {
		return ICCPublicKey{}, OutcomeWrongCAPK
	}
	if decrypted[1] != iccCertFormat {
		return ICCPublicKey{}, OutcomeBadFormat
	}

	var pk ICCPublicKey
	copy(pk.PAN[:], decrypted[2:12])
	copy(pk.CertExpiry[:], decrypted[12:14])
	copy(pk.CertSerial[:], decrypted[14:17])
	pk.HashAlgo = decrypted[17]
	pk.SigAlgo = decrypted[18]
	modulusLen := int(decrypted[19])
	modulusExpLen := int(decrypted[20])

	inCertModulus := decrypted[21 : len(decrypted)-20-1]
	hash := decrypted[len(decrypted)-21 : len(decrypted)-1]

	if modulusLen > 248 {
		return ICCPublicKey{}, OutcomeModulusTooLong
	}
	if modulusLen < len(inCertModulus) {
		return ICCPublicKey{}, OutcomeBadFormat
	}
	needRemainder := modulusLen - len(inCertModulus)
	if needRemainder != len(remainder) {
		return ICCPublicKey{}, OutcomeRemainderTooLong
	}

	fullModulus := make([]byte, 0, modulusLen)
	fullModulus = append(fullModulus, inCertModulus...)
	fullModulus = append(fullModulus, remainder...)
	pk.Modulus = fullModulus

	if modulusExpLen != len(exponent) {
		return ICCPublicKey{}, OutcomeBadFormat
	}
	pk.Exponent = append([]byte(nil), exponent...)

	recomputed := engine.SHA1(decrypted[1:len(decrypted)-21], remainder, exponent, staticData)
	if !bytesEqual(recomputed[:], hash) {
		return ICCPublicKey{}, OutcomeHashMismatch
	}

	return pk, OutcomeOK
}
