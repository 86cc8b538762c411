package rsaengine

import (
	"github.com/barnettlynn/emvterm/capk"
	"github.com/barnettlynn/emvterm/cryptoengine"
)

// issuerCertOverheadBytes is the number of non-modulus bytes in a
// decrypted issuer public key certificate: header(1) + format(1) +
// issuer identifier(4) + expiry(2) + serial(3) + hash algo(1) + PK
// algo(1) + PK length(1) + PK exponent length(1) + hash(20) + trailer(1).
const issuerCertOverheadBytes = 36

const (
	certHeaderByte  = 0x6A
	certTrailerByte = 0xBC
	issuerCertFormat = 0x02
)

// IssuerPublicKey is the recovered Issuer Public Key certificate
// contents, per spec.md §3.
type IssuerPublicKey struct {
	IssuerID   [4]byte
	CertExpiry [2]byte // MMYY, packed BCD
	CertSerial [3]byte
	HashAlgo   byte
	SigAlgo    byte
	Modulus    []byte
	Exponent   []byte
}

// RecoverIssuerPublicKey decrypts cert with the CAPK's public exponent
// and modulus, validates header/trailer/format and the embedded hash,
// and reassembles the full modulus from the in-certificate portion plus
// remainder (the Issuer Public Key Remainder, tag 0x92, present when the
// modulus is longer than the CAPK's own modulus allows to fit).
func RecoverIssuerPublicKey(engine cryptoengine.Engine, ca capk.Key, cert, remainder, exponent []byte) (IssuerPublicKey, Outcome) {
	if len(cert) != len(ca.Modulus) {
		return IssuerPublicKey{}, OutcomeBadFormat
	}
	if len(cert) <= issuerCertOverheadBytes {
		return IssuerPublicKey{}, OutcomeBadFormat
	}

	decrypted := engine.ModExp(cert, ca.Exponent, ca.Modulus)
	if len(decrypted) != len(cert) {
		return IssuerPublicKey{}, OutcomeCryptoFailure
	}
	if decrypted[0] != certHeaderByte {
		return IssuerPublicKey{}, OutcomeBadHeader
	}
	if decrypted[len(decrypted)-1] != certTrailerByte {
		return IssuerPublicKey{}, OutcomeWrongCAPK
	}
	if decrypted[1] != issuerCertFormat {
		return IssuerPublicKey{}, OutcomeBadFormat
	}

	var pk IssuerPublicKey
	copy(pk.IssuerID[:], decrypted[2:6])
	copy(pk.CertExpiry[:], decrypted[6:8])
	copy(pk.CertSerial[:], decrypted[8:11])
	pk.HashAlgo = decrypted[11]
	pk.SigAlgo = decrypted[12]
	modulusLen := int(decrypted[13])
	modulusExpLen := int(decrypted[14])

	inCertModulus := decrypted[15 : len(decrypted)-20-1]
	hash := decrypted[len(decrypted)-21 : len(decrypted)-1]

	if modulusLen > 248 {
		return IssuerPublicKey{}, OutcomeModulusTooLong
	}
	if modulusLen < len(inCertModulus) {
		return IssuerPublicKey{}, OutcomeBadFormat
	}
	needRemainder := modulusLen - len(inCertModulus)
	if needRemainder != len(remainder) {
		return IssuerPublicKey{}, OutcomeRemainderTooLong
	}

	fullModulus := make([]byte, 0, modulusLen)
	fullModulus = append(fullModulus, inCertModulus...)
	fullModulus = append(fullModulus, remainder...)
	pk.Modulus = fullModulus

	if modulusExpLen != len(exponent) {
		return IssuerPublicKey{}, OutcomeBadFormat
	}
	pk.Exponent = append([]byte(nil), exponent...)

	recomputed := engine.SHA1(decrypted[1:len(decrypted)-21], remainder, exponent)
	if !bytesEqual(recomputed[:], hash) {
		return IssuerPublicKey{}, OutcomeHashMismatch
	}

	return pk, OutcomeOK
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
