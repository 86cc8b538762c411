package rsaengine

import "github.com/barnettlynn/emvterm/cryptoengine"

const ssadFormat = 0x03

// SSAD is the recovered Signed Static Application Data contents (tag
// 0x93), used by the SDA offline data authentication method.
type SSAD struct {
	HashAlgo       byte
	DataAuthCode   [2]byte
}

// RecoverSSAD decrypts ssad with the issuer public key, validates
// header/format/trailer, and verifies the embedded hash against a
// SHA-1 over the certificate's own fixed fields plus staticData — the
// ODA record buffer, with AIP appended after it when the SDA Tag List
// (tag 0x9F4A) names it, per spec.md §4.6/§4.7.
func RecoverSSAD(engine cryptoengine.Engine, issuer IssuerPublicKey, ssad []byte, staticData []byte) (SSAD, Outcome) {
	if len(ssad) != len(issuer.Modulus) {
		return SSAD{}, OutcomeBadFormat
	}
	if len(ssad) < 25 {
		return SSAD{}, OutcomeBadFormat
	}

	decrypted := engine.ModExp(ssad, issuer.Exponent, issuer.Modulus)
	if len(decrypted) != len(ssad) {
		return SSAD{}, OutcomeCryptoFailure
	}
	if decrypted[0] != certHeaderByte {
		return SSAD{}, OutcomeBadHeader
	}
	if decrypted[len(decrypted)-1] != certTrailerByte {
		return SSAD{}, OutcomeWrongCAPK
	}
	if decrypted[1] != ssadFormat {
		return SSAD{}, OutcomeBadFormat
	}

	var out SSAD
	out.HashAlgo = decrypted[2]
	copy(out.DataAuthCode[:], decrypted[3:5])
	hash := decrypted[len(decrypted)-21 : len(decrypted)-1]

	recomputed := engine.SHA1(decrypted[1:len(decrypted)-21], staticData)
	if !bytesEqual(recomputed[:], hash) {
		return SSAD{}, OutcomeHashMismatch
	}
	return out, OutcomeOK
}
