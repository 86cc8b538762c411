// Package rsaengine recovers issuer and ICC public keys from their EMV
// certificates and verifies the Signed Static/Dynamic Application Data
// that those keys authenticate, per spec.md §4.5. Every recovery stage
// reports a named Outcome the same way the teacher's AuthError/
// ClassifyAuthError pair names the DESFire handshake's failure point,
// generalized here to EMV's own certificate-recovery steps.
package rsaengine

import "fmt"

// Outcome is a named stage result. Negative values are fatal (tampered
// data, wrong key, crypto failure: the transaction must abort). Positive
// values are recoverable degrees of partial success the orchestrator
// maps to TVR bits.
type Outcome int

const (
	// OutcomeOK indicates full, successful recovery/verification.
	OutcomeOK Outcome = 0

	// Fatal outcomes.
	OutcomeWrongCAPK        Outcome = -1 // trailer byte != 0xBC after decrypt
	OutcomeBadHeader        Outcome = -2 // leading header byte != 0x6A
	OutcomeBadFormat        Outcome = -3 // certificate format byte mismatch
	OutcomeHashMismatch     Outcome = -4 // recovered hash != recomputed hash
	OutcomeModulusTooLong   Outcome = -5 // recovered modulus exceeds 248 bytes
	OutcomeRemainderTooLong Outcome = -6 // issuer public key remainder too long
	OutcomeCryptoFailure    Outcome = -7 // Engine call failed structurally

	// Recoverable outcomes.
	OutcomePartialKeyData Outcome = 1 // optional TLVs for "full key" path missing
)

// Error wraps a non-OK Outcome with the stage name it occurred in, so
// callers (and logs) can tell "issuer key recovery" apart from "SDAD
// verification" without inspecting a bare int.
type Error struct {
	Stage   string
	Outcome Outcome
}

func (e *Error) Error() string {
	return fmt.Sprintf("rsaengine: %s: %s", e.Stage, e.Outcome)
}

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeWrongCAPK:
		return "wrong CAPK (trailer mismatch)"
	case OutcomeBadHeader:
		return "bad header byte"
	case OutcomeBadFormat:
		return "bad certificate format"
	case OutcomeHashMismatch:
		return "hash mismatch"
	case OutcomeModulusTooLong:
		return "recovered modulus too long"
	case OutcomeRemainderTooLong:
		return "issuer public key remainder too long"
	case OutcomeCryptoFailure:
		return "crypto engine failure"
	case OutcomePartialKeyData:
		return "partial key data (optional fields missing)"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// IsFatal reports whether o should abort the transaction.
func (o Outcome) IsFatal() bool {
	return o < OutcomeOK
}
