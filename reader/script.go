package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/barnettlynn/emvterm/ttl"
)

// Step is one expected-request/canned-response pair in a Script.
type Step struct {
	Want []byte // expected C-APDU/C-TPDU; nil skips the match check
	Resp []byte // response to return
}

// Script is a ttl.Reader test double that replays a fixed transcript of
// request/response pairs, generalizing the teacher's env-var-based
// deterministic test session (NTAG_RNDA / SessionFromEnv in
// pkg/ntag424/auth.go) from "one overridable random value" to "a full
// canned transceive transcript" — the shape this package's command and
// chaining tests need instead.
type Script struct {
	mode  ttl.Mode
	steps []Step
	pos   int
}

// NewScript returns a Script that replays steps in order.
func NewScript(mode ttl.Mode, steps []Step) *Script {
	return &Script{mode: mode, steps: steps}
}

// Mode reports the framing this script was built for.
func (s *Script) Mode() ttl.Mode {
	return s.mode
}

// ErrScriptExhausted is returned once every step has been consumed.
var ErrScriptExhausted = errors.New("reader: script exhausted")

// ErrScriptMismatch is returned when capdu doesn't match the next step's
// expected request.
var ErrScriptMismatch = errors.New("reader: script mismatch")

// Transceive returns the next step's canned response, verifying capdu
// against the step's expected request when one was supplied.
func (s *Script) Transceive(ctx context.Context, capdu []byte) ([]byte, error) {
	if s.pos >= len(s.steps) {
		return nil, ErrScriptExhausted
	}
	step := s.steps[s.pos]
	s.pos++

	if step.Want != nil && !bytesEqual(step.Want, capdu) {
		return nil, fmt.Errorf("%w: step %d: got % X, want % X", ErrScriptMismatch, s.pos-1, capdu, step.Want)
	}
	return step.Resp, nil
}

// Done reports whether every step has been consumed.
func (s *Script) Done() bool {
	return s.pos == len(s.steps)
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
