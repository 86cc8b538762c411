package ttl

import "fmt"

// Well-known ISO 7816-4 / EMV status words this package classifies
// explicitly; anything else falls through SWError's generic message.
const (
	SW9000          uint16 = 0x9000 // normal processing
	SW6985          uint16 = 0x6985 // conditions of use not satisfied (GPO not accepted)
	SW6A82          uint16 = 0x6A82 // file/application not found
	SW6283          uint16 = 0x6283 // selected file invalidated
)

// SWError represents a card command that completed (the transceive
// itself succeeded) but returned a non-success status word. Grounded on
// the teacher's SWError{Cmd, SW} shape (pkg/ntag424/errors.go),
// generalized from a single DESFire success code to the full SW1SW2
// space a 7816-4 card can return.
type SWError struct {
	Cmd byte
	SW  uint16
}

func (e *SWError) Error() string {
	return fmt.Sprintf("ttl: command 0x%02X failed with SW=0x%04X", e.Cmd, e.SW)
}

// IsSuccess reports whether sw is 0x9000. EMV treats only exact 0x9000
// as unconditional success; 61XX/6CXX are handled by the chaining loop
// before a caller ever sees them.
func IsSuccess(sw uint16) bool {
	return sw == SW9000
}

// IsMoreDataAvailable reports whether sw is 0x61XX (GET RESPONSE
// chaining: XX more bytes are available).
func IsMoreDataAvailable(sw uint16) (remaining byte, ok bool) {
	if sw&0xFF00 == 0x6100 {
		return byte(sw & 0xFF), true
	}
	return 0, false
}

// IsWrongLe reports whether sw is 0x6CXX (Le-retry: resend with Le=XX).
func IsWrongLe(sw uint16) (correctLe byte, ok bool) {
	if sw&0xFF00 == 0x6C00 {
		return byte(sw & 0xFF), true
	}
	return 0, false
}
