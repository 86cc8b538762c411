package ttl

import (
	"context"
	"errors"
)

// ErrUnsupportedWait is returned when a TPDU-mode card sends the 0x60
// "wait" procedure byte, which this engine does not implement per
// spec.md §4.6.
var ErrUnsupportedWait = errors.New("ttl: 0x60 wait procedure byte not supported")

// ErrChainingNotSupported is returned when a 61XX/6CXX status word is
// received for an APDU case that doesn't carry a Le the chaining loop
// can rewrite (only cases 2 and 4 qualify).
var ErrChainingNotSupported = errors.New("ttl: chaining requires case 2 or 4")

const (
	insGetResponse byte = 0xC0
	claISO         byte = 0x00
)

// Exchange sends capdu through r and resolves the full GET RESPONSE /
// Le-retry chain per spec.md §4.6, returning the final response data
// (SW1SW2 stripped and reported separately) once a terminal status word
// is reached. The internal chaining loop is invisible to callers: one
// Exchange call is one atomic operation on the context, per spec.md §5.
func Exchange(ctx context.Context, r Reader, capdu []byte) (data []byte, sw uint16, err error) {
	c, err := ClassifyCase(capdu)
	if err != nil {
		return nil, 0, err
	}

	resp, err := transceive(ctx, r, capdu)
	if err != nil {
		return nil, 0, err
	}
	data, sw, err = splitResponse(resp)
	if err != nil {
		return nil, 0, err
	}

	for {
		if IsSuccess(sw) || isWarning(sw) {
			return data, sw, nil
		}

		if remaining, ok := IsMoreDataAvailable(sw); ok {
			if !c.SupportsGetResponseChaining() {
				return nil, sw, ErrChainingNotSupported
			}
			getResp := []byte{claISO, insGetResponse, 0x00, 0x00, remaining}
			resp, err = transceive(ctx, r, getResp)
			if err != nil {
				return nil, 0, err
			}
			data, sw, err = splitResponse(resp)
			if err != nil {
				return nil, 0, err
			}
			continue
		}

		if correctLe, ok := IsWrongLe(sw); ok {
			if !c.SupportsGetResponseChaining() {
				return nil, sw, ErrChainingNotSupported
			}
			retry := append([]byte(nil), capdu[:len(capdu)-1]...)
			retry = append(retry, correctLe)
			resp, err = transceive(ctx, r, retry)
			if err != nil {
				return nil, 0, err
			}
			data, sw, err = splitResponse(resp)
			if err != nil {
				return nil, 0, err
			}
			continue
		}

		return data, sw, nil
	}
}

// isWarning reports whether sw is an ISO 7816-4 warning (0x62XX or
// 0x63XX), which spec.md §4.6 treats the same as unconditional success:
// the response is returned to the caller as-is.
func isWarning(sw uint16) bool {
	hi := sw & 0xFF00
	return hi == 0x6200 || hi == 0x6300
}

// splitResponse separates an R-APDU's trailing SW1SW2 from its data.
func splitResponse(resp []byte) (data []byte, sw uint16, err error) {
	if len(resp) < 2 {
		return nil, 0, errors.New("ttl: response shorter than SW1SW2")
	}
	n := len(resp)
	sw = uint16(resp[n-2])<<8 | uint16(resp[n-1])
	return resp[:n-2], sw, nil
}

// transceive dispatches to APDU-mode or TPDU-mode framing depending on
// r.Mode(), per spec.md §4.6's reader-mode paragraph.
func transceive(ctx context.Context, r Reader, capdu []byte) ([]byte, error) {
	switch r.Mode() {
	case ModeAPDU:
		return r.Transceive(ctx, capdu)
	case ModeTPDU:
		return transceiveTPDU(ctx, r, capdu)
	default:
		return nil, errors.New("ttl: unknown reader mode")
	}
}

// transceiveTPDU drives ISO 7816-3 T=0 procedure-byte negotiation: only
// the 5-byte header is sent first; the card's procedure byte says
// whether to send the remaining data, send one byte at a time, or that
// the two bytes already received are SW1SW2.
func transceiveTPDU(ctx context.Context, r Reader, capdu []byte) ([]byte, error) {
	if len(capdu) < 5 {
		return nil, ErrInvalidAPDULength
	}
	ins := capdu[1]
	header := capdu[:5]
	rest := capdu[5:]

	resp, err := r.Transceive(ctx, header)
	if err != nil {
		return nil, err
	}

	var out []byte
	for {
		if len(resp) == 0 {
			return nil, errors.New("ttl: empty TPDU procedure response")
		}
		proc := resp[0]

		switch {
		case proc == 0x60:
			return nil, ErrUnsupportedWait
		case proc == ins:
			resp, err = r.Transceive(ctx, rest)
			if err != nil {
				return nil, err
			}
			continue
		case proc == ins^0xFF:
			if len(rest) == 0 {
				return nil, errors.New("ttl: procedure byte requested data but none remains")
			}
			resp, err = r.Transceive(ctx, rest[:1])
			if err != nil {
				return nil, err
			}
			rest = rest[1:]
			continue
		case proc&0xF0 == 0x60 || proc&0xF0 == 0x90:
			if len(resp) < 2 {
				return nil, errors.New("ttl: truncated SW1SW2 from TPDU reader")
			}
			out = append(out, resp[:2]...)
			return out, nil
		default:
			// Any other first byte: this transceive's result is taken as
			// response data with SW1SW2 trailing and returned as-is; no
			// further procedure byte is awaited.
			out = append(out, resp...)
			return out, nil
		}
	}
}
