package selection

import (
	"bytes"
	"context"
	"errors"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/ttl"
)

// PSEName and PPSEName are the two well-known directory DF names, per
// spec.md §4.7 step 1: contact terminals try PSE first, contactless
// terminals try PPSE.
var (
	PSEName  = []byte("1PAY.SYS.DDF01")
	PPSEName = []byte("2PAY.SYS.DDF01")
)

const pseDirectorySFI = 1

// swRecordNotFound is the status word the PSE directory read loop uses
// to detect "no more records" (spec.md §4.7 step 2).
const swRecordNotFound uint16 = 0x6A83

// ErrNoPSE is returned when the directory name given to DiscoverPSE does
// not select successfully;
// callers fall back to terminal-AID discovery alone.
var ErrNoPSE = errors.New("selection: PSE/PPSE not found")

// errPSERecordMalformed is returned when a PSE directory record isn't a
// well-formed template 0x70, the same wrapping READ RECORD always
// returns and txn.ReadApplicationData separately validates.
var errPSERecordMalformed = errors.New("selection: PSE directory record not a well-formed template 0x70")

// DiscoverPSE selects name (PSEName or PPSEName) and, if found, reads
// its directory records from SFI 1 until the card returns
// swRecordNotFound, decoding each application template (tag 0x61) into
// a Candidate.
func DiscoverPSE(ctx context.Context, r ttl.Reader, name []byte) ([]Candidate, error) {
	_, sw, err := ttl.SelectByName(ctx, r, name, ttl.SelectFirst)
	if err != nil {
		return nil, err
	}
	if sw != ttl.SW9000 {
		return nil, ErrNoPSE
	}

	var out []Candidate
	for record := byte(1); ; record++ {
		data, sw, err := ttl.ReadRecord(ctx, r, pseDirectorySFI, record)
		if err != nil {
			return nil, err
		}
		if sw == swRecordNotFound {
			break
		}
		if sw != ttl.SW9000 {
			return nil, &ttl.SWError{Cmd: 0xB2, SW: sw}
		}

		wrapper, n, err := ber.DecodeOne(data)
		if err != nil || n != len(data) || wrapper.Tag != emvfield.TagReadRecordResponseTemplate {
			return nil, errPSERecordMalformed
		}

		var iterErr error
		err = ber.Iterate(wrapper.Value, func(tlv ber.RawTLV) bool {
			if tlv.Tag != emvfield.TagApplicationTemplate {
				return true
			}
			cand, cerr := decodeApplicationTemplate(tlv.Value)
			if cerr != nil {
				iterErr = cerr
				return false
			}
			out = append(out, cand)
			return true
		})
		if err != nil {
			return nil, err
		}
		if iterErr != nil {
			return nil, iterErr
		}
	}
	return out, nil
}

// decodeApplicationTemplate parses one tag-0x61 Application Template's
// nested TLVs into a Candidate.
func decodeApplicationTemplate(data []byte) (Candidate, error) {
	list, err := ber.ParseAll(data)
	if err != nil {
		return Candidate{}, err
	}
	var c Candidate
	if aid, ok := list.FindFirst(emvfield.TagAID); ok {
		c.AID = aid.Value
		c.DFName = aid.Value
	}
	if label, ok := list.FindFirst(emvfield.TagApplicationTemplate2); ok {
		c.Label = string(label.Value)
	}
	if pri, ok := list.FindFirst(emvfield.TagApplicationPriorityIndicator); ok && len(pri.Value) == 1 {
		c.Priority = int(pri.Value[0] & 0x0F)
	}
	if lang, ok := list.FindFirst(emvfield.TagLanguagePreference); ok {
		c.LanguagePreference = string(lang.Value)
	}
	if idd, ok := list.FindFirst(emvfield.TagFCIIssuerDiscretionaryData); ok {
		c.FCIIssuerDiscretionaryData = idd.Value
	}
	return c, nil
}

// TerminalAID is one entry in the terminal's AID allowlist consulted
// during independent AID discovery (spec.md §4.7 step 3).
type TerminalAID struct {
	AID          []byte
	PartialMatch bool // ASI: accept any DF name having AID as a prefix
}

// DiscoverByTerminalAIDs attempts SELECT by DF name for each of aids, in
// order, adding a Candidate for every AID found on the card. Exact-match
// entries require the returned DF name to equal the AID; partial-match
// entries accept any DF name with AID as a prefix.
func DiscoverByTerminalAIDs(ctx context.Context, r ttl.Reader, aids []TerminalAID) ([]Candidate, error) {
	var out []Candidate
	for _, ta := range aids {
		fci, sw, err := ttl.SelectByName(ctx, r, ta.AID, ttl.SelectFirst)
		if err != nil {
			return nil, err
		}
		if sw != ttl.SW9000 {
			continue
		}

		list, err := ber.ParseAll(fci)
		if err != nil {
			return nil, err
		}
		dfName, ok := list.FindFirst(emvfield.TagDFName)
		if !ok {
			continue
		}
		if !matchesAID(ta, dfName.Value) {
			continue
		}

		c := Candidate{AID: ta.AID, DFName: dfName.Value}
		if label, ok := list.FindFirst(emvfield.TagApplicationTemplate2); ok {
			c.Label = string(label.Value)
		}
		if pri, ok := list.FindFirst(emvfield.TagApplicationPriorityIndicator); ok && len(pri.Value) == 1 {
			c.Priority = int(pri.Value[0] & 0x0F)
		}
		if idd, ok := list.FindFirst(emvfield.TagFCIIssuerDiscretionaryData); ok {
			c.FCIIssuerDiscretionaryData = idd.Value
		}
		out = append(out, c)
	}
	return out, nil
}

func matchesAID(ta TerminalAID, dfName []byte) bool {
	if ta.PartialMatch {
		return bytes.HasPrefix(dfName, ta.AID)
	}
	return bytes.Equal(dfName, ta.AID)
}
