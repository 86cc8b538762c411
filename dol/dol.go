// Package dol implements EMV Data Object Lists: flat sequences of
// {tag, length} entries used to request data in a fixed layout (PDOL,
// CDOL1, CDOL2, DDOL) and to assemble the corresponding data from one or
// more TLV sources, per EMV 4.4 Book 3 §5.4.
package dol

import (
	"errors"

	"github.com/barnettlynn/emvterm/ber"
)

// Entry is one DOL entry: a tag and the single-octet length that follows
// it in the wire encoding.
type Entry struct {
	Tag    ber.Tag
	Length int
}

var (
	// ErrTruncated is returned when a DOL's wire encoding ends mid-entry
	// (a tag with no length octet, or a length byte is missing).
	ErrTruncated = errors.New("dol: truncated entry")
	// ErrBufferTooSmall is returned by Build when dst cannot hold
	// required_length(entries) bytes. Per the orchestrator's error
	// taxonomy this is always a programming error: callers are expected
	// to size dst with RequiredLength first.
	ErrBufferTooSmall = errors.New("dol: destination buffer too small")
)

// Iterate decodes entries from a DOL's wire encoding and calls fn for
// each one in order, stopping at the first malformed entry or when fn
// returns false. It returns ErrTruncated if data ends mid-entry.
func Iterate(data []byte, fn func(Entry) bool) error {
	for len(data) > 0 {
		tag, _, _, tagLen, err := ber.DecodeTag(data)
		if err != nil {
			return ErrTruncated
		}
		data = data[tagLen:]
		if len(data) == 0 {
			return ErrTruncated
		}
		length := int(data[0])
		data = data[1:]
		if !fn(Entry{Tag: tag, Length: length}) {
			return nil
		}
	}
	return nil
}

// Parse decodes the full entry sequence of a DOL's wire encoding.
func Parse(data []byte) ([]Entry, error) {
	var out []Entry
	err := Iterate(data, func(e Entry) bool {
		out = append(out, e)
		return true
	})
	return out, err
}

// RequiredLength returns the sum of every entry's length, i.e. the exact
// size of the buffer Build needs to fill entries from sources.
func RequiredLength(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Length
	}
	return total
}

// Source is a TLV lookup consulted by Build; *ber.TLVList already
// satisfies it.
type Source interface {
	FindFirst(tag ber.Tag) (ber.TLV, bool)
}

// FormatNClassifier reports whether tag carries an EMV format-n (packed
// BCD numeric) value that was sourced from the terminal side of the
// transaction (params/terminal/config), as opposed to the ICC. Per EMV
// 4.4 Book 3 §5.4 step 2biii, only fields meeting both conditions use
// rightmost truncation / left zero-padding; every other field uses
// leftmost truncation / right zero-padding.
//
// dol.Build does not distinguish CN-formatted fields supplied by icc or
// config sources from generic fields: both follow the non-format-n rule
// here, pending a documented open question on the terminal-format-n
// classification's exact scope.
type FormatNClassifier func(tag ber.Tag) bool

// Build assembles the data for entries by looking each tag up in
// sources, left to right, and writes the result into dst starting at
// offset 0. dst must have length >= RequiredLength(entries); otherwise
// Build returns ErrBufferTooSmall without partial writes beyond dst's
// capacity. isTerminalFormatN may be nil, in which case no field is
// treated as terminal-format-n and every entry uses the generic
// truncation/padding rule.
//
// For each entry, in order:
//  1. The first source (in slice order) containing the tag wins.
//  2. If no source has the tag, entry.Length zero octets are written.
//  3. If the found value is exactly entry.Length long, it is copied.
//  4. If longer: a terminal-format-n field keeps its rightmost
//     entry.Length octets; anything else keeps its leftmost
//     entry.Length octets.
//  5. If shorter: a terminal-format-n field is left-padded with zero
//     nibbles (i.e. zero octets, since format-n values are octet
//     aligned at the DOL boundary); anything else is right-padded with
//     zero octets.
func Build(dst []byte, entries []Entry, sources []Source, isTerminalFormatN FormatNClassifier) (int, error) {
	need := RequiredLength(entries)
	if len(dst) < need {
		return 0, ErrBufferTooSmall
	}

	pos := 0
	for _, e := range entries {
		slot := dst[pos : pos+e.Length]
		pos += e.Length

		value, found := lookup(sources, e.Tag)
		if !found {
			zero(slot)
			continue
		}

		formatN := isTerminalFormatN != nil && isTerminalFormatN(e.Tag)
		fit(slot, value, formatN)
	}
	return pos, nil
}

func lookup(sources []Source, tag ber.Tag) ([]byte, bool) {
	for _, s := range sources {
		if s == nil {
			continue
		}
		if tlv, ok := s.FindFirst(tag); ok {
			return tlv.Value, true
		}
	}
	return nil, false
}

// fit copies value into slot, truncating or zero-padding to slot's exact
// length per the format-n/generic rule.
func fit(slot, value []byte, formatN bool) {
	switch {
	case len(value) == len(slot):
		copy(slot, value)
	case len(value) > len(slot):
		if formatN {
			copy(slot, value[len(value)-len(slot):])
		} else {
			copy(slot, value[:len(slot)])
		}
	default:
		if formatN {
			zero(slot[:len(slot)-len(value)])
			copy(slot[len(slot)-len(value):], value)
		} else {
			copy(slot, value)
			zero(slot[len(value):])
		}
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
