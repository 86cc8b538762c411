// Package selection implements EMV application selection: PSE/PPSE
// directory traversal, terminal-AID discovery by SELECT, candidate
// priority sorting, and SELECT-by-index on the caller's final pick, per
// spec.md §4.7.
package selection

import "golang.org/x/exp/slices"

// Candidate is one discovered application entry, built either from a
// PSE/PPSE directory record or from a successful terminal-AID SELECT.
type Candidate struct {
	AID                        []byte
	DFName                     []byte
	Priority                   int // 0 = unspecified, ranks last
	Label                      string
	LanguagePreference         string
	PreferredName              string
	FCIIssuerDiscretionaryData []byte
	// NeedsConfirmation marks a candidate whose FCI issuer discretionary
	// data set the "application selection indicator requires
	// confirmation" bit; the caller UI (out of scope here) decides how
	// to prompt.
	NeedsConfirmation bool
}

// SortCandidates orders cands by ascending Application Priority
// Indicator, with 0 ("no priority") sorted last, preserving discovery
// order within equal priorities (spec.md §4.7 step 4). Uses
// golang.org/x/exp/slices.SortStableFunc so equal-priority ties keep
// their original relative order.
func SortCandidates(cands []Candidate) {
	slices.SortStableFunc(cands, func(a, b Candidate) int {
		return rank(a.Priority) - rank(b.Priority)
	})
}

// rank maps priority 0 (unspecified) past every real priority value
// (1..15) so it always sorts last.
func rank(priority int) int {
	if priority == 0 {
		return 1 << 30
	}
	return priority
}
