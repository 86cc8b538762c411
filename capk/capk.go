// Package capk provides the Certificate Authority Public Key table the
// RSA certificate engine consults when recovering issuer and ICC public
// keys. CAPK data is read-only and, per spec.md's scope note, treated as
// data rather than code: this package only defines the key shape and a
// lookup service over it.
package capk

import "github.com/barnettlynn/emvterm/secutil"

// Key is one Certificate Authority Public Key entry: {RID, index,
// hash algorithm, modulus, exponent, and the SHA-1 hash over the
// concatenation of RID, index, modulus and exponent} that the issuer
// certificate chain is rooted in.
type Key struct {
	RID        [5]byte
	Index      byte
	HashAlgoID byte
	Modulus    []byte
	Exponent   []byte
	// CheckSum is the published SHA-1 hash of RID||Index||Modulus||Exponent,
	// used to verify a CAPK entry hasn't been corrupted before trusting it.
	CheckSum [20]byte
}

// Table looks up a CAPK entry by (RID, index), the same two fields a
// certificate's issuer identifier and CAPK index specify.
type Table interface {
	Lookup(rid [5]byte, index byte) (Key, bool)
	All() []Key
}

// StaticTable is a Table backed by an in-memory slice, suitable for a
// fixture loaded once at startup and shared read-only across
// transaction contexts (spec.md §5: "the CAPK table is read‑only and may
// be shared freely across contexts").
type StaticTable struct {
	keys []Key
}

// NewStaticTable builds a StaticTable from keys. The slice is retained,
// not copied: callers must not mutate it afterward.
func NewStaticTable(keys []Key) *StaticTable {
	return &StaticTable{keys: keys}
}

// Lookup performs a linear scan for (rid, index). CAPK tables are small
// (tens of entries per scheme) so a linear scan avoids map-key plumbing
// for a fixed-size array lookup.
func (t *StaticTable) Lookup(rid [5]byte, index byte) (Key, bool) {
	for _, k := range t.keys {
		if k.RID == rid && k.Index == index {
			return k, true
		}
	}
	return Key{}, false
}

// All returns every key in the table, in load order.
func (t *StaticTable) All() []Key {
	return t.keys
}

// Zeroise wipes a Key's modulus and exponent buffers. CAPK entries
// themselves aren't secret, but callers that derive working copies
// (e.g. scratch buffers during modular exponentiation) should zeroise
// those copies the same way; this helper is provided so derived copies
// follow the same call as issuer/ICC key zeroisation.
func Zeroise(k *Key) {
	secutil.Zeroise(k.Modulus)
	secutil.Zeroise(k.Exponent)
}
