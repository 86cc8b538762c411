package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/barnettlynn/emvterm/capk"
)

// capkEntry is the YAML shape of one CAPK fixture record: every field
// hex-encoded the way pkg/ntag424/keys.go's LoadKeyHexFile loads raw key
// material from a flat hex text format, generalized here to CAPK's
// richer per-entry shape (RID, index, modulus, exponent, checksum).
type capkEntry struct {
	RID        string `yaml:"rid"`
	Index      string `yaml:"index"`
	HashAlgoID string `yaml:"hash_algo_id"`
	Modulus    string `yaml:"modulus"`
	Exponent   string `yaml:"exponent"`
	CheckSum   string `yaml:"checksum"`
}

type capkFixture struct {
	Keys []capkEntry `yaml:"keys"`
}

// LoadCAPKFixture reads the CAPK fixture file named by path and returns
// a capk.StaticTable built from its entries.
func LoadCAPKFixture(path string) (*capk.StaticTable, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capk fixture: %w", err)
	}

	var fixture capkFixture
	if err := yaml.Unmarshal(content, &fixture); err != nil {
		return nil, fmt.Errorf("parse capk fixture: %w", err)
	}

	keys := make([]capk.Key, 0, len(fixture.Keys))
	for i, e := range fixture.Keys {
		k, err := e.decode()
		if err != nil {
			return nil, fmt.Errorf("capk fixture entry %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return capk.NewStaticTable(keys), nil
}

func (e capkEntry) decode() (capk.Key, error) {
	rid, err := decodeFixed("rid", e.RID, 5)
	if err != nil {
		return capk.Key{}, err
	}
	index, err := decodeByte("index", e.Index)
	if err != nil {
		return capk.Key{}, err
	}
	hashAlgoID, err := decodeByte("hash_algo_id", e.HashAlgoID)
	if err != nil {
		return capk.Key{}, err
	}
	modulus, err := hex.DecodeString(e.Modulus)
	if err != nil {
		return capk.Key{}, fmt.Errorf("modulus: %w", err)
	}
	exponent, err := hex.DecodeString(e.Exponent)
	if err != nil {
		return capk.Key{}, fmt.Errorf("exponent: %w", err)
	}
	checkSum, err := decodeFixed("checksum", e.CheckSum, 20)
	if err != nil {
		return capk.Key{}, err
	}

	var k capk.Key
	copy(k.RID[:], rid)
	k.Index = index
	k.HashAlgoID = hashAlgoID
	k.Modulus = modulus
	k.Exponent = exponent
	copy(k.CheckSum[:], checkSum)
	return k, nil
}

func decodeByte(field, value string) (byte, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if len(b) != 1 {
		return 0, fmt.Errorf("%s: want 1 byte, got %d", field, len(b))
	}
	return b[0], nil
}

func decodeFixed(field, value string, n int) ([]byte, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if len(b) != n {
		return nil, fmt.Errorf("%s: want %d bytes, got %d", field, n, len(b))
	}
	return b, nil
}
