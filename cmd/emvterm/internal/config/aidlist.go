package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/barnettlynn/emvterm/selection"
)

// aidEntry is the YAML shape of one allowlisted terminal AID.
type aidEntry struct {
	AID          string `yaml:"aid"`
	PartialMatch bool   `yaml:"partial_match"`
}

type aidAllowlist struct {
	AIDs []aidEntry `yaml:"aids"`
}

// LoadAIDAllowlist reads the terminal AID allowlist file named by path
// and returns the selection.TerminalAID entries BuildCandidates needs
// for its independent terminal-AID discovery step.
func LoadAIDAllowlist(path string) ([]selection.TerminalAID, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aid allowlist: %w", err)
	}

	var list aidAllowlist
	if err := yaml.Unmarshal(content, &list); err != nil {
		return nil, fmt.Errorf("parse aid allowlist: %w", err)
	}

	out := make([]selection.TerminalAID, 0, len(list.AIDs))
	for i, e := range list.AIDs {
		aid, err := hex.DecodeString(e.AID)
		if err != nil {
			return nil, fmt.Errorf("aid allowlist entry %d: %w", i, err)
		}
		out = append(out, selection.TerminalAID{AID: aid, PartialMatch: e.PartialMatch})
	}
	return out, nil
}
