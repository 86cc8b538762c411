package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTerminalConfig(t *testing.T, tmp string, extra string) string {
	t.Helper()
	capkPath := filepath.Join(tmp, "capk.yaml")
	if err := os.WriteFile(capkPath, []byte("keys: []\n"), 0o644); err != nil {
		t.Fatalf("write capk fixture: %v", err)
	}
	aidPath := filepath.Join(tmp, "aids.yaml")
	if err := os.WriteFile(aidPath, []byte("aids: []\n"), 0o644); err != nil {
		t.Fatalf("write aid allowlist: %v", err)
	}

	cfgPath := filepath.Join(tmp, "config.yaml")
	cfgYAML := `
reader:
  index: 0
terminal:
  country_code: "0840"
  capabilities: "E0F8C8"
  additional_capabilities: "6000F0A001"
  type: "22"
  transaction_currency_code: "0840"
capk_fixture_file: "capk.yaml"
aid_allowlist_file: "aids.yaml"
` + extra
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestLoadValidConfigAndResolveRelativePaths(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := writeTerminalConfig(t, tmp, "")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	wantCAPK := filepath.Join(tmp, "capk.yaml")
	if cfg.CAPKFixtureFile != wantCAPK {
		t.Fatalf("CAPKFixtureFile = %q, want %q", cfg.CAPKFixtureFile, wantCAPK)
	}
	wantAID := filepath.Join(tmp, "aids.yaml")
	if cfg.AIDAllowlistFile != wantAID {
		t.Fatalf("AIDAllowlistFile = %q, want %q", cfg.AIDAllowlistFile, wantAID)
	}
	if *cfg.Reader.Index != 0 {
		t.Fatalf("Reader.Index = %d, want 0", *cfg.Reader.Index)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := writeTerminalConfig(t, tmp, "bogus_field: true\n")

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFailsWithoutReaderIndex(t *testing.T) {
	tmp := t.TempDir()
	capkPath := filepath.Join(tmp, "capk.yaml")
	os.WriteFile(capkPath, []byte("keys: []\n"), 0o644)
	aidPath := filepath.Join(tmp, "aids.yaml")
	os.WriteFile(aidPath, []byte("aids: []\n"), 0o644)

	cfgPath := filepath.Join(tmp, "config.yaml")
	cfgYAML := `
terminal:
  country_code: "0840"
  capabilities: "E0F8C8"
  type: "22"
capk_fixture_file: "capk.yaml"
aid_allowlist_file: "aids.yaml"
`
	os.WriteFile(cfgPath, []byte(cfgYAML), 0o644)

	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.reader.index is required") {
		t.Fatalf("err = %v, want reader.index required", err)
	}
}

func TestLoadFailsOnBadHexField(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := writeTerminalConfig(t, tmp, "")
	content, _ := os.ReadFile(cfgPath)
	bad := strings.Replace(string(content), `capabilities: "E0F8C8"`, `capabilities: "ZZ"`, 1)
	os.WriteFile(cfgPath, []byte(bad), 0o644)

	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.terminal.capabilities") {
		t.Fatalf("err = %v, want capabilities hex error", err)
	}
}

func TestLoadFailsWhenCAPKFixtureMissing(t *testing.T) {
	tmp := t.TempDir()
	aidPath := filepath.Join(tmp, "aids.yaml")
	os.WriteFile(aidPath, []byte("aids: []\n"), 0o644)

	cfgPath := filepath.Join(tmp, "config.yaml")
	cfgYAML := `
reader:
  index: 0
terminal:
  country_code: "0840"
  capabilities: "E0F8C8"
  type: "22"
capk_fixture_file: "missing.yaml"
aid_allowlist_file: "aids.yaml"
`
	os.WriteFile(cfgPath, []byte(cfgYAML), 0o644)

	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.capk_fixture_file") {
		t.Fatalf("err = %v, want capk fixture file error", err)
	}
}

func TestTerminalTLVsIncludesConfiguredFields(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := writeTerminalConfig(t, tmp, "")
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tlvs, err := cfg.TerminalTLVs()
	if err != nil {
		t.Fatalf("TerminalTLVs: %v", err)
	}
	if _, ok := tlvs.FindFirst(0x9F1A); !ok {
		t.Fatal("expected terminal country code TLV present")
	}
	if _, ok := tlvs.FindFirst(0x9F40); !ok {
		t.Fatal("expected additional terminal capabilities TLV present")
	}
}
