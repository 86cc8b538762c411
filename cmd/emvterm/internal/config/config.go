// Package config loads the cmd/emvterm terminal configuration: reader
// selection, the terminal capability/type/country TLVs fed into
// txn.Context.Terminal, and the paths to the CAPK fixture and AID
// allowlist files. Grounded on minter/internal/config/config.go and
// sdmconfig/internal/config/config.go, both of which load YAML
// device/terminal configuration with gopkg.in/yaml.v3 and KnownFields
// strict decoding.
package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/emvfield"
)

// Config is the top-level terminal configuration document.
type Config struct {
	Reader           ReaderConfig   `yaml:"reader"`
	Terminal         TerminalConfig `yaml:"terminal"`
	CAPKFixtureFile  string         `yaml:"capk_fixture_file"`
	AIDAllowlistFile string         `yaml:"aid_allowlist_file"`
	// TryPSEName is selection.PSEName or selection.PPSEName's string
	// form ("1PAY.SYS.DDF01" / "2PAY.SYS.DDF01"), or empty to skip
	// PSE/PPSE directory discovery and rely on the AID allowlist alone.
	TryPSEName string `yaml:"try_pse_name"`
}

// ReaderConfig selects which PC/SC reader to use.
type ReaderConfig struct {
	Index *int `yaml:"index"`
}

// TerminalConfig holds the terminal data elements this engine needs as
// DOL sources and ODA/restriction inputs, each a hex string of the
// field's wire encoding.
type TerminalConfig struct {
	CountryCode             string `yaml:"country_code"`
	Capabilities            string `yaml:"capabilities"`
	AdditionalCapabilities  string `yaml:"additional_capabilities"`
	Type                    string `yaml:"type"`
	TransactionCurrencyCode string `yaml:"transaction_currency_code"`
}

// Load reads and validates the config document at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.resolvePaths(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(configPath string) {
	dir := filepath.Dir(configPath)
	c.CAPKFixtureFile = resolvePath(dir, c.CAPKFixtureFile)
	c.AIDAllowlistFile = resolvePath(dir, c.AIDAllowlistFile)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}

// Validate checks that required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.Reader.Index == nil {
		return fmt.Errorf("config.reader.index is required")
	}
	if *c.Reader.Index < 0 {
		return fmt.Errorf("config.reader.index must be >= 0")
	}

	if err := validateHexField("config.terminal.country_code", c.Terminal.CountryCode, true); err != nil {
		return err
	}
	if err := validateHexField("config.terminal.capabilities", c.Terminal.Capabilities, true); err != nil {
		return err
	}
	if err := validateHexField("config.terminal.additional_capabilities", c.Terminal.AdditionalCapabilities, false); err != nil {
		return err
	}
	if err := validateHexField("config.terminal.type", c.Terminal.Type, true); err != nil {
		return err
	}
	if err := validateHexField("config.terminal.transaction_currency_code", c.Terminal.TransactionCurrencyCode, false); err != nil {
		return err
	}

	if strings.TrimSpace(c.CAPKFixtureFile) == "" {
		return fmt.Errorf("config.capk_fixture_file is required")
	}
	if err := validateReadableFile(c.CAPKFixtureFile, "config.capk_fixture_file"); err != nil {
		return err
	}
	if strings.TrimSpace(c.AIDAllowlistFile) == "" {
		return fmt.Errorf("config.aid_allowlist_file is required")
	}
	if err := validateReadableFile(c.AIDAllowlistFile, "config.aid_allowlist_file"); err != nil {
		return err
	}
	return nil
}

func validateHexField(field, value string, required bool) error {
	if strings.TrimSpace(value) == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	if _, err := hex.DecodeString(value); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func validateReadableFile(path, field string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s must point to a file, got directory", field)
	}
	return nil
}

// terminalField pairs a configured hex string with the tag it decodes
// to, for TerminalTLVs' table-driven build.
type terminalField struct {
	tag ber.Tag
	hex string
}

// TerminalTLVs decodes the configured terminal hex fields into a
// ber.TLVList suitable for txn.Context.Terminal. Fields left blank in
// the config are omitted rather than pushed as empty TLVs.
func (c *Config) TerminalTLVs() (ber.TLVList, error) {
	var list ber.TLVList
	fields := []terminalField{
		{emvfield.TagTerminalCountryCode, c.Terminal.CountryCode},
		{emvfield.TagTerminalCapabilities, c.Terminal.Capabilities},
		{emvfield.TagAdditionalTerminalCapabilities, c.Terminal.AdditionalCapabilities},
		{emvfield.TagTerminalType, c.Terminal.Type},
		{emvfield.TagTransactionCurrencyCode, c.Terminal.TransactionCurrencyCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.hex) == "" {
			continue
		}
		b, err := hex.DecodeString(f.hex)
		if err != nil {
			return ber.TLVList{}, err
		}
		list.PushBack(ber.TLV{Tag: f.tag, Value: b})
	}
	return list, nil
}
