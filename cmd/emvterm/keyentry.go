package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/barnettlynn/emvterm/capk"
)

// readMaskedHex prompts on stdout and reads a line of hex-digit input
// from stdin with the raw terminal echoing '*' per character instead of
// the typed digit, for transcript key material (CAPK overrides, issuer
// secrets) that should not appear on an operator's screen or in a
// terminal scrollback. Adapted from keyswap/main.go's selectMenu raw-mode
// read loop: MakeRaw/Restore bracket a manual os.Stdin.Read byte loop,
// here echoing '*' and accumulating runes instead of walking a menu.
func readMaskedHex(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Printf("%s\r\n", prompt)

	var out []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			continue
		}
		switch buf[0] {
		case 0x0D, 0x0A: // Enter
			fmt.Printf("\r\n")
			return string(out), nil
		case 0x03: // Ctrl-C
			term.Restore(fd, oldState)
			fmt.Printf("\r\n")
			os.Exit(1)
		case 0x7F, 0x08: // Backspace / DEL
			if len(out) > 0 {
				out = out[:len(out)-1]
				fmt.Print("\b \b")
			}
		default:
			if isHexDigit(buf[0]) {
				out = append(out, buf[0])
				fmt.Print("*")
			}
		}
	}
}

// promptCAPKOverride masks-prompts for one CAPK entry's RID, index, hash
// algorithm, modulus and exponent, for an operator supplying a key the
// fixture file doesn't carry (a new scheme RID rotated in after the
// fixture was last updated) without writing it to disk.
func promptCAPKOverride() (capk.Key, error) {
	ridHex, err := readMaskedHex("RID (10 hex chars):")
	if err != nil {
		return capk.Key{}, err
	}
	rid, err := hex.DecodeString(ridHex)
	if err != nil || len(rid) != 5 {
		return capk.Key{}, fmt.Errorf("RID must be 5 bytes hex")
	}

	indexHex, err := readMaskedHex("index (2 hex chars):")
	if err != nil {
		return capk.Key{}, err
	}
	index, err := hex.DecodeString(indexHex)
	if err != nil || len(index) != 1 {
		return capk.Key{}, fmt.Errorf("index must be 1 byte hex")
	}

	hashAlgoHex, err := readMaskedHex("hash algorithm ID (2 hex chars):")
	if err != nil {
		return capk.Key{}, err
	}
	hashAlgoID, err := hex.DecodeString(hashAlgoHex)
	if err != nil || len(hashAlgoID) != 1 {
		return capk.Key{}, fmt.Errorf("hash algorithm ID must be 1 byte hex")
	}

	modulusHex, err := readMaskedHex("modulus (hex):")
	if err != nil {
		return capk.Key{}, err
	}
	modulus, err := hex.DecodeString(modulusHex)
	if err != nil {
		return capk.Key{}, fmt.Errorf("modulus: %w", err)
	}

	exponentHex, err := readMaskedHex("exponent (hex):")
	if err != nil {
		return capk.Key{}, err
	}
	exponent, err := hex.DecodeString(exponentHex)
	if err != nil {
		return capk.Key{}, fmt.Errorf("exponent: %w", err)
	}

	checksumHex, err := readMaskedHex("checksum (40 hex chars):")
	if err != nil {
		return capk.Key{}, err
	}
	checksum, err := hex.DecodeString(checksumHex)
	if err != nil || len(checksum) != 20 {
		return capk.Key{}, fmt.Errorf("checksum must be 20 bytes hex")
	}

	var k capk.Key
	copy(k.RID[:], rid)
	k.Index = index[0]
	k.HashAlgoID = hashAlgoID[0]
	k.Modulus = modulus
	k.Exponent = exponent
	copy(k.CheckSum[:], checksum)
	return k, nil
}

func isHexDigit(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'f':
		return true
	case b >= 'A' && b <= 'F':
		return true
	}
	return false
}
