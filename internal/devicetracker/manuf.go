package devicetracker

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// ManufLookup resolves a MAC's OUI (organizationally unique identifier,
// its first 3 bytes) to a manufacturer name, grounded on Kismet's
// manuf.txt table lookup.
type ManufLookup struct {
	byOUI map[[3]byte]string
}

// NewManufLookup returns an empty lookup table; devices resolve to
// "Unknown" Manuf until entries are loaded.
func NewManufLookup() *ManufLookup {
	return &ManufLookup{byOUI: make(map[[3]byte]string)}
}

// LoadManufFile parses a manuf.txt-style table: one "XX:XX:XX<tab>Name"
// entry per line, '#'-prefixed comments and blank lines ignored. Matches
// Wireshark/Kismet's manuf table format so the same file can be reused.
func LoadManufFile(path string) (*ManufLookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manuf file: %w", err)
	}
	defer f.Close()

	m := NewManufLookup()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		oui, err := parseOUI(fields[0])
		if err != nil {
			continue
		}
		m.byOUI[oui] = strings.TrimSpace(fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manuf file: %w", err)
	}
	return m, nil
}

func parseOUI(s string) ([3]byte, error) {
	s = strings.NewReplacer(":", "", "-", "").Replace(s)
	if len(s) < 6 {
		return [3]byte{}, fmt.Errorf("%w: short oui %q", errShortOUI, s)
	}
	raw, err := hex.DecodeString(s[:6])
	if err != nil {
		return [3]byte{}, err
	}
	var out [3]byte
	copy(out[:], raw)
	return out, nil
}

var errShortOUI = fmt.Errorf("manuf: oui too short")

// Lookup returns the manufacturer name for mac's OUI, falling back to
// "Unknown" for an unmatched OUI.
func (m *ManufLookup) Lookup(mac [6]byte) string {
	if m == nil {
		return "Unknown"
	}
	var oui [3]byte
	copy(oui[:], mac[:3])
	if name, ok := m.byOUI[oui]; ok {
		return name
	}
	return "Unknown"
}
