package entity

import (
	"fmt"
	"hash/fnv"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MAC is a hardware address, optionally a partial prefix (MaskLen < 48)
// for use as a search term rather than a device identity.
type MAC struct {
	Addr    [6]byte
	MaskLen uint8 // number of significant bits, 48 for a full address
}

// NewMAC parses a colon- or dash-delimited MAC address. A short address
// (fewer than 6 byte groups) is accepted as a partial/prefix MAC, which
// compares equal only via HasPrefix, never via ==.
func NewMAC(s string) (MAC, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("-", ":").Replace(s)
	groups := strings.Split(s, ":")
	if len(groups) == 0 || len(groups) > 6 {
		return MAC{}, fmt.Errorf("%w: invalid mac %q", ErrInvalidField, s)
	}
	var m MAC
	for i, g := range groups {
		b, err := strconv.ParseUint(g, 16, 8)
		if err != nil {
			return MAC{}, fmt.Errorf("%w: invalid mac byte %q", ErrInvalidField, g)
		}
		m.Addr[i] = byte(b)
	}
	m.MaskLen = uint8(len(groups) * 8)
	return m, nil
}

// Full reports whether the MAC carries a complete 48-bit address.
func (m MAC) Full() bool { return m.MaskLen >= 48 }

// HasPrefix reports whether full shares m's significant byte prefix,
// implementing partial-MAC-match search semantics.
func (m MAC) HasPrefix(full MAC) bool {
	nbytes := int(m.MaskLen / 8)
	for i := 0; i < nbytes; i++ {
		if m.Addr[i] != full.Addr[i] {
			return false
		}
	}
	return true
}

func (m MAC) String() string {
	nbytes := int(m.MaskLen / 8)
	if nbytes == 0 {
		nbytes = 6
	}
	parts := make([]string, nbytes)
	for i := 0; i < nbytes; i++ {
		parts[i] = fmt.Sprintf("%02X", m.Addr[i])
	}
	return strings.Join(parts, ":")
}

// UUID wraps google/uuid.UUID so it satisfies comparable-map-key use
// without pulling the uuid package into every call site.
type UUID = uuid.UUID

// IPv4 is a 4-byte IPv4 address usable as a map key.
type IPv4 [4]byte

func NewIPv4(ip net.IP) (IPv4, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return IPv4{}, false
	}
	var out IPv4
	copy(out[:], v4)
	return out, true
}

func (a IPv4) String() string { return net.IP(a[:]).String() }

// PhyHash is the 32-bit hash of a phy's name, per the composite key
// formula "(hash32(phy_name), mac)" in the glossary.
func PhyHash(phyName string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(phyName))
	return h.Sum32()
}

// DeviceKey is the composite primary device key (phy-hash, mac). It is
// directly comparable so it can key a Go map without a custom Equal.
type DeviceKey struct {
	PhyHash uint32
	Mac     [6]byte
}

func NewDeviceKey(phyName string, mac MAC) DeviceKey {
	return DeviceKey{PhyHash: PhyHash(phyName), Mac: mac.Addr}
}

func (k DeviceKey) String() string {
	return fmt.Sprintf("%08x/%02X:%02X:%02X:%02X:%02X:%02X",
		k.PhyHash, k.Mac[0], k.Mac[1], k.Mac[2], k.Mac[3], k.Mac[4], k.Mac[5])
}
