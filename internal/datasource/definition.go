package datasource

import (
	"fmt"
	"strings"
)

// Definition is a parsed source-open string: "iface[:k1=v1,k2=v2,...]".
type Definition struct {
	Raw     string
	Iface   string
	Type    string // explicit "type=" option, or "" for auto-probe
	Options map[string]string
}

// ParseDefinition splits a definition string into its interface and
// option map. It rejects a comma appearing before the first colon,
// which the original source treats as a near-certain typo (the caller
// meant "iface:opt=val" and forgot the colon).
func ParseDefinition(raw string) (Definition, error) {
	if comma := strings.IndexByte(raw, ','); comma >= 0 {
		if colon := strings.IndexByte(raw, ':'); colon < 0 || comma < colon {
			return Definition{}, fmt.Errorf("%w: comma before colon in %q", ErrMalformedDefinition, raw)
		}
	}

	iface, rest, hasOpts := strings.Cut(raw, ":")
	def := Definition{Raw: raw, Iface: iface, Options: make(map[string]string)}
	if !hasOpts {
		return def, nil
	}
	for _, kv := range strings.Split(rest, ",") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		if k == "type" {
			def.Type = v
			continue
		}
		def.Options[k] = v
	}
	return def, nil
}
