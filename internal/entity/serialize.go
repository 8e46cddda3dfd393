package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Serializer encodes an Element to w, optionally renaming field names
// along the way. It returns the number of bytes written.
type Serializer interface {
	Serialize(w io.Writer, reg *Registry, el *Element, rename map[string]string) (int, error)
}

// RegisterSerializer installs a serializer under kind (e.g. "json").
func (r *Registry) RegisterSerializer(kind string, s Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializers[kind] = s
}

// dispatchKind resolves a requested kind to a registered serializer,
// falling back to the right-most dotted suffix (: "a.b.json"
// dispatches to the "json" serializer) and finally to "json" itself.
func (r *Registry) dispatchKind(kind string) (Serializer, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.serializers[kind]; ok {
		return s, kind, nil
	}
	if i := strings.LastIndexByte(kind, '.'); i >= 0 {
		suffix := kind[i+1:]
		if s, ok := r.serializers[suffix]; ok {
			return s, suffix, nil
		}
	}
	if s, ok := r.serializers["json"]; ok {
		return s, "json", nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrSerializerMissing, kind)
}

// Serialize encodes el using the serializer registered for kind (or its
// dotted-suffix/"json" fallback), writing to w.
func (r *Registry) Serialize(kind string, w io.Writer, el *Element, rename map[string]string) (int, error) {
	s, _, err := r.dispatchKind(kind)
	if err != nil {
		return 0, err
	}
	return s.Serialize(w, r, el, rename)
}

// JSONSerializer renders an Element tree as JSON, preserving the
// insertion order of string-keyed maps. Serialize passes no alias
// resolver, so an alias element is written as null.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(w io.Writer, reg *Registry, el *Element, rename map[string]string) (int, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, reg, el, rename, nil); err != nil {
		return 0, err
	}
	return w.Write(buf.Bytes())
}

func fieldName(reg *Registry, el *Element, rename map[string]string) string {
	name := reg.NameFor(el.FieldID)
	if name == "" {
		return ""
	}
	if rename != nil {
		if alt, ok := rename[name]; ok {
			return alt
		}
	}
	return name
}

func encodeJSON(buf *bytes.Buffer, reg *Registry, el *Element, rename map[string]string, resolver Resolver) error {
	if el == nil {
		buf.WriteString("null")
		return nil
	}
	if el.Kind == KindAlias {
		target, ok := el.Resolve(resolver)
		if !ok {
			buf.WriteString("null")
			return nil
		}
		return encodeJSON(buf, reg, target, rename, resolver)
	}

	switch el.Kind {
	case KindI8, KindI16, KindI32, KindI64:
		v, _ := el.Int64()
		enc, _ := json.Marshal(v)
		buf.Write(enc)
	case KindU8, KindU16, KindU32, KindU64:
		v, _ := el.Uint64()
		enc, _ := json.Marshal(v)
		buf.Write(enc)
	case KindF32, KindF64:
		v, _ := el.Float64()
		enc, _ := json.Marshal(v)
		buf.Write(enc)
	case KindBool:
		v, _ := el.Bool()
		enc, _ := json.Marshal(v)
		buf.Write(enc)
	case KindString, KindMAC, KindUUID, KindDeviceKey, KindIPv4:
		enc, _ := json.Marshal(el.String())
		buf.Write(enc)
	case KindBytes:
		b, _ := el.Bytes()
		enc, _ := json.Marshal(b)
		buf.Write(enc)
	case KindVector:
		buf.WriteByte('[')
		items, _ := el.Vector()
		for i, item := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSON(buf, reg, item, rename, resolver); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindVectorF64:
		vals, _ := el.VectorF64()
		enc, _ := json.Marshal(vals)
		buf.Write(enc)
	case KindVectorString:
		vals, _ := el.VectorString()
		enc, _ := json.Marshal(vals)
		buf.Write(enc)
	case KindMapString:
		m, _ := el.StringMap()
		buf.WriteByte('{')
		for i, k := range m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, _ := m.Get(k)
			name := k
			if rename != nil {
				if alt, ok := rename[k]; ok {
					name = alt
				}
			}
			keyEnc, _ := json.Marshal(name)
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := encodeJSON(buf, reg, v, rename, resolver); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindMapI64:
		m, _ := el.I64Map()
		buf.WriteByte('{')
		for i, k := range m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, _ := m.Get(k)
			keyEnc, _ := json.Marshal(fmt.Sprintf("%d", k))
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := encodeJSON(buf, reg, v, rename, resolver); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindMapF64:
		m, _ := el.F64Map()
		buf.WriteByte('{')
		for i, k := range m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, _ := m.Get(k)
			keyEnc, _ := json.Marshal(fmt.Sprintf("%v", k))
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := encodeJSON(buf, reg, v, rename, resolver); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindMapMAC:
		m, _ := el.MACMap()
		buf.WriteByte('{')
		for i, k := range m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, _ := m.Get(k)
			keyEnc, _ := json.Marshal(k.String())
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := encodeJSON(buf, reg, v, rename, resolver); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindMapUUID:
		m, _ := el.UUIDMap()
		buf.WriteByte('{')
		for i, k := range m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, _ := m.Get(k)
			keyEnc, _ := json.Marshal(k.String())
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := encodeJSON(buf, reg, v, rename, resolver); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindMapDeviceKey:
		m, _ := el.DeviceKeyMap()
		buf.WriteByte('{')
		for i, k := range m.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, _ := m.Get(k)
			keyEnc, _ := json.Marshal(k.String())
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := encodeJSON(buf, reg, v, rename, resolver); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}
