// Package entity implements the tracked-element sum type and the
// process-wide entry registry every record in the server is built
// from.
package entity

import "fmt"

// Kind tags the concrete variant held by an Element.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
	KindBool
	KindString
	KindBytes
	KindMAC
	KindUUID
	KindDeviceKey
	KindIPv4
	KindVector
	KindVectorF64
	KindVectorString
	KindMapString
	KindMapI64
	KindMapF64
	KindMapMAC
	KindMapUUID
	KindMapDeviceKey
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindI8:
		return "i8"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytearray"
	case KindMAC:
		return "mac"
	case KindUUID:
		return "uuid"
	case KindDeviceKey:
		return "devicekey"
	case KindIPv4:
		return "ipv4"
	case KindVector:
		return "vector"
	case KindVectorF64:
		return "vector_double"
	case KindVectorString:
		return "vector_string"
	case KindMapString:
		return "map_string"
	case KindMapI64:
		return "map_i64"
	case KindMapF64:
		return "map_f64"
	case KindMapMAC:
		return "map_mac"
	case KindMapUUID:
		return "map_uuid"
	case KindMapDeviceKey:
		return "map_devicekey"
	case KindAlias:
		return "alias"
	default:
		return "invalid"
	}
}

// Resolver resolves an alias target name to the element it points at.
// Implemented by whatever container currently holds the alias (usually
// a Device); aliases are resolved lazily on access, never eagerly.
type Resolver interface {
	Resolve(path string) (*Element, bool)
}

// Element is a tagged value: every record in the server — scalars,
// identifiers, and containers alike — is built from these. FieldID
// indexes into the process Registry; zero means anonymous.
type Element struct {
	FieldID uint16
	Kind    Kind

	// value holds exactly one of these depending on Kind. Using
	// per-kind fields (rather than an interface{} box) keeps scalar
	// access allocation-free, following the habit of plain typed
	// struct fields over boxed values seen throughout this codebase.
	i64   int64
	u64   uint64
	f64   float64
	b     bool
	str   string
	bytes []byte
	mac   MAC
	uuid  UUID
	dkey  DeviceKey
	ipv4  IPv4

	vec       []*Element
	vecF64    []float64
	vecString []string
	mapStr    *StringMap
	mapI64    *I64Map
	mapF64    *F64Map
	mapMAC    *MACMap
	mapUUID   *UUIDMap
	mapDKey   *DeviceKeyMap

	alias    string
	resolver Resolver
}

// New constructs a zero-valued Element of the given kind, suitable as
// a registration prototype or a freshly cloned field value.
func New(kind Kind) *Element {
	e := &Element{Kind: kind}
	switch kind {
	case KindMapString:
		e.mapStr = NewStringMap()
	case KindMapI64:
		e.mapI64 = NewI64Map()
	case KindMapF64:
		e.mapF64 = NewF64Map()
	case KindMapMAC:
		e.mapMAC = NewMACMap()
	case KindMapUUID:
		e.mapUUID = NewUUIDMap()
	case KindMapDeviceKey:
		e.mapDKey = NewDeviceKeyMap()
	}
	return e
}

// Clone returns a deep, independent copy carrying the same FieldID.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := *e
	if e.bytes != nil {
		out.bytes = append([]byte(nil), e.bytes...)
	}
	if e.vec != nil {
		out.vec = make([]*Element, len(e.vec))
		for i, v := range e.vec {
			out.vec[i] = v.Clone()
		}
	}
	if e.vecF64 != nil {
		out.vecF64 = append([]float64(nil), e.vecF64...)
	}
	if e.vecString != nil {
		out.vecString = append([]string(nil), e.vecString...)
	}
	if e.mapStr != nil {
		out.mapStr = e.mapStr.Clone()
	}
	if e.mapI64 != nil {
		out.mapI64 = e.mapI64.Clone()
	}
	if e.mapF64 != nil {
		out.mapF64 = e.mapF64.Clone()
	}
	if e.mapMAC != nil {
		out.mapMAC = e.mapMAC.Clone()
	}
	if e.mapUUID != nil {
		out.mapUUID = e.mapUUID.Clone()
	}
	if e.mapDKey != nil {
		out.mapDKey = e.mapDKey.Clone()
	}
	return &out
}

func mismatch(e *Element, want Kind) error {
	return fmt.Errorf("%w: field %d is %s, not %s", ErrInvalidField, e.FieldID, e.Kind, want)
}

// --- scalar constructors ---

func NewI64(fieldID uint16, v int64) *Element   { return &Element{FieldID: fieldID, Kind: KindI64, i64: v} }
func NewU64(fieldID uint16, v uint64) *Element   { return &Element{FieldID: fieldID, Kind: KindU64, u64: v} }
func NewI32(fieldID uint16, v int32) *Element    { return &Element{FieldID: fieldID, Kind: KindI32, i64: int64(v)} }
func NewU32(fieldID uint16, v uint32) *Element   { return &Element{FieldID: fieldID, Kind: KindU32, u64: uint64(v)} }
func NewF64(fieldID uint16, v float64) *Element  { return &Element{FieldID: fieldID, Kind: KindF64, f64: v} }
func NewBool(fieldID uint16, v bool) *Element    { return &Element{FieldID: fieldID, Kind: KindBool, b: v} }
func NewString(fieldID uint16, v string) *Element {
	return &Element{FieldID: fieldID, Kind: KindString, str: v}
}
func NewBytes(fieldID uint16, v []byte) *Element {
	return &Element{FieldID: fieldID, Kind: KindBytes, bytes: append([]byte(nil), v...)}
}
func NewMACElement(fieldID uint16, v MAC) *Element {
	return &Element{FieldID: fieldID, Kind: KindMAC, mac: v}
}
func NewUUIDElement(fieldID uint16, v UUID) *Element {
	return &Element{FieldID: fieldID, Kind: KindUUID, uuid: v}
}
func NewDeviceKeyElement(fieldID uint16, v DeviceKey) *Element {
	return &Element{FieldID: fieldID, Kind: KindDeviceKey, dkey: v}
}

// --- scalar accessors (panic-free: return zero value + ok) ---

func (e *Element) Int64() (int64, bool) {
	switch e.Kind {
	case KindI64, KindI32, KindI16, KindI8:
		return e.i64, true
	}
	return 0, false
}

func (e *Element) Uint64() (uint64, bool) {
	switch e.Kind {
	case KindU64, KindU32, KindU16, KindU8:
		return e.u64, true
	}
	return 0, false
}

func (e *Element) Float64() (float64, bool) {
	if e.Kind == KindF64 || e.Kind == KindF32 {
		return e.f64, true
	}
	return 0, false
}

func (e *Element) Bool() (bool, bool) {
	if e.Kind == KindBool {
		return e.b, true
	}
	return false, false
}

func (e *Element) String() string {
	switch e.Kind {
	case KindString:
		return e.str
	case KindMAC:
		return e.mac.String()
	case KindUUID:
		return e.uuid.String()
	case KindDeviceKey:
		return e.dkey.String()
	case KindIPv4:
		return e.ipv4.String()
	case KindAlias:
		return "alias:" + e.alias
	default:
		return ""
	}
}

func (e *Element) Bytes() ([]byte, bool) {
	if e.Kind == KindBytes {
		return e.bytes, true
	}
	return nil, false
}

func (e *Element) MAC() (MAC, bool) {
	if e.Kind == KindMAC {
		return e.mac, true
	}
	return MAC{}, false
}

func (e *Element) UUID() (UUID, bool) {
	if e.Kind == KindUUID {
		return e.uuid, true
	}
	return UUID{}, false
}

func (e *Element) DeviceKey() (DeviceKey, bool) {
	if e.Kind == KindDeviceKey {
		return e.dkey, true
	}
	return DeviceKey{}, false
}

// --- vector / map constructors and accessors ---

func NewVector(fieldID uint16, items ...*Element) *Element {
	return &Element{FieldID: fieldID, Kind: KindVector, vec: items}
}

func (e *Element) Vector() ([]*Element, bool) {
	if e.Kind == KindVector {
		return e.vec, true
	}
	return nil, false
}

// AppendVector appends to a KindVector element, growing it in place.
func (e *Element) AppendVector(item *Element) error {
	if e.Kind != KindVector {
		return mismatch(e, KindVector)
	}
	e.vec = append(e.vec, item)
	return nil
}

func NewVectorF64(fieldID uint16, vals ...float64) *Element {
	return &Element{FieldID: fieldID, Kind: KindVectorF64, vecF64: vals}
}

func (e *Element) VectorF64() ([]float64, bool) {
	if e.Kind == KindVectorF64 {
		return e.vecF64, true
	}
	return nil, false
}

func NewVectorString(fieldID uint16, vals ...string) *Element {
	return &Element{FieldID: fieldID, Kind: KindVectorString, vecString: vals}
}

func (e *Element) VectorString() ([]string, bool) {
	if e.Kind == KindVectorString {
		return e.vecString, true
	}
	return nil, false
}

// StringMap returns the backing insertion-ordered string-keyed map,
// creating one if this element was zero-valued to KindMapString.
func (e *Element) StringMap() (*StringMap, bool) {
	if e.Kind == KindMapString {
		if e.mapStr == nil {
			e.mapStr = NewStringMap()
		}
		return e.mapStr, true
	}
	return nil, false
}

func (e *Element) I64Map() (*I64Map, bool) {
	if e.Kind == KindMapI64 {
		if e.mapI64 == nil {
			e.mapI64 = NewI64Map()
		}
		return e.mapI64, true
	}
	return nil, false
}

func (e *Element) F64Map() (*F64Map, bool) {
	if e.Kind == KindMapF64 {
		if e.mapF64 == nil {
			e.mapF64 = NewF64Map()
		}
		return e.mapF64, true
	}
	return nil, false
}

func (e *Element) MACMap() (*MACMap, bool) {
	if e.Kind == KindMapMAC {
		if e.mapMAC == nil {
			e.mapMAC = NewMACMap()
		}
		return e.mapMAC, true
	}
	return nil, false
}

func (e *Element) UUIDMap() (*UUIDMap, bool) {
	if e.Kind == KindMapUUID {
		if e.mapUUID == nil {
			e.mapUUID = NewUUIDMap()
		}
		return e.mapUUID, true
	}
	return nil, false
}

func (e *Element) DeviceKeyMap() (*DeviceKeyMap, bool) {
	if e.Kind == KindMapDeviceKey {
		if e.mapDKey == nil {
			e.mapDKey = NewDeviceKeyMap()
		}
		return e.mapDKey, true
	}
	return nil, false
}

// --- alias ---

// NewAlias builds an indirection to another element, resolved lazily
// against a Resolver (typically the owning Device) on access.
func NewAlias(fieldID uint16, target string) *Element {
	return &Element{FieldID: fieldID, Kind: KindAlias, alias: target}
}

// Resolve follows an alias through r, returning the target element.
// Non-alias elements resolve to themselves.
func (e *Element) Resolve(r Resolver) (*Element, bool) {
	if e.Kind != KindAlias {
		return e, true
	}
	if r == nil {
		return nil, false
	}
	return r.Resolve(e.alias)
}
