package entity

// The map variants below all share one shape: an insertion-ordered set
// of keys backed by a plain Go map for lookup. Code generation would
// remove the repetition, but hand-written parallel types are favored
// here over generics-heavy abstraction.

// StringMap is an insertion-ordered map from string to Element.
type StringMap struct {
	order []string
	data  map[string]*Element
}

func NewStringMap() *StringMap { return &StringMap{data: make(map[string]*Element)} }

func (m *StringMap) Set(key string, v *Element) {
	if _, ok := m.data[key]; !ok {
		m.order = append(m.order, key)
	}
	m.data[key] = v
}

func (m *StringMap) Get(key string) (*Element, bool) { v, ok := m.data[key]; return v, ok }

func (m *StringMap) Delete(key string) {
	if _, ok := m.data[key]; !ok {
		return
	}
	delete(m.data, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *StringMap) Keys() []string { return append([]string(nil), m.order...) }
func (m *StringMap) Len() int       { return len(m.order) }

func (m *StringMap) Clone() *StringMap {
	out := NewStringMap()
	for _, k := range m.order {
		out.Set(k, m.data[k].Clone())
	}
	return out
}

// I64Map is an insertion-ordered map from int64 to Element.
type I64Map struct {
	order []int64
	data  map[int64]*Element
}

func NewI64Map() *I64Map { return &I64Map{data: make(map[int64]*Element)} }

func (m *I64Map) Set(key int64, v *Element) {
	if _, ok := m.data[key]; !ok {
		m.order = append(m.order, key)
	}
	m.data[key] = v
}
func (m *I64Map) Get(key int64) (*Element, bool) { v, ok := m.data[key]; return v, ok }
func (m *I64Map) Keys() []int64                  { return append([]int64(nil), m.order...) }
func (m *I64Map) Len() int                        { return len(m.order) }
func (m *I64Map) Clone() *I64Map {
	out := NewI64Map()
	for _, k := range m.order {
		out.Set(k, m.data[k].Clone())
	}
	return out
}

// F64Map is an insertion-ordered map from float64 to Element.
type F64Map struct {
	order []float64
	data  map[float64]*Element
}

func NewF64Map() *F64Map { return &F64Map{data: make(map[float64]*Element)} }

func (m *F64Map) Set(key float64, v *Element) {
	if _, ok := m.data[key]; !ok {
		m.order = append(m.order, key)
	}
	m.data[key] = v
}
func (m *F64Map) Get(key float64) (*Element, bool) { v, ok := m.data[key]; return v, ok }
func (m *F64Map) Keys() []float64                  { return append([]float64(nil), m.order...) }
func (m *F64Map) Len() int                          { return len(m.order) }
func (m *F64Map) Clone() *F64Map {
	out := NewF64Map()
	for _, k := range m.order {
		out.Set(k, m.data[k].Clone())
	}
	return out
}

// MACMap is an insertion-ordered map from MAC to Element.
type MACMap struct {
	order []MAC
	data  map[MAC]*Element
}

func NewMACMap() *MACMap { return &MACMap{data: make(map[MAC]*Element)} }

func (m *MACMap) Set(key MAC, v *Element) {
	if _, ok := m.data[key]; !ok {
		m.order = append(m.order, key)
	}
	m.data[key] = v
}
func (m *MACMap) Get(key MAC) (*Element, bool) { v, ok := m.data[key]; return v, ok }
func (m *MACMap) Keys() []MAC                  { return append([]MAC(nil), m.order...) }
func (m *MACMap) Len() int                      { return len(m.order) }
func (m *MACMap) Clone() *MACMap {
	out := NewMACMap()
	for _, k := range m.order {
		out.Set(k, m.data[k].Clone())
	}
	return out
}

// UUIDMap is an insertion-ordered map from UUID to Element.
type UUIDMap struct {
	order []UUID
	data  map[UUID]*Element
}

func NewUUIDMap() *UUIDMap { return &UUIDMap{data: make(map[UUID]*Element)} }

func (m *UUIDMap) Set(key UUID, v *Element) {
	if _, ok := m.data[key]; !ok {
		m.order = append(m.order, key)
	}
	m.data[key] = v
}
func (m *UUIDMap) Get(key UUID) (*Element, bool) { v, ok := m.data[key]; return v, ok }
func (m *UUIDMap) Keys() []UUID                  { return append([]UUID(nil), m.order...) }
func (m *UUIDMap) Len() int                        { return len(m.order) }
func (m *UUIDMap) Clone() *UUIDMap {
	out := NewUUIDMap()
	for _, k := range m.order {
		out.Set(k, m.data[k].Clone())
	}
	return out
}

// DeviceKeyMap is an insertion-ordered map from DeviceKey to Element.
type DeviceKeyMap struct {
	order []DeviceKey
	data  map[DeviceKey]*Element
}

func NewDeviceKeyMap() *DeviceKeyMap { return &DeviceKeyMap{data: make(map[DeviceKey]*Element)} }

func (m *DeviceKeyMap) Set(key DeviceKey, v *Element) {
	if _, ok := m.data[key]; !ok {
		m.order = append(m.order, key)
	}
	m.data[key] = v
}
func (m *DeviceKeyMap) Get(key DeviceKey) (*Element, bool) { v, ok := m.data[key]; return v, ok }
func (m *DeviceKeyMap) Delete(key DeviceKey) {
	if _, ok := m.data[key]; !ok {
		return
	}
	delete(m.data, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
func (m *DeviceKeyMap) Keys() []DeviceKey { return append([]DeviceKey(nil), m.order...) }
func (m *DeviceKeyMap) Len() int          { return len(m.order) }
func (m *DeviceKeyMap) Clone() *DeviceKeyMap {
	out := NewDeviceKeyMap()
	for _, k := range m.order {
		out.Set(k, m.data[k].Clone())
	}
	return out
}
