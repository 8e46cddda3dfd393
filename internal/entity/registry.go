package entity

import (
	"fmt"
	"sort"
	"sync"
)

// SearchTransformFunc projects an element into a normalized string for
// substring/regex search, registered per field id.
type SearchTransformFunc func(*Element) string

type fieldInfo struct {
	id          uint16
	name        string
	description string
	kind        Kind
}

// Registry is the process-wide mapping name -> (id, signature,
// description) plus its inverse, per . Contention is low
// (registration happens at init time), so a single RWMutex suffices —
// grounded on the single-mutex-per-registry rule in .
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*fieldInfo
	byID   map[uint16]*fieldInfo
	nextID uint16

	serializers      map[string]Serializer
	searchTransforms map[uint16]SearchTransformFunc
}

// NewRegistry constructs an empty registry. Field ids are assigned
// starting at 1; 0 is reserved to mean "anonymous" per .
func NewRegistry() *Registry {
	r := &Registry{
		byName:           make(map[string]*fieldInfo),
		byID:             make(map[uint16]*fieldInfo),
		nextID:           1,
		serializers:      make(map[string]Serializer),
		searchTransforms: make(map[uint16]SearchTransformFunc),
	}
	r.RegisterSerializer("json", JSONSerializer{})
	return r
}

// Register returns the id for name, registering it with kind/description
// if this is the first registration. A later call with a different kind
// fails with ErrFieldTypeConflict; name is otherwise permanent for the
// life of the process.
func (r *Registry) Register(name string, kind Kind, description string) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fi, ok := r.byName[name]; ok {
		if fi.kind != kind {
			return 0, fmt.Errorf("%w: %q registered as %s, requested %s", ErrFieldTypeConflict, name, fi.kind, kind)
		}
		return fi.id, nil
	}

	id := r.nextID
	r.nextID++
	fi := &fieldInfo{id: id, name: name, description: description, kind: kind}
	r.byName[name] = fi
	r.byID[id] = fi
	return id, nil
}

// RegisterAndGet registers name (as Register does) and returns a fresh
// zero-valued element of the registered kind, tagged with its field id.
func (r *Registry) RegisterAndGet(name string, kind Kind, description string) (*Element, error) {
	id, err := r.Register(name, kind, description)
	if err != nil {
		return nil, err
	}
	el := New(kind)
	el.FieldID = id
	return el, nil
}

// IDFor returns the id registered for name, if any.
func (r *Registry) IDFor(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fi, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return fi.id, true
}

// NameFor returns the name registered for id, or "" if unregistered.
func (r *Registry) NameFor(id uint16) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fi, ok := r.byID[id]; ok {
		return fi.name
	}
	return ""
}

// DescriptionFor returns the description registered for id, or "".
func (r *Registry) DescriptionFor(id uint16) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fi, ok := r.byID[id]; ok {
		return fi.description
	}
	return ""
}

// KindFor returns the registered type signature for id.
func (r *Registry) KindFor(id uint16) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fi, ok := r.byID[id]
	if !ok {
		return KindInvalid, false
	}
	return fi.kind, true
}

// AllFields returns every registered field, sorted by id, for the
// /system/tracked_fields HTML table.
func (r *Registry) AllFields() []FieldDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FieldDescriptor, 0, len(r.byID))
	for _, fi := range r.byID {
		out = append(out, FieldDescriptor{ID: fi.id, Name: fi.name, Description: fi.description, Kind: fi.kind})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FieldDescriptor is a read-only snapshot of one registered field.
type FieldDescriptor struct {
	ID          uint16
	Name        string
	Description string
	Kind        Kind
}

// RegisterSearchTransform installs fn as the normalizer used when a
// device-view worker's substring/regex search touches field id.
func (r *Registry) RegisterSearchTransform(id uint16, fn SearchTransformFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchTransforms[id] = fn
}

// SearchTransform returns the registered transform for id, if any.
func (r *Registry) SearchTransform(id uint16) (SearchTransformFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.searchTransforms[id]
	return fn, ok
}
