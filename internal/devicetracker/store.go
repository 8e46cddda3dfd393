package devicetracker

import "github.com/kismetwireless/kismet-core/internal/entity"

// NameTagStore is the persistence contract for user-assigned device
// names and tags. Implemented by
// internal/devicestore; kept as an interface here so devicetracker
// never imports database/sql directly, matching 's "database
// errors degrade gracefully: name/tag persistence becomes no-op."
type NameTagStore interface {
	LoadName(key entity.DeviceKey) (string, bool)
	LoadTags(key entity.DeviceKey) map[string]string
	SaveName(key entity.DeviceKey, name string) error
	SaveTag(key entity.DeviceKey, tag, content string) error
}

// noopStore is used when no persistence backend is configured.
type noopStore struct{}

func (noopStore) LoadName(entity.DeviceKey) (string, bool)     { return "", false }
func (noopStore) LoadTags(entity.DeviceKey) map[string]string  { return nil }
func (noopStore) SaveName(entity.DeviceKey, string) error      { return nil }
func (noopStore) SaveTag(entity.DeviceKey, string, string) error { return nil }
