package devicestore

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/kismetwireless/kismet-core/internal/entity"
)

// Store implements devicetracker.NameTagStore against a sqlite DB. A
// database error degrades to a logged no-op rather than propagating,
// matching 's "database errors degrade gracefully: name/tag
// persistence becomes no-op."
type Store struct {
	db *DB
}

func New(db *DB) *Store { return &Store{db: db} }

func (s *Store) LoadName(key entity.DeviceKey) (string, bool) {
	var name string
	err := s.db.QueryRow(
		`SELECT name FROM device_names WHERE phy_hash = ? AND mac = ?`,
		key.PhyHash, key.Mac[:],
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		log.Printf("[devicestore] load name for %s failed, continuing without persistence: %v", key, err)
		return "", false
	}
	return name, true
}

func (s *Store) LoadTags(key entity.DeviceKey) map[string]string {
	rows, err := s.db.Query(
		`SELECT tag, content FROM device_tags WHERE phy_hash = ? AND mac = ?`,
		key.PhyHash, key.Mac[:],
	)
	if err != nil {
		log.Printf("[devicestore] load tags for %s failed, continuing without persistence: %v", key, err)
		return nil
	}
	defer rows.Close()

	tags := make(map[string]string)
	for rows.Next() {
		var tag, content string
		if err := rows.Scan(&tag, &content); err != nil {
			log.Printf("[devicestore] scan tag row for %s failed: %v", key, err)
			continue
		}
		tags[tag] = content
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func (s *Store) SaveName(key entity.DeviceKey, name string) error {
	_, err := s.db.Exec(
		`INSERT INTO device_names (phy_hash, mac, name, updated_at_unix, source)
		 VALUES (?, ?, ?, ?, 'user')
		 ON CONFLICT (phy_hash, mac) DO UPDATE SET name = excluded.name, updated_at_unix = excluded.updated_at_unix`,
		key.PhyHash, key.Mac[:], name, time.Now().Unix(),
	)
	if err != nil {
		log.Printf("[devicestore] save name for %s failed, name is not persisted: %v", key, err)
	}
	return nil
}

func (s *Store) SaveTag(key entity.DeviceKey, tag, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO device_tags (phy_hash, mac, tag, content, updated_at_unix)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (phy_hash, mac, tag) DO UPDATE SET content = excluded.content, updated_at_unix = excluded.updated_at_unix`,
		key.PhyHash, key.Mac[:], tag, content, time.Now().Unix(),
	)
	if err != nil {
		log.Printf("[devicestore] save tag %q for %s failed, tag is not persisted: %v", tag, key, err)
	}
	return nil
}
