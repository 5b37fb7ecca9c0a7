// Package cache persists selected trunks between runs so that a repeated
// query against an unchanged HEAD skips path enumeration.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/graph"
)

const trunkBucket = "trunks"

// entry is the stored form of a cached trunk
type entry struct {
	Trunk    graph.Path `json:"trunk"`
	StoredAt time.Time  `json:"stored_at"`
}

// Stats describes the cache contents
type Stats struct {
	Path    string `json:"path" yaml:"path"`
	Entries int    `json:"entries" yaml:"entries"`
	Size    int64  `json:"size" yaml:"size"`
}

// Manager is a bbolt-backed trunk cache
type Manager struct {
	db     *bolt.DB
	path   string
	ttl    time.Duration
	logger logrus.FieldLogger
	now    func() time.Time
}

// Open opens or creates the cache database at path. Entries older than ttl
// are treated as misses; a zero ttl keeps entries forever.
func Open(path string, ttl time.Duration, logger logrus.FieldLogger) (*Manager, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create cache directory for %s", path)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to open cache %s", path)
	}

	return &Manager{
		db:     db,
		path:   path,
		ttl:    ttl,
		logger: logger.WithField("component", "cache"),
		now:    time.Now,
	}, nil
}

// Close closes the cache database
func (m *Manager) Close() error {
	return m.db.Close()
}

// GetTrunk returns the trunk stored under key
func (m *Manager) GetTrunk(key string) (graph.Path, bool, error) {
	var e entry
	found := false

	err := m.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(trunkBucket))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return nil, false, errors.FileSystemErrorf(err, "failed to read cached trunk %s", key)
	}
	if !found {
		return nil, false, nil
	}

	if m.ttl > 0 && m.now().Sub(e.StoredAt) > m.ttl {
		m.logger.WithField("key", key).Debug("cached trunk expired")
		return nil, false, nil
	}
	return e.Trunk, true, nil
}

// PutTrunk stores trunk under key
func (m *Manager) PutTrunk(key string, trunk graph.Path) error {
	data, err := json.Marshal(entry{Trunk: trunk, StoredAt: m.now().UTC()})
	if err != nil {
		return errors.InternalErrorf("failed to encode trunk: %v", err)
	}

	err = m.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(trunkBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		return errors.FileSystemErrorf(err, "failed to store trunk %s", key)
	}
	return nil
}

// Prune removes expired entries and returns how many were removed
func (m *Manager) Prune() (int, error) {
	if m.ttl <= 0 {
		return 0, nil
	}

	removed := 0
	err := m.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(trunkBucket))
		if bucket == nil {
			return nil
		}
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil || m.now().Sub(e.StoredAt) > m.ttl {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	if err != nil {
		return 0, errors.FileSystemError(err, "failed to prune cache")
	}
	return removed, nil
}

// Clear drops every cached trunk
func (m *Manager) Clear() error {
	m.logger.Info("Clearing trunk cache")
	err := m.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(trunkBucket)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(trunkBucket))
	})
	if err != nil {
		return errors.FileSystemError(err, "failed to clear cache")
	}
	return nil
}

// Stats reports the number of cached trunks and the database size
func (m *Manager) Stats() (*Stats, error) {
	stats := &Stats{Path: m.path}
	err := m.db.View(func(tx *bolt.Tx) error {
		stats.Size = tx.Size()
		if bucket := tx.Bucket([]byte(trunkBucket)); bucket != nil {
			stats.Entries = bucket.Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return stats, nil
}
