package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var healthBucket = []byte("feed_health")

// FeedHealth is the persisted fetch record for one source.
type FeedHealth struct {
	Source       string    `json:"source"`
	LastFetched  time.Time `json:"lastFetched"`
	ItemCount    int       `json:"itemCount"`
	LastError    string    `json:"lastError,omitempty"`
	ConsecErrors int       `json:"consecErrors"`
}

// Store persists per-feed fetch health across invocations in a local bbolt
// database. It has no influence on aggregation output; it only feeds the
// status endpoint.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(healthBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create health bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordFetch updates the health record for one source after a fetch attempt.
func (s *Store) RecordFetch(source string, items int, fetchErr error) {
	_ = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(healthBucket)

		var h FeedHealth
		if raw := b.Get([]byte(source)); raw != nil {
			_ = json.Unmarshal(raw, &h)
		}

		h.Source = source
		h.LastFetched = time.Now().UTC()
		h.ItemCount = items
		if fetchErr != nil {
			h.LastError = fetchErr.Error()
			h.ConsecErrors++
		} else {
			h.LastError = ""
			h.ConsecErrors = 0
		}

		raw, err := json.Marshal(h)
		if err != nil {
			return err
		}
		return b.Put([]byte(source), raw)
	})
}

// Snapshot returns all health records sorted by source name.
func (s *Store) Snapshot() ([]FeedHealth, error) {
	var out []FeedHealth
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(healthBucket).ForEach(func(_, v []byte) error {
			var h FeedHealth
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			out = append(out, h)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read health records: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}
