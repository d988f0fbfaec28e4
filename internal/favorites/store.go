// Package favorites persists the user's favorite blocos in a local
// key-value store. The whole collection lives under one namespaced key, as a
// serialized list; toggling is a read-modify-write of that list.
package favorites

import (
	"encoding/json"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/pulaze/blocos/internal/feed"
)

const (
	bucketName   = "pulaze"
	favoritesKey = "favorites"
)

// Store is a bbolt-backed favorites store. Single user, single writer; no
// transactional guarantee is offered across concurrent toggles beyond
// bbolt's per-update atomicity.
type Store struct {
	db     *bolt.DB
	logger hclog.Logger
}

// Open opens (or creates) the favorites database at path.
func Open(path string, logger hclog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open favorites database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create favorites bucket")
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Toggle adds the event to the favorites list, or removes it if an entry
// with the same ID is already present. Returns whether the event is a
// favorite after the call.
func (s *Store) Toggle(ev feed.Event) (bool, error) {
	var nowFavorite bool

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))

		list, err := decodeList(bucket.Get([]byte(favoritesKey)))
		if err != nil {
			return err
		}

		found := -1
		for i, fav := range list {
			if fav.ID == ev.ID {
				found = i
				break
			}
		}

		if found >= 0 {
			list = append(list[:found], list[found+1:]...)
			nowFavorite = false
		} else {
			list = append(list, ev)
			nowFavorite = true
		}

		data, err := json.Marshal(list)
		if err != nil {
			return errors.Wrap(err, "failed to marshal favorites list")
		}
		return bucket.Put([]byte(favoritesKey), data)
	})
	if err != nil {
		s.logger.Error("failed to toggle favorite", "id", ev.ID, "error", err.Error())
		return false, err
	}

	return nowFavorite, nil
}

// List returns the stored favorites. Storage failures are recovered locally:
// the error is logged and an empty list returned, never surfaced.
func (s *Store) List() []feed.Event {
	var list []feed.Event

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		decoded, err := decodeList(bucket.Get([]byte(favoritesKey)))
		if err != nil {
			return err
		}
		list = decoded
		return nil
	})
	if err != nil {
		s.logger.Error("failed to read favorites, returning empty list", "error", err.Error())
		return []feed.Event{}
	}

	return list
}

// Contains reports whether an event ID is currently favorited. Failures are
// recovered as false.
func (s *Store) Contains(id string) bool {
	for _, fav := range s.List() {
		if fav.ID == id {
			return true
		}
	}
	return false
}

func decodeList(data []byte) ([]feed.Event, error) {
	if len(data) == 0 {
		return []feed.Event{}, nil
	}
	var list []feed.Event
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal favorites list")
	}
	return list, nil
}
