// Package bolt keeps accounts, profiles, the session and pending redirect
// sign-ins in a local bbolt file, so a CLI process restarted later picks
// them up.
package bolt

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

const (
	sessionBucket  = "session"
	pendingBucket  = "pending_auth"
	metadataSuffix = "_meta"

	// Records in these buckets never expire.
	accountBucket = "accounts"
	emailBucket   = "account_emails"
	linkBucket    = "account_links"
	profileBucket = "profiles"
)

// itemMetadata holds the expiry of a stored item.
type itemMetadata struct {
	ExpiresAtUnixNano int64
}

// Store is a bbolt database holding expiring items. Only one process can have
// the file open at a time.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the database at path, creating its directory.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db at %s: %w", path, err)
	}

	s := &Store{db: db, now: time.Now}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{sessionBucket, pendingBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucketIfNotExists([]byte(name + metadataSuffix)); err != nil {
				return fmt.Errorf("failed to create metadata bucket for %s: %w", name, err)
			}
		}
		for _, name := range []string{accountBucket, emailBucket, linkBucket, profileBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("path", path).Msg("BBoltDB opened")
	return s, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) put(bucket, key string, value []byte, expiresAt time.Time) error {
	var meta bytes.Buffer
	if err := gob.NewEncoder(&meta).Encode(itemMetadata{ExpiresAtUnixNano: expiresAt.UnixNano()}); err != nil {
		return fmt.Errorf("failed to encode metadata for key %s: %w", key, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucket)).Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to put key %s in bucket %s: %w", key, bucket, err)
		}
		return tx.Bucket([]byte(bucket+metadataSuffix)).Put([]byte(key), meta.Bytes())
	})
}

// get returns the value for key, or nil when it is missing or expired.
// Expired items are removed. With take the item is removed in the same
// transaction it is read in.
func (s *Store) get(bucket, key string, take bool) ([]byte, error) {
	var value []byte
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		mb := tx.Bucket([]byte(bucket + metadataSuffix))

		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}

		var meta itemMetadata
		if err := gob.NewDecoder(bytes.NewReader(mb.Get([]byte(key)))).Decode(&meta); err != nil {
			return fmt.Errorf("failed to decode metadata for key %s: %w", key, err)
		}

		expired := !s.now().Before(time.Unix(0, meta.ExpiresAtUnixNano))
		if !expired {
			// raw is only valid for the life of the transaction.
			value = bytes.Clone(raw)
		}
		if expired || take {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
			return mb.Delete([]byte(key))
		}
		return nil
	})
	return value, err
}

func (s *Store) delete(bucket, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucket)).Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucket + metadataSuffix)).Delete([]byte(key))
	})
}
