package publish

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bbolt "go.etcd.io/bbolt"
)

var (
	bucketDocuments = []byte("documents")
	bucketMeta      = []byte("meta")
	keyLatest       = []byte("latest")
)

// Entry records one published document
type Entry struct {
	Digest      string    `json:"digest"`
	PublishedAt time.Time `json:"publishedAt"`
	Rules       int       `json:"rules"`
	Location    string    `json:"location"`
}

// History keeps track of published documents in a bbolt database
type History struct {
	db *bbolt.DB
}

// OpenHistory opens (or creates) the database at path and ensures buckets exist
func OpenHistory(path string) (*History, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "can't open history %s", path)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDocuments); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "can't create history buckets")
	}
	return &History{db: db}, nil
}

// Close closes the database
func (h *History) Close() error { return h.db.Close() }

// Record stores e and marks it as the latest entry
func (h *History) Record(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return h.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDocuments).Put([]byte(e.Digest), b); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyLatest, []byte(e.Digest))
	})
}

// Latest returns the last recorded entry, nil if none
func (h *History) Latest() (*Entry, error) {
	var e *Entry
	err := h.db.View(func(tx *bbolt.Tx) error {
		digest := tx.Bucket(bucketMeta).Get(keyLatest)
		if digest == nil {
			return nil
		}
		v := tx.Bucket(bucketDocuments).Get(digest)
		if v == nil {
			return nil
		}
		e = &Entry{}
		return json.Unmarshal(v, e)
	})
	return e, err
}

// Count returns the number of distinct documents recorded
func (h *History) Count() int {
	var n int
	_ = h.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketDocuments).Stats().KeyN
		return nil
	})
	return n
}
