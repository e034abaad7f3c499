package sheetcore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// LiteralStore persists cell literals. only literals are stored; values are
// always recomputed after loading.
type LiteralStore interface {
	// Load calls fn for every stored literal, in key order
	Load(fn func(ref, literal string) error) error
	// Save stores a literal. an empty literal removes the entry.
	Save(ref, literal string) error
}

var ErrEmptySheetName = errors.New("sheet name must not be empty")

// BoltStore keeps the literals of one sheet in a bbolt bucket named after
// the sheet. keys are canonical references like "B3".
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
	owned  bool
}

// NewBoltStore stores literals for sheet in an already open database. the
// caller keeps ownership of db.
func NewBoltStore(db *bbolt.DB, sheet string) (*BoltStore, error) {
	sheet = strings.ToLower(strings.TrimSpace(sheet))
	if sheet == "" {
		return nil, ErrEmptySheetName
	}

	store := &BoltStore{db: db, bucket: []byte(sheet)}
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(store.bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", sheet, err)
	}
	return store, nil
}

// OpenBoltStore opens (or creates) the database file at path and stores
// literals for sheet in it. Close releases the file.
func OpenBoltStore(path string, sheet string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	store, err := NewBoltStore(db, sheet)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

func (b *BoltStore) Load(fn func(ref, literal string) error) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := fn(string(k), string(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltStore) Save(ref, literal string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(b.bucket)
		if err != nil {
			return err
		}
		if literal == "" {
			return bucket.Delete([]byte(ref))
		}
		return bucket.Put([]byte(ref), []byte(literal))
	})
}

// Close closes the database if the store opened it
func (b *BoltStore) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}
