// Package database provides data persistence using BoltDB.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/amaumene/gostremiocz/internal/models"
)

const (
	// Default database file permissions
	dbFileMode = 0600
	dbDirMode  = 0755

	// Default database filename
	defaultDBFile = "data.db"

	openTimeout = 2 * time.Second
)

var titlesBucket = []byte("titles")

// TitleRecord is a resolved title persisted across restarts.
type TitleRecord struct {
	Key      string           `json:"key"`
	Info     models.TitleInfo `json:"info"`
	StoredAt time.Time        `json:"stored_at"`
}

// Database defines the interface for data persistence operations.
type Database interface {
	// GetTitle returns the record stored under key, or nil when it is
	// missing or older than the store TTL.
	GetTitle(key string) (*TitleRecord, error)
	// StoreTitle upserts a resolved title.
	StoreTitle(key string, info models.TitleInfo) error
	// DeleteExpired removes records older than the store TTL.
	DeleteExpired() (int, error)
	// Close closes the database connection
	Close() error
}

// BoltDB implements the Database interface using BoltDB.
type BoltDB struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// NewBolt opens (or creates) the database file. If dbPath is empty, uses the
// default database file in current directory. A ttl <= 0 keeps records forever.
func NewBolt(dbPath string, ttl time.Duration) (*BoltDB, error) {
	if dbPath == "" {
		dbPath = filepath.Join(".", defaultDBFile)
	}

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, dbFileMode, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(titlesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltDB{db: db, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source used for StoredAt and expiry.
func (b *BoltDB) WithClock(now func() time.Time) *BoltDB {
	b.now = now
	return b
}

// Close closes the database connection.
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func (b *BoltDB) GetTitle(key string) (*TitleRecord, error) {
	var record *TitleRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(titlesBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		var r TitleRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		record = &r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get title %s: %w", key, err)
	}
	if record == nil || b.expired(record) {
		return nil, nil
	}
	return record, nil
}

func (b *BoltDB) StoreTitle(key string, info models.TitleInfo) error {
	if key == "" {
		return errors.New("empty title key")
	}
	data, err := json.Marshal(TitleRecord{Key: key, Info: info, StoredAt: b.now()})
	if err != nil {
		return fmt.Errorf("failed to encode title: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(titlesBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store title: %w", err)
	}
	return nil
}

func (b *BoltDB) DeleteExpired() (int, error) {
	if b.ttl <= 0 {
		return 0, nil
	}

	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(titlesBucket)
		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var r TitleRecord
			if err := json.Unmarshal(v, &r); err != nil || b.expired(&r) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired titles: %w", err)
	}
	return removed, nil
}

func (b *BoltDB) expired(r *TitleRecord) bool {
	return b.ttl > 0 && b.now().Sub(r.StoredAt) >= b.ttl
}
