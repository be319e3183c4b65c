// Package storage persists students, assessments and indicator measurements
// in a BoltDB file.
//
// Records are stored as JSON under keys of the form
// "<studentID>\x00<unixnano>_<id>", so a cursor seek on the student prefix
// walks that student's records in chronological order. The NUL separator
// keeps "s1" from matching the records of "s1_b".
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// DBFile is the database file name inside the data directory.
const DBFile = "eduanalytics.db"

const (
	studentsBucket    = "students"
	assessmentsBucket = "assessments"
	indicatorsBucket  = "indicators"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("record not found")

// Store provides persistent storage using BoltDB. bbolt serializes writers
// and allows concurrent readers, so a Store may be shared between goroutines.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database in dataPath and makes sure every
// bucket exists.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, DBFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{studentsBucket, assessmentsBucket, indicatorsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const keySeparator = "\x00"

func studentPrefix(studentID string) []byte {
	return []byte(studentID + keySeparator)
}

func timeKey(studentID string, ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%s%019d_%s", studentID, keySeparator, ts.UnixNano(), id))
}

func put(tx *bbolt.Tx, bucket string, key []byte, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", bucket, err)
	}
	return tx.Bucket([]byte(bucket)).Put(key, data)
}

// scanPrefix decodes every record under prefix in key order. An empty prefix
// walks the whole bucket. Malformed records are skipped.
func scanPrefix[T any](s *Store, bucket string, prefix []byte, keep func(T) bool) ([]T, error) {
	var records []T

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()

		k, v := c.First()
		if len(prefix) > 0 {
			k, v = c.Seek(prefix)
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var record T
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			if keep == nil || keep(record) {
				records = append(records, record)
			}
		}
		return nil
	})

	return records, err
}
