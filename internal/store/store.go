// Package store archives decoded reports in a bbolt database. Records are
// encoded with deterministic CBOR and keyed by a big-endian sequence number,
// so cursor order is arrival order.
package store

import (
	"LoraReport/internal/model"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("no records")

var bucketReports = []byte("reports")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encOptions := cbor.CoreDetEncOptions()
	// Receive times keep sub-second precision.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
}

// Store is a bbolt-backed report archive.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the archive at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketReports)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Put assigns the next sequence number to rec, stores it and returns the number.
func (s *Store) Put(rec *model.Record) (uint64, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReports)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.Seq = seq
		v, err := encMode.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(key(seq), v)
	})
	if err != nil {
		return 0, fmt.Errorf("store record: %w", err)
	}
	return rec.Seq, nil
}

// Latest returns the most recent record.
func (s *Store) Latest() (model.Record, error) {
	var rec model.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		_, v := tx.Bucket(bucketReports).Cursor().Last()
		if v == nil {
			return ErrNotFound
		}
		return decMode.Unmarshal(v, &rec)
	})
	return rec, err
}

// List returns up to limit records, newest first.
func (s *Store) List(limit int) ([]model.Record, error) {
	var out []model.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketReports).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec model.Record
			if err := decMode.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func key(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
