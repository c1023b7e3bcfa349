// Package store provides the shell's on-disk persistence: a single bbolt
// database in the workspace holding command history and named snippets.
package store

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"

	"valyxo/errors"
)

const (
	bucketHistory  = "history"
	bucketSnippets = "snippets"
)

// Store wraps the bbolt database. Safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database and ensures all buckets exist
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.NewSystemError("STORE_OPEN_FAILED", "cannot open the shell database").Wrap(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketHistory, bucketSnippets} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.NewSystemError("STORE_INIT_FAILED", "cannot initialize the shell database").Wrap(err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// AddHistory appends one command line and returns its sequence number
func (s *Store) AddHistory(cmd string) (uint64, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), []byte(cmd))
	})
	if err != nil {
		return 0, errors.NewSystemError("HISTORY_WRITE_FAILED", "cannot record history").Wrap(err)
	}
	return seq, nil
}

// History returns up to limit most recent commands, oldest first.
// limit <= 0 returns everything.
func (s *Store) History(limit int) ([]string, error) {
	var cmds []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketHistory)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			cmds = append(cmds, string(v))
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewSystemError("HISTORY_READ_FAILED", "cannot read history").Wrap(err)
	}
	if limit > 0 && len(cmds) > limit {
		cmds = cmds[len(cmds)-limit:]
	}
	return cmds, nil
}

// PutSnippet stores a snippet under its name, overwriting any previous body
func (s *Store) PutSnippet(name, body string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnippets)).Put([]byte(name), []byte(body))
	})
	if err != nil {
		return errors.NewSystemError("SNIPPET_WRITE_FAILED", "cannot store snippet").Wrap(err)
	}
	return nil
}

// GetSnippet returns a snippet body by name
func (s *Store) GetSnippet(name string) (string, bool, error) {
	var body []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSnippets)).Get([]byte(name))
		if v != nil {
			body = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", false, errors.NewSystemError("SNIPPET_READ_FAILED", "cannot read snippet").Wrap(err)
	}
	return string(body), body != nil, nil
}

// DeleteSnippet removes a snippet. Deleting a missing name is not an error.
func (s *Store) DeleteSnippet(name string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnippets)).Delete([]byte(name))
	})
	if err != nil {
		return errors.NewSystemError("SNIPPET_DELETE_FAILED", "cannot delete snippet").Wrap(err)
	}
	return nil
}

// EachSnippet visits every snippet in key order
func (s *Store) EachSnippet(fn func(name, body string) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnippets)).ForEach(func(k, v []byte) error {
			return fn(string(k), string(v))
		})
	})
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
