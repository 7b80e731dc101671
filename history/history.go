// Package history persists submission outcomes in an embedded badger store,
// newest first, with a retention TTL.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// keyPrefix namespaces result entries. Keys embed the timestamp so iteration
// order is chronological.
const keyPrefix = "result:"

// Entry is one recorded submission outcome, success or failure.
type Entry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Model   string    `json:"model"`
	Mode    string    `json:"mode"`
	Audio   string    `json:"audio,omitempty"`   // artifact filename on disk
	Text    string    `json:"text,omitempty"`    // generated text on success
	Failure string    `json:"failure,omitempty"` // error kind, empty on success
	Detail  string    `json:"detail,omitempty"`  // failure message
}

// Store is the result history database.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// New opens (or creates) the store at path. A non-positive ttl keeps entries
// forever.
func New(path string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Put records an entry. Missing ID and Time are filled in.
func (s *Store) Put(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	key := fmt.Sprintf("%s%020d:%s", keyPrefix, e.Time.UnixNano(), e.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("store entry: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		// Seek past the last possible key in the namespace.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(entries) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("unmarshal entry: %w", err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
