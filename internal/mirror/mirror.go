// Package mirror wraps the secondary realtime store. It is never
// authoritative: writes are merge- or append-only and readers subscribe to
// it directly with live queries.
package mirror

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

const (
	ProductCollection      = "product"
	NotificationCollection = "notification"
)

// Store is the mirror-store capability: merge-write, append, delete and a
// time-bounded prune. Ordered subscription happens store-side (live
// queries), not through this interface.
type Store interface {
	Merge(collection, id string, doc map[string]any) error
	Append(collection string, doc map[string]any) error
	Remove(collection, id string) error
	PruneBefore(collection string, cutoff time.Time) error
}

type SurrealStore struct {
	db *surrealdb.DB
}

type ConnectOptions struct {
	URL       string
	User      string
	Password  string
	Namespace string
	Database  string
}

func Connect(opts ConnectOptions) (*SurrealStore, error) {
	slog.Info("connecting to mirror store", "url", opts.URL, "ns", opts.Namespace, "db", opts.Database)

	db, err := surrealdb.New(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("mirror: connect failed: %w", err)
	}
	if _, err := db.Signin(map[string]any{"user": opts.User, "pass": opts.Password}); err != nil {
		db.Close()
		return nil, fmt.Errorf("mirror: signin failed: %w", err)
	}
	if _, err := db.Use(opts.Namespace, opts.Database); err != nil {
		db.Close()
		return nil, fmt.Errorf("mirror: use failed: %w", err)
	}

	return &SurrealStore{db: db}, nil
}

func (s *SurrealStore) Merge(collection, id string, doc map[string]any) error {
	if _, err := s.db.Change(collection+":"+id, doc); err != nil {
		return fmt.Errorf("mirror: merge %s:%s failed: %w", collection, id, err)
	}
	return nil
}

func (s *SurrealStore) Append(collection string, doc map[string]any) error {
	if _, err := s.db.Create(collection, doc); err != nil {
		return fmt.Errorf("mirror: append to %s failed: %w", collection, err)
	}
	return nil
}

func (s *SurrealStore) Remove(collection, id string) error {
	if _, err := s.db.Delete(collection + ":" + id); err != nil {
		return fmt.Errorf("mirror: remove %s:%s failed: %w", collection, id, err)
	}
	return nil
}

func (s *SurrealStore) PruneBefore(collection string, cutoff time.Time) error {
	_, err := s.db.Query(
		"DELETE type::table($tb) WHERE createdAt < $cutoff",
		map[string]any{"tb": collection, "cutoff": cutoff.UTC().Format(time.RFC3339)},
	)
	if err != nil {
		return fmt.Errorf("mirror: prune %s failed: %w", collection, err)
	}
	return nil
}

func (s *SurrealStore) Close() {
	s.db.Close()
}
