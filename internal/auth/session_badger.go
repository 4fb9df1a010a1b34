// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tutorlink/tutorlink/internal/logging"
)

const (
	sessionKeyPrefix  = "session/"
	userIndexPrefix   = "usersess/"
	badgerGCThreshold = 0.5
)

// BadgerSessionStore persists sessions in an embedded Badger database.
// Entries carry a TTL matching the session expiry, so Badger reclaims
// expired sessions on its own; CleanupExpired only triggers value log GC.
type BadgerSessionStore struct {
	db *badger.DB
}

// NewBadgerSessionStore opens (or creates) the session database at path.
func NewBadgerSessionStore(path string) (*BadgerSessionStore, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening session db at %s: %w", path, err)
	}
	return &BadgerSessionStore{db: db}, nil
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

func userIndexKey(userID, id string) []byte {
	return []byte(userIndexPrefix + userID + "/" + id)
}

func (b *BadgerSessionStore) Create(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry(sessionKey(s.ID), data).WithTTL(ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(userIndexKey(s.UserID, s.ID), nil).WithTTL(ttl))
	})
}

func (b *BadgerSessionStore) Get(_ context.Context, id string) (*Session, error) {
	var s Session
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	return &s, nil
}

func (b *BadgerSessionStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var s Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		}); err != nil {
			return err
		}

		s.ExpiresAt = expiresAt
		s.LastSeen = time.Now()

		data, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		ttl := time.Until(expiresAt)
		if err := txn.SetEntry(badger.NewEntry(sessionKey(id), data).WithTTL(ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(userIndexKey(s.UserID, id), nil).WithTTL(ttl))
	})
}

func (b *BadgerSessionStore) Delete(_ context.Context, id string) error {
	s, err := b.Get(context.Background(), id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(sessionKey(id)); err != nil {
			return err
		}
		return txn.Delete(userIndexKey(s.UserID, id))
	})
}

func (b *BadgerSessionStore) DeleteByUser(_ context.Context, userID string) error {
	prefix := []byte(userIndexPrefix + userID + "/")

	var ids []string
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			ids = append(ids, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning user sessions: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			if err := txn.Delete(sessionKey(id)); err != nil {
				return err
			}
			if err := txn.Delete(userIndexKey(userID, id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// CleanupExpired runs value log garbage collection. Expired entries are
// already invisible thanks to TTLs; GC reclaims their disk space.
func (b *BadgerSessionStore) CleanupExpired(_ context.Context) (int, error) {
	err := b.db.RunValueLogGC(badgerGCThreshold)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		logging.Warn().Err(err).Msg("Session db value log GC failed")
	}
	return 0, nil
}

// Count scans the session key range. Keys only, no value fetches.
func (b *BadgerSessionStore) Count(_ context.Context) (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         []byte(sessionKeyPrefix),
			PrefetchValues: false,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

func (b *BadgerSessionStore) Close() error {
	return b.db.Close()
}
