// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package profile

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// profileKeyPrefix namespaces profile keys in BadgerDB.
const profileKeyPrefix = "profile:"

// lockStripes is the number of mutexes serializing per-user updates.
const lockStripes = 64

// closeTimeout bounds Close.
const closeTimeout = 30 * time.Second

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("profile store is closed")

// Store implements recommend.ProfileStore on BadgerDB. Profiles are stored
// as JSON under "profile:<userID>".
type Store struct {
	db    *badger.DB
	locks [lockStripes]sync.Mutex
	now   func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the profile database.
func Open(cfg *config.ProfilesConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	// Badger's own logger is too chatty at info level.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Profile store opened")

	return &Store{db: db, now: time.Now}, nil
}

func profileKey(userID string) []byte {
	return []byte(profileKeyPrefix + userID)
}

func (s *Store) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.locks[h.Sum32()%lockStripes]
}

// begin checks the store and ctx before touching Badger, which has no
// context support of its own.
func (s *Store) begin(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("%w: %w", recommend.ErrStoreUnavailable, ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", recommend.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the profile for userID.
func (s *Store) Get(ctx context.Context, userID string) (_ recommend.UserProfile, err error) {
	defer func() { metrics.RecordProfileOperation("get", err) }()
	if err := s.begin(ctx); err != nil {
		return recommend.UserProfile{}, err
	}

	var p recommend.UserProfile
	err = s.db.View(func(txn *badger.Txn) error {
		return readProfile(txn, userID, &p)
	})
	if err != nil {
		return recommend.UserProfile{}, wrapError("get profile", userID, err)
	}
	return p, nil
}

// Save writes p, replacing any stored profile.
//
//nolint:gocritic // hugeParam: p passed by value per recommend.ProfileStore
func (s *Store) Save(ctx context.Context, p recommend.UserProfile) error {
	if strings.TrimSpace(p.UserID) == "" {
		return &recommend.ValidationError{Field: "user_id", Message: "must not be empty"}
	}
	if err := s.begin(ctx); err != nil {
		return err
	}

	mu := s.lockFor(p.UserID)
	mu.Lock()
	defer mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return writeProfile(txn, &p)
	})
	if err != nil {
		return wrapError("save profile", p.UserID, err)
	}
	return nil
}

// Update loads the profile, applies fn and commits the result in one
// Badger transaction. Updates for one user are serialized; if fn fails or
// ctx ends first nothing is written.
func (s *Store) Update(ctx context.Context, userID string, fn func(p *recommend.UserProfile) error) (_ recommend.UserProfile, err error) {
	defer func() { metrics.RecordProfileOperation("update", err) }()
	if err := s.begin(ctx); err != nil {
		return recommend.UserProfile{}, err
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	var p recommend.UserProfile
	var fnErr error
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := readProfile(txn, userID, &p); err != nil {
			return err
		}
		if fnErr = fn(&p); fnErr != nil {
			return fnErr
		}
		// Lock wait may have outlived the caller.
		if err := ctx.Err(); err != nil {
			return err
		}
		p.UserID = userID
		return writeProfile(txn, &p)
	})
	if fnErr != nil {
		return recommend.UserProfile{}, fnErr
	}
	if err != nil {
		return recommend.UserProfile{}, wrapError("update profile", userID, err)
	}
	return p, nil
}

// Create stores a fresh profile for userID. An existing profile is
// returned unchanged.
func (s *Store) Create(ctx context.Context, userID string) (recommend.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return recommend.UserProfile{}, &recommend.ValidationError{Field: "user_id", Message: "must not be empty"}
	}
	if err := s.begin(ctx); err != nil {
		return recommend.UserProfile{}, err
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	var p recommend.UserProfile
	created := false
	err := s.db.Update(func(txn *badger.Txn) error {
		err := readProfile(txn, userID, &p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		p = recommend.NewUserProfile(userID, s.now().UTC())
		created = true
		return writeProfile(txn, &p)
	})
	if err != nil {
		return recommend.UserProfile{}, wrapError("create profile", userID, err)
	}

	if created {
		logging.Debug().Str("user_id", userID).Msg("Profile created")
	}
	return p, nil
}

// Count returns the number of stored profiles.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.begin(ctx); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(profileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w: %w", recommend.ErrStoreUnavailable, err)
	}
	return count, nil
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (s *Store) RunGC(discardRatio float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database. Close blocks at most closeTimeout.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close profile store: %w", err)
		}
		logging.Info().Msg("Profile store closed")
		return nil
	case <-time.After(closeTimeout):
		logging.Warn().Dur("timeout", closeTimeout).Msg("Profile store close timed out")
		return fmt.Errorf("profile store close timeout after %v", closeTimeout)
	}
}

func readProfile(txn *badger.Txn, userID string, p *recommend.UserProfile) error {
	item, err := txn.Get(profileKey(userID))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, p); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
		return nil
	})
}

func writeProfile(txn *badger.Txn, p *recommend.UserProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return txn.Set(profileKey(p.UserID), data)
}

// wrapError maps Badger errors onto the recommend sentinels.
func wrapError(op, userID string, err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("profile %s: %w", userID, recommend.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w: %w", op, userID, recommend.ErrStoreUnavailable, err)
}

var _ recommend.ProfileStore = (*Store)(nil)
