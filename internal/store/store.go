package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Table maps dynasty id -> user id -> ready flag.
type Table map[string]map[string]bool

// Store owns the readiness table and its on-disk JSON snapshot. Exactly one
// instance exists per process; every component that needs readiness state
// receives it by reference. All reads and writes go through a single mutex,
// and disk writes happen on a background goroutine so callers never block on
// I/O.
type Store struct {
	path      string
	log       *zap.Logger
	dynasties []string
	users     []string

	mu    sync.Mutex
	table Table

	// dirty has capacity 1: a burst of mutations coalesces into one pending
	// snapshot write instead of spawning a writer per mutation.
	dirty chan struct{}
	done  chan struct{}
	wg    sync.WaitGroup
}

// New builds the table for the configured dynasty/user universe, loads the
// snapshot at path (falling back to an all-false table on a missing or
// corrupt file and re-persisting immediately), and starts the background
// snapshot writer.
func New(dynasties, users []string, path string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		path:      path,
		log:       log,
		dynasties: dynasties,
		users:     users,
		table:     defaultTable(dynasties, users),
		dirty:     make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	s.load()

	s.wg.Add(1)
	go s.writeLoop()
	return s, nil
}

func defaultTable(dynasties, users []string) Table {
	t := make(Table, len(dynasties))
	for _, d := range dynasties {
		t[d] = make(map[string]bool, len(users))
		for _, u := range users {
			t[d][u] = false
		}
	}
	return t
}

// load merges persisted values into the default table. Only configured keys
// are taken over; entries for unknown dynasties or users are dropped so the
// table always holds exactly the configured universe.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Info("no snapshot found, starting fresh", zap.String("path", s.path))
		} else {
			s.log.Error("snapshot unreadable, starting fresh", zap.Error(err))
		}
		s.writeSnapshot()
		return
	}

	var persisted Table
	if err := json.Unmarshal(data, &persisted); err != nil {
		s.log.Error("snapshot corrupt, starting fresh", zap.Error(err), zap.String("path", s.path))
		s.writeSnapshot()
		return
	}

	for dynasty, byUser := range persisted {
		users, ok := s.table[strings.ToUpper(dynasty)]
		if !ok {
			continue
		}
		for user, ready := range byUser {
			if _, ok := users[user]; ok {
				users[user] = ready
			}
		}
	}
	s.log.Info("snapshot loaded", zap.String("path", s.path))
}

// IsReady reports whether user has signaled ready for dynasty. Unknown keys
// fail soft: false is returned and the miss is logged, never raised.
func (s *Store) IsReady(user, dynasty string) bool {
	dynasty = strings.ToUpper(dynasty)

	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.table[dynasty]
	if !ok {
		s.log.Error("dynasty not tracked", zap.String("dynasty", dynasty))
		return false
	}
	ready, ok := users[user]
	if !ok {
		s.log.Error("user not tracked", zap.String("user", user), zap.String("dynasty", dynasty))
		return false
	}
	return ready
}

// SetReady updates a user's readiness for a dynasty and schedules a snapshot
// write. It returns false without mutating anything when the dynasty or user
// is not part of the configured universe.
func (s *Store) SetReady(user, dynasty string, ready bool) bool {
	dynasty = strings.ToUpper(dynasty)

	s.mu.Lock()
	users, ok := s.table[dynasty]
	if !ok {
		s.mu.Unlock()
		s.log.Error("dynasty not tracked", zap.String("dynasty", dynasty))
		return false
	}
	if _, ok := users[user]; !ok {
		s.mu.Unlock()
		s.log.Error("user not tracked", zap.String("user", user), zap.String("dynasty", dynasty))
		return false
	}
	users[user] = ready
	s.mu.Unlock()

	s.markDirty()
	return true
}

// ResetDynasty sets every user's readiness for one dynasty back to false.
// Returns false when the dynasty is unknown.
func (s *Store) ResetDynasty(dynasty string) bool {
	dynasty = strings.ToUpper(dynasty)

	s.mu.Lock()
	users, ok := s.table[dynasty]
	if !ok {
		s.mu.Unlock()
		s.log.Error("dynasty not tracked", zap.String("dynasty", dynasty))
		return false
	}
	for u := range users {
		users[u] = false
	}
	s.mu.Unlock()

	s.markDirty()
	return true
}

// ResetAll sets every user's readiness for every dynasty back to false.
func (s *Store) ResetAll() {
	s.mu.Lock()
	for _, users := range s.table {
		for u := range users {
			users[u] = false
		}
	}
	s.mu.Unlock()

	s.markDirty()
}

// DynastyStatus returns a copy of the per-user readiness for one dynasty,
// or an empty map when the dynasty is unknown.
func (s *Store) DynastyStatus(dynasty string) map[string]bool {
	dynasty = strings.ToUpper(dynasty)

	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.table[dynasty]
	if !ok {
		s.log.Error("dynasty not tracked", zap.String("dynasty", dynasty))
		return map[string]bool{}
	}
	out := make(map[string]bool, len(users))
	for u, r := range users {
		out[u] = r
	}
	return out
}

// AllStatuses returns a deep copy of the whole table.
func (s *Store) AllStatuses() Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyTableLocked()
}

// Close stops the background writer after flushing any pending snapshot.
func (s *Store) Close() error {
	close(s.done)
	s.wg.Wait()
	return nil
}

func (s *Store) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default: // a write is already pending; it will pick up this change
	}
}

func (s *Store) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.dirty:
			s.writeSnapshot()
		case <-s.done:
			// Final flush so the last mutation is never lost on shutdown.
			select {
			case <-s.dirty:
				s.writeSnapshot()
			default:
			}
			return
		}
	}
}

// writeSnapshot takes a point-in-time copy under the lock, then marshals and
// writes outside it so the table stays available during I/O. A failed write
// is logged; the in-memory table stays authoritative and the next mutation
// retries naturally.
func (s *Store) writeSnapshot() {
	s.mu.Lock()
	snap := s.copyTableLocked()
	s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		s.log.Error("marshal snapshot failed", zap.Error(err))
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.Error("write snapshot failed", zap.Error(err), zap.String("path", s.path))
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Error("replace snapshot failed", zap.Error(err), zap.String("path", s.path))
		return
	}
	s.log.Debug("snapshot saved", zap.String("path", s.path))
}

func (s *Store) copyTableLocked() Table {
	out := make(Table, len(s.table))
	for d, users := range s.table {
		cp := make(map[string]bool, len(users))
		for u, r := range users {
			cp[u] = r
		}
		out[d] = cp
	}
	return out
}
