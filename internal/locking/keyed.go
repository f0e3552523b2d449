package locking

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Manager hands out named mutexes keyed by resource. Booking and
// modification hold the slot key and one ledger key together; rationing
// holds the slot key for the whole pass and each ledger key only for the
// duration of that consumer's own adjustment.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager constructs a lock manager.
func NewManager() *Manager {
	return &Manager{locks: make(map[string]*sync.Mutex)}
}

// SlotKey names the critical section for one capacity slot.
func SlotKey(producerID, date string, hour int) string {
	return fmt.Sprintf("slot:%s:%s:%d", producerID, date, hour)
}

// LedgerKey names the critical section for one consumer balance.
func LedgerKey(consumerID string) string {
	return "ledger:" + consumerID
}

// Lock acquires a single key and returns its release func.
func (m *Manager) Lock(key string) func() {
	mu := m.mutexFor(key)
	mu.Lock()
	return mu.Unlock
}

// LockAll acquires several keys in the fixed global order (slot keys
// before ledger keys, each class sorted by key) and returns one release
// func unlocking in reverse. The fixed order keeps the rationing fan-out,
// which already holds a slot key when it takes ledger keys one at a time,
// free of lock-order inversion against booking and modification.
func (m *Manager) LockAll(keys ...string) func() {
	ordered := make([]string, len(keys))
	copy(ordered, keys)
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := keyRank(ordered[i]), keyRank(ordered[j])
		if ri != rj {
			return ri < rj
		}
		return ordered[i] < ordered[j]
	})

	releases := make([]func(), 0, len(ordered))
	for _, key := range ordered {
		releases = append(releases, m.Lock(key))
	}
	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
}

func (m *Manager) mutexFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[key] = mu
	}
	return mu
}

func keyRank(key string) int {
	if strings.HasPrefix(key, "slot:") {
		return 0
	}
	return 1
}
