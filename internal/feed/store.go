package feed

import (
	"sync"

	"github.com/prakharpks02/floww-wall/internal/entity"
)

// Store is the single in-memory collection of canonical entities for one
// feed view. It is the only state the presentation layer may observe, and it
// guarantees at most one entity per canonical id. Reads return deep copies so
// callers cannot mutate stored state.
type Store struct {
	mu       sync.RWMutex
	entities []entity.Entity
	index    map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Len returns the number of entities currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Snapshot returns a deep copy of the current collection in feed order.
func (s *Store) Snapshot() []entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Entity, 0, len(s.entities))
	for _, item := range s.entities {
		out = append(out, item.Clone())
	}
	return out
}

// Get returns a deep copy of the entity with the given canonical id.
func (s *Store) Get(canonicalID string) (entity.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	position, ok := s.index[canonicalID]
	if !ok {
		return entity.Entity{}, false
	}
	return s.entities[position].Clone(), true
}

// Replace swaps the whole collection for the supplied entities, keeping the
// first occurrence of each canonical id.
func (s *Store) Replace(entities []entity.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = s.entities[:0]
	s.index = make(map[string]int, len(entities))
	for _, item := range entities {
		if _, duplicate := s.index[item.CanonicalID]; duplicate {
			continue
		}
		s.index[item.CanonicalID] = len(s.entities)
		s.entities = append(s.entities, item.Clone())
	}
}

// Append adds entities to the end of the collection, silently dropping any
// whose canonical id is already present. Server pages can overlap at
// boundaries, so duplication here is expected and not an error.
func (s *Store) Append(entities []entity.Entity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	appended := 0
	for _, item := range entities {
		if _, duplicate := s.index[item.CanonicalID]; duplicate {
			continue
		}
		s.index[item.CanonicalID] = len(s.entities)
		s.entities = append(s.entities, item.Clone())
		appended++
	}
	return appended
}

// InsertFront places an entity at the head of the feed, replacing any
// existing entity with the same canonical id in place instead.
func (s *Store) InsertFront(item entity.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position, exists := s.index[item.CanonicalID]; exists {
		s.entities[position] = item.Clone()
		return
	}
	s.entities = append([]entity.Entity{item.Clone()}, s.entities...)
	s.reindexLocked()
}

// InsertAt restores an entity at a previously held position, clamping the
// position to the current bounds. Used to undo optimistic deletions.
func (s *Store) InsertAt(position int, item entity.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[item.CanonicalID]; exists {
		return
	}
	if position < 0 {
		position = 0
	}
	if position > len(s.entities) {
		position = len(s.entities)
	}
	s.entities = append(s.entities, entity.Entity{})
	copy(s.entities[position+1:], s.entities[position:])
	s.entities[position] = item.Clone()
	s.reindexLocked()
}

// Remove deletes the entity with the given canonical id and returns a copy of
// it together with the position it held.
func (s *Store) Remove(canonicalID string) (entity.Entity, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	position, ok := s.index[canonicalID]
	if !ok {
		return entity.Entity{}, 0, false
	}
	removed := s.entities[position]
	s.entities = append(s.entities[:position], s.entities[position+1:]...)
	s.reindexLocked()
	return removed, position, true
}

// Swap replaces the entity identified by previousID with the supplied entity,
// which may carry a different canonical id. Used when an optimistic create is
// confirmed under a server-assigned id.
func (s *Store) Swap(previousID string, item entity.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	position, ok := s.index[previousID]
	if !ok {
		return false
	}
	if other, duplicate := s.index[item.CanonicalID]; duplicate && other != position {
		// The confirmed entity already arrived through pagination; drop the
		// optimistic copy instead of keeping both.
		s.entities = append(s.entities[:position], s.entities[position+1:]...)
		s.reindexLocked()
		return true
	}
	s.entities[position] = item.Clone()
	s.reindexLocked()
	return true
}

// Apply mutates the entity with the given canonical id in place under the
// store lock. The callback receives the stored entity itself.
func (s *Store) Apply(canonicalID string, mutate func(*entity.Entity)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	position, ok := s.index[canonicalID]
	if !ok {
		return false
	}
	mutate(&s.entities[position])
	return true
}

func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.entities))
	for position, item := range s.entities {
		s.index[item.CanonicalID] = position
	}
}
