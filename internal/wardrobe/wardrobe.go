// Package wardrobe holds the in-memory collection of confirmed garments
// and the selection state used by the fitting room.
package wardrobe

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ycwei/smartlook/internal/capture"
)

// Category is the closed set of garment categories the analyzer may assign.
type Category string

const (
	CategoryTop       Category = "上衣"
	CategoryBottom    Category = "下著"
	CategoryInner     Category = "內搭"
	CategoryOuterwear Category = "外套"
	CategoryShoes     Category = "鞋子"
	CategoryAccessory Category = "配飾"
	CategoryOther     Category = "其他"

	// CategoryAll is a filter pseudo-category, never stored on an entry.
	CategoryAll Category = "全部"
)

// Categories lists every assignable category, in display order.
var Categories = []Category{
	CategoryTop,
	CategoryBottom,
	CategoryInner,
	CategoryOuterwear,
	CategoryShoes,
	CategoryAccessory,
	CategoryOther,
}

// IsValid reports whether c is an assignable garment category.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// GarmentEntry is a single confirmed wardrobe item. Entries are immutable
// once created; there is no update or delete.
type GarmentEntry struct {
	ID          string
	Image       capture.Photo
	Category    Category
	Description string
	AddedAt     time.Time
}

// NewGarmentEntry creates an entry with a fresh time-ordered id.
func NewGarmentEntry(image capture.Photo, category Category, description string) GarmentEntry {
	return GarmentEntry{
		ID:          newID(),
		Image:       image,
		Category:    category,
		Description: description,
		AddedAt:     time.Now(),
	}
}

func newID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Store is an ordered collection of garment entries, most recent first.
// Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []GarmentEntry
}

func NewStore() *Store {
	return &Store{}
}

// Append inserts the entry at the head of the sequence.
func (s *Store) Append(entry GarmentEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]GarmentEntry{entry}, s.entries...)
}

// Filter returns a snapshot of entries matching the category.
// CategoryAll returns the full sequence. The snapshot is independent of
// later mutations.
func (s *Store) Filter(category Category) []GarmentEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]GarmentEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if category == CategoryAll || e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// All returns a snapshot of the full sequence, most recent first.
func (s *Store) All() []GarmentEntry {
	return s.Filter(CategoryAll)
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (GarmentEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return GarmentEntry{}, false
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SelectionSet tracks which wardrobe entries are picked for a try-on,
// preserving the order in which they were toggled on.
type SelectionSet struct {
	mu  sync.Mutex
	ids []string
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{}
}

// Toggle flips membership of id and reports whether it is now selected.
// Toggling the same id twice restores the original membership.
func (s *SelectionSet) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return false
		}
	}
	s.ids = append(s.ids, id)
	return true
}

// IDs returns the selected ids in toggle order.
func (s *SelectionSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Clear removes all selections.
func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
}

// Validate checks that every selected id refers to a stored entry.
func (s *SelectionSet) Validate(store *Store) error {
	for _, id := range s.IDs() {
		if _, ok := store.Get(id); !ok {
			return fmt.Errorf("selected garment %s is not in the wardrobe", id)
		}
	}
	return nil
}
