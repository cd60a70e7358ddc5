package api

import (
	"github.com/planetlabs/go-stac"

	"github.com/rkm/s1burst/internal/catalog"
)

// Store is the in-memory catalog served by the API. It is built once at
// startup and read-only afterwards, so handlers need no locking.
type Store struct {
	stacks  []*catalog.Stack
	byStack map[string]*catalog.Stack
}

// NewStore indexes the given items by burst stack.
func NewStore(items []*stac.Item) *Store {
	stacks := catalog.Build(items)
	byStack := make(map[string]*catalog.Stack, len(stacks))
	for _, st := range stacks {
		byStack[st.ID] = st
	}
	return &Store{stacks: stacks, byStack: byStack}
}

// Stacks returns all burst stacks sorted by ID.
func (s *Store) Stacks() []*catalog.Stack {
	return s.stacks
}

// Stack returns one burst stack by ID.
func (s *Store) Stack(id string) (*catalog.Stack, bool) {
	st, ok := s.byStack[id]
	return st, ok
}

// Item returns one item of a stack by item ID.
func (s *Store) Item(stackID, itemID string) (*stac.Item, bool) {
	st, ok := s.byStack[stackID]
	if !ok {
		return nil, false
	}
	for _, item := range st.Items {
		if item.Id == itemID {
			return item, true
		}
	}
	return nil, false
}

// ItemCount returns the total number of items across all stacks.
func (s *Store) ItemCount() int {
	n := 0
	for _, st := range s.stacks {
		n += len(st.Items)
	}
	return n
}
