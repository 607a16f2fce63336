// ABOUTME: Sharded in-memory cart store keyed by cart id.
// ABOUTME: Read-modify-write is atomic per cart; different carts never share a lock for long.

package cart

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is the shard count used when none is configured.
const DefaultShards = 32

// entry guards one cart. Once removed is set the entry is detached from its
// shard and must not be mutated; writers that observe it look the cart up again.
type entry struct {
	mu      sync.Mutex
	items   []Item
	removed bool
}

type shard struct {
	mu    sync.Mutex
	carts map[string]*entry
}

// Store holds every cart for the lifetime of the process.
//
// Shard locks are only held long enough to find, insert or detach an entry.
// Mutations run under the entry's own lock, so concurrent updates of the same
// cart serialize while updates of different carts proceed independently.
type Store struct {
	shards []*shard
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the function used to mint cart ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore creates an empty store with the given number of shards.
// A non-positive count falls back to DefaultShards.
func NewStore(shards int, opts ...Option) *Store {
	if shards <= 0 {
		shards = DefaultShards
	}
	s := &Store{
		shards: make([]*shard, shards),
		newID:  NewID,
	}
	for i := range s.shards {
		s.shards[i] = &shard{carts: make(map[string]*entry)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveID returns cartID, or a freshly generated id when cartID is empty.
func (s *Store) ResolveID(cartID string) string {
	if cartID != "" {
		return cartID
	}
	return s.newID()
}

func (s *Store) shardFor(cartID string) *shard {
	return s.shards[xxhash.Sum64String(cartID)%uint64(len(s.shards))]
}

// Put replaces the contents of a cart, creating it if needed. Items sharing a
// name are combined so names stay unique within the cart; a combined quantity
// that overflows leaves the cart untouched and returns ErrQuantityOverflow.
func (s *Store) Put(cartID string, items []Item) error {
	items, err := Merge(nil, items)
	if err != nil {
		return err
	}
	for {
		e, _ := s.acquire(cartID)
		if e.removed {
			e.mu.Unlock()
			continue
		}
		e.items = items
		e.mu.Unlock()
		return nil
	}
}

// Update resolves cartID (generating one when empty), creates the cart if it
// does not exist and applies mutate to its items under exclusive access.
// It returns the resolved id and a copy of the items after mutation. When
// mutate fails the cart keeps its previous contents, and a cart created by
// this call is discarded again.
func (s *Store) Update(cartID string, mutate func([]Item) ([]Item, error)) (string, []Item, error) {
	cartID = s.ResolveID(cartID)
	for {
		e, created := s.acquire(cartID)
		if e.removed {
			e.mu.Unlock()
			continue
		}
		items, err := mutate(e.items)
		if err != nil {
			if created {
				s.detach(cartID, e)
			}
			e.mu.Unlock()
			return cartID, nil, err
		}
		e.items = items
		out := CloneItems(e.items)
		e.mu.Unlock()
		return cartID, out, nil
	}
}

// Add merges items into the cart using Merge.
func (s *Store) Add(cartID string, items []Item) (string, []Item, error) {
	return s.Update(cartID, func(existing []Item) ([]Item, error) {
		return Merge(existing, items)
	})
}

// Remove resolves cartID (generating one when empty) and deletes the cart.
// It returns the resolved id, the removed items and whether the cart existed.
func (s *Store) Remove(cartID string) (string, []Item, bool) {
	cartID = s.ResolveID(cartID)

	sh := s.shardFor(cartID)
	sh.mu.Lock()
	e, ok := sh.carts[cartID]
	if !ok {
		sh.mu.Unlock()
		return cartID, nil, false
	}
	delete(sh.carts, cartID)
	sh.mu.Unlock()

	// Wait for any in-flight mutation to finish before reading the contents.
	e.mu.Lock()
	e.removed = true
	items := e.items
	e.items = nil
	e.mu.Unlock()

	return cartID, items, true
}

// Get returns a copy of the cart's items and whether the cart exists.
func (s *Store) Get(cartID string) ([]Item, bool) {
	sh := s.shardFor(cartID)
	sh.mu.Lock()
	e, ok := sh.carts[cartID]
	sh.mu.Unlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, false
	}
	return CloneItems(e.items), true
}

// Len returns the number of carts currently held.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.carts)
		sh.mu.Unlock()
	}
	return n
}

// acquire returns the entry for cartID, creating it if absent, with its lock
// held. created reports whether this call inserted the entry. The shard lock is
// released before waiting on the entry lock.
func (s *Store) acquire(cartID string) (*entry, bool) {
	sh := s.shardFor(cartID)
	sh.mu.Lock()
	e, ok := sh.carts[cartID]
	if !ok {
		e = &entry{items: []Item{}}
		sh.carts[cartID] = e
	}
	sh.mu.Unlock()

	e.mu.Lock()
	return e, !ok
}

// detach removes e from its shard. Must be called with e.mu held; waiters on
// e observe removed and look the cart up again.
func (s *Store) detach(cartID string, e *entry) {
	sh := s.shardFor(cartID)
	sh.mu.Lock()
	if sh.carts[cartID] == e {
		delete(sh.carts, cartID)
	}
	sh.mu.Unlock()
	e.removed = true
	e.items = nil
}
