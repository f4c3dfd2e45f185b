// Package favorites keeps the four independent favorite-item sets.
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/appstate/internal/client/models"
	"github.com/dmitrijs2005/appstate/internal/common"
	"github.com/dmitrijs2005/appstate/internal/logging"
)

// Persister schedules a write-through of a serialized value.
type Persister interface {
	Persist(key string, value []byte)
}

type idSet struct {
	order []string
	index map[string]struct{}
}

func newIDSet() *idSet {
	return &idSet{order: []string{}, index: map[string]struct{}{}}
}

// Registry holds one ordered set of ids per favorite domain.
type Registry struct {
	mu      sync.RWMutex
	sets    map[models.FavoriteDomain]*idSet
	persist Persister
	log     logging.Logger
}

func NewRegistry(p Persister, log logging.Logger) *Registry {
	r := &Registry{
		sets:    make(map[models.FavoriteDomain]*idSet, len(models.FavoriteDomains)),
		persist: p,
		log:     logging.OrNop(log).With("component", "favorites"),
	}
	for _, d := range models.FavoriteDomains {
		r.sets[d] = newIDSet()
	}
	return r
}

func (r *Registry) set(domain models.FavoriteDomain) (*idSet, error) {
	s, ok := r.sets[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidDomain, domain)
	}
	return s, nil
}

// Toggle flips membership of id in domain and returns the new membership.
// The updated set is persisted under the domain's key.
func (r *Registry) Toggle(domain models.FavoriteDomain, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.set(domain)
	if err != nil {
		return false, err
	}

	_, member := s.index[id]
	if member {
		delete(s.index, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	} else {
		s.index[id] = struct{}{}
		s.order = append(s.order, id)
	}

	r.persistLocked(domain, s)
	r.log.Debug(context.Background(), "favorite toggled", "domain", domain, "id", id, "member", !member)
	return !member, nil
}

// IsFavorite reports membership. Unknown domains have no members.
func (r *Registry) IsFavorite(domain models.FavoriteDomain, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sets[domain]
	if !ok {
		return false
	}
	_, member := s.index[id]
	return member
}

// IDs returns the ids of domain in insertion order.
func (r *Registry) IDs(domain models.FavoriteDomain) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sets[domain]
	if !ok {
		return []string{}
	}
	return append([]string{}, s.order...)
}

// Restore replaces the set of domain without persisting. Duplicates and
// empty ids are dropped.
func (r *Registry) Restore(domain models.FavoriteDomain, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.set(domain); err != nil {
		return err
	}
	s := newIDSet()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = struct{}{}
		s.order = append(s.order, id)
	}
	r.sets[domain] = s
	return nil
}

// Reset empties every set and persists the empty sets.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range models.FavoriteDomains {
		r.sets[d] = newIDSet()
		r.persistLocked(d, r.sets[d])
	}
}

// persistLocked runs under r.mu so values reach the writer in mutation order.
func (r *Registry) persistLocked(domain models.FavoriteDomain, s *idSet) {
	if r.persist == nil {
		return
	}
	raw, err := Encode(s.order)
	if err != nil {
		r.log.Error(context.Background(), "failed to encode favorites", "domain", domain, "error", err)
		return
	}
	r.persist.Persist(domain.Key(), raw)
}

// Encode serializes ids as a JSON array.
func Encode(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// Decode parses a persisted set. A JSON null is an empty set.
func Decode(raw []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: favorites: %v", common.ErrMalformedData, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
