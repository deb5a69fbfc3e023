package campaign

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Store is the authoritative in-memory registry of campaigns and the single
// entry point for every mutation. Each mutation is applied synchronously and
// is visible to the next read; persistence follows as exactly one
// asynchronous commit through the Committer.
type Store struct {
	backend   Backend
	committer Committer
	logger    Logger
	clock     Clock
	idgen     IDGenerator

	mu        sync.RWMutex
	campaigns []Campaign
}

// NewStore creates an empty Store. Call Load to populate it from backend.
func NewStore(backend Backend, committer Committer, logger Logger, clock Clock, idgen IDGenerator) *Store {
	return &Store{
		backend:   backend,
		committer: committer,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// Load replaces the store's contents with what the backend holds and
// returns the number of campaigns loaded. Records without an id, with an id
// that cannot name a file, or with a repeated id are skipped.
func (s *Store) Load() int {
	loaded := s.backend.LoadAll()

	campaigns := make([]Campaign, 0, len(loaded))
	seen := make(map[string]bool, len(loaded))
	for _, c := range loaded {
		if strings.TrimSpace(c.ID) == "" {
			s.logger.Warn("skipping stored campaign without id", "name", c.Name)
			continue
		}
		if !ValidID(c.ID) {
			s.logger.Warn("skipping stored campaign with unusable id", "campaign", c.ID)
			continue
		}
		if seen[c.ID] {
			s.logger.Warn("skipping stored campaign with repeated id", "campaign", c.ID)
			continue
		}
		seen[c.ID] = true
		campaigns = append(campaigns, c.normalized())
	}

	s.mu.Lock()
	s.campaigns = campaigns
	s.mu.Unlock()

	s.logger.Info("campaigns loaded", "count", len(campaigns))
	return len(campaigns)
}

// Flush waits for every commit issued so far to reach the backend.
func (s *Store) Flush() {
	s.committer.Flush()
}

// Close flushes pending commits. The store must not be used afterwards.
func (s *Store) Close() {
	s.Flush()
}

// CommitFailures drains background write failures recorded so far.
func (s *Store) CommitFailures() []CommitFailure {
	return s.committer.Failures()
}

// List returns a snapshot of all campaigns in creation order.
func (s *Store) List() []Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Campaign, len(s.campaigns))
	for i, c := range s.campaigns {
		out[i] = c.Clone()
	}
	return out
}

// Get returns the campaign with the given id.
func (s *Store) Get(id string) (Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Campaign{}, fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	return s.campaigns[i].Clone(), nil
}

// Create adds a new empty campaign.
func (s *Store) Create(name, description string) (Campaign, error) {
	name = strings.TrimSpace(name)
	if err := requireText("name", name); err != nil {
		return Campaign{}, fmt.Errorf("creating campaign: %w", err)
	}

	now := s.clock.Now()
	c := Campaign{
		ID:          s.idgen.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}.normalized()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(c.ID) >= 0 {
		return Campaign{}, fmt.Errorf("creating campaign %s: %w", c.ID, ErrDuplicateID)
	}
	s.campaigns = append(s.campaigns, c)
	s.committer.Save(c)

	s.logger.Info("campaign created", "campaign", c.ID, "name", c.Name)
	return c.Clone(), nil
}

// CampaignPatch holds the campaign fields that can be edited directly.
// Nil fields are left unchanged.
type CampaignPatch struct {
	Name        *string
	Description *string
}

// Update edits a campaign's name and description.
func (s *Store) Update(id string, patch CampaignPatch) (Campaign, error) {
	return s.mutate(id, func(c Campaign, _ time.Time) (Campaign, bool, error) {
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if err := requireText("name", name); err != nil {
				return c, false, err
			}
			c.Name = name
		}
		if patch.Description != nil {
			c.Description = *patch.Description
		}
		return c, true, nil
	})
}

// Delete removes a campaign and, with it, every entity it holds. Deleting an
// unknown id returns ErrNotFound and changes nothing, so repeating a delete
// is harmless.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("deleting campaign %s: %w", id, ErrNotFound)
	}
	s.campaigns = slices.Delete(slices.Clone(s.campaigns), i, i+1)
	s.committer.Delete(id)

	s.logger.Info("campaign deleted", "campaign", id)
	return nil
}

// EntityOpKind selects what MutateEntity does.
type EntityOpKind int

const (
	OpAdd EntityOpKind = iota
	OpUpdate
	OpRemove
)

func (k EntityOpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	default:
		return fmt.Sprintf("EntityOpKind(%d)", int(k))
	}
}

// EntityOp is one entity mutation routed by collection name.
// Data is the new entity for OpAdd; ID and Patch are used by OpUpdate;
// ID alone by OpRemove.
type EntityOp struct {
	Op    EntityOpKind
	ID    string
	Data  json.RawMessage
	Patch Patch
}

// MutateEntity applies op to the named collection of a campaign and returns
// the campaign as it is afterwards. Removing an entity that does not exist
// returns the campaign unchanged and does not commit.
func (s *Store) MutateEntity(campaignID string, collection CollectionName, op EntityOp) (Campaign, error) {
	kind, err := KindByName(collection)
	if err != nil {
		return Campaign{}, err
	}

	return s.mutate(campaignID, func(c Campaign, now time.Time) (Campaign, bool, error) {
		switch op.Op {
		case OpAdd:
			next, err := kind.addRaw(c, op.Data, s.idgen.New(), now)
			return next, err == nil, err
		case OpUpdate:
			next, err := kind.updateRaw(c, op.ID, op.Patch, now)
			return next, err == nil, err
		case OpRemove:
			next, removed := kind.removeRaw(c, op.ID)
			return next, removed, nil
		default:
			return c, false, fmt.Errorf("unsupported entity operation %s: %w", op.Op, ErrValidation)
		}
	})
}

// AddEntity adds item to a campaign's collection of kind k and returns the
// stored entity with its generated id.
func AddEntity[T any](s *Store, k Kind[T], campaignID string, item T) (T, Campaign, error) {
	var added T
	c, err := s.mutate(campaignID, func(c Campaign, now time.Time) (Campaign, bool, error) {
		items, item, err := Add(k, k.get(c), item, s.idgen.New(), now)
		if err != nil {
			return c, false, err
		}
		added = item
		k.set(&c, items)
		return c, true, nil
	})
	return added, c, err
}

// UpdateEntity merges patch over one entity of kind k.
func UpdateEntity[T any](s *Store, k Kind[T], campaignID, id string, patch Patch) (T, Campaign, error) {
	var updated T
	c, err := s.mutate(campaignID, func(c Campaign, now time.Time) (Campaign, bool, error) {
		items, item, err := UpdateByID(k, k.get(c), id, patch, now)
		if err != nil {
			return c, false, err
		}
		updated = item
		k.set(&c, items)
		return c, true, nil
	})
	return updated, c, err
}

// RemoveEntity deletes one entity of kind k. Removing an absent entity is a no-op.
func RemoveEntity[T any](s *Store, k Kind[T], campaignID, id string) (Campaign, error) {
	return s.mutate(campaignID, func(c Campaign, _ time.Time) (Campaign, bool, error) {
		items, removed := RemoveByID(k, k.get(c), id)
		if !removed {
			return c, false, nil
		}
		k.set(&c, items)
		return c, true, nil
	})
}

// FindEntity returns one entity of kind k from a campaign.
func FindEntity[T any](s *Store, k Kind[T], campaignID, id string) (T, error) {
	c, err := s.Get(campaignID)
	if err != nil {
		var zero T
		return zero, err
	}
	return Find(k, k.get(c), id)
}

// mutate applies fn to the campaign with the given id under the store lock.
// When fn reports a change the campaign's UpdatedAt is stamped, the new
// snapshot replaces the old one and a commit is issued. The commit is issued
// while the lock is held so commits leave in mutation order.
func (s *Store) mutate(id string, fn func(c Campaign, now time.Time) (Campaign, bool, error)) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Campaign{}, fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}

	current := s.campaigns[i]
	now := s.clock.Now()
	next, changed, err := fn(current, now)
	if err != nil {
		return Campaign{}, err
	}
	if !changed {
		return current.Clone(), nil
	}

	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = now

	campaigns := slices.Clone(s.campaigns)
	campaigns[i] = next
	s.campaigns = campaigns
	s.committer.Save(next)

	s.logger.Debug("campaign updated", "campaign", id)
	return next.Clone(), nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.campaigns, func(c Campaign) bool { return c.ID == id })
}
