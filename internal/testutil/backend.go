package testutil

import (
	"errors"
	"slices"
	"sync"

	"starforge/internal/campaign"
)

// ErrInjected is returned by MemoryBackend writes while failing is set.
var ErrInjected = errors.New("injected backend failure")

// MemoryBackend is an in-memory campaign.Backend that records every write.
// Safe for concurrent use.
type MemoryBackend struct {
	mu        sync.Mutex
	campaigns []campaign.Campaign
	saves     []string
	deletes   []string
	failing   bool
}

var _ campaign.Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a MemoryBackend preloaded with campaigns.
func NewMemoryBackend(campaigns ...campaign.Campaign) *MemoryBackend {
	return &MemoryBackend{campaigns: slices.Clone(campaigns)}
}

func (b *MemoryBackend) LoadAll() []campaign.Campaign {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.campaigns)
}

func (b *MemoryBackend) Save(c campaign.Campaign) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return ErrInjected
	}
	b.saves = append(b.saves, c.ID)
	if i := b.indexOf(c.ID); i >= 0 {
		b.campaigns[i] = c
		return nil
	}
	b.campaigns = append(b.campaigns, c)
	return nil
}

func (b *MemoryBackend) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return ErrInjected
	}
	b.deletes = append(b.deletes, id)
	if i := b.indexOf(id); i >= 0 {
		b.campaigns = slices.Delete(b.campaigns, i, i+1)
	}
	return nil
}

// SetFailing makes subsequent writes fail with ErrInjected.
func (b *MemoryBackend) SetFailing(failing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing = failing
}

// Saved returns the ids passed to successful Save calls, in order.
func (b *MemoryBackend) Saved() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.saves)
}

// Deleted returns the ids passed to successful Delete calls, in order.
func (b *MemoryBackend) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.deletes)
}

// Stored returns the persisted campaign with the given id.
func (b *MemoryBackend) Stored(id string) (campaign.Campaign, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		return b.campaigns[i], true
	}
	return campaign.Campaign{}, false
}

func (b *MemoryBackend) indexOf(id string) int {
	return slices.IndexFunc(b.campaigns, func(c campaign.Campaign) bool { return c.ID == id })
}
