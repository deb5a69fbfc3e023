package testutil

import (
	"testing"

	"starforge/internal/campaign"
)

// NewTestStore creates a loaded campaign.Store over a MemoryBackend with a
// fixed clock and sequential ids. Pending commits are flushed when the test
// completes.
func NewTestStore(t *testing.T, seed ...campaign.Campaign) (*campaign.Store, *MemoryBackend, *StubClock) {
	t.Helper()

	backend := NewMemoryBackend(seed...)
	clock := FixedClock()
	logger := campaign.NewNopLogger()
	committer := campaign.NewDetachedCommitter(backend, logger, clock)
	store := campaign.NewStore(backend, committer, logger, clock, NewStubIDGenerator())
	store.Load()

	t.Cleanup(store.Close)
	return store, backend, clock
}
