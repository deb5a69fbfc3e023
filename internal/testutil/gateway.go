package testutil

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"starforge/internal/gateway"
)

// FakeFetcher serves canned SRD indexes and documents and counts calls.
type FakeFetcher struct {
	mu        sync.Mutex
	indexes   map[gateway.Category][]gateway.Resource
	documents map[string]map[string]any
	calls     int
	err       error
}

var _ gateway.Fetcher = (*FakeFetcher)(nil)

func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		indexes:   make(map[gateway.Category][]gateway.Resource),
		documents: make(map[string]map[string]any),
	}
}

// SetIndex sets the resources listed for category.
func (f *FakeFetcher) SetIndex(category gateway.Category, resources ...gateway.Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexes[category] = resources
}

// SetDocument sets the document returned for url.
func (f *FakeFetcher) SetDocument(url string, doc map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[url] = doc
}

// SetError makes every call fail with err wrapped in gateway.ErrGateway.
func (f *FakeFetcher) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns the number of fetches made so far.
func (f *FakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeFetcher) FetchIndex(_ context.Context, category gateway.Category) ([]gateway.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, fmt.Errorf("%w: %w", gateway.ErrGateway, f.err)
	}
	resources, ok := f.indexes[category]
	if !ok {
		return nil, fmt.Errorf("%w: no index for %s", gateway.ErrGateway, category)
	}
	return append([]gateway.Resource(nil), resources...), nil
}

func (f *FakeFetcher) FetchDetail(_ context.Context, url string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, fmt.Errorf("%w: %w", gateway.ErrGateway, f.err)
	}
	doc, ok := f.documents[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", gateway.ErrGateway, url)
	}
	return maps.Clone(doc), nil
}

// ErrGeneratorDown is returned by a FakeGenerator with no replies left.
var ErrGeneratorDown = errors.New("generator unavailable")

// FakeGenerator replies to prompts from a queue and records them.
// Once the queue is empty every call fails.
type FakeGenerator struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

var _ gateway.TextGenerator = (*FakeGenerator)(nil)

// NewFakeGenerator creates a FakeGenerator that answers with replies in order.
func NewFakeGenerator(replies ...string) *FakeGenerator {
	return &FakeGenerator{replies: replies}
}

// Reply queues another reply.
func (g *FakeGenerator) Reply(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, text)
}

// Prompts returns every prompt received so far.
func (g *FakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Calls returns the number of GenerateText calls made so far.
func (g *FakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *FakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if len(g.replies) == 0 {
		return "", fmt.Errorf("%w: %w", gateway.ErrGateway, ErrGeneratorDown)
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}
