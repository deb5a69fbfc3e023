package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"starforge/internal/campaign"
	"starforge/internal/gateway"
)

// Item is one resource of a category listing with its display label: the
// translated name when the listing was translated, else the original name.
type Item struct {
	gateway.Resource
	Label string `json:"label"`
}

// ListResult is a category listing as served to the UI.
type ListResult struct {
	Category   gateway.Category `json:"category"`
	Items      []Item           `json:"items"`
	Translated bool             `json:"translated"`
	// Warning is set when translation was skipped and names are untranslated.
	Warning string `json:"warning,omitempty"`
}

// DetailResult is the outcome of translating one bestiary entry.
type DetailResult struct {
	Entry campaign.BestiaryEntry
	// Changed reports that Entry was newly translated and should be persisted.
	Changed bool
	Warning string
}

// DocumentResult is a reference document prepared for browsing.
type DocumentResult struct {
	Data       map[string]any `json:"data"`
	Translated bool           `json:"translated"`
	Warning    string         `json:"warning,omitempty"`
}

// Cache memoizes translated category listings for the life of the process.
// Detail translations are not kept here; they live on the bestiary entry
// that owns them once the caller persists the result.
type Cache struct {
	fetcher      gateway.Fetcher
	generator    gateway.TextGenerator
	languageName string
	logger       campaign.Logger

	mu    sync.Mutex
	lists map[gateway.Category]ListResult
}

// NewCache creates an empty Cache translating into lang.
func NewCache(fetcher gateway.Fetcher, generator gateway.TextGenerator, lang language.Tag, logger campaign.Logger) *Cache {
	return &Cache{
		fetcher:      fetcher,
		generator:    generator,
		languageName: LanguageName(lang),
		logger:       logger,
		lists:        make(map[gateway.Category]ListResult),
	}
}

// List returns the listing for category, fetching and translating it on the
// first request. A failed or mismatched translation falls back to the
// original names and is cached that way. A failed fetch is returned as an
// error and nothing is cached.
func (c *Cache) List(ctx context.Context, category gateway.Category) (ListResult, error) {
	c.mu.Lock()
	cached, ok := c.lists[category]
	c.mu.Unlock()
	if ok {
		return cloneList(cached), nil
	}

	resources, err := c.fetcher.FetchIndex(ctx, category)
	if err != nil {
		return ListResult{}, fmt.Errorf("listing %s: %w", category, err)
	}

	result := c.translateList(ctx, category, resources)

	c.mu.Lock()
	c.lists[category] = result
	c.mu.Unlock()

	return cloneList(result), nil
}

func (c *Cache) translateList(ctx context.Context, category gateway.Category, resources []gateway.Resource) ListResult {
	result := ListResult{Category: category, Items: make([]Item, len(resources))}
	for i, r := range resources {
		result.Items[i] = Item{Resource: r, Label: r.Name}
	}
	if len(resources) == 0 {
		return result
	}

	names := make([]string, len(resources))
	for i, r := range resources {
		names[i] = r.Name
	}

	reply, err := c.generator.GenerateText(ctx, listPrompt(c.languageName, strings.Join(names, listSeparator)))
	if err != nil {
		c.logger.Warn("list translation failed, using original names", "category", category, "error", err)
		result.Warning = "translation unavailable, showing original names"
		return result
	}

	translated := strings.Split(strings.TrimSpace(reply), listSeparator)
	if len(translated) != len(resources) {
		c.logger.Warn("list translation returned a different number of names, using original names",
			"category", category, "want", len(resources), "got", len(translated))
		result.Warning = "translation did not match the listing, showing original names"
		return result
	}

	for i := range result.Items {
		result.Items[i].Label = strings.TrimSpace(translated[i])
	}
	result.Translated = true
	return result
}

// Detail translates the reference document of an SRD bestiary entry. Entries
// that are not from the SRD, or are already translated, come back unchanged
// without any outbound call. On failure the entry comes back unchanged with
// a warning; Detail itself never fails.
func (c *Cache) Detail(ctx context.Context, entry campaign.BestiaryEntry) DetailResult {
	srd, ok := entry.SRD()
	if !ok || srd.Translated {
		return DetailResult{Entry: entry}
	}
	if len(srd.FullData) == 0 {
		return DetailResult{Entry: entry, Warning: "entry has no reference document to translate"}
	}

	merged, err := c.translateDocument(ctx, srd.FullData)
	if err != nil {
		c.logger.Warn("detail translation failed, keeping original", "entry", entry.ID, "error", err)
		return DetailResult{Entry: entry, Warning: "translation unavailable, showing original text"}
	}

	entry.Creature = campaign.SRDCreature{FullData: merged, Translated: true}
	return DetailResult{Entry: entry, Changed: true}
}

// Document fetches a reference document and translates it for browsing.
// Browsed documents are not cached. Only a failed fetch is an error.
func (c *Cache) Document(ctx context.Context, url string) (DocumentResult, error) {
	raw, err := c.fetcher.FetchDetail(ctx, url)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("fetching %s: %w", url, err)
	}

	merged, err := c.translateDocument(ctx, raw)
	if err != nil {
		c.logger.Warn("document translation failed, keeping original", "url", url, "error", err)
		return DocumentResult{Data: raw, Warning: "translation unavailable, showing original text"}, nil
	}
	return DocumentResult{Data: merged, Translated: true}, nil
}

// translateDocument asks for a translation of raw and merges the reply's
// top-level keys over a copy of raw.
func (c *Cache) translateDocument(ctx context.Context, raw map[string]any) (map[string]any, error) {
	serialized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	reply, err := c.generator.GenerateText(ctx, documentPrompt(c.languageName, string(serialized)))
	if err != nil {
		return nil, err
	}

	var translated map[string]any
	if err := gateway.ExtractObject(reply, &translated); err != nil {
		return nil, err
	}

	merged := maps.Clone(raw)
	maps.Copy(merged, translated)
	return merged, nil
}

func cloneList(r ListResult) ListResult {
	r.Items = slices.Clone(r.Items)
	return r
}
