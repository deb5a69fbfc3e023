package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"

	"starforge/internal/campaign"
	"starforge/internal/gateway"
	"starforge/internal/testutil"
)

var monsters = []gateway.Resource{
	{ID: "goblin", Name: "Goblin", URL: "/api/monsters/goblin"},
	{ID: "owlbear", Name: "Owlbear", URL: "/api/monsters/owlbear"},
	{ID: "lich", Name: "Lich", URL: "/api/monsters/lich"},
}

func newTestCache(fetcher gateway.Fetcher, gen gateway.TextGenerator) *Cache {
	return NewCache(fetcher, gen, language.MustParse("pt-BR"), campaign.NewNopLogger())
}

func TestCache_List(t *testing.T) {
	tests := []struct {
		name           string
		replies        []string
		wantLabels     []string
		wantTranslated bool
		wantWarning    bool
	}{
		{
			name:           "translated",
			replies:        []string{"Goblin, Urso-coruja, Lich\n"},
			wantLabels:     []string{"Goblin", "Urso-coruja", "Lich"},
			wantTranslated: true,
		},
		{
			name:        "count mismatch falls back",
			replies:     []string{"Goblin, Urso-coruja"},
			wantLabels:  []string{"Goblin", "Owlbear", "Lich"},
			wantWarning: true,
		},
		{
			name:        "generator failure falls back",
			wantLabels:  []string{"Goblin", "Owlbear", "Lich"},
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := testutil.NewFakeFetcher()
			fetcher.SetIndex(gateway.Monsters, monsters...)
			gen := testutil.NewFakeGenerator(tt.replies...)
			cache := newTestCache(fetcher, gen)

			got, err := cache.List(context.Background(), gateway.Monsters)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}

			var labels []string
			for _, item := range got.Items {
				labels = append(labels, item.Label)
			}
			if diff := cmp.Diff(tt.wantLabels, labels); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}
			if got.Translated != tt.wantTranslated {
				t.Errorf("Translated = %v, want %v", got.Translated, tt.wantTranslated)
			}
			if (got.Warning != "") != tt.wantWarning {
				t.Errorf("Warning = %q, wantWarning %v", got.Warning, tt.wantWarning)
			}
			if got.Items[1].Name != "Owlbear" || got.Items[1].URL != "/api/monsters/owlbear" {
				t.Errorf("original resource not kept: %+v", got.Items[1])
			}
			if gen.Calls() != 1 {
				t.Errorf("generator calls = %d, want 1", gen.Calls())
			}
		})
	}
}

func TestCache_List_PromptJoinsNamesInOrder(t *testing.T) {
	fetcher := testutil.NewFakeFetcher()
	fetcher.SetIndex(gateway.Monsters, monsters...)
	gen := testutil.NewFakeGenerator("a, b, c")
	cache := newTestCache(fetcher, gen)

	if _, err := cache.List(context.Background(), gateway.Monsters); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	prompt := gen.Prompts()[0]
	if !strings.Contains(prompt, "Goblin, Owlbear, Lich") {
		t.Errorf("prompt does not carry the joined names: %q", prompt)
	}
	if !strings.Contains(prompt, "Brazilian Portuguese") {
		t.Errorf("prompt does not name the target language: %q", prompt)
	}
}

func TestCache_List_CachesPerCategory(t *testing.T) {
	fetcher := testutil.NewFakeFetcher()
	fetcher.SetIndex(gateway.Monsters, monsters...)
	fetcher.SetIndex(gateway.Spells, gateway.Resource{ID: "fireball", Name: "Fireball", URL: "/api/spells/fireball"})
	gen := testutil.NewFakeGenerator("Goblin, Urso-coruja, Lich", "Bola de Fogo")
	cache := newTestCache(fetcher, gen)
	ctx := context.Background()

	first, err := cache.List(ctx, gateway.Monsters)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	first.Items[0].Label = "mutated by caller"

	second, err := cache.List(ctx, gateway.Monsters)
	if err != nil {
		t.Fatalf("second List() error = %v", err)
	}
	if second.Items[0].Label != "Goblin" {
		t.Errorf("cached listing was mutated through a returned result: %q", second.Items[0].Label)
	}
	if fetcher.Calls() != 1 || gen.Calls() != 1 {
		t.Errorf("calls after hit: fetcher=%d generator=%d, want 1 and 1", fetcher.Calls(), gen.Calls())
	}

	spells, err := cache.List(ctx, gateway.Spells)
	if err != nil {
		t.Fatalf("List(spells) error = %v", err)
	}
	if spells.Items[0].Label != "Bola de Fogo" {
		t.Errorf("spells label = %q", spells.Items[0].Label)
	}
	if fetcher.Calls() != 2 {
		t.Errorf("fetcher calls = %d, want 2", fetcher.Calls())
	}
}

func TestCache_List_FetchFailureNotCached(t *testing.T) {
	fetcher := testutil.NewFakeFetcher()
	fetcher.SetError(errors.New("offline"))
	gen := testutil.NewFakeGenerator()
	cache := newTestCache(fetcher, gen)
	ctx := context.Background()

	if _, err := cache.List(ctx, gateway.Monsters); !errors.Is(err, gateway.ErrGateway) {
		t.Fatalf("List() error = %v, want ErrGateway", err)
	}

	fetcher.SetError(nil)
	fetcher.SetIndex(gateway.Monsters, monsters...)
	got, err := cache.List(ctx, gateway.Monsters)
	if err != nil {
		t.Fatalf("List() after recovery error = %v", err)
	}
	if len(got.Items) != 3 {
		t.Errorf("Items = %d, want 3", len(got.Items))
	}
}

func TestCache_List_EmptyIndex(t *testing.T) {
	fetcher := testutil.NewFakeFetcher()
	fetcher.SetIndex(gateway.Races)
	gen := testutil.NewFakeGenerator()
	cache := newTestCache(fetcher, gen)

	got, err := cache.List(context.Background(), gateway.Races)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got.Items) != 0 || got.Warning != "" {
		t.Errorf("List() = %+v, want empty listing without warning", got)
	}
	if gen.Calls() != 0 {
		t.Errorf("generator calls = %d, want 0", gen.Calls())
	}
}

func srdEntry(translated bool) campaign.BestiaryEntry {
	return campaign.BestiaryEntry{
		ID:   "b-1",
		Name: "Goblin",
		Creature: campaign.SRDCreature{
			FullData: map[string]any{
				"index":      "goblin",
				"name":       "Goblin",
				"size":       "Small",
				"alignment":  "neutral evil",
				"hit_points": float64(7),
			},
			Translated: translated,
		},
	}
}

func TestCache_Detail_Translates(t *testing.T) {
	gen := testutil.NewFakeGenerator("Claro! ```json\n{\"size\":\"Pequeno\",\"alignment\":\"neutro e mau\"}\n```")
	cache := newTestCache(testutil.NewFakeFetcher(), gen)

	got := cache.Detail(context.Background(), srdEntry(false))
	if !got.Changed || got.Warning != "" {
		t.Fatalf("Detail() = %+v, want changed without warning", got)
	}

	srd, ok := got.Entry.SRD()
	if !ok || !srd.Translated {
		t.Fatalf("entry not marked translated: %+v", got.Entry)
	}
	want := map[string]any{
		"index":      "goblin",
		"name":       "Goblin",
		"size":       "Pequeno",
		"alignment":  "neutro e mau",
		"hit_points": float64(7),
	}
	if diff := cmp.Diff(want, srd.FullData); diff != "" {
		t.Errorf("FullData mismatch (-want +got):\n%s", diff)
	}
	if got.Entry.ID != "b-1" || got.Entry.Name != "Goblin" {
		t.Errorf("identity changed: %+v", got.Entry)
	}
	if !strings.Contains(gen.Prompts()[0], `"alignment":"neutral evil"`) {
		t.Errorf("prompt does not carry the document: %q", gen.Prompts()[0])
	}
}

func TestCache_Detail_AlreadyTranslatedMakesNoCalls(t *testing.T) {
	fetcher := testutil.NewFakeFetcher()
	gen := testutil.NewFakeGenerator("{}")
	cache := newTestCache(fetcher, gen)
	entry := srdEntry(true)

	first := cache.Detail(context.Background(), entry)
	second := cache.Detail(context.Background(), entry)

	if gen.Calls() != 0 || fetcher.Calls() != 0 {
		t.Errorf("calls: generator=%d fetcher=%d, want 0", gen.Calls(), fetcher.Calls())
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(entry, first.Entry); diff != "" {
		t.Errorf("entry changed (-want +got):\n%s", diff)
	}
	if first.Changed {
		t.Error("Changed = true, want false")
	}
}

func TestCache_Detail_NonSRDUnchanged(t *testing.T) {
	gen := testutil.NewFakeGenerator("{}")
	cache := newTestCache(testutil.NewFakeFetcher(), gen)
	entry := campaign.BestiaryEntry{ID: "b-2", Name: "Goblin", Creature: campaign.ManualCreature{Description: "small", Stats: "HP 7"}}

	got := cache.Detail(context.Background(), entry)
	if got.Changed || gen.Calls() != 0 {
		t.Errorf("Detail() = %+v with %d calls, want unchanged and no calls", got, gen.Calls())
	}
}

func TestCache_Detail_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		replies []string
	}{
		{name: "generator failure"},
		{name: "reply without JSON", replies: []string{"Desculpe, não posso."}},
		{name: "malformed JSON", replies: []string{`{"size": "Pequeno",}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newTestCache(testutil.NewFakeFetcher(), testutil.NewFakeGenerator(tt.replies...))
			entry := srdEntry(false)

			got := cache.Detail(context.Background(), entry)
			if got.Changed {
				t.Error("Changed = true, want false")
			}
			if got.Warning == "" {
				t.Error("Warning is empty")
			}
			if diff := cmp.Diff(entry, got.Entry); diff != "" {
				t.Errorf("entry changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCache_Document(t *testing.T) {
	fetcher := testutil.NewFakeFetcher()
	fetcher.SetDocument("/api/spells/fireball", map[string]any{"name": "Fireball", "level": float64(3)})
	gen := testutil.NewFakeGenerator(`{"name":"Bola de Fogo"}`)
	cache := newTestCache(fetcher, gen)
	ctx := context.Background()

	got, err := cache.Document(ctx, "/api/spells/fireball")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	want := DocumentResult{Data: map[string]any{"name": "Bola de Fogo", "level": float64(3)}, Translated: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Document() mismatch (-want +got):\n%s", diff)
	}

	// No reply queued: translation degrades, fetch still succeeds.
	got, err = cache.Document(ctx, "/api/spells/fireball")
	if err != nil {
		t.Fatalf("second Document() error = %v", err)
	}
	if got.Translated || got.Warning == "" || got.Data["name"] != "Fireball" {
		t.Errorf("degraded Document() = %+v", got)
	}

	if _, err := cache.Document(ctx, "/api/spells/missing"); !errors.Is(err, gateway.ErrGateway) {
		t.Errorf("Document(missing) error = %v, want ErrGateway", err)
	}
}
