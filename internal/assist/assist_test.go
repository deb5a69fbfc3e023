package assist

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

func newTestAssistant(gen *testutil.FakeGenerator, fetcher *testutil.FakeFetcher) *Assistant {
	return New(gen, fetcher, language.MustParse("pt-BR"))
}

func TestAssistant_Ideas(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    []Idea
		wantErr error
	}{
		{
			name: "three ideas",
			reply: "Aqui estão:\n[{\"name\":\"Ashen Reach\",\"description\":\"Uma fronteira queimada.\"}," +
				"{\"name\":\" Sunken Vault \",\"description\":\"Ruínas submersas.\"}," +
				"{\"name\":\"Glass Crown\",\"description\":\"Intriga na corte.\"}]",
			want: []Idea{
				{Name: "Ashen Reach", Description: "Uma fronteira queimada."},
				{Name: "Sunken Vault", Description: "Ruínas submersas."},
				{Name: "Glass Crown", Description: "Intriga na corte."},
			},
		},
		{
			name:  "nameless ideas dropped",
			reply: `[{"name":"","description":"x"},{"name":"Ashen Reach","description":""}]`,
			want:  []Idea{{Name: "Ashen Reach"}},
		},
		{name: "no array", reply: "Sem ideias hoje.", wantErr: gateway.ErrGateway},
		{name: "all nameless", reply: `[{"description":"x"}]`, wantErr: gateway.ErrGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := testutil.NewFakeGenerator(tt.reply)
			got, err := newTestAssistant(gen, testutil.NewFakeFetcher()).Ideas(context.Background(), "fire")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Ideas() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Ideas() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Ideas() mismatch (-want +got):\n%s", diff)
			}
			if p := gen.Prompts()[0]; !strings.Contains(p, `"fire"`) || !strings.Contains(p, "Brazilian Portuguese") {
				t.Errorf("prompt = %q", p)
			}
		})
	}
}

func TestAssistant_Ideas_Validation(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	_, err := newTestAssistant(gen, testutil.NewFakeFetcher()).Ideas(context.Background(), "   ")
	if !errors.Is(err, campaign.ErrValidation) {
		t.Errorf("Ideas() error = %v, want ErrValidation", err)
	}
	if gen.Calls() != 0 {
		t.Errorf("generator calls = %d, want 0", gen.Calls())
	}
}

func TestAssistant_DescribeNPC(t *testing.T) {
	t.Run("with keywords", func(t *testing.T) {
		gen := testutil.NewFakeGenerator("Mara é uma ferreira.")
		got, err := newTestAssistant(gen, testutil.NewFakeFetcher()).DescribeNPC(context.Background(), "Mara", "blacksmith, gruff")
		if err != nil {
			t.Fatalf("DescribeNPC() error = %v", err)
		}
		if got != "Mara é uma ferreira." {
			t.Errorf("DescribeNPC() = %q", got)
		}
		if p := gen.Prompts()[0]; !strings.Contains(p, `"Mara"`) || !strings.Contains(p, `"blacksmith, gruff"`) {
			t.Errorf("prompt = %q", p)
		}
	})

	t.Run("without keywords", func(t *testing.T) {
		gen := testutil.NewFakeGenerator("ok")
		if _, err := newTestAssistant(gen, testutil.NewFakeFetcher()).DescribeNPC(context.Background(), "Mara", ""); err != nil {
			t.Fatalf("DescribeNPC() error = %v", err)
		}
		if p := gen.Prompts()[0]; strings.Contains(p, "traits") {
			t.Errorf("prompt mentions traits without keywords: %q", p)
		}
	})

	t.Run("generator down", func(t *testing.T) {
		_, err := newTestAssistant(testutil.NewFakeGenerator(), testutil.NewFakeFetcher()).DescribeNPC(context.Background(), "Mara", "")
		if !errors.Is(err, gateway.ErrGateway) {
			t.Errorf("DescribeNPC() error = %v, want ErrGateway", err)
		}
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := newTestAssistant(testutil.NewFakeGenerator("x"), testutil.NewFakeFetcher()).DescribeNPC(context.Background(), " ", "")
		if !errors.Is(err, campaign.ErrValidation) {
			t.Errorf("DescribeNPC() error = %v, want ErrValidation", err)
		}
	})
}

func TestAssistant_GenerateMonster(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    campaign.BestiaryEntry
		wantErr bool
	}{
		{
			name:  "valid",
			reply: "```json\n{\"name\":\"Goblin Ladrão\",\"description\":\"Pequeno e sorrateiro.\",\"stats\":\"HP: 7, AC: 13\"}\n```",
			want: campaign.BestiaryEntry{
				Name:     "Goblin Ladrão",
				Creature: campaign.GeneratedCreature{Description: "Pequeno e sorrateiro.", Stats: "HP: 7, AC: 13"},
			},
		},
		{name: "missing stats", reply: `{"name":"Goblin","description":"x"}`, wantErr: true},
		{name: "not JSON", reply: "Goblin!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := testutil.NewFakeGenerator(tt.reply)
			got, err := newTestAssistant(gen, testutil.NewFakeFetcher()).GenerateMonster(context.Background(), "sneaky goblin")
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateMonster() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, gateway.ErrGateway) {
					t.Errorf("GenerateMonster() error = %v, want ErrGateway", err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GenerateMonster() mismatch (-want +got):\n%s", diff)
			}
			if got.Creature.Source() != campaign.SourceAI {
				t.Errorf("Source() = %s, want ai", got.Creature.Source())
			}
		})
	}
}

func TestAssistant_GeneratedMonsterCanBeStored(t *testing.T) {
	gen := testutil.NewFakeGenerator(`{"name":"Owlbear","description":"Feathered bear.","stats":"HP 59"}`)
	entry, err := newTestAssistant(gen, testutil.NewFakeFetcher()).GenerateMonster(context.Background(), "owl bear")
	if err != nil {
		t.Fatalf("GenerateMonster() error = %v", err)
	}

	store, _, _ := testutil.NewTestStore(t)
	c, err := store.Create("Ashen Reach", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	added, _, err := campaign.AddEntity(store, campaign.BestiaryKind, c.ID, entry)
	if err != nil {
		t.Fatalf("AddEntity() error = %v", err)
	}
	if added.ID == "" || added.Name != "Owlbear" {
		t.Errorf("added = %+v", added)
	}
}

func TestAssistant_ImportSRDMonster(t *testing.T) {
	fetcher := testutil.NewFakeFetcher()
	doc := map[string]any{"index": "goblin", "name": "Goblin", "hit_points": float64(7)}
	fetcher.SetDocument("/api/monsters/goblin", doc)
	fetcher.SetDocument("/api/monsters/nameless", map[string]any{"index": "nameless"})
	a := newTestAssistant(testutil.NewFakeGenerator(), fetcher)
	ctx := context.Background()

	got, err := a.ImportSRDMonster(ctx, "/api/monsters/goblin")
	if err != nil {
		t.Fatalf("ImportSRDMonster() error = %v", err)
	}
	want := campaign.BestiaryEntry{Name: "Goblin", Creature: campaign.SRDCreature{FullData: doc}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ImportSRDMonster() mismatch (-want +got):\n%s", diff)
	}

	for _, url := range []string{"/api/monsters/nameless", "/api/monsters/missing"} {
		if _, err := a.ImportSRDMonster(ctx, url); !errors.Is(err, gateway.ErrGateway) {
			t.Errorf("ImportSRDMonster(%s) error = %v, want ErrGateway", url, err)
		}
	}
}
