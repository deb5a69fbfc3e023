// Package assist drafts campaign content with the AI text generator and
// turns SRD reference documents into bestiary entries.
package assist

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"starforge/internal/campaign"
	"starforge/internal/gateway"
	"starforge/internal/translate"
)

// ideaCount is how many campaign ideas are requested per theme.
const ideaCount = 3

// Idea is a suggested campaign name and pitch.
type Idea struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Assistant drafts content in one target language.
type Assistant struct {
	generator    gateway.TextGenerator
	fetcher      gateway.Fetcher
	languageName string
}

// New creates an Assistant writing in lang.
func New(generator gateway.TextGenerator, fetcher gateway.Fetcher, lang language.Tag) *Assistant {
	return &Assistant{
		generator:    generator,
		fetcher:      fetcher,
		languageName: translate.LanguageName(lang),
	}
}

// Ideas suggests campaigns on a theme. Ideas without a name are dropped; a
// reply with none left is an error.
func (a *Assistant) Ideas(ctx context.Context, theme string) ([]Idea, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, fmt.Errorf("theme is required: %w", campaign.ErrValidation)
	}

	prompt := fmt.Sprintf("Write %d concise ideas for tabletop RPG campaign names and descriptions in %s, "+
		"on the theme: %q. Format: [{\"name\": \"Idea name\", \"description\": \"Description.\"}]",
		ideaCount, a.languageName, theme)
	reply, err := a.generator.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating campaign ideas: %w", err)
	}

	var raw []Idea
	if err := gateway.ExtractArray(reply, &raw); err != nil {
		return nil, fmt.Errorf("reading campaign ideas: %w", err)
	}

	ideas := make([]Idea, 0, len(raw))
	for _, idea := range raw {
		idea.Name = strings.TrimSpace(idea.Name)
		idea.Description = strings.TrimSpace(idea.Description)
		if idea.Name == "" {
			continue
		}
		ideas = append(ideas, idea)
	}
	if len(ideas) == 0 {
		return nil, fmt.Errorf("%w: reply held no usable campaign ideas", gateway.ErrGateway)
	}
	return ideas, nil
}

// DescribeNPC writes a backstory, appearance and personality for an NPC.
func (a *Assistant) DescribeNPC(ctx context.Context, name, keywords string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("npc name is required: %w", campaign.ErrValidation)
	}

	prompt := fmt.Sprintf("Write a description (backstory, appearance, personality) in %s for a tabletop RPG NPC named %q",
		a.languageName, name)
	if keywords = strings.TrimSpace(keywords); keywords != "" {
		prompt += fmt.Sprintf(" with these traits: %q", keywords)
	}
	prompt += "."

	desc, err := a.generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("describing npc: %w", err)
	}
	return desc, nil
}

type generatedMonster struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Stats       string `json:"stats"`
}

// GenerateMonster drafts a creature from keywords. The returned entry has no
// id; add it to a campaign to store it.
func (a *Assistant) GenerateMonster(ctx context.Context, keywords string) (campaign.BestiaryEntry, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return campaign.BestiaryEntry{}, fmt.Errorf("keywords are required: %w", campaign.ErrValidation)
	}

	prompt := fmt.Sprintf("Create a tabletop RPG creature in %s based on these keywords: %q. "+
		"Format the reply as a JSON object with the keys \"name\", \"description\" and \"stats\". "+
		"\"stats\" must be a string with the creature's main attributes and abilities. "+
		"Example: {\"name\": \"Goblin Thief\", \"description\": \"A small, sneaky creature...\", "+
		"\"stats\": \"HP: 7, AC: 13, Attack: Dagger +4 (1d4+2 piercing)\"}",
		a.languageName, keywords)
	reply, err := a.generator.GenerateText(ctx, prompt)
	if err != nil {
		return campaign.BestiaryEntry{}, fmt.Errorf("generating monster: %w", err)
	}

	var m generatedMonster
	if err := gateway.ExtractObject(reply, &m); err != nil {
		return campaign.BestiaryEntry{}, fmt.Errorf("reading generated monster: %w", err)
	}
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Description) == "" || strings.TrimSpace(m.Stats) == "" {
		return campaign.BestiaryEntry{}, fmt.Errorf("%w: generated monster is missing name, description or stats", gateway.ErrGateway)
	}

	return campaign.BestiaryEntry{
		Name: strings.TrimSpace(m.Name),
		Creature: campaign.GeneratedCreature{
			Description: strings.TrimSpace(m.Description),
			Stats:       strings.TrimSpace(m.Stats),
		},
	}, nil
}

// ImportSRDMonster fetches the reference document at url and wraps it as an
// untranslated SRD bestiary entry named after the document.
func (a *Assistant) ImportSRDMonster(ctx context.Context, url string) (campaign.BestiaryEntry, error) {
	doc, err := a.fetcher.FetchDetail(ctx, url)
	if err != nil {
		return campaign.BestiaryEntry{}, fmt.Errorf("importing monster: %w", err)
	}
	name, _ := doc["name"].(string)
	if strings.TrimSpace(name) == "" {
		return campaign.BestiaryEntry{}, fmt.Errorf("%w: reference document %s has no name", gateway.ErrGateway, url)
	}
	return campaign.BestiaryEntry{
		Name:     name,
		Creature: campaign.SRDCreature{FullData: doc},
	}, nil
}
