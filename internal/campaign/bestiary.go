package campaign

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Source tags the origin of a bestiary entry and selects its payload shape.
type Source string

const (
	SourceManual Source = "manual"
	SourceAI     Source = "ai"
	SourceSRD    Source = "srd"
)

// legacyTranslatedKey is where older documents recorded the translation flag,
// inside the fetched SRD document rather than on the entry.
const legacyTranslatedKey = "translated_pt"

// Creature is the source-specific payload of a BestiaryEntry. The set of
// implementations is closed: ManualCreature, GeneratedCreature, SRDCreature.
type Creature interface {
	Source() Source
	isCreature()
}

// ManualCreature was written by hand.
type ManualCreature struct {
	Description string
	Stats       string
}

// GeneratedCreature was produced by the AI text generator.
type GeneratedCreature struct {
	Description string
	Stats       string
}

// SRDCreature was imported from the reference API. FullData is the complete
// fetched document; Translated records that FullData now holds the AI
// translated form.
type SRDCreature struct {
	FullData   map[string]any
	Translated bool
}

func (ManualCreature) Source() Source    { return SourceManual }
func (GeneratedCreature) Source() Source { return SourceAI }
func (SRDCreature) Source() Source       { return SourceSRD }

func (ManualCreature) isCreature()    {}
func (GeneratedCreature) isCreature() {}
func (SRDCreature) isCreature()       {}

// BestiaryEntry is a creature in a campaign's bestiary.
type BestiaryEntry struct {
	ID       string
	Name     string
	Creature Creature
}

// SRD returns the entry's SRD payload, if it has one.
func (e BestiaryEntry) SRD() (SRDCreature, bool) {
	c, ok := e.Creature.(SRDCreature)
	return c, ok
}

type authoredJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Source      Source `json:"source"`
	Description string `json:"description"`
	Stats       string `json:"stats"`
}

type srdJSON struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Source     Source         `json:"source"`
	FullData   map[string]any `json:"fullData,omitempty"`
	Translated bool           `json:"translated,omitempty"`
}

// MarshalJSON writes the flat document form, carrying only the fields that
// belong to the entry's source.
func (e BestiaryEntry) MarshalJSON() ([]byte, error) {
	switch c := e.Creature.(type) {
	case ManualCreature:
		return json.Marshal(authoredJSON{ID: e.ID, Name: e.Name, Source: SourceManual, Description: c.Description, Stats: c.Stats})
	case GeneratedCreature:
		return json.Marshal(authoredJSON{ID: e.ID, Name: e.Name, Source: SourceAI, Description: c.Description, Stats: c.Stats})
	case SRDCreature:
		return json.Marshal(srdJSON{ID: e.ID, Name: e.Name, Source: SourceSRD, FullData: c.FullData, Translated: c.Translated})
	case nil:
		return nil, fmt.Errorf("bestiary entry %q has no source payload", e.ID)
	default:
		return nil, fmt.Errorf("bestiary entry %q has unsupported payload %T", e.ID, c)
	}
}

// UnmarshalJSON reads the flat document form. The source tag alone decides
// which fields are kept; fields belonging to other sources are dropped.
func (e *BestiaryEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string         `json:"id"`
		Name        string         `json:"name"`
		Source      Source         `json:"source"`
		Description string         `json:"description"`
		Stats       string         `json:"stats"`
		FullData    map[string]any `json:"fullData"`
		Translated  bool           `json:"translated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	entry := BestiaryEntry{ID: raw.ID, Name: raw.Name}
	switch raw.Source {
	case SourceManual:
		entry.Creature = ManualCreature{Description: raw.Description, Stats: raw.Stats}
	case SourceAI:
		entry.Creature = GeneratedCreature{Description: raw.Description, Stats: raw.Stats}
	case SourceSRD:
		full := raw.FullData
		translated := raw.Translated
		if flag, ok := full[legacyTranslatedKey].(bool); ok {
			full = maps.Clone(full)
			delete(full, legacyTranslatedKey)
			translated = translated || flag
		}
		entry.Creature = SRDCreature{FullData: full, Translated: translated}
	default:
		return fmt.Errorf("bestiary entry %q: unknown source %q", raw.ID, raw.Source)
	}

	*e = entry
	return nil
}

func validateBestiaryEntry(e BestiaryEntry) error {
	if err := requireText("name", e.Name); err != nil {
		return err
	}
	switch c := e.Creature.(type) {
	case nil:
		return fmt.Errorf("bestiary entry needs a source: %w", ErrValidation)
	case SRDCreature:
		if c.Translated && c.FullData == nil {
			return fmt.Errorf("translated srd entry without fullData: %w", ErrValidation)
		}
	}
	return nil
}
