package campaign

import (
	"encoding/json"
	"slices"
	"time"
)

// CollectionName identifies one of a campaign's entity collections. The
// values match the keys used in the persisted document.
type CollectionName string

const (
	Images          CollectionName = "images"
	NPCs            CollectionName = "npcs"
	Bestiary        CollectionName = "bestiary"
	Materials       CollectionName = "materials"
	GMNotes         CollectionName = "gmNotes"
	CharacterSheets CollectionName = "characterSheetsData"
)

// Campaign is the top-level aggregate. Entities never exist outside the
// campaign that owns them, so deleting a campaign deletes all of them.
//
// Campaign values handed out by the Store are snapshots: the store never
// mutates a collection in place, it swaps in new slices.
type Campaign struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Images          []Image          `json:"images"`
	NPCs            []NPC            `json:"npcs"`
	Bestiary        []BestiaryEntry  `json:"bestiary"`
	Materials       []Material       `json:"materials"`
	GMNotes         []GMNote         `json:"gmNotes"`
	CharacterSheets []CharacterSheet `json:"characterSheetsData"`

	// Events is an unused placeholder kept verbatim so documents round-trip.
	Events []json.RawMessage `json:"events"`
}

// normalized returns c with every nil collection replaced by an empty one.
func (c Campaign) normalized() Campaign {
	if c.Images == nil {
		c.Images = []Image{}
	}
	if c.NPCs == nil {
		c.NPCs = []NPC{}
	}
	if c.Bestiary == nil {
		c.Bestiary = []BestiaryEntry{}
	}
	if c.Materials == nil {
		c.Materials = []Material{}
	}
	if c.GMNotes == nil {
		c.GMNotes = []GMNote{}
	}
	if c.CharacterSheets == nil {
		c.CharacterSheets = []CharacterSheet{}
	}
	if c.Events == nil {
		c.Events = []json.RawMessage{}
	}
	return c
}

// Clone returns a copy of c whose collection slices do not alias c's.
// Entity values themselves are shallow copies; maps inside them are shared
// and must be treated as read-only.
func (c Campaign) Clone() Campaign {
	c.Images = slices.Clone(c.Images)
	c.NPCs = slices.Clone(c.NPCs)
	c.Bestiary = slices.Clone(c.Bestiary)
	c.Materials = slices.Clone(c.Materials)
	c.GMNotes = slices.Clone(c.GMNotes)
	c.CharacterSheets = slices.Clone(c.CharacterSheets)
	c.Events = slices.Clone(c.Events)
	return c.normalized()
}

// EntityCount returns the total number of entities across all collections.
func (c Campaign) EntityCount() int {
	return len(c.Images) + len(c.NPCs) + len(c.Bestiary) + len(c.Materials) +
		len(c.GMNotes) + len(c.CharacterSheets)
}

// Image is an uploaded picture stored inline as a data URL.
type Image struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// NPC is a non-player character. ImageURL points at a remote picture.
type NPC struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	ImageURL    string `json:"imageUrl"`
}

// Material is a piece of reference material with free-form notes.
type Material struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// GMNote is a private game-master note.
type GMNote struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// CharacterSheet holds a player character. Attributes is an open mapping of
// stat name to value; values are numbers or text ("strength": 14,
// "alignment": "Neutral") and are kept as decoded.
type CharacterSheet struct {
	ID            string         `json:"id"`
	PlayerName    string         `json:"playerName"`
	CharacterName string         `json:"characterName"`
	Class         string         `json:"class"`
	Level         int            `json:"level"`
	Attributes    map[string]any `json:"attributes"`
	OtherNotes    string         `json:"otherNotes"`
}
