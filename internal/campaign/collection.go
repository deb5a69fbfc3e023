package campaign

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Patch is a shallow set of fields to merge over an existing entity, keyed
// by the entity's JSON field names. Fields absent from the patch are kept;
// an "id" key is ignored.
type Patch map[string]json.RawMessage

// PatchOf builds a Patch from any value that marshals to a JSON object.
func PatchOf(v any) (Patch, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding patch: %w", err)
	}
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("patch must be a JSON object: %w", ErrValidation)
	}
	return p, nil
}

// Kind describes one entity collection: how to read and replace it on a
// campaign, how to get and set an entity's id, and what makes an entity
// valid. The collection operations below work over any Kind and are pure:
// they never modify the slice they are given.
type Kind[T any] struct {
	name     CollectionName
	id       func(T) string
	withID   func(T, string) T
	validate func(T) error
	get      func(Campaign) []T
	set      func(*Campaign, []T)

	// Optional timestamp hooks.
	stampAdd    func(T, time.Time) T
	stampUpdate func(T, time.Time) T
}

// Name returns the collection this kind lives in.
func (k Kind[T]) Name() CollectionName { return k.name }

func (k Kind[T]) indexOf(items []T, id string) int {
	return slices.IndexFunc(items, func(item T) bool { return k.id(item) == id })
}

// Find returns the entity with the given id.
func Find[T any](k Kind[T], items []T, id string) (T, error) {
	if i := k.indexOf(items, id); i >= 0 {
		return items[i], nil
	}
	var zero T
	return zero, fmt.Errorf("%s entity %s: %w", k.name, id, ErrNotFound)
}

// Add validates item, assigns it id and appends it to a copy of items.
func Add[T any](k Kind[T], items []T, item T, id string, now time.Time) ([]T, T, error) {
	item = k.withID(item, id)
	if k.stampAdd != nil {
		item = k.stampAdd(item, now)
	}
	if err := k.validate(item); err != nil {
		return items, item, fmt.Errorf("adding to %s: %w", k.name, err)
	}
	if k.indexOf(items, id) >= 0 {
		return items, item, fmt.Errorf("adding to %s: entity %s: %w", k.name, id, ErrDuplicateID)
	}

	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	out = append(out, item)
	return out, item, nil
}

// UpdateByID merges patch over the entity with the given id and returns a
// copy of items holding the merged entity.
func UpdateByID[T any](k Kind[T], items []T, id string, patch Patch, now time.Time) ([]T, T, error) {
	var zero T
	i := k.indexOf(items, id)
	if i < 0 {
		return items, zero, fmt.Errorf("updating %s entity %s: %w", k.name, id, ErrNotFound)
	}

	merged, err := mergePatch(items[i], patch)
	if err != nil {
		return items, zero, fmt.Errorf("updating %s entity %s: %w", k.name, id, err)
	}
	merged = k.withID(merged, id)
	if k.stampUpdate != nil {
		merged = k.stampUpdate(merged, now)
	}
	if err := k.validate(merged); err != nil {
		return items, zero, fmt.Errorf("updating %s entity %s: %w", k.name, id, err)
	}

	out := slices.Clone(items)
	out[i] = merged
	return out, merged, nil
}

// RemoveByID returns a copy of items without the entity with the given id.
// If no such entity exists it returns items itself and false.
func RemoveByID[T any](k Kind[T], items []T, id string) ([]T, bool) {
	i := k.indexOf(items, id)
	if i < 0 {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return out, true
}

// mergePatch overlays patch on the JSON form of base, the same way a spread
// of the patch over the stored record would.
func mergePatch[T any](base T, patch Patch) (T, error) {
	var out T
	data, err := json.Marshal(base)
	if err != nil {
		return out, fmt.Errorf("encoding entity: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return out, fmt.Errorf("decoding entity fields: %w", err)
	}
	for key, value := range patch {
		if key == "id" {
			continue
		}
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return out, fmt.Errorf("encoding merged entity: %w", err)
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return out, nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required: %w", field, ErrValidation)
	}
	return nil
}

// The six entity kinds.
var (
	ImageKind = Kind[Image]{
		name:     Images,
		id:       func(e Image) string { return e.ID },
		withID:   func(e Image, id string) Image { e.ID = id; return e },
		validate: func(e Image) error { return requireText("name", e.Name) },
		get:      func(c Campaign) []Image { return c.Images },
		set:      func(c *Campaign, v []Image) { c.Images = v },
	}

	NPCKind = Kind[NPC]{
		name:     NPCs,
		id:       func(e NPC) string { return e.ID },
		withID:   func(e NPC, id string) NPC { e.ID = id; return e },
		validate: func(e NPC) error { return requireText("name", e.Name) },
		get:      func(c Campaign) []NPC { return c.NPCs },
		set:      func(c *Campaign, v []NPC) { c.NPCs = v },
	}

	BestiaryKind = Kind[BestiaryEntry]{
		name:     Bestiary,
		id:       func(e BestiaryEntry) string { return e.ID },
		withID:   func(e BestiaryEntry, id string) BestiaryEntry { e.ID = id; return e },
		validate: validateBestiaryEntry,
		get:      func(c Campaign) []BestiaryEntry { return c.Bestiary },
		set:      func(c *Campaign, v []BestiaryEntry) { c.Bestiary = v },
	}

	MaterialKind = Kind[Material]{
		name:     Materials,
		id:       func(e Material) string { return e.ID },
		withID:   func(e Material, id string) Material { e.ID = id; return e },
		validate: func(e Material) error { return requireText("name", e.Name) },
		get:      func(c Campaign) []Material { return c.Materials },
		set:      func(c *Campaign, v []Material) { c.Materials = v },
	}

	GMNoteKind = Kind[GMNote]{
		name:     GMNotes,
		id:       func(e GMNote) string { return e.ID },
		withID:   func(e GMNote, id string) GMNote { e.ID = id; return e },
		validate: func(e GMNote) error { return requireText("content", e.Content) },
		get:      func(c Campaign) []GMNote { return c.GMNotes },
		set:      func(c *Campaign, v []GMNote) { c.GMNotes = v },
		stampAdd: func(e GMNote, now time.Time) GMNote {
			e.CreatedAt = now
			e.UpdatedAt = nil
			return e
		},
		stampUpdate: func(e GMNote, now time.Time) GMNote {
			e.UpdatedAt = &now
			return e
		},
	}

	CharacterSheetKind = Kind[CharacterSheet]{
		name:     CharacterSheets,
		id:       func(e CharacterSheet) string { return e.ID },
		withID:   func(e CharacterSheet, id string) CharacterSheet { e.ID = id; return e },
		validate: func(e CharacterSheet) error { return requireText("characterName", e.CharacterName) },
		get:      func(c Campaign) []CharacterSheet { return c.CharacterSheets },
		set:      func(c *Campaign, v []CharacterSheet) { c.CharacterSheets = v },
	}
)

// EntityKind is a Kind with its entity type erased, so a collection can be
// picked by name at runtime and fed raw JSON.
type EntityKind interface {
	Name() CollectionName
	addRaw(c Campaign, data json.RawMessage, id string, now time.Time) (Campaign, error)
	updateRaw(c Campaign, id string, patch Patch, now time.Time) (Campaign, error)
	removeRaw(c Campaign, id string) (Campaign, bool)
}

var kindsByName = map[CollectionName]EntityKind{
	Images:          ImageKind,
	NPCs:            NPCKind,
	Bestiary:        BestiaryKind,
	Materials:       MaterialKind,
	GMNotes:         GMNoteKind,
	CharacterSheets: CharacterSheetKind,
}

// KindByName returns the entity kind stored under the given collection name.
func KindByName(name CollectionName) (EntityKind, error) {
	k, ok := kindsByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q: %w", name, ErrValidation)
	}
	return k, nil
}

// CollectionNames lists the entity collections in document order.
func CollectionNames() []CollectionName {
	return []CollectionName{Images, NPCs, Bestiary, Materials, GMNotes, CharacterSheets}
}

func (k Kind[T]) addRaw(c Campaign, data json.RawMessage, id string, now time.Time) (Campaign, error) {
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return c, fmt.Errorf("decoding %s entity: %w: %v", k.name, ErrValidation, err)
	}
	items, _, err := Add(k, k.get(c), item, id, now)
	if err != nil {
		return c, err
	}
	k.set(&c, items)
	return c, nil
}

func (k Kind[T]) updateRaw(c Campaign, id string, patch Patch, now time.Time) (Campaign, error) {
	items, _, err := UpdateByID(k, k.get(c), id, patch, now)
	if err != nil {
		return c, err
	}
	k.set(&c, items)
	return c, nil
}

func (k Kind[T]) removeRaw(c Campaign, id string) (Campaign, bool) {
	items, removed := RemoveByID(k, k.get(c), id)
	if !removed {
		return c, false
	}
	k.set(&c, items)
	return c, true
}
