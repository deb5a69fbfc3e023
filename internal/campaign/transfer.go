package campaign

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Export serializes one campaign to a self-contained document, the same
// shape a backend persists.
func Export(c Campaign) ([]byte, error) {
	data, err := json.MarshalIndent(c.normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding campaign %s: %w", c.ID, err)
	}
	return data, nil
}

// ParseDocument decodes and validates an import document. It fails with
// ErrInvalidDocument when the JSON is malformed, when id or name is missing
// or blank, when the id cannot serve as a file name, or when two entities of
// one collection share an id.
func ParseDocument(doc []byte) (Campaign, error) {
	var c Campaign
	if err := json.Unmarshal(doc, &c); err != nil {
		return Campaign{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if strings.TrimSpace(c.ID) == "" {
		return Campaign{}, fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	if !ValidID(c.ID) {
		return Campaign{}, fmt.Errorf("%w: id %q is not a valid identifier", ErrInvalidDocument, c.ID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return Campaign{}, fmt.Errorf("%w: name is required", ErrInvalidDocument)
	}
	if name, id, ok := repeatedEntityID(c); ok {
		return Campaign{}, fmt.Errorf("%w: %s holds id %q more than once", ErrInvalidDocument, name, id)
	}
	return c.normalized(), nil
}

// repeatedEntityID finds the first entity id used twice within one collection.
func repeatedEntityID(c Campaign) (CollectionName, string, bool) {
	checks := []func(Campaign) (CollectionName, string, bool){
		repeatedIn(ImageKind),
		repeatedIn(NPCKind),
		repeatedIn(BestiaryKind),
		repeatedIn(MaterialKind),
		repeatedIn(GMNoteKind),
		repeatedIn(CharacterSheetKind),
	}
	for _, check := range checks {
		if name, id, ok := check(c); ok {
			return name, id, true
		}
	}
	return "", "", false
}

func repeatedIn[T any](k Kind[T]) func(Campaign) (CollectionName, string, bool) {
	return func(c Campaign) (CollectionName, string, bool) {
		seen := make(map[string]bool)
		for _, item := range k.get(c) {
			id := k.id(item)
			if seen[id] {
				return k.name, id, true
			}
			seen[id] = true
		}
		return "", "", false
	}
}

// Export returns the document for one stored campaign. The store is not modified.
func (s *Store) Export(id string) ([]byte, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, fmt.Errorf("exporting: %w", err)
	}
	return Export(c)
}

// Import adopts a campaign document verbatim and persists it. A document
// whose id is already in the store fails with ErrDuplicateID and changes
// nothing; import never overwrites.
func (s *Store) Import(doc []byte) (Campaign, error) {
	c, err := ParseDocument(doc)
	if err != nil {
		return Campaign{}, fmt.Errorf("importing: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(c.ID) >= 0 {
		return Campaign{}, fmt.Errorf("importing campaign %s: %w", c.ID, ErrDuplicateID)
	}
	s.campaigns = append(s.campaigns, c)
	s.committer.Save(c)

	s.logger.Info("campaign imported", "campaign", c.ID, "name", c.Name)
	return c.Clone(), nil
}
