package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrGateway marks a failed or unusable outbound call. Callers degrade
// rather than abort when they see it.
var ErrGateway = errors.New("gateway error")

// Category is one section of the SRD reference taxonomy.
type Category string

const (
	Spells    Category = "spells"
	Monsters  Category = "monsters"
	Classes   Category = "classes"
	Races     Category = "races"
	Equipment Category = "equipment"
)

// Categories lists the browsable reference categories.
func Categories() []Category {
	return []Category{Spells, Monsters, Classes, Races, Equipment}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown reference category %q", s)
}

// Resource is one entry of a category index.
type Resource struct {
	ID   string `json:"index"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Fetcher reads the SRD reference API.
type Fetcher interface {
	FetchIndex(ctx context.Context, category Category) ([]Resource, error)
	// FetchDetail returns the document at url, which may be absolute or
	// relative to the API root as index entries report it.
	FetchDetail(ctx context.Context, url string) (map[string]any, error)
}

// TextGenerator produces text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
