package translate

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ParseLanguage parses a BCP 47 tag such as "pt-BR".
func ParseLanguage(tag string) (language.Tag, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return language.Und, fmt.Errorf("parsing language %q: %w", tag, err)
	}
	return t, nil
}

// LanguageName returns the English name of t as used in prompts, e.g.
// "Brazilian Portuguese" for pt-BR.
func LanguageName(t language.Tag) string {
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return t.String()
}
