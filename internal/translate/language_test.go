package translate

import "testing"

func TestLanguageName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"pt-BR", "Brazilian Portuguese"},
		{"es", "Spanish"},
		{"fr", "French"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			tag, err := ParseLanguage(tt.tag)
			if err != nil {
				t.Fatalf("ParseLanguage() error = %v", err)
			}
			if got := LanguageName(tag); got != tt.want {
				t.Errorf("LanguageName(%s) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestParseLanguage_Invalid(t *testing.T) {
	if _, err := ParseLanguage("not a tag!"); err == nil {
		t.Error("ParseLanguage() expected error")
	}
}
