package gateway

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "bare object",
			text: `{"name":"Goblin"}`,
			want: map[string]any{"name": "Goblin"},
		},
		{
			name: "fenced with prose",
			text: "Here you go:\n```json\n{\"name\": \"Goblin\", \"size\": {\"en\": \"Small\"}}\n```\nEnjoy!",
			want: map[string]any{"name": "Goblin", "size": map[string]any{"en": "Small"}},
		},
		{name: "no object", text: "Sorry, I cannot help.", wantErr: true},
		{name: "malformed", text: `{"name": }`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			err := ExtractObject(tt.text, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractObject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrGateway) {
					t.Errorf("ExtractObject() error = %v, want ErrGateway", err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractObject() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractArray(t *testing.T) {
	type idea struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var got []idea
	text := "Ideas:\n[{\"name\":\"Ashen Reach\",\"description\":\"A burned frontier.\"}]"
	if err := ExtractArray(text, &got); err != nil {
		t.Fatalf("ExtractArray() error = %v", err)
	}
	want := []idea{{Name: "Ashen Reach", Description: "A burned frontier."}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractArray() mismatch (-want +got):\n%s", diff)
	}

	if err := ExtractArray("no list here", &got); !errors.Is(err, ErrGateway) {
		t.Errorf("ExtractArray() error = %v, want ErrGateway", err)
	}
}
