package models

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short message unchanged", "hello", "hello"},
		{"forty chars unchanged", strings.Repeat("a", 40), strings.Repeat("a", 40)},
		{"exactly fifty unchanged", strings.Repeat("b", 50), strings.Repeat("b", 50)},
		{"sixty chars truncated", strings.Repeat("c", 60), strings.Repeat("c", 50) + "..."},
		{"empty string", "", ""},
		{"multibyte counted as runes", strings.Repeat("ä", 51), strings.Repeat("ä", 50) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(tt.in)
			if got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
