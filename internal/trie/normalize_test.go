package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"spaces only", "   \t\n", []string{}},
		{"single", "hello", []string{"hello"}},
		{"mixed whitespace", "a\tb\nc  d", []string{"a", "b", "c", "d"}},
		{"duplicates collapse", "x y x y z", []string{"x", "y", "z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "hello world", NormalizeQuery("  Hello \t WORLD "))
	assert.Equal(t, "", NormalizeQuery("   "))
	assert.Equal(t, "äpfel birnen", NormalizeQuery("ÄPFEL Birnen"))
}
