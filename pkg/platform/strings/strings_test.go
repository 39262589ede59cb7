package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"comma separated", "Punk, Indie", []string{"Punk", "Indie"}},
		{"duplicates collapse", "Punk, Indie, Punk", []string{"Punk", "Indie"}},
		{"empty segments dropped", "Punk,, ,Indie,", []string{"Punk", "Indie"}},
		{"single value", "Jazz", []string{"Jazz"}},
		{"empty input", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.input))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t,
		[]string{"foo", "bar"},
		DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}),
	)
	assert.Empty(t, DedupeAndTrim(nil))
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "one two three", TruncateWords("one two three four five", 3))
	assert.Equal(t, "one two three", TruncateWords("one two three", 5))
	assert.Equal(t, "", TruncateWords("anything", 0))
	assert.Equal(t, "", TruncateWords("", 10))
}
