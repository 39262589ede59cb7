package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
)

func TestNormalizedCoercesSequences(t *testing.T) {
	proposal := ProposedProfile{
		"name":       "The Midnight Revue",
		"genres":     "Punk, Indie",
		"influences": []any{"Pixies", "Pixies", " Television "},
	}

	out, err := proposal.Normalized(TypeArtist)
	require.NoError(t, err)

	assert.Equal(t, []string{"Punk", "Indie"}, out["genres"])
	assert.Equal(t, []string{"Pixies", "Television"}, out["influences"])
	assert.Equal(t, "The Midnight Revue", out["name"])

	// Input untouched.
	assert.Equal(t, "Punk, Indie", proposal["genres"])
}

func TestNormalizedArtistType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Solo Artist", "solo"},
		{"", "solo"},
		{"BAND", "band"},
		{"DJ", "dj"},
		{"orchestra collective", "orchestra collective"},
	}
	for _, tt := range tests {
		out, err := ProposedProfile{"artist_type": tt.in}.Normalized(TypeArtist)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out["artist_type"], "input %q", tt.in)
	}
}

func TestNormalizedUnknownType(t *testing.T) {
	_, err := ProposedProfile{}.Normalized(Type("label"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestFilterAllowedDropsUnlistedFields(t *testing.T) {
	proposal := ProposedProfile{
		"name":            "P",
		"email":           "p@b.edu",
		"industry_role":   "A&R",
		"expertise_areas": "Scouting, Contracts",
		"school":          "USC",
		"internal_note":   "do not publish",
	}

	out, err := proposal.FilterAllowed(TypeIndustry)
	require.NoError(t, err)

	assert.Equal(t, "P", out["name"])
	assert.Equal(t, []string{"Scouting", "Contracts"}, out["expertise_areas"])
	assert.NotContains(t, out, "school")
	assert.NotContains(t, out, "internal_note")
}

func TestStringsAccessor(t *testing.T) {
	p := ProposedProfile{"genres": []string{"Punk", "Indie"}, "name": "X"}
	assert.Equal(t, []string{"Punk", "Indie"}, p.Strings("genres"))
	assert.Nil(t, p.Strings("missing"))
	assert.Equal(t, "X", p.String("name"))
	assert.Empty(t, p.String("genres"), "non-string values read as empty")
}
