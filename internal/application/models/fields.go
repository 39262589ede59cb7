package models

import (
	"fmt"
	"sort"
	"strings"

	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	platstrings "github.com/stagelink/stagelink/pkg/platform/strings"
)

// Type tags the role-specific field variant of an application.
type Type string

const (
	TypeArtist          Type = "artist"
	TypeIndustry        Type = "industry"
	TypeInstrumentalist Type = "instrumentalist"
)

// ParseType validates an application type string from a trust boundary.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeArtist, TypeIndustry, TypeInstrumentalist:
		return Type(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown application type %q", s))
}

// NoteWordLimit caps free-text note fields. Overflow is truncated silently,
// never rejected.
const NoteWordLimit = 200

// Fields is the tagged variant holding exactly one role-specific field set;
// which pointer is non-nil must match Application.Type.
type Fields struct {
	Artist          *ArtistFields          `json:"artist,omitempty"`
	Industry        *IndustryFields        `json:"industry,omitempty"`
	Instrumentalist *InstrumentalistFields `json:"instrumentalist,omitempty"`
}

// ArtistFields is the intake form for artist applications. List-like inputs
// (genres, links) arrive as comma-separated text and are normalized by the
// admin proposal, not at submission.
type ArtistFields struct {
	ArtistType string `json:"artist_type"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	School     string `json:"school"`
	Genres     string `json:"genres"`
	Links      string `json:"links"`
	Bio        string `json:"bio,omitempty"`
	Location   string `json:"location,omitempty"`
	Note       string `json:"note,omitempty"`
}

// IndustryFields is the intake form for industry professional applications.
type IndustryFields struct {
	Role            string `json:"role"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	School          string `json:"school"`
	FavoriteArtists string `json:"favorite_artists"`
	Company         string `json:"company,omitempty"`
	Website         string `json:"website,omitempty"`
	Bio             string `json:"bio,omitempty"`
	Location        string `json:"location,omitempty"`
	Note            string `json:"note,omitempty"`
}

// InstrumentalistFields is the intake form for instrumentalist applications.
type InstrumentalistFields struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Instrument      string `json:"instrument"`
	School          string `json:"school"`
	FavoriteGenres  string `json:"favorite_genres"`
	YearsExperience string `json:"years_experience,omitempty"`
	Equipment       string `json:"equipment,omitempty"`
	Rate            string `json:"rate,omitempty"`
	Bio             string `json:"bio,omitempty"`
	Location        string `json:"location,omitempty"`
	Note            string `json:"note,omitempty"`
}

// Validate checks that exactly the variant matching typ is present and that
// its required fields are non-empty.
func (f Fields) Validate(typ Type) error {
	switch typ {
	case TypeArtist:
		if f.Artist == nil {
			return dErrors.New(dErrors.CodeValidation, "artist fields are required")
		}
		return requireNonEmpty(map[string]string{
			"artist_type": f.Artist.ArtistType,
			"name":        f.Artist.Name,
			"email":       f.Artist.Email,
			"school":      f.Artist.School,
			"genres":      f.Artist.Genres,
			"links":       f.Artist.Links,
		})
	case TypeIndustry:
		if f.Industry == nil {
			return dErrors.New(dErrors.CodeValidation, "industry fields are required")
		}
		return requireNonEmpty(map[string]string{
			"role":             f.Industry.Role,
			"name":             f.Industry.Name,
			"email":            f.Industry.Email,
			"school":           f.Industry.School,
			"favorite_artists": f.Industry.FavoriteArtists,
		})
	case TypeInstrumentalist:
		if f.Instrumentalist == nil {
			return dErrors.New(dErrors.CodeValidation, "instrumentalist fields are required")
		}
		return requireNonEmpty(map[string]string{
			"name":            f.Instrumentalist.Name,
			"email":           f.Instrumentalist.Email,
			"instrument":      f.Instrumentalist.Instrument,
			"school":          f.Instrumentalist.School,
			"favorite_genres": f.Instrumentalist.FavoriteGenres,
		})
	}
	return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unknown application type %q", typ))
}

// CapNotes truncates every note field to the word limit in place.
func (f Fields) CapNotes() {
	if f.Artist != nil {
		f.Artist.Note = platstrings.TruncateWords(f.Artist.Note, NoteWordLimit)
	}
	if f.Industry != nil {
		f.Industry.Note = platstrings.TruncateWords(f.Industry.Note, NoteWordLimit)
	}
	if f.Instrumentalist != nil {
		f.Instrumentalist.Note = platstrings.TruncateWords(f.Instrumentalist.Note, NoteWordLimit)
	}
}

// Name returns the applicant display name from whichever variant is set.
func (f Fields) Name() string {
	switch {
	case f.Artist != nil:
		return f.Artist.Name
	case f.Industry != nil:
		return f.Industry.Name
	case f.Instrumentalist != nil:
		return f.Instrumentalist.Name
	}
	return ""
}

// Email returns the contact email from whichever variant is set.
func (f Fields) Email() string {
	switch {
	case f.Artist != nil:
		return f.Artist.Email
	case f.Industry != nil:
		return f.Industry.Email
	case f.Instrumentalist != nil:
		return f.Instrumentalist.Email
	}
	return ""
}

func requireNonEmpty(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	// Deterministic message ordering for tests and support logs.
	sort.Strings(missing)
	return dErrors.New(dErrors.CodeValidation,
		"missing required fields: "+strings.Join(missing, ", "))
}
