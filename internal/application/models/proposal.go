package models

import (
	"fmt"
	"strings"

	dErrors "github.com/stagelink/stagelink/pkg/domain-errors"
	platstrings "github.com/stagelink/stagelink/pkg/platform/strings"
)

// ProposedProfile is the admin-edited public profile snapshot. It mirrors the
// review form payload, so it stays a string-keyed document; the allow-list
// and array-field tables below are the contract for what finalization may
// copy out of it.
type ProposedProfile map[string]any

// allowLists fixes, per application type, which proposed fields may be copied
// into a public directory record. Anything outside the list is dropped at
// finalization.
var allowLists = map[Type][]string{
	TypeArtist: {
		"name", "bio", "email", "profile_image_url", "artist_type",
		"genres", "influences", "streaming_links", "location", "social_links",
	},
	TypeIndustry: {
		"name", "bio", "email", "profile_image_url", "industry_role", "company",
		"expertise_areas", "website", "location", "social_links", "favorite_artists",
	},
	TypeInstrumentalist: {
		"name", "bio", "email", "profile_image_url", "instrument",
		"years_experience", "equipment", "rate", "location", "social_links",
	},
}

// arrayFields marks the allow-listed fields stored as ordered sequences.
// Comma-separated strings are split; sequences pass through normalized.
var arrayFields = map[Type]map[string]bool{
	TypeArtist:          {"genres": true, "influences": true, "streaming_links": true},
	TypeIndustry:        {"expertise_areas": true, "favorite_artists": true},
	TypeInstrumentalist: {"equipment": true},
}

// AllowList returns the finalization field allow-list for a type.
func AllowList(typ Type) ([]string, error) {
	fields, ok := allowLists[typ]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("no allow-list for application type %q", typ))
	}
	return fields, nil
}

// Clone copies the proposal one level deep, duplicating sequence values.
func (p ProposedProfile) Clone() ProposedProfile {
	cp := make(ProposedProfile, len(p))
	for k, v := range p {
		if seq, ok := v.([]string); ok {
			cp[k] = append([]string(nil), seq...)
			continue
		}
		cp[k] = v
	}
	return cp
}

// Normalized returns the proposal with array fields coerced into ordered
// string sequences and artist_type mapped onto its canonical form. The input
// is not mutated.
func (p ProposedProfile) Normalized(typ Type) (ProposedProfile, error) {
	if _, err := AllowList(typ); err != nil {
		return nil, err
	}

	out := p.Clone()
	for field := range arrayFields[typ] {
		v, ok := out[field]
		if !ok {
			continue
		}
		out[field] = coerceSequence(v)
	}
	if typ == TypeArtist {
		if raw, ok := out["artist_type"].(string); ok {
			out["artist_type"] = NormalizeArtistType(raw)
		}
	}
	return out, nil
}

// FilterAllowed restricts the proposal to the per-type allow-list, coercing
// array fields. Used by finalization to build the public record.
func (p ProposedProfile) FilterAllowed(typ Type) (map[string]any, error) {
	fields, err := AllowList(typ)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(fields))
	for _, field := range fields {
		v, ok := p[field]
		if !ok {
			continue
		}
		if arrayFields[typ][field] {
			out[field] = coerceSequence(v)
			continue
		}
		out[field] = v
	}
	return out, nil
}

// String returns the named field as a string, or empty when absent or not a
// string.
func (p ProposedProfile) String(field string) string {
	s, _ := p[field].(string)
	return s
}

// Strings returns the named field as an ordered string sequence, coercing
// comma-separated text when needed.
func (p ProposedProfile) Strings(field string) []string {
	v, ok := p[field]
	if !ok {
		return nil
	}
	return coerceSequence(v)
}

// NormalizeArtistType maps the free-text artist type from the review form
// onto its canonical value. Unknown values pass through lowercased rather
// than collapsing to "solo"; collapsing loses the admin's input.
func NormalizeArtistType(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "", "solo", "solo artist", "solo-artist":
		return "solo"
	case "band", "group", "duo", "producer", "dj":
		return v
	}
	return v
}

// coerceSequence turns a proposal value into an ordered string sequence.
// JSON decoding yields either a string (comma-separated admin input), a
// []any, or an already-typed []string.
func coerceSequence(v any) []string {
	switch val := v.(type) {
	case []string:
		return platstrings.DedupeAndTrim(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return platstrings.DedupeAndTrim(parts)
	case string:
		return platstrings.SplitList(val)
	case nil:
		return nil
	}
	return nil
}
