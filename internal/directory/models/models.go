// Package models defines the public directory records. Each record is
// created exactly once by finalization and owned by its directory listing
// afterwards, independent of the application it came from.
package models

import (
	"time"

	id "github.com/stagelink/stagelink/pkg/domain"
)

// Artist is a finalized public artist profile.
type Artist struct {
	ID              id.ProfileID `json:"id"`
	OwnerID         id.UserID    `json:"owner_id"`
	Name            string       `json:"name"`
	Bio             string       `json:"bio,omitempty"`
	Email           string       `json:"email"`
	ProfileImageURL string       `json:"profile_image_url,omitempty"`
	ArtistType      string       `json:"artist_type"`
	Genres          []string     `json:"genres,omitempty"`
	Influences      []string     `json:"influences,omitempty"`
	StreamingLinks  []string     `json:"streaming_links,omitempty"`
	Location        string       `json:"location,omitempty"`
	SocialLinks     string       `json:"social_links,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// IndustryProfessional is a finalized public industry profile.
type IndustryProfessional struct {
	ID              id.ProfileID `json:"id"`
	OwnerID         id.UserID    `json:"owner_id"`
	Name            string       `json:"name"`
	Bio             string       `json:"bio,omitempty"`
	Email           string       `json:"email"`
	ProfileImageURL string       `json:"profile_image_url,omitempty"`
	IndustryRole    string       `json:"industry_role"`
	Company         string       `json:"company,omitempty"`
	ExpertiseAreas  []string     `json:"expertise_areas,omitempty"`
	Website         string       `json:"website,omitempty"`
	Location        string       `json:"location,omitempty"`
	SocialLinks     string       `json:"social_links,omitempty"`
	FavoriteArtists []string     `json:"favorite_artists,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Instrumentalist is a finalized public instrumentalist profile.
type Instrumentalist struct {
	ID              id.ProfileID `json:"id"`
	OwnerID         id.UserID    `json:"owner_id"`
	Name            string       `json:"name"`
	Bio             string       `json:"bio,omitempty"`
	Email           string       `json:"email"`
	ProfileImageURL string       `json:"profile_image_url,omitempty"`
	Instrument      string       `json:"instrument"`
	YearsExperience string       `json:"years_experience,omitempty"`
	Equipment       []string     `json:"equipment,omitempty"`
	Rate            string       `json:"rate,omitempty"`
	Location        string       `json:"location,omitempty"`
	SocialLinks     string       `json:"social_links,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
