package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/stagelink/stagelink/internal/directory/models"
	id "github.com/stagelink/stagelink/pkg/domain"
	"github.com/stagelink/stagelink/pkg/platform/sentinel"
)

// PostgresStore persists the three directory tables. Sequence fields use
// text[] columns so listing queries stay index-friendly without JSON
// unpacking.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func translateInsertErr(err error, table string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("insert into %s: %w", table, err)
}

func (s *PostgresStore) InsertArtist(ctx context.Context, a *models.Artist) error {
	query := `
		INSERT INTO artists (
			id, owner_id, name, bio, email, profile_image_url, artist_type,
			genres, influences, streaming_links, location, social_links, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID), uuid.UUID(a.OwnerID), a.Name, a.Bio, a.Email,
		a.ProfileImageURL, a.ArtistType,
		pq.Array(a.Genres), pq.Array(a.Influences), pq.Array(a.StreamingLinks),
		a.Location, a.SocialLinks, a.CreatedAt,
	)
	return translateInsertErr(err, "artists")
}

func (s *PostgresStore) InsertIndustryProfessional(ctx context.Context, p *models.IndustryProfessional) error {
	query := `
		INSERT INTO industry_professionals (
			id, owner_id, name, bio, email, profile_image_url, industry_role,
			company, expertise_areas, website, location, social_links,
			favorite_artists, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.OwnerID), p.Name, p.Bio, p.Email,
		p.ProfileImageURL, p.IndustryRole, p.Company,
		pq.Array(p.ExpertiseAreas), p.Website, p.Location, p.SocialLinks,
		pq.Array(p.FavoriteArtists), p.CreatedAt,
	)
	return translateInsertErr(err, "industry_professionals")
}

func (s *PostgresStore) InsertInstrumentalist(ctx context.Context, p *models.Instrumentalist) error {
	query := `
		INSERT INTO instrumentalists (
			id, owner_id, name, bio, email, profile_image_url, instrument,
			years_experience, equipment, rate, location, social_links, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.OwnerID), p.Name, p.Bio, p.Email,
		p.ProfileImageURL, p.Instrument, p.YearsExperience,
		pq.Array(p.Equipment), p.Rate, p.Location, p.SocialLinks, p.CreatedAt,
	)
	return translateInsertErr(err, "instrumentalists")
}

func (s *PostgresStore) ListArtists(ctx context.Context) ([]*models.Artist, error) {
	query := `
		SELECT id, owner_id, name, bio, email, profile_image_url, artist_type,
			genres, influences, streaming_links, location, social_links, created_at
		FROM artists
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	defer rows.Close()

	var out []*models.Artist
	for rows.Next() {
		var (
			a         models.Artist
			aID, oID  uuid.UUID
			genres    pq.StringArray
			influence pq.StringArray
			links     pq.StringArray
		)
		if err := rows.Scan(&aID, &oID, &a.Name, &a.Bio, &a.Email, &a.ProfileImageURL,
			&a.ArtistType, &genres, &influence, &links, &a.Location, &a.SocialLinks,
			&a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		a.ID = id.ProfileID(aID)
		a.OwnerID = id.UserID(oID)
		a.Genres = genres
		a.Influences = influence
		a.StreamingLinks = links
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListIndustryProfessionals(ctx context.Context) ([]*models.IndustryProfessional, error) {
	query := `
		SELECT id, owner_id, name, bio, email, profile_image_url, industry_role,
			company, expertise_areas, website, location, social_links,
			favorite_artists, created_at
		FROM industry_professionals
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list industry professionals: %w", err)
	}
	defer rows.Close()

	var out []*models.IndustryProfessional
	for rows.Next() {
		var (
			p         models.IndustryProfessional
			pID, oID  uuid.UUID
			expertise pq.StringArray
			favorites pq.StringArray
		)
		if err := rows.Scan(&pID, &oID, &p.Name, &p.Bio, &p.Email, &p.ProfileImageURL,
			&p.IndustryRole, &p.Company, &expertise, &p.Website, &p.Location,
			&p.SocialLinks, &favorites, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan industry professional: %w", err)
		}
		p.ID = id.ProfileID(pID)
		p.OwnerID = id.UserID(oID)
		p.ExpertiseAreas = expertise
		p.FavoriteArtists = favorites
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListInstrumentalists(ctx context.Context) ([]*models.Instrumentalist, error) {
	query := `
		SELECT id, owner_id, name, bio, email, profile_image_url, instrument,
			years_experience, equipment, rate, location, social_links, created_at
		FROM instrumentalists
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list instrumentalists: %w", err)
	}
	defer rows.Close()

	var out []*models.Instrumentalist
	for rows.Next() {
		var (
			p         models.Instrumentalist
			pID, oID  uuid.UUID
			equipment pq.StringArray
		)
		if err := rows.Scan(&pID, &oID, &p.Name, &p.Bio, &p.Email, &p.ProfileImageURL,
			&p.Instrument, &p.YearsExperience, &equipment, &p.Rate, &p.Location,
			&p.SocialLinks, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan instrumentalist: %w", err)
		}
		p.ID = id.ProfileID(pID)
		p.OwnerID = id.UserID(oID)
		p.Equipment = equipment
		out = append(out, &p)
	}
	return out, rows.Err()
}
