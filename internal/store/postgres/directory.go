package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/skytails/skytails/internal/models"
)

type DirectoryStore struct {
	db *sql.DB
}

func NewDirectoryStore(db *sql.DB) *DirectoryStore {
	return &DirectoryStore{db: db}
}

func (s *DirectoryStore) FindHumanIDByEmail(ctx context.Context, email string) (*int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id FROM email_addresses
		 WHERE owner_type = $1 AND LOWER(email) = LOWER($2)
		 LIMIT 1`,
		models.OwnerTypeHuman, email,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *DirectoryStore) FindHumanIDByPhoneSuffix(ctx context.Context, last9 string) (*int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id FROM phone_numbers
		 WHERE owner_type = $1
		   AND RIGHT(regexp_replace(phone, '\D', '', 'g'), 9) = $2
		 LIMIT 1`,
		models.OwnerTypeHuman, last9,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *DirectoryStore) GetHumanByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Human, error) {
	h := &models.Human{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, display_id, first_name, last_name, created_at, updated_at
		 FROM humans WHERE public_id = $1`,
		publicID,
	).Scan(&h.ID, &h.PublicID, &h.DisplayID, &h.FirstName, &h.LastName, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return h, nil
}
