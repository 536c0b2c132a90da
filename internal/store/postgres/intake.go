package postgres

import (
	"context"
	"database/sql"
)

type IntakeStore struct {
	db *sql.DB
}

func NewIntakeStore(db *sql.DB) *IntakeStore {
	return &IntakeStore{db: db}
}

func (s *IntakeStore) FindRouteSignupIDByEmail(ctx context.Context, email string) (*int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM route_signups
		 WHERE LOWER(email) = LOWER($1)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		email,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *IntakeStore) FindBookingRequestIDByEmail(ctx context.Context, email string) (*int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM booking_requests
		 WHERE LOWER(client_email) = LOWER($1) OR LOWER(notify_email) = LOWER($1)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		email,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (s *IntakeStore) FindBookingRequestIDByPhoneSuffix(ctx context.Context, last9 string) (*int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM booking_requests
		 WHERE RIGHT(regexp_replace(phone, '\D', '', 'g'), 9) = $1
		    OR RIGHT(regexp_replace(whatsapp_phone, '\D', '', 'g'), 9) = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		last9,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}
