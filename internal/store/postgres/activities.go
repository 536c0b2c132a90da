package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/skytails/skytails/internal/models"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) CreateActivity(ctx context.Context, params models.ActivityCreateParams) (*models.Activity, error) {
	a := &models.Activity{
		PublicID:            uuid.New(),
		DisplayID:           params.DisplayID,
		Type:                params.Type,
		Subject:             params.Subject,
		Body:                params.Body,
		Notes:               params.Notes,
		OccurredAt:          params.OccurredAt,
		HumanID:             params.HumanID,
		RouteSignupID:       params.RouteSignupID,
		BookingRequestID:    params.BookingRequestID,
		FrontID:             params.FrontID,
		FrontConversationID: params.FrontConversationID,
		CreatedByUserID:     params.CreatedByUserID,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO activities (public_id, display_id, type, subject, body, notes, occurred_at,
		                         human_id, route_signup_id, booking_request_id,
		                         front_id, front_conversation_id, created_by_user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13)
		 RETURNING id, created_at, updated_at`,
		a.PublicID, a.DisplayID, a.Type, a.Subject, a.Body, a.Notes, a.OccurredAt,
		a.HumanID, a.RouteSignupID, a.BookingRequestID,
		a.FrontID, a.FrontConversationID, a.CreatedByUserID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (s *ActivityStore) ListImportedFrontIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT front_id FROM activities WHERE front_id IS NOT NULL`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *ActivityStore) GetActivityByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Activity, error) {
	a := &models.Activity{}
	var frontID, frontConversationID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, display_id, type, subject, body, notes, occurred_at,
		        human_id, route_signup_id, booking_request_id,
		        front_id, front_conversation_id, created_by_user_id, created_at, updated_at
		 FROM activities WHERE public_id = $1`,
		publicID,
	).Scan(&a.ID, &a.PublicID, &a.DisplayID, &a.Type, &a.Subject, &a.Body, &a.Notes, &a.OccurredAt,
		&a.HumanID, &a.RouteSignupID, &a.BookingRequestID,
		&frontID, &frontConversationID, &a.CreatedByUserID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.FrontID = frontID.String
	a.FrontConversationID = frontConversationID.String
	return a, nil
}

func (s *ActivityStore) ListActivitiesByHumanID(ctx context.Context, humanID int64, limit, offset int) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, public_id, display_id, type, subject, body, notes, occurred_at,
		        human_id, route_signup_id, booking_request_id,
		        front_id, front_conversation_id, created_by_user_id, created_at, updated_at
		 FROM activities WHERE human_id = $1
		 ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`,
		humanID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		var frontID, frontConversationID sql.NullString
		if err := rows.Scan(&a.ID, &a.PublicID, &a.DisplayID, &a.Type, &a.Subject, &a.Body, &a.Notes, &a.OccurredAt,
			&a.HumanID, &a.RouteSignupID, &a.BookingRequestID,
			&frontID, &frontConversationID, &a.CreatedByUserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.FrontID = frontID.String
		a.FrontConversationID = frontConversationID.String
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
