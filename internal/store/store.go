package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/skytails/skytails/internal/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, token string, userID int64, expiresAt interface{}) (*models.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) error
}

// DirectoryStore is the primary contact store: the CRM's own directory of
// email addresses and phone numbers with known owners. Lookup methods
// return (nil, nil) when nothing matches.
type DirectoryStore interface {
	// FindHumanIDByEmail returns the ID of the human owning the given
	// email address, compared case-insensitively.
	FindHumanIDByEmail(ctx context.Context, email string) (*int64, error)
	// FindHumanIDByPhoneSuffix returns the ID of the human owning a phone
	// number whose last nine digits equal last9.
	FindHumanIDByPhoneSuffix(ctx context.Context, last9 string) (*int64, error)
	GetHumanByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Human, error)
}

// IntakeStore is the secondary contact store: anonymous lead-signup and
// website booking-request records. Lookup methods return (nil, nil) when
// nothing matches.
type IntakeStore interface {
	FindRouteSignupIDByEmail(ctx context.Context, email string) (*int64, error)
	// FindBookingRequestIDByEmail matches either the client email or the
	// notification email, case-insensitively.
	FindBookingRequestIDByEmail(ctx context.Context, email string) (*int64, error)
	// FindBookingRequestIDByPhoneSuffix matches either the primary phone
	// or the alternate WhatsApp phone by last-nine-digit suffix.
	FindBookingRequestIDByPhoneSuffix(ctx context.Context, last9 string) (*int64, error)
}

type ActivityStore interface {
	CreateActivity(ctx context.Context, params models.ActivityCreateParams) (*models.Activity, error)
	// ListImportedFrontIDs returns every front_id present on activity rows,
	// used to seed the sync idempotency set.
	ListImportedFrontIDs(ctx context.Context) ([]string, error)
	GetActivityByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Activity, error)
	ListActivitiesByHumanID(ctx context.Context, humanID int64, limit, offset int) ([]models.Activity, error)
}
