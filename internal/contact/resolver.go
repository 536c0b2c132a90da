// Package contact resolves a conversation handle to a CRM identity.
package contact

import (
	"context"
	"fmt"
	"strings"

	"github.com/skytails/skytails/internal/models"
	"github.com/skytails/skytails/internal/phone"
	"github.com/skytails/skytails/internal/store"
)

// MatchResult identifies the entity behind a handle. At most one of the
// three IDs is set; all nil means the handle could not be resolved.
// MatchedEntity is a label used only for log and notes annotation.
type MatchResult struct {
	HumanID          *int64
	RouteSignupID    *int64
	BookingRequestID *int64
	MatchedEntity    string
}

// Matched reports whether any identity was resolved.
func (r MatchResult) Matched() bool {
	return r.HumanID != nil || r.RouteSignupID != nil || r.BookingRequestID != nil
}

// Resolver searches the primary directory store first and the secondary
// intake store second. Known CRM contacts take priority over anonymous
// lead and booking records, and exact email matches are preferred over
// phone-suffix matches whenever both are available.
type Resolver struct {
	directory store.DirectoryStore
	intake    store.IntakeStore
}

func NewResolver(directory store.DirectoryStore, intake store.IntakeStore) *Resolver {
	return &Resolver{
		directory: directory,
		intake:    intake,
	}
}

// Match resolves handle according to its classified activity type. Each
// candidate step is a single store round-trip and resolution stops at the
// first hit.
func (r *Resolver) Match(ctx context.Context, handle, activityType string) (MatchResult, error) {
	switch activityType {
	case models.ActivityTypeEmail:
		return r.matchEmail(ctx, handle)
	case models.ActivityTypeWhatsApp:
		return r.matchPhone(ctx, handle)
	case models.ActivityTypeSocial:
		return r.matchSocial(ctx, handle)
	default:
		return MatchResult{}, fmt.Errorf("unsupported activity type %q", activityType)
	}
}

func (r *Resolver) matchEmail(ctx context.Context, handle string) (MatchResult, error) {
	email := strings.ToLower(strings.TrimSpace(handle))
	if email == "" {
		return MatchResult{}, nil
	}

	humanID, err := r.directory.FindHumanIDByEmail(ctx, email)
	if err != nil {
		return MatchResult{}, fmt.Errorf("find human by email: %w", err)
	}
	if humanID != nil {
		return MatchResult{HumanID: humanID, MatchedEntity: "human"}, nil
	}

	signupID, err := r.intake.FindRouteSignupIDByEmail(ctx, email)
	if err != nil {
		return MatchResult{}, fmt.Errorf("find route signup by email: %w", err)
	}
	if signupID != nil {
		return MatchResult{RouteSignupID: signupID, MatchedEntity: "route signup"}, nil
	}

	bookingID, err := r.intake.FindBookingRequestIDByEmail(ctx, email)
	if err != nil {
		return MatchResult{}, fmt.Errorf("find booking request by email: %w", err)
	}
	if bookingID != nil {
		return MatchResult{BookingRequestID: bookingID, MatchedEntity: "booking request"}, nil
	}

	return MatchResult{}, nil
}

func (r *Resolver) matchPhone(ctx context.Context, handle string) (MatchResult, error) {
	last9, ok := phone.Suffix(handle)
	if !ok {
		// Fewer than nine digits is too ambiguous to match against anything.
		return MatchResult{}, nil
	}

	humanID, err := r.directory.FindHumanIDByPhoneSuffix(ctx, last9)
	if err != nil {
		return MatchResult{}, fmt.Errorf("find human by phone: %w", err)
	}
	if humanID != nil {
		return MatchResult{HumanID: humanID, MatchedEntity: "human"}, nil
	}

	bookingID, err := r.intake.FindBookingRequestIDByPhoneSuffix(ctx, last9)
	if err != nil {
		return MatchResult{}, fmt.Errorf("find booking request by phone: %w", err)
	}
	if bookingID != nil {
		return MatchResult{BookingRequestID: bookingID, MatchedEntity: "booking request"}, nil
	}

	return MatchResult{}, nil
}

// matchSocial delegates by handle shape. A bare social username with no
// email or phone shape cannot be resolved by this pipeline.
func (r *Resolver) matchSocial(ctx context.Context, handle string) (MatchResult, error) {
	switch {
	case strings.Contains(handle, "@"):
		return r.matchEmail(ctx, handle)
	case strings.ContainsAny(handle, "0123456789"):
		return r.matchPhone(ctx, handle)
	default:
		return MatchResult{}, nil
	}
}
