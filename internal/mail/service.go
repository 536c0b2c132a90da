package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skytails/skytails/internal/frontsync"
	"github.com/skytails/skytails/internal/store"
)

// Service implements the frontsync.Reporter interface by emailing the
// operator who triggered a sync run whenever the run recorded errors.
type Service struct {
	client *SMTPClient
	users  store.UserStore
}

// NewService creates a new mail Service that sends sync reports via SMTP.
func NewService(client *SMTPClient, users store.UserStore) *Service {
	return &Service{
		client: client,
		users:  users,
	}
}

// ReportSyncErrors looks up the triggering operator and sends them an
// email summarizing the run. This method satisfies the
// frontsync.Reporter interface.
func (s *Service) ReportSyncErrors(ctx context.Context, actorUserID int64, result *frontsync.Result) error {
	user, err := s.users.GetUserByID(ctx, actorUserID)
	if err != nil {
		return fmt.Errorf("mail: failed to look up operator (userID=%d): %w", actorUserID, err)
	}

	subject := fmt.Sprintf("Front sync: %d errors across %d messages", len(result.Errors), result.Total)
	body := SyncReportBody(result.Total, result.Imported, result.Skipped, result.Unmatched, result.Errors)

	if err := s.client.Send(user.Email, subject, body); err != nil {
		return fmt.Errorf("mail: failed to send sync report to %s: %w", user.Email, err)
	}

	slog.InfoContext(ctx, "sent sync report",
		"recipient", user.Email,
		"errors", len(result.Errors),
	)

	return nil
}
