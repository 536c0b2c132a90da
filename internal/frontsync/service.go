// Package frontsync imports Front conversations into the CRM activity
// history: it pulls one page of conversations per run, classifies each
// conversation's contact handle, resolves the identity behind it, and
// writes one activity row per new message.
package frontsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/skytails/skytails/internal/channel"
	"github.com/skytails/skytails/internal/contact"
	"github.com/skytails/skytails/internal/front"
	"github.com/skytails/skytails/internal/models"
	"github.com/skytails/skytails/internal/seq"
	"github.com/skytails/skytails/internal/store"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
	maxSubjectLen    = 500
)

// ConversationAPI is the slice of the Front client the sync consumes.
type ConversationAPI interface {
	ListConversations(ctx context.Context, cursor string, limit int) (*front.ConversationPage, error)
	ListMessages(ctx context.Context, conversationID string) ([]front.Message, error)
}

// ContactMatcher resolves a handle to a CRM identity.
type ContactMatcher interface {
	Match(ctx context.Context, handle, activityType string) (contact.MatchResult, error)
}

// DisplayIDAllocator hands out human-readable sequential IDs.
type DisplayIDAllocator interface {
	Next(ctx context.Context, category string) (string, error)
}

// Archiver stores raw message payloads for traceability. Archive failures
// are logged and never fail an import.
type Archiver interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

type NoopArchiver struct{}

func (a *NoopArchiver) Put(_ context.Context, _, _ string, _ []byte) error { return nil }

// Reporter delivers a post-run summary to the operator who triggered the
// sync when the run recorded errors.
type Reporter interface {
	ReportSyncErrors(ctx context.Context, actorUserID int64, result *Result) error
}

type NoopReporter struct{}

func (r *NoopReporter) ReportSyncErrors(_ context.Context, _ int64, _ *Result) error { return nil }

// RunParams are the caller-supplied inputs for one sync run.
type RunParams struct {
	// Cursor is the opaque next-page URL from a previous run, or empty
	// for the first page of the feed.
	Cursor string
	// Limit is the page size, clamped to [1, 50] with a default of 20.
	Limit int
	// ActorUserID is the operator who triggered the run; recorded on
	// every imported activity.
	ActorUserID int64
}

// Result summarizes one run. Errors holds per-conversation and
// per-message failures that did not abort the run. NextCursor is nil at
// the end of the feed.
type Result struct {
	Total      int      `json:"total"`
	Imported   int      `json:"imported"`
	Skipped    int      `json:"skipped"`
	Unmatched  int      `json:"unmatched"`
	Errors     []string `json:"errors"`
	NextCursor *string  `json:"nextCursor"`
}

type Service struct {
	api        ConversationAPI
	classifier *channel.Classifier
	contacts   ContactMatcher
	activities store.ActivityStore
	displayIDs DisplayIDAllocator
	archive    Archiver
	reporter   Reporter
}

func NewService(
	api ConversationAPI,
	classifier *channel.Classifier,
	contacts ContactMatcher,
	activities store.ActivityStore,
	displayIDs DisplayIDAllocator,
	archive Archiver,
	reporter Reporter,
) *Service {
	if archive == nil {
		archive = &NoopArchiver{}
	}
	if reporter == nil {
		reporter = &NoopReporter{}
	}
	return &Service{
		api:        api,
		classifier: classifier,
		contacts:   contacts,
		activities: activities,
		displayIDs: displayIDs,
		archive:    archive,
		reporter:   reporter,
	}
}

// Run processes one page of the conversation feed. A page-fetch failure
// is fatal and returns an error with no partial result; everything inside
// the per-conversation loop is caught and recorded on the Result instead.
func (s *Service) Run(ctx context.Context, params RunParams) (*Result, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	page, err := s.api.ListConversations(ctx, params.Cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation page: %w", err)
	}

	importedIDs, err := s.activities.ListImportedFrontIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load imported front ids: %w", err)
	}
	seen := make(map[string]struct{}, len(importedIDs))
	for _, id := range importedIDs {
		seen[id] = struct{}{}
	}

	res := &Result{
		Errors:     []string{},
		NextCursor: page.NextCursor,
	}

	for _, conv := range page.Conversations {
		s.processConversation(ctx, conv, seen, res, params.ActorUserID)
	}

	slog.Info("front sync run complete",
		"total", res.Total,
		"imported", res.Imported,
		"skipped", res.Skipped,
		"unmatched", res.Unmatched,
		"errors", len(res.Errors),
	)

	if len(res.Errors) > 0 {
		if reportErr := s.reporter.ReportSyncErrors(ctx, params.ActorUserID, res); reportErr != nil {
			slog.Error("failed to send sync report", "error", reportErr)
		}
	}

	return res, nil
}

// processConversation handles one conversation. All messages in a
// conversation share one classification and one match result, matching
// the platform's one-handle-per-conversation model.
func (s *Service) processConversation(ctx context.Context, conv front.Conversation, seen map[string]struct{}, res *Result, actorUserID int64) {
	msgs, err := s.api.ListMessages(ctx, conv.ID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("conversation %s: %v", conv.ID, err))
		return
	}

	activityType := s.classifier.Classify(conv.ChannelID, conv.Recipient.Handle)

	match, err := s.contacts.Match(ctx, conv.Recipient.Handle, activityType)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("conversation %s: %v", conv.ID, err))
		return
	}
	if !match.Matched() {
		slog.Warn("front contact unmatched",
			"conversation", conv.ID,
			"handle", conv.Recipient.Handle,
			"type", activityType,
		)
	}

	for _, msg := range msgs {
		res.Total++

		if msg.IsDraft {
			res.Skipped++
			continue
		}
		if _, dup := seen[msg.ID]; dup {
			res.Skipped++
			continue
		}

		if err := s.importMessage(ctx, conv, msg, activityType, match, actorUserID); err != nil {
			if isUniqueViolation(err) {
				// A concurrent run inserted this message after our
				// snapshot was taken. The constraint caught it; treat
				// as a duplicate skip.
				seen[msg.ID] = struct{}{}
				res.Skipped++
				continue
			}
			// An insert failure aborts only this message. It still
			// counts as skipped so every message lands in exactly one
			// bucket, and the failure is recorded for the operator.
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("conversation %s: import message %s: %v", conv.ID, msg.ID, err))
			continue
		}

		seen[msg.ID] = struct{}{}
		res.Imported++
		if !match.Matched() {
			res.Unmatched++
		}
	}
}

func (s *Service) importMessage(ctx context.Context, conv front.Conversation, msg front.Message, activityType string, match contact.MatchResult, actorUserID int64) error {
	displayID, err := s.displayIDs.Next(ctx, seq.CategoryActivity)
	if err != nil {
		return fmt.Errorf("allocate display id: %w", err)
	}

	body := msg.Text
	if body == "" {
		body = msg.Blurb
	}

	_, err = s.activities.CreateActivity(ctx, models.ActivityCreateParams{
		DisplayID:           displayID,
		Type:                activityType,
		Subject:             buildSubject(conv.Subject, activityType),
		Body:                body,
		Notes:               buildNotes(conv.Recipient, msg, body, match),
		OccurredAt:          epochToTime(msg.CreatedAt),
		HumanID:             match.HumanID,
		RouteSignupID:       match.RouteSignupID,
		BookingRequestID:    match.BookingRequestID,
		FrontID:             msg.ID,
		FrontConversationID: conv.ID,
		CreatedByUserID:     actorUserID,
	})
	if err != nil {
		return err
	}

	s.archiveMessage(ctx, conv.ID, msg)
	return nil
}

// archiveMessage stores the raw message JSON for traceability.
// Best-effort only.
func (s *Service) archiveMessage(ctx context.Context, conversationID string, msg front.Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("failed to marshal message for archive", "message", msg.ID, "error", err)
		return
	}
	key := fmt.Sprintf("front/%s/%s.json", conversationID, msg.ID)
	if err := s.archive.Put(ctx, key, "application/json", raw); err != nil {
		slog.Warn("failed to archive message payload", "key", key, "error", err)
	}
}

func buildSubject(subject, activityType string) string {
	if subject == "" {
		switch activityType {
		case models.ActivityTypeWhatsApp:
			subject = "WhatsApp conversation"
		case models.ActivityTypeSocial:
			subject = "Social conversation"
		default:
			subject = "Email conversation"
		}
	}
	if runes := []rune(subject); len(runes) > maxSubjectLen {
		subject = string(runes[:maxSubjectLen])
	}
	return subject
}

func buildNotes(recipient front.Contact, msg front.Message, body string, match contact.MatchResult) string {
	var lines []string
	if !match.Matched() {
		lines = append(lines, fmt.Sprintf("[UNMATCHED] Contact: %s (%s)", recipient.Name, recipient.Handle))
	}

	direction := "Inbound"
	if !msg.IsInbound {
		direction = "Outbound"
	}
	author := msg.Author.Name
	if author == "" {
		author = msg.Author.Handle
	}
	lines = append(lines, fmt.Sprintf("%s from %s", direction, author))
	lines = append(lines, body)

	return strings.Join(lines, "\n")
}

func epochToTime(seconds float64) time.Time {
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
