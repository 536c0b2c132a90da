package frontsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/skytails/skytails/internal/channel"
	"github.com/skytails/skytails/internal/contact"
	"github.com/skytails/skytails/internal/front"
	"github.com/skytails/skytails/internal/models"
)

// --- Fakes ---

type fakeFrontAPI struct {
	page           front.ConversationPage
	pageErr        error
	messages       map[string][]front.Message
	messageErrs    map[string]error
	gotCursor      string
	gotLimit       int
	messageFetches int
}

func (f *fakeFrontAPI) ListConversations(_ context.Context, cursor string, limit int) (*front.ConversationPage, error) {
	f.gotCursor = cursor
	f.gotLimit = limit
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	page := f.page
	return &page, nil
}

func (f *fakeFrontAPI) ListMessages(_ context.Context, conversationID string) ([]front.Message, error) {
	f.messageFetches++
	if err := f.messageErrs[conversationID]; err != nil {
		return nil, err
	}
	return f.messages[conversationID], nil
}

type fakeMatcher struct {
	results map[string]contact.MatchResult
	err     error
}

func (f *fakeMatcher) Match(_ context.Context, handle, _ string) (contact.MatchResult, error) {
	if f.err != nil {
		return contact.MatchResult{}, f.err
	}
	return f.results[handle], nil
}

type fakeActivityStore struct {
	existingFrontIDs []string
	created          []models.ActivityCreateParams
	createErrs       map[string]error // keyed by front message ID
	listErr          error
}

func (f *fakeActivityStore) CreateActivity(_ context.Context, params models.ActivityCreateParams) (*models.Activity, error) {
	if err := f.createErrs[params.FrontID]; err != nil {
		return nil, err
	}
	f.created = append(f.created, params)
	return &models.Activity{
		ID:       int64(len(f.created)),
		PublicID: uuid.New(),
	}, nil
}

func (f *fakeActivityStore) ListImportedFrontIDs(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.existingFrontIDs, nil
}

func (f *fakeActivityStore) GetActivityByPublicID(_ context.Context, _ uuid.UUID) (*models.Activity, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeActivityStore) ListActivitiesByHumanID(_ context.Context, _ int64, _, _ int) ([]models.Activity, error) {
	return nil, errors.New("not implemented")
}

type fakeAllocator struct {
	n   int
	err error
}

func (f *fakeAllocator) Next(_ context.Context, category string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return fmt.Sprintf("%s-%06d", category, f.n), nil
}

type recordingArchiver struct {
	keys []string
}

func (a *recordingArchiver) Put(_ context.Context, key, _ string, _ []byte) error {
	a.keys = append(a.keys, key)
	return nil
}

func testClassifier() *channel.Classifier {
	return channel.NewClassifier(channel.Config{
		WhatsAppChannelIDs: []string{"cha_wa"},
	})
}

func newTestService(api *fakeFrontAPI, matcher *fakeMatcher, activities *fakeActivityStore) *Service {
	return NewService(api, testClassifier(), matcher, activities, &fakeAllocator{}, nil, nil)
}

func humanMatch(id int64) contact.MatchResult {
	return contact.MatchResult{HumanID: &id, MatchedEntity: "human"}
}

// --- Tests ---

func TestRun_ImportsEmailConversation(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Subject: "", Recipient: front.Contact{Handle: "jane@example.com", Name: "Jane"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {
				{ID: "msg_draft", IsInbound: false, IsDraft: true, Text: "unsent"},
				{ID: "msg_1", IsInbound: true, CreatedAt: 1700000000, Author: front.Contact{Name: "Jane"}, Text: "Hello"},
			},
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	activities := &fakeActivityStore{}
	svc := newTestService(api, matcher, activities)

	res, err := svc.Run(context.Background(), RunParams{Limit: 1, ActorUserID: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Total != 2 || res.Imported != 1 || res.Skipped != 1 || res.Unmatched != 0 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(activities.created) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(activities.created))
	}

	a := activities.created[0]
	if a.Type != models.ActivityTypeEmail {
		t.Errorf("expected type email, got %s", a.Type)
	}
	if a.HumanID == nil || *a.HumanID != 42 {
		t.Errorf("expected human 42, got %+v", a.HumanID)
	}
	if a.Subject != "Email conversation" {
		t.Errorf("unexpected default subject %q", a.Subject)
	}
	if !strings.HasPrefix(a.Notes, "Inbound from Jane") {
		t.Errorf("unexpected notes prefix: %q", a.Notes)
	}
	if !strings.Contains(a.Notes, "Hello") {
		t.Errorf("notes should contain the body: %q", a.Notes)
	}
	if a.FrontID != "msg_1" || a.FrontConversationID != "cnv_1" {
		t.Errorf("unexpected traceability ids: %+v", a)
	}
	if a.CreatedByUserID != 9 {
		t.Errorf("expected actor 9, got %d", a.CreatedByUserID)
	}
	if !a.OccurredAt.Equal(epochToTime(1700000000)) {
		t.Errorf("unexpected occurred_at %v", a.OccurredAt)
	}
	if a.DisplayID != "ACT-000001" {
		t.Errorf("unexpected display id %q", a.DisplayID)
	}
}

func TestRun_PageFetchFailureIsFatal(t *testing.T) {
	api := &fakeFrontAPI{pageErr: errors.New("status 503: upstream down")}
	svc := newTestService(api, &fakeMatcher{}, &fakeActivityStore{})

	res, err := svc.Run(context.Background(), RunParams{})
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if res != nil {
		t.Fatal("expected no partial result on fatal error")
	}
}

func TestRun_LimitClamped(t *testing.T) {
	api := &fakeFrontAPI{}
	svc := newTestService(api, &fakeMatcher{}, &fakeActivityStore{})

	tests := []struct {
		in   int
		want int
	}{
		{0, 20},
		{-3, 20},
		{17, 17},
		{50, 50},
		{120, 50},
	}
	for _, tt := range tests {
		if _, err := svc.Run(context.Background(), RunParams{Limit: tt.in}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.gotLimit != tt.want {
			t.Errorf("limit %d: expected clamp to %d, got %d", tt.in, tt.want, api.gotLimit)
		}
	}
}

func TestRun_CursorPassedThrough(t *testing.T) {
	next := "https://api.example.com/conversations?page_token=xyz"
	api := &fakeFrontAPI{page: front.ConversationPage{NextCursor: &next}}
	svc := newTestService(api, &fakeMatcher{}, &fakeActivityStore{})

	res, err := svc.Run(context.Background(), RunParams{Cursor: "https://api.example.com/conversations?page_token=abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.gotCursor != "https://api.example.com/conversations?page_token=abc" {
		t.Errorf("cursor not passed through, got %q", api.gotCursor)
	}
	if res.NextCursor == nil || *res.NextCursor != next {
		t.Errorf("unexpected next cursor %v", res.NextCursor)
	}
}

func TestRun_SecondRunImportsNothing(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {
				{ID: "msg_1", IsInbound: true, Text: "Hello"},
				{ID: "msg_2", IsInbound: false, Text: "Hi Jane"},
			},
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	activities := &fakeActivityStore{}
	svc := newTestService(api, matcher, activities)

	first, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Imported != 2 {
		t.Fatalf("first run should import 2, got %+v", first)
	}

	// Simulate the next invocation seeing the same upstream page.
	for _, a := range activities.created {
		activities.existingFrontIDs = append(activities.existingFrontIDs, a.FrontID)
	}

	second, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Imported != 0 || second.Skipped != 2 {
		t.Fatalf("second run should skip everything, got %+v", second)
	}
	if len(activities.created) != 2 {
		t.Fatalf("no new activities expected, got %d", len(activities.created))
	}
}

func TestRun_DuplicateWithinSamePage(t *testing.T) {
	// The same conversation listed twice, e.g. pagination overlap.
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {{ID: "msg_1", IsInbound: true, Text: "Hello"}},
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	activities := &fakeActivityStore{}
	svc := newTestService(api, matcher, activities)

	res, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 1 {
		t.Fatalf("in-page duplicate not caught: %+v", res)
	}
}

func TestRun_UnmatchedStillImports(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "stranger@example.com", Name: "Stranger"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {{ID: "msg_1", IsInbound: true, Text: "Who am I?"}},
		},
	}
	activities := &fakeActivityStore{}
	svc := newTestService(api, &fakeMatcher{}, activities)

	res, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Imported != 1 || res.Unmatched != 1 {
		t.Fatalf("unmatched message should still import: %+v", res)
	}

	a := activities.created[0]
	if a.HumanID != nil || a.RouteSignupID != nil || a.BookingRequestID != nil {
		t.Fatalf("expected no identity refs, got %+v", a)
	}
	if !strings.HasPrefix(a.Notes, "[UNMATCHED] Contact: Stranger (stranger@example.com)") {
		t.Errorf("unexpected notes: %q", a.Notes)
	}
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
				{ID: "cnv_2", Recipient: front.Contact{Handle: "broken@example.com"}},
				{ID: "cnv_3", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {{ID: "msg_1", IsInbound: true, Text: "one"}},
			"cnv_3": {
				{ID: "msg_3", IsInbound: true, Text: "three"},
				{ID: "msg_4", IsDraft: true},
			},
		},
		messageErrs: map[string]error{
			"cnv_2": errors.New("status 500: boom"),
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	svc := newTestService(api, matcher, &fakeActivityStore{})

	res, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("run should not fail: %v", err)
	}

	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "cnv_2") {
		t.Errorf("error should reference cnv_2: %q", res.Errors[0])
	}
	if res.Imported != 2 || res.Skipped != 1 || res.Total != 3 {
		t.Fatalf("conversations 1 and 3 should be processed: %+v", res)
	}
}

func TestRun_WhatsAppChannelIDWinsOverEmailShape(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", ChannelID: "cha_wa", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {{ID: "msg_1", IsInbound: true, Text: "hola"}},
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	activities := &fakeActivityStore{}
	svc := newTestService(api, matcher, activities)

	if _, err := svc.Run(context.Background(), RunParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if activities.created[0].Type != models.ActivityTypeWhatsApp {
		t.Errorf("channel id should win over handle shape, got %s", activities.created[0].Type)
	}
	if activities.created[0].Subject != "WhatsApp conversation" {
		t.Errorf("unexpected default subject %q", activities.created[0].Subject)
	}
}

func TestRun_InsertFailureAbortsOnlyThatMessage(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {
				{ID: "msg_1", IsInbound: true, Text: "first"},
				{ID: "msg_2", IsInbound: true, Text: "second"},
				{ID: "msg_3", IsInbound: true, Text: "third"},
			},
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	activities := &fakeActivityStore{
		createErrs: map[string]error{"msg_2": errors.New("disk full")},
	}
	svc := newTestService(api, matcher, activities)

	res, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("run should not fail: %v", err)
	}

	if res.Imported != 2 || res.Skipped != 1 || res.Total != 3 {
		t.Fatalf("messages after the failed one should still import: %+v", res)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "msg_2") {
		t.Fatalf("expected one error referencing msg_2, got %v", res.Errors)
	}
	if res.Imported+res.Skipped != res.Total {
		t.Fatalf("every message must land in exactly one bucket: %+v", res)
	}
}

func TestRun_ConcurrentInsertCountsAsDuplicate(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {
				{ID: "msg_1", IsInbound: true, Text: "hello"},
			},
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	// Another run inserted msg_1 after our idempotency snapshot; the
	// unique index on front_id rejects the insert.
	activities := &fakeActivityStore{
		createErrs: map[string]error{"msg_1": &pq.Error{Code: "23505"}},
	}
	svc := newTestService(api, matcher, activities)

	res, err := svc.Run(context.Background(), RunParams{})
	if err != nil {
		t.Fatalf("run should not fail: %v", err)
	}

	if res.Total != 1 || res.Imported != 0 || res.Skipped != 1 {
		t.Fatalf("constraint hit should count as a duplicate skip: %+v", res)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("a duplicate skip is not an error: %v", res.Errors)
	}
}

func TestRun_IdempotencySetLoadFailureIsFatal(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
	}
	activities := &fakeActivityStore{listErr: errors.New("connection refused")}
	svc := newTestService(api, &fakeMatcher{}, activities)

	if _, err := svc.Run(context.Background(), RunParams{}); err == nil {
		t.Fatal("expected fatal error when the idempotency set cannot load")
	}
}

func TestRun_ArchivesImportedMessages(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {
				{ID: "msg_1", IsInbound: true, Text: "Hello"},
				{ID: "msg_draft", IsDraft: true},
			},
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	archive := &recordingArchiver{}
	svc := NewService(api, testClassifier(), matcher, &fakeActivityStore{}, &fakeAllocator{}, archive, nil)

	if _, err := svc.Run(context.Background(), RunParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(archive.keys) != 1 || archive.keys[0] != "front/cnv_1/msg_1.json" {
		t.Fatalf("expected one archived payload, got %v", archive.keys)
	}
}

func TestRun_BlurbFallbackWhenTextEmpty(t *testing.T) {
	api := &fakeFrontAPI{
		page: front.ConversationPage{
			Conversations: []front.Conversation{
				{ID: "cnv_1", Recipient: front.Contact{Handle: "jane@example.com"}},
			},
		},
		messages: map[string][]front.Message{
			"cnv_1": {{ID: "msg_1", IsInbound: true, Blurb: "short preview"}},
		},
	}
	matcher := &fakeMatcher{results: map[string]contact.MatchResult{
		"jane@example.com": humanMatch(42),
	}}
	activities := &fakeActivityStore{}
	svc := newTestService(api, matcher, activities)

	if _, err := svc.Run(context.Background(), RunParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if activities.created[0].Body != "short preview" {
		t.Errorf("expected blurb fallback, got %q", activities.created[0].Body)
	}
	if !strings.Contains(activities.created[0].Notes, "short preview") {
		t.Errorf("notes should contain blurb: %q", activities.created[0].Notes)
	}
}

func TestBuildSubject_Truncation(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := buildSubject(long, models.ActivityTypeEmail)
	if len(got) != 500 {
		t.Errorf("expected 500 chars, got %d", len(got))
	}
}
