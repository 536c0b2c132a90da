package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/skytails/skytails/internal/archive"
	"github.com/skytails/skytails/internal/models"
	"github.com/skytails/skytails/internal/store"
)

// ActivityHandler serves read access to imported activities.
type ActivityHandler struct {
	directory  store.DirectoryStore
	activities store.ActivityStore
	payloads   archive.Store
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(directory store.DirectoryStore, activities store.ActivityStore, payloads archive.Store) *ActivityHandler {
	return &ActivityHandler{
		directory:  directory,
		activities: activities,
		payloads:   payloads,
	}
}

// activityResponse is the JSON shape for one activity.
type activityResponse struct {
	PublicID            uuid.UUID `json:"public_id"`
	DisplayID           string    `json:"display_id"`
	Type                string    `json:"type"`
	Subject             string    `json:"subject"`
	Body                string    `json:"body"`
	Notes               string    `json:"notes"`
	OccurredAt          time.Time `json:"occurred_at"`
	FrontConversationID string    `json:"front_conversation_id,omitempty"`
}

func toActivityResponse(a *models.Activity) activityResponse {
	return activityResponse{
		PublicID:            a.PublicID,
		DisplayID:           a.DisplayID,
		Type:                a.Type,
		Subject:             a.Subject,
		Body:                a.Body,
		Notes:               a.Notes,
		OccurredAt:          a.OccurredAt,
		FrontConversationID: a.FrontConversationID,
	}
}

// HandleGetActivity returns one activity by its public ID.
func (h *ActivityHandler) HandleGetActivity(w http.ResponseWriter, r *http.Request) {
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	activity, err := h.activities.GetActivityByPublicID(r.Context(), publicID)
	if err != nil {
		writeError(w, http.StatusNotFound, "activity not found")
		return
	}

	writeJSON(w, http.StatusOK, toActivityResponse(activity))
}

// HandleGetActivityPayload returns the raw platform message behind an
// imported activity, as archived at import time.
func (h *ActivityHandler) HandleGetActivityPayload(w http.ResponseWriter, r *http.Request) {
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	activity, err := h.activities.GetActivityByPublicID(r.Context(), publicID)
	if err != nil {
		writeError(w, http.StatusNotFound, "activity not found")
		return
	}
	if activity.FrontID == "" {
		writeError(w, http.StatusNotFound, "activity has no archived payload")
		return
	}

	key := fmt.Sprintf("front/%s/%s.json", activity.FrontConversationID, activity.FrontID)
	payload, err := h.payloads.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, archive.ErrPayloadNotFound) {
			writeError(w, http.StatusNotFound, "archived payload not found")
			return
		}
		slog.Error("failed to read archived payload", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		slog.Error("failed to write payload response", "error", err)
	}
}

// HandleListHumanActivities returns a page of activities for one human,
// newest first.
func (h *ActivityHandler) HandleListHumanActivities(w http.ResponseWriter, r *http.Request) {
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid human id")
		return
	}

	human, err := h.directory.GetHumanByPublicID(r.Context(), publicID)
	if err != nil {
		writeError(w, http.StatusNotFound, "human not found")
		return
	}

	limit := parsePositiveInt(r.URL.Query().Get("limit"), 50)
	if limit > 200 {
		limit = 200
	}
	offset := parsePositiveInt(r.URL.Query().Get("offset"), 0)

	activities, err := h.activities.ListActivitiesByHumanID(r.Context(), human.ID, limit, offset)
	if err != nil {
		slog.Error("failed to list activities", "human_public_id", publicID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]activityResponse, 0, len(activities))
	for i := range activities {
		out = append(out, toActivityResponse(&activities[i]))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"human_public_id": human.PublicID,
		"display_id":      human.DisplayID,
		"activities":      out,
	})
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
