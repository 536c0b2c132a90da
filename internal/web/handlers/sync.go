package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skytails/skytails/internal/frontsync"
	"github.com/skytails/skytails/internal/web/middleware"
)

// SyncHandler triggers Front sync runs.
type SyncHandler struct {
	sync *frontsync.Service
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService *frontsync.Service) *SyncHandler {
	return &SyncHandler{
		sync: syncService,
	}
}

type syncRequest struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
}

// HandleRunSync runs one page of the Front import and returns the run
// summary. Cursor and limit come from the JSON body or from query
// parameters; an empty request starts from the first page with the
// default page size.
func (h *SyncHandler) HandleRunSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q := r.URL.Query()
	if cursor := q.Get("cursor"); cursor != "" {
		req.Cursor = cursor
	}
	if rawLimit := q.Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	result, err := h.sync.Run(r.Context(), frontsync.RunParams{
		Cursor:      req.Cursor,
		Limit:       req.Limit,
		ActorUserID: user.ID,
	})
	if err != nil {
		slog.Error("front sync run failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusBadGateway, "front_sync_failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
