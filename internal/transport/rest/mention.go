package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storyloom/storyloom-backend/internal/domain"
	"github.com/storyloom/storyloom-backend/internal/service/mention"
)

// mentionRecorder defines the pipeline entry point the handler needs.
type mentionRecorder interface {
	RecordFromText(ctx context.Context, in mention.TextInput) (mention.RecordOutcome, error)
}

// MentionHandler serves the internal mention-recording endpoint the
// content-creation flow calls after a comment or judging note is saved.
type MentionHandler struct {
	log      *slog.Logger
	mentions mentionRecorder
	dayLoc   *time.Location
}

// NewMentionHandler creates a MentionHandler. loc is the canonical timezone
// for deriving the quota day when the caller omits a date.
func NewMentionHandler(logger *slog.Logger, mentions mentionRecorder, loc *time.Location) *MentionHandler {
	return &MentionHandler{
		log:      logger.With("handler", "mention"),
		mentions: mentions,
		dayLoc:   loc,
	}
}

type recordMentionsRequest struct {
	ActorID  uuid.UUID  `json:"actor_id"`
	Text     string     `json:"text"`
	Context  string     `json:"context"`
	SourceID uuid.UUID  `json:"source_id"`
	StoryID  uuid.UUID  `json:"story_id"`
	GroupID  *uuid.UUID `json:"group_id,omitempty"`
	// Date overrides the quota day, YYYY-MM-DD. Defaults to today in the
	// canonical timezone.
	Date string `json:"date,omitempty"`
}

type recordMentionsResponse struct {
	Inserted     int `json:"inserted"`
	SkippedSelf  int `json:"skipped_self"`
	SkippedQuota int `json:"skipped_quota"`
}

// Record handles POST /internal/mentions.
func (h *MentionHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordMentionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date := req.Date
	if date == "" {
		date = domain.DayKey(time.Now(), h.dayLoc)
	}

	out, err := h.mentions.RecordFromText(r.Context(), mention.TextInput{
		ActorID:  req.ActorID,
		Text:     req.Text,
		Context:  domain.MentionContext(req.Context),
		SourceID: req.SourceID,
		StoryID:  req.StoryID,
		GroupID:  req.GroupID,
		Date:     date,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "record mentions failed",
			slog.String("actor_id", req.ActorID.String()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, recordMentionsResponse{
		Inserted:     out.Inserted,
		SkippedSelf:  out.SkippedSelf,
		SkippedQuota: out.SkippedQuota,
	})
}
