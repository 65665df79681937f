package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
	"github.com/dmitrymomot/notifyqueue/pkg/logger"
)

const maxBodyBytes = 64 << 10

type handlers struct {
	queue  Queue
	ticker Ticker
	log    *slog.Logger
}

type enqueueRequest struct {
	ArticleSlug string               `json:"articleSlug"`
	Section     string               `json:"section"`
	Headline    string               `json:"headline"`
	Summary     string               `json:"summary"`
	ContentType dispatch.ContentType `json:"contentType"`
	Priority    dispatch.Priority    `json:"priority"`
}

type enqueueResponse struct {
	Queued  bool   `json:"queued"`
	EventID string `json:"eventId,omitempty"`
	Message string `json:"message,omitempty"`
}

type tickResponse struct {
	Success   bool   `json:"success"`
	EventID   string `json:"eventId,omitempty"`
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
	Remaining bool   `json:"remaining"`
	Message   string `json:"message,omitempty"`
}

type pauseResponse struct {
	Success bool   `json:"success"`
	Paused  bool   `json:"paused"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// enqueue never fails the caller: publishing must not depend on notifications.
func (h *handlers) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.log.WarnContext(r.Context(), "invalid enqueue request", logger.Error(err))
		writeJSON(w, http.StatusAccepted, enqueueResponse{Message: "invalid request body"})
		return
	}

	ev, err := h.queue.Enqueue(r.Context(), dispatch.EnqueueInput{
		ArticleSlug: req.ArticleSlug,
		Section:     req.Section,
		Headline:    req.Headline,
		Summary:     req.Summary,
		ContentType: req.ContentType,
		Priority:    req.Priority,
	})
	if err != nil {
		h.log.WarnContext(r.Context(), "notification not queued",
			logger.ArticleSlug(req.ArticleSlug), logger.Error(err))
		writeJSON(w, http.StatusAccepted, enqueueResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, enqueueResponse{Queued: true, EventID: ev.ID})
}

func (h *handlers) tick(w http.ResponseWriter, r *http.Request) {
	res, err := h.ticker.Tick(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "tick failed", logger.Error(err))
		writeJSON(w, errorStatus(err), tickResponse{
			EventID:   res.EventID,
			Processed: res.Processed,
			Errors:    res.Errors,
			Remaining: res.Remaining,
			Message:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, tickResponse{
		Success:   true,
		EventID:   res.EventID,
		Processed: res.Processed,
		Errors:    res.Errors,
		Remaining: res.Remaining,
		Message:   res.Message,
	})
}

func (h *handlers) pause(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Pause(r.Context()); err != nil {
		h.log.ErrorContext(r.Context(), "pause failed", logger.Error(err))
		writeJSON(w, errorStatus(err), pauseResponse{Message: err.Error()})
		return
	}
	h.log.InfoContext(r.Context(), "notification queue paused via api")
	writeJSON(w, http.StatusOK, pauseResponse{Success: true, Paused: true})
}

func (h *handlers) resume(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Resume(r.Context()); err != nil {
		h.log.ErrorContext(r.Context(), "resume failed", logger.Error(err))
		writeJSON(w, errorStatus(err), pauseResponse{Paused: true, Message: err.Error()})
		return
	}
	h.log.InfoContext(r.Context(), "notification queue resumed via api")
	writeJSON(w, http.StatusOK, pauseResponse{Success: true})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.Status(r.Context()))
}

func errorStatus(err error) int {
	if dispatch.IsRetryable(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
