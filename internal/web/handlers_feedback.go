package web

import (
	"encoding/json"
	"net/http"

	"github.com/oscehub/oscehub/internal/feedback"
	"github.com/oscehub/oscehub/internal/model"
)

// handleSubmitFeedback stores one feedback entry.
func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var sub feedback.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeBadRequest(w, "invalid feedback: "+err.Error())
		return
	}

	entry, err := s.feedback.Submit(r.Context(), sub)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleListFeedback lists feedback entries, optionally filtered by the
// stationId query parameter.
func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := s.feedback.List(r.Context(), r.URL.Query().Get("stationId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*model.Feedback{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleFeedbackAnalytics returns rating analytics, optionally scoped to
// one station via the stationId query parameter.
func (s *Server) handleFeedbackAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.feedback.Analyze(r.Context(), r.URL.Query().Get("stationId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
