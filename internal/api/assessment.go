package api

import (
	"net/http"
	"strconv"

	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
)

// ─── POST /api/assessment ─────────────────────────────────────────────────────

type submitAssessmentResponse struct {
	SessionID string               `json:"session_id"`
	Risk      classifier.RiskLabel `json:"risk"`
	RiskText  string               `json:"risk_text"`
}

// handleSubmitAssessment classifies the submitted health details and starts a
// new assessment in the session. The body is a flat object with name, gender,
// glucose, blood_pressure, insulin, bmi, dpf and age, as JSON or as a form.
//
// Invalid input returns 422 listing every rejected field; the session keeps
// whatever assessment it had before.
func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeFields(w, r)
	if !ok {
		return
	}

	risk, err := s.planner.SubmitAssessment(r.Context(), sessionID(r), userID(r), raw)
	if err != nil {
		s.respondPlannerErr(w, r, err, nil)
		return
	}

	respond(w, http.StatusOK, submitAssessmentResponse{
		SessionID: w.Header().Get(SessionHeader),
		Risk:      risk,
		RiskText:  risk.Text(),
	})
}

// ─── GET /api/dashboard ───────────────────────────────────────────────────────

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.planner.Dashboard(r.Context(), sessionID(r))
	if err != nil {
		s.respondPlannerErr(w, r, err, nil)
		return
	}
	respond(w, http.StatusOK, view)
}

// ─── DELETE /api/session ──────────────────────────────────────────────────────

// handleEndSession discards the session's assessment. Saved health records
// stay in the history.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.EndSession(r.Context(), sessionID(r)); err != nil {
		s.respondPlannerErr(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── GET /api/progress ────────────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.planner.Progress(r.Context(), sessionID(r))
	if err != nil {
		s.respondPlannerErr(w, r, err, nil)
		return
	}
	respond(w, http.StatusOK, view)
}

// ─── GET /api/history?limit= ──────────────────────────────────────────────────

// maxHistory caps a single history page.
const maxHistory = 100

// handleHistory lists the caller's saved health records, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := maxHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondErr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}

	view, err := s.planner.History(r.Context(), userID(r), limit)
	if err != nil {
		s.respondPlannerErr(w, r, err, nil)
		return
	}
	respond(w, http.StatusOK, view)
}
