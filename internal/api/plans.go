package api

import (
	"context"
	"net/http"

	"github.com/nyashahama/diabetes-risk-planner/internal/planner"
)

// ─── GET|POST /api/plans/{diet,workout} ───────────────────────────────────────
//
// GET renders the plan. POST renders it again together with the answer to a
// follow-up question: {"query": "..."}. A failed generation is still a 200;
// the plan carries ok=false and a message to show in its place.

type chatRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleDietPlan(w http.ResponseWriter, r *http.Request) {
	s.handlePlan(w, r, s.planner.GetDietPlan)
}

func (s *Server) handleWorkoutPlan(w http.ResponseWriter, r *http.Request) {
	s.handlePlan(w, r, s.planner.GetWorkoutPlan)
}

func (s *Server) handlePlan(
	w http.ResponseWriter,
	r *http.Request,
	get func(ctx context.Context, sessionID, chatQuery string) (planner.PlanResponse, error),
) {
	query := r.URL.Query().Get("query")
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		var req chatRequest
		if !decode(w, r, &req) {
			return
		}
		query = req.Query
	}

	resp, err := get(r.Context(), sessionID(r), query)
	if err != nil {
		s.respondPlannerErr(w, r, err, resp)
		return
	}
	respond(w, http.StatusOK, resp)
}

// ─── GET /api/search/{exercise,food}?query= ───────────────────────────────────

// handleSearchExercise describes an exercise and links its demonstration
// video. An unlisted exercise has an empty video_id; it is not an error.
func (s *Server) handleSearchExercise(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, s.planner.SearchExercise(r.Context(), r.URL.Query().Get("query")))
}

// handleSearchFood describes a food's benefits and links its video.
func (s *Server) handleSearchFood(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, s.planner.SearchFood(r.Context(), r.URL.Query().Get("query")))
}
