package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nyashahama/diabetes-risk-planner/internal/ai"
	"github.com/nyashahama/diabetes-risk-planner/internal/prompts"
	"github.com/nyashahama/diabetes-risk-planner/internal/render"
	"github.com/nyashahama/diabetes-risk-planner/internal/session"
	"github.com/nyashahama/diabetes-risk-planner/internal/store"
)

// PlanResponse is what a plan page shows. Plan is always set; a failed
// generation is carried as a failed ai.Result, never as an error.
type PlanResponse struct {
	Kind     string    `json:"kind"`
	Plan     ai.Result `json:"plan"`
	PlanHTML string    `json:"plan_html"`

	// Chat is the answer to the optional follow-up question.
	Chat     *ai.Result `json:"chat,omitempty"`
	ChatHTML string     `json:"chat_html,omitempty"`

	// Saved reports whether the assessment has its health record.
	// RecordID is set only on the request that created it.
	Saved    bool       `json:"saved"`
	RecordID *uuid.UUID `json:"record_id,omitempty"`
}

// GetDietPlan generates the diet plan for the session's assessment and, the
// first time, commits the health record together with a workout plan.
//
// Every call generates fresh text. Only the first successful commit per
// assessment writes a record; later calls in PLANNED(saved) never do. When the
// write fails the plan is still returned, alongside an error wrapping
// store.ErrPersistence, and the session stays unsaved so a retry can commit.
// A request whose ctx is done once generation returns commits nothing: its
// plans may be cancellation messages rather than generated text.
func (s *Service) GetDietPlan(ctx context.Context, sessionID, chatQuery string) (PlanResponse, error) {
	unlock, err := s.locks.lock(ctx, sessionID)
	if err != nil {
		return PlanResponse{}, fmt.Errorf("planner: wait for session: %w", err)
	}
	defer unlock()

	a, err := s.loadReady(ctx, sessionID)
	if err != nil {
		return PlanResponse{}, err
	}
	a.MarkPlanned(s.now())

	needRecord := !a.Persisted

	var diet, workout ai.Result
	var chat *ai.Result

	var g errgroup.Group
	g.Go(func() error {
		diet = s.gateway.Generate(ctx, prompts.Diet(a.Profile, a.Risk))
		return nil
	})
	if needRecord {
		g.Go(func() error {
			workout = s.gateway.Generate(ctx, prompts.Workout(a.Profile, a.Risk))
			return nil
		})
	}
	if q := strings.TrimSpace(chatQuery); q != "" {
		g.Go(func() error {
			res := s.gateway.Generate(ctx, prompts.Chat(q))
			chat = &res
			return nil
		})
	}
	_ = g.Wait() // the gateway never fails

	resp := newPlanResponse("diet", diet, chat)

	var commitErr error
	if needRecord && ctx.Err() != nil {
		commitErr = fmt.Errorf("planner: commit skipped: %w", ctx.Err())
		s.logger.Warn("health record commit skipped",
			"session_id", sessionID,
			"assessment_id", a.AssessmentID,
			"error", ctx.Err(),
		)
	} else if needRecord {
		rec, created, err := store.CommitOnce(ctx, s.records, a, store.PlanDraft{
			DietPlan:      diet.Display(),
			WorkoutPlan:   workout.Display(),
			DegradedPlans: degraded(diet, workout),
		}, s.now())
		switch {
		case err != nil:
			commitErr = err
			s.logger.Error("health record commit failed",
				"session_id", sessionID,
				"assessment_id", a.AssessmentID,
				"error", err,
			)
		case created:
			resp.RecordID = &rec.ID
			s.logger.Info("health record created",
				"session_id", sessionID,
				"assessment_id", a.AssessmentID,
				"record_id", rec.ID,
			)
		}
	}
	resp.Saved = a.Persisted

	if err := s.saveSession(ctx, a); err != nil {
		// The record, if written, is protected by its assessment id; the
		// next request will see ErrRecordExists instead of duplicating it.
		return resp, err
	}

	return resp, commitErr
}

// GetWorkoutPlan generates the workout plan for the session's assessment. It
// never writes a health record.
func (s *Service) GetWorkoutPlan(ctx context.Context, sessionID, chatQuery string) (PlanResponse, error) {
	unlock, err := s.locks.lock(ctx, sessionID)
	if err != nil {
		return PlanResponse{}, fmt.Errorf("planner: wait for session: %w", err)
	}
	defer unlock()

	a, err := s.loadReady(ctx, sessionID)
	if err != nil {
		return PlanResponse{}, err
	}
	a.MarkPlanned(s.now())

	var workout ai.Result
	var chat *ai.Result

	var g errgroup.Group
	g.Go(func() error {
		workout = s.gateway.Generate(ctx, prompts.Workout(a.Profile, a.Risk))
		return nil
	})
	if q := strings.TrimSpace(chatQuery); q != "" {
		g.Go(func() error {
			res := s.gateway.Generate(ctx, prompts.Chat(q))
			chat = &res
			return nil
		})
	}
	_ = g.Wait()

	resp := newPlanResponse("workout", workout, chat)
	resp.Saved = a.Persisted

	if err := s.saveSession(ctx, a); err != nil {
		return resp, err
	}
	return resp, nil
}

// saveSession stores a after a plan was generated. It runs even when ctx is
// done so the planned state is not lost, and a failure wraps
// store.ErrPersistence: the generated plan is still worth returning.
func (s *Service) saveSession(ctx context.Context, a *session.Assessment) error {
	if err := s.sessions.Save(context.WithoutCancel(ctx), a); err != nil {
		return fmt.Errorf("planner: save session: %w: %w", store.ErrPersistence, err)
	}
	return nil
}

// loadReady loads the session and rejects an EMPTY one.
func (s *Service) loadReady(ctx context.Context, sessionID string) (*session.Assessment, error) {
	a, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("planner: load session: %w", err)
	}
	if err := a.Ready(); err != nil {
		return nil, err
	}
	return a, nil
}

func newPlanResponse(kind string, plan ai.Result, chat *ai.Result) PlanResponse {
	resp := PlanResponse{
		Kind:     kind,
		Plan:     plan,
		PlanHTML: render.Result(plan),
		Chat:     chat,
	}
	if chat != nil {
		resp.ChatHTML = render.Result(*chat)
	}
	return resp
}

// degraded names the plans whose text is a failure message.
func degraded(diet, workout ai.Result) []string {
	var out []string
	if !diet.OK {
		out = append(out, store.PlanDiet)
	}
	if !workout.OK {
		out = append(out, store.PlanWorkout)
	}
	return out
}
