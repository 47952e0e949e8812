// Package planner is the assessment-and-plan pipeline. It is the only package
// that drives the session state machine: the HTTP layer calls Service methods
// and never touches session, store or ai directly.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nyashahama/diabetes-risk-planner/internal/ai"
	"github.com/nyashahama/diabetes-risk-planner/internal/catalog"
	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
	"github.com/nyashahama/diabetes-risk-planner/internal/features"
	"github.com/nyashahama/diabetes-risk-planner/internal/session"
	"github.com/nyashahama/diabetes-risk-planner/internal/store"
)

// Gateway is the failure-isolating generation boundary. *ai.Gateway
// satisfies it.
type Gateway interface {
	Generate(ctx context.Context, prompt string) ai.Result
}

// Service holds the dependencies of the pipeline. Each operation lives in its
// own file and uses only the fields it needs.
type Service struct {
	model    classifier.Predictor
	gateway  Gateway
	sessions session.Store
	records  store.Records
	catalog  *catalog.Catalog
	locks    *sessionLocks
	now      func() time.Time
	logger   *slog.Logger
}

// Deps groups the collaborators passed to New.
type Deps struct {
	Model    classifier.Predictor
	Gateway  Gateway
	Sessions session.Store
	Records  store.Records
	Catalog  *catalog.Catalog
	Logger   *slog.Logger
}

// New constructs a Service. Every dependency is required.
func New(d Deps) (*Service, error) {
	switch {
	case d.Model == nil:
		return nil, fmt.Errorf("planner: model is required")
	case d.Gateway == nil:
		return nil, fmt.Errorf("planner: gateway is required")
	case d.Sessions == nil:
		return nil, fmt.Errorf("planner: session store is required")
	case d.Records == nil:
		return nil, fmt.Errorf("planner: record store is required")
	case d.Catalog == nil:
		return nil, fmt.Errorf("planner: catalog is required")
	case d.Logger == nil:
		return nil, fmt.Errorf("planner: logger is required")
	}

	return &Service{
		model:    d.Model,
		gateway:  d.Gateway,
		sessions: d.Sessions,
		records:  d.Records,
		catalog:  d.Catalog,
		locks:    newSessionLocks(),
		now:      time.Now,
		logger:   d.Logger,
	}, nil
}

// ─── ASSESSMENT ───────────────────────────────────────────────────────────────

// SubmitAssessment validates raw, classifies it and stores the result in the
// session. Invalid input returns the features validation error and leaves the
// session untouched. A valid submission always starts a new assessment, even
// from PLANNED(saved).
func (s *Service) SubmitAssessment(ctx context.Context, sessionID, userID string, raw map[string]string) (classifier.RiskLabel, error) {
	profile, err := features.ParseProfile(raw)
	if err != nil {
		return "", err
	}
	risk := s.model.Predict(profile.Vector)

	unlock, err := s.locks.lock(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("planner: wait for session: %w", err)
	}
	defer unlock()

	a, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("planner: load session: %w", err)
	}

	prev := a.State()
	a.Submit(userID, profile, risk, s.now())

	if err := s.sessions.Save(ctx, a); err != nil {
		return "", fmt.Errorf("planner: save session: %w", err)
	}

	s.logger.Info("assessment submitted",
		"session_id", sessionID,
		"assessment_id", a.AssessmentID,
		"risk", risk,
		"previous_state", prev,
	)
	return risk, nil
}

// EndSession forgets the session's assessment, returning it to EMPTY. Health
// records already written are kept.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	unlock, err := s.locks.lock(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("planner: wait for session: %w", err)
	}
	defer unlock()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("planner: end session: %w", err)
	}
	s.logger.Info("session ended", "session_id", sessionID)
	return nil
}

// DashboardView is the current assessment result.
type DashboardView struct {
	State        session.State        `json:"state"`
	AssessmentID string               `json:"assessment_id"`
	Risk         classifier.RiskLabel `json:"risk"`
	RiskText     string               `json:"risk_text"`
	Profile      features.Profile     `json:"profile"`
	Saved        bool                 `json:"saved"`
}

// Dashboard returns the session's current risk. It returns
// session.ErrNoAssessment until a valid submission exists.
func (s *Service) Dashboard(ctx context.Context, sessionID string) (DashboardView, error) {
	a, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return DashboardView{}, fmt.Errorf("planner: load session: %w", err)
	}
	if err := a.Ready(); err != nil {
		return DashboardView{}, err
	}

	return DashboardView{
		State:        a.State(),
		AssessmentID: a.AssessmentID.String(),
		Risk:         a.Risk,
		RiskText:     a.Risk.Text(),
		Profile:      a.Profile,
		Saved:        a.Persisted,
	}, nil
}
