// Package session holds the per-session assessment state and its explicit
// state machine:
//
//	EMPTY → SUBMITTED → PLANNED(unsaved) → PLANNED(saved)
//
// Every transition is a method on *Assessment; callers never flip fields
// directly. Storage of the value between requests is behind Store.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
	"github.com/nyashahama/diabetes-risk-planner/internal/features"
)

// State is the derived position of an Assessment in the state machine.
type State string

const (
	StateEmpty          State = "EMPTY"
	StateSubmitted      State = "SUBMITTED"
	StatePlannedUnsaved State = "PLANNED_UNSAVED"
	StatePlannedSaved   State = "PLANNED_SAVED"
)

// ErrNoAssessment is returned when an operation needs a submitted profile but
// the session is still EMPTY.
var ErrNoAssessment = errors.New("session: no assessment submitted")

// Assessment is the state of one user session. The zero value (with an ID) is
// the EMPTY state.
type Assessment struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`

	// AssessmentID is minted on every successful submission and identifies
	// the logical assessment. It is the idempotency key of the health record.
	AssessmentID uuid.UUID `json:"assessment_id"`

	Profile   features.Profile     `json:"profile"`
	Risk      classifier.RiskLabel `json:"risk,omitempty"`
	Planned   bool                 `json:"planned"`
	Persisted bool                 `json:"persisted"`

	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an EMPTY assessment for session id.
func New(id string) *Assessment {
	return &Assessment{ID: id}
}

// State derives the current state from the fields.
func (a *Assessment) State() State {
	switch {
	case a.AssessmentID == uuid.Nil:
		return StateEmpty
	case a.Persisted:
		return StatePlannedSaved
	case a.Planned:
		return StatePlannedUnsaved
	default:
		return StateSubmitted
	}
}

// Ready returns ErrNoAssessment while the session is EMPTY.
func (a *Assessment) Ready() error {
	if a.State() == StateEmpty {
		return ErrNoAssessment
	}
	return nil
}

// Submit records a validated profile and its risk. From any state it moves to
// SUBMITTED with a fresh AssessmentID and cleared flags: a new submission is a
// new assessment even though the session is the same.
func (a *Assessment) Submit(userID string, p features.Profile, risk classifier.RiskLabel, now time.Time) {
	a.UserID = userID
	a.AssessmentID = uuid.New()
	a.Profile = p
	a.Risk = risk
	a.Planned = false
	a.Persisted = false
	a.UpdatedAt = now
}

// MarkPlanned records that a plan was requested for the current profile.
// SUBMITTED → PLANNED(unsaved); a no-op in every other state.
func (a *Assessment) MarkPlanned(now time.Time) {
	if a.State() != StateSubmitted {
		return
	}
	a.Planned = true
	a.UpdatedAt = now
}

// MarkPersisted records that the health record for the current assessment is
// durably stored. Call it only after the write is confirmed.
func (a *Assessment) MarkPersisted(now time.Time) error {
	if err := a.Ready(); err != nil {
		return err
	}
	a.Planned = true
	a.Persisted = true
	a.UpdatedAt = now
	return nil
}
