package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nyashahama/diabetes-risk-planner/internal/session"
)

// ErrPersistence wraps any failure to write a record. The session is left
// unsaved so the caller can retry.
var ErrPersistence = errors.New("store: persistence failed")

// PlanDraft is the generated content of a record about to be committed.
type PlanDraft struct {
	DietPlan      string
	WorkoutPlan   string
	DegradedPlans []string
}

// CommitOnce writes the health record for the session's current assessment
// unless it is already persisted.
//
// The flag is set only after the write is confirmed:
//
//  1. PLANNED(saved) → no-op, returns (zero, false, nil).
//  2. Write succeeds → a is marked persisted, returns (record, true, nil).
//  3. Write hits the assessment uniqueness guard (another request or process
//     already stored it) → a is marked persisted, returns (zero, false, nil).
//  4. Any other failure → a is untouched, returns an error wrapping
//     ErrPersistence.
//
// The caller must save a back to its session.Store afterwards. If that save
// is lost, the next call lands in case 3 instead of writing a duplicate.
func CommitOnce(ctx context.Context, recs Records, a *session.Assessment, draft PlanDraft, now time.Time) (HealthRecord, bool, error) {
	if err := a.Ready(); err != nil {
		return HealthRecord{}, false, err
	}
	if a.Persisted {
		return HealthRecord{}, false, nil
	}

	rec, err := recs.Create(ctx, HealthRecord{
		UserID:        a.UserID,
		AssessmentID:  a.AssessmentID,
		Vector:        a.Profile.Vector,
		Risk:          a.Risk,
		DietPlan:      draft.DietPlan,
		WorkoutPlan:   draft.WorkoutPlan,
		DegradedPlans: draft.DegradedPlans,
	})
	switch {
	case errors.Is(err, ErrRecordExists):
		if mErr := a.MarkPersisted(now); mErr != nil {
			return HealthRecord{}, false, mErr
		}
		return HealthRecord{}, false, nil
	case err != nil:
		return HealthRecord{}, false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := a.MarkPersisted(now); err != nil {
		return HealthRecord{}, false, err
	}
	return rec, true, nil
}
