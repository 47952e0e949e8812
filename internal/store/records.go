package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
	"github.com/nyashahama/diabetes-risk-planner/internal/features"
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// Plan names used in HealthRecord.DegradedPlans.
const (
	PlanDiet    = "diet"
	PlanWorkout = "workout"
)

// HealthRecord is one finalized assessment with its generated plans. It is
// never mutated after creation.
type HealthRecord struct {
	ID           uuid.UUID            `json:"id"`
	UserID       string               `json:"user_id"`
	AssessmentID uuid.UUID            `json:"assessment_id"`
	Vector       features.Vector      `json:"vector"`
	Risk         classifier.RiskLabel `json:"risk"`
	DietPlan     string               `json:"diet_plan"`
	WorkoutPlan  string               `json:"workout_plan"`

	// DegradedPlans names the plans (PlanDiet, PlanWorkout) whose text is a
	// generation-failure message rather than generated content.
	DegradedPlans []string `json:"degraded_plans,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// Records is the durable record store.
type Records interface {
	// Create appends rec and returns it with ID and SubmittedAt assigned.
	// It returns ErrRecordExists when a record for rec.AssessmentID is
	// already stored.
	Create(ctx context.Context, rec HealthRecord) (HealthRecord, error)

	// ListByUser returns up to limit records for userID, most recent first.
	// A limit <= 0 returns all records.
	ListByUser(ctx context.Context, userID string, limit int) ([]HealthRecord, error)
}

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrRecordExists is returned by Create when the assessment already has a
// record. CommitOnce treats it as idempotent success.
var ErrRecordExists = errors.New("store: record already exists for assessment")

// ─── POSTGRES ─────────────────────────────────────────────────────────────────

type pgRecords struct {
	db *sqlx.DB
}

// recordRow mirrors the health_records table.
type recordRow struct {
	ID            uuid.UUID             `db:"id"`
	UserID        string                `db:"user_id"`
	AssessmentID  uuid.UUID             `db:"assessment_id"`
	Glucose       float64               `db:"glucose"`
	BloodPressure float64               `db:"blood_pressure"`
	Insulin       float64               `db:"insulin"`
	BMI           float64               `db:"bmi"`
	DPF           float64               `db:"dpf"`
	Age           int                   `db:"age"`
	Prediction    string                `db:"prediction"`
	DietPlan      string                `db:"diet_plan"`
	WorkoutPlan   string                `db:"workout_plan"`
	DegradedPlans pqtype.NullRawMessage `db:"degraded_plans"`
	SubmittedAt   time.Time             `db:"submitted_at"`
}

const insertRecord = `
INSERT INTO health_records (
    id, user_id, assessment_id,
    glucose, blood_pressure, insulin, bmi, dpf, age,
    prediction, diet_plan, workout_plan, degraded_plans
) VALUES (
    :id, :user_id, :assessment_id,
    :glucose, :blood_pressure, :insulin, :bmi, :dpf, :age,
    :prediction, :diet_plan, :workout_plan, :degraded_plans
)
ON CONFLICT (assessment_id) DO NOTHING
RETURNING submitted_at`

func (r *pgRecords) Create(ctx context.Context, rec HealthRecord) (HealthRecord, error) {
	rec.ID = uuid.New()
	row, err := toRow(rec)
	if err != nil {
		return HealthRecord{}, err
	}

	stmt, err := r.db.PrepareNamedContext(ctx, insertRecord)
	if err != nil {
		return HealthRecord{}, fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	var submittedAt time.Time
	err = stmt.GetContext(ctx, &submittedAt, row)
	if errors.Is(err, sql.ErrNoRows) {
		// ON CONFLICT DO NOTHING returns no row for a duplicate.
		return HealthRecord{}, ErrRecordExists
	}
	if err != nil {
		return HealthRecord{}, fmt.Errorf("store: insert record: %w", err)
	}

	rec.SubmittedAt = submittedAt
	return rec, nil
}

const selectByUser = `
SELECT id, user_id, assessment_id,
       glucose, blood_pressure, insulin, bmi, dpf, age,
       prediction, diet_plan, workout_plan, degraded_plans, submitted_at
FROM health_records
WHERE user_id = $1
ORDER BY submitted_at DESC, id
LIMIT $2`

func (r *pgRecords) ListByUser(ctx context.Context, userID string, limit int) ([]HealthRecord, error) {
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, selectByUser, userID, lim); err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}

	out := make([]HealthRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ─── MAPPING ──────────────────────────────────────────────────────────────────

func toRow(rec HealthRecord) (recordRow, error) {
	var degraded pqtype.NullRawMessage
	if len(rec.DegradedPlans) > 0 {
		raw, err := json.Marshal(rec.DegradedPlans)
		if err != nil {
			return recordRow{}, fmt.Errorf("store: encode degraded plans: %w", err)
		}
		degraded = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	return recordRow{
		ID:            rec.ID,
		UserID:        rec.UserID,
		AssessmentID:  rec.AssessmentID,
		Glucose:       rec.Vector.Glucose,
		BloodPressure: rec.Vector.BloodPressure,
		Insulin:       rec.Vector.Insulin,
		BMI:           rec.Vector.BMI,
		DPF:           rec.Vector.DPF,
		Age:           rec.Vector.Age,
		Prediction:    string(rec.Risk),
		DietPlan:      rec.DietPlan,
		WorkoutPlan:   rec.WorkoutPlan,
		DegradedPlans: degraded,
	}, nil
}

func fromRow(row recordRow) (HealthRecord, error) {
	var degraded []string
	if row.DegradedPlans.Valid {
		if err := json.Unmarshal(row.DegradedPlans.RawMessage, &degraded); err != nil {
			return HealthRecord{}, fmt.Errorf("store: decode degraded plans: %w", err)
		}
	}

	risk := classifier.RiskLabel(row.Prediction)
	if !risk.Valid() {
		return HealthRecord{}, fmt.Errorf("store: record %s: unknown prediction %q", row.ID, row.Prediction)
	}

	return HealthRecord{
		ID:           row.ID,
		UserID:       row.UserID,
		AssessmentID: row.AssessmentID,
		Vector: features.Vector{
			Glucose:       row.Glucose,
			BloodPressure: row.BloodPressure,
			Insulin:       row.Insulin,
			BMI:           row.BMI,
			DPF:           row.DPF,
			Age:           row.Age,
		},
		Risk:          risk,
		DietPlan:      row.DietPlan,
		WorkoutPlan:   row.WorkoutPlan,
		DegradedPlans: degraded,
		SubmittedAt:   row.SubmittedAt,
	}, nil
}
