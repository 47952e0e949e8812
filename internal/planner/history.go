package planner

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
	"github.com/nyashahama/diabetes-risk-planner/internal/store"
)

// ─── PROGRESS ─────────────────────────────────────────────────────────────────

// Metric is one reading next to its reference value.
type Metric struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Normal float64 `json:"normal"`
}

// ProgressView compares the current submission with reference values.
type ProgressView struct {
	Metrics []Metric `json:"metrics"`
}

// normalValues are the reference readings shown on the progress chart, in
// feature order.
var normalValues = []Metric{
	{Name: "Glucose", Normal: 100},
	{Name: "BloodPressure", Normal: 80},
	{Name: "Insulin", Normal: 85},
	{Name: "BMI", Normal: 22.5},
	{Name: "DPF", Normal: 0.5},
	{Name: "Age", Normal: 30},
}

// Progress returns the session's readings beside the reference values. It
// returns session.ErrNoAssessment until a valid submission exists.
func (s *Service) Progress(ctx context.Context, sessionID string) (ProgressView, error) {
	a, err := s.loadReady(ctx, sessionID)
	if err != nil {
		return ProgressView{}, err
	}

	values := a.Profile.Vector.Slice()
	metrics := make([]Metric, len(normalValues))
	for i, m := range normalValues {
		m.Value = values[i]
		metrics[i] = m
	}
	return ProgressView{Metrics: metrics}, nil
}

// ─── HISTORY ──────────────────────────────────────────────────────────────────

// Summary aggregates a user's records.
type Summary struct {
	Count         int     `json:"count"`
	HighRiskCount int     `json:"high_risk_count"`
	MeanGlucose   float64 `json:"mean_glucose"`
	MedianGlucose float64 `json:"median_glucose"`
	MeanBMI       float64 `json:"mean_bmi"`
	MedianBMI     float64 `json:"median_bmi"`
}

// HistoryView is a user's records, most recent first, with a summary.
type HistoryView struct {
	Records []store.HealthRecord `json:"records"`
	Summary Summary              `json:"summary"`
}

// History lists the user's records. A limit <= 0 returns all of them.
func (s *Service) History(ctx context.Context, userID string, limit int) (HistoryView, error) {
	recs, err := s.records.ListByUser(ctx, userID, limit)
	if err != nil {
		return HistoryView{}, fmt.Errorf("planner: list records: %w", err)
	}
	if recs == nil {
		recs = []store.HealthRecord{}
	}

	sum, err := summarize(recs)
	if err != nil {
		return HistoryView{}, fmt.Errorf("planner: summarize records: %w", err)
	}
	return HistoryView{Records: recs, Summary: sum}, nil
}

func summarize(recs []store.HealthRecord) (Summary, error) {
	sum := Summary{Count: len(recs)}
	if len(recs) == 0 {
		return sum, nil
	}

	glucose := make(stats.Float64Data, 0, len(recs))
	bmi := make(stats.Float64Data, 0, len(recs))
	for _, r := range recs {
		if r.Risk == classifier.HighRisk {
			sum.HighRiskCount++
		}
		glucose = append(glucose, r.Vector.Glucose)
		bmi = append(bmi, r.Vector.BMI)
	}

	var err error
	if sum.MeanGlucose, err = glucose.Mean(); err != nil {
		return Summary{}, err
	}
	if sum.MedianGlucose, err = glucose.Median(); err != nil {
		return Summary{}, err
	}
	if sum.MeanBMI, err = bmi.Mean(); err != nil {
		return Summary{}, err
	}
	if sum.MedianBMI, err = bmi.Median(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
