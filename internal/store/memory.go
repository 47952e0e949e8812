package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRecords is an in-process Records used when no DATABASE_URL is
// configured and in tests. It applies the same assessment uniqueness rule as
// the Postgres table.
type MemoryRecords struct {
	mu      sync.Mutex
	now     func() time.Time
	last    time.Time
	records []HealthRecord
	byAsmt  map[uuid.UUID]struct{}
}

// NewMemoryRecords returns an empty MemoryRecords.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{
		now:    time.Now,
		byAsmt: make(map[uuid.UUID]struct{}),
	}
}

func (m *MemoryRecords) Create(_ context.Context, rec HealthRecord) (HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.byAsmt[rec.AssessmentID]; dup {
		return HealthRecord{}, ErrRecordExists
	}

	// Timestamps are strictly increasing so newest-first ordering is stable
	// even when the clock does not advance between two writes.
	ts := m.now().UTC()
	if !ts.After(m.last) {
		ts = m.last.Add(time.Microsecond)
	}
	m.last = ts

	rec.ID = uuid.New()
	rec.SubmittedAt = ts
	rec.DegradedPlans = append([]string(nil), rec.DegradedPlans...)

	m.records = append(m.records, rec)
	m.byAsmt[rec.AssessmentID] = struct{}{}
	return rec, nil
}

func (m *MemoryRecords) ListByUser(_ context.Context, userID string, limit int) ([]HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []HealthRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the total number of stored records.
func (m *MemoryRecords) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
