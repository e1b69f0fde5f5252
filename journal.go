package sagakit

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Status is the lifecycle state of a saga execution.
type Status string

const (
	StatusPending      Status = "pending"
	StatusRunning      Status = "running"
	StatusSucceeded    Status = "succeeded"
	StatusCompensating Status = "compensating"
	StatusCompensated  Status = "compensated"
)

// StepState is the lifecycle state of a single step within a run.
type StepState string

const (
	StepStateCompleted StepState = "completed"
	StepStateFailed    StepState = "failed"
	StepStateUndone    StepState = "undone"
	StepStateUndoError StepState = "undo_error"
)

// StepRecord describes one step's outcome within a saga run.
type StepRecord struct {
	Name      string
	State     StepState
	Error     string
	StartedAt time.Time
	EndedAt   time.Time
}

// SagaRecord is the journal entry for one saga execution.
// It exists for audit and debugging; the journal is in-memory only and the
// record does not survive the process.
type SagaRecord struct {
	ID        string
	Name      string
	Status    Status
	Steps     []StepRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Journal records saga execution progress.
type Journal interface {
	// Record upserts the record for a run.
	Record(ctx context.Context, record SagaRecord) error

	// Load retrieves a run's record by ID.
	Load(ctx context.Context, id string) (*SagaRecord, error)

	// Delete removes a run's record.
	Delete(ctx context.Context, id string) error
}

// MemoryJournal is an in-memory Journal.
type MemoryJournal struct {
	records *xsync.MapOf[string, SagaRecord]
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{records: xsync.NewMapOf[string, SagaRecord]()}
}

// Record stores a copy of the record, stamping UpdatedAt.
func (j *MemoryJournal) Record(_ context.Context, record SagaRecord) error {
	record.UpdatedAt = time.Now()
	record.Steps = append([]StepRecord(nil), record.Steps...)
	j.records.Store(record.ID, record)
	return nil
}

// Load retrieves a record by run ID.
func (j *MemoryJournal) Load(_ context.Context, id string) (*SagaRecord, error) {
	record, ok := j.records.Load(id)
	if !ok {
		return nil, Errorf(KindNotFound, "saga %s not found", id)
	}
	record.Steps = append([]StepRecord(nil), record.Steps...)
	return &record, nil
}

// Delete removes a record. Deleting an absent record is not an error.
func (j *MemoryJournal) Delete(_ context.Context, id string) error {
	j.records.Delete(id)
	return nil
}
