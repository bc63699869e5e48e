package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// SimulationStore persists simulation runs.
type SimulationStore interface {
	Insert(ctx context.Context, rec SimulationRecord) error
	GetByID(ctx context.Context, id string) (SimulationRecord, error)
	List(ctx context.Context, venue string, opts ListOpts) ([]SimulationRecord, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]SimulationRecord, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
