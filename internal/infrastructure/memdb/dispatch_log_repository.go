// Package memdb keeps the dispatch log in process memory when no database is configured.
package memdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

const dispatchLogTable = "dispatch_log"

type dispatchLogRow struct {
	ID           string
	SubmissionID string
	Role         string
	Results      []domain.DispatchResult
	CreatedAt    int64
	ExpiresAt    int64
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			dispatchLogTable: {
				Name: dispatchLogTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"created": {
						Name:    "created",
						Unique:  false,
						Indexer: &memdb.IntFieldIndex{Field: "CreatedAt"},
					},
					"expiry": {
						Name:    "expiry",
						Unique:  false,
						Indexer: &memdb.IntFieldIndex{Field: "ExpiresAt"},
					},
				},
			},
		},
	}
}

// DispatchLogRepository implements application.DispatchLogRepository on go-memdb.
// Entries expire after the configured TTL; StartCleanup removes them.
type DispatchLogRepository struct {
	db     *memdb.MemDB
	ttl    time.Duration
	clock  clockwork.Clock
	logger zerolog.Logger

	cleanupOnce sync.Once
}

// NewDispatchLogRepository creates an empty in-memory dispatch log. A nil clock
// means wall time.
func NewDispatchLogRepository(ttl time.Duration, clock clockwork.Clock, logger zerolog.Logger) (*DispatchLogRepository, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create dispatch log table: %w", err)
	}
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DispatchLogRepository{
		db:     db,
		ttl:    ttl,
		clock:  clock,
		logger: logger.With().Str("component", "memdb_dispatch_log").Logger(),
	}, nil
}

// Append stores entry until its TTL passes.
func (r *DispatchLogRepository) Append(_ context.Context, entry domain.DispatchLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.clock.Now()
	}
	row := &dispatchLogRow{
		ID:           uuid.NewString(),
		SubmissionID: entry.SubmissionID,
		Role:         entry.Role.String(),
		Results:      append([]domain.DispatchResult(nil), entry.Results...),
		CreatedAt:    createdAt.UnixNano(),
		ExpiresAt:    createdAt.Add(r.ttl).UnixNano(),
	}

	txn := r.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(dispatchLogTable, row); err != nil {
		return fmt.Errorf("insert dispatch log: %w", err)
	}
	txn.Commit()
	return nil
}

// Recent returns up to limit unexpired entries, newest first.
func (r *DispatchLogRepository) Recent(_ context.Context, limit int) ([]domain.DispatchLogEntry, error) {
	now := r.clock.Now().UnixNano()
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.GetReverse(dispatchLogTable, "created")
	if err != nil {
		return nil, fmt.Errorf("scan dispatch log: %w", err)
	}
	entries := make([]domain.DispatchLogEntry, 0)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if limit > 0 && len(entries) >= limit {
			break
		}
		row := obj.(*dispatchLogRow)
		if row.ExpiresAt <= now {
			continue
		}
		entries = append(entries, domain.DispatchLogEntry{
			SubmissionID: row.SubmissionID,
			Role:         domain.Role(row.Role),
			Results:      append([]domain.DispatchResult(nil), row.Results...),
			CreatedAt:    time.Unix(0, row.CreatedAt).UTC(),
		})
	}
	return entries, nil
}

// Ping always succeeds; it lets the health check treat every sink alike.
func (r *DispatchLogRepository) Ping(context.Context) error {
	return nil
}
