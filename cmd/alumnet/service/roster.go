package service

import (
	"context"
	"sync"
	"time"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/common/logger"
)

// RosterStore loads the institutional roster in import order.
type RosterStore interface {
	LoadAll(ctx context.Context) ([]models.RosterRecord, error)
}

// RosterIndex keeps an in-memory snapshot of the roster so match requests
// never hit the database. Reload swaps the snapshot atomically; readers
// holding an older slice finish against consistent data.
type RosterIndex struct {
	store RosterStore
	log   *logger.Logger

	mu       sync.RWMutex
	records  []models.RosterRecord
	loadedAt time.Time
}

func NewRosterIndex(store RosterStore, log *logger.Logger) *RosterIndex {
	return &RosterIndex{store: store, log: log}
}

// Reload replaces the snapshot with the current roster contents. On failure
// the previous snapshot stays in place.
func (r *RosterIndex) Reload(ctx context.Context) error {
	records, err := r.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.records = records
	r.loadedAt = time.Now()
	r.mu.Unlock()

	r.log.Info("roster snapshot reloaded", "records", len(records))
	return nil
}

// Snapshot returns the current roster slice. Callers must treat it as
// read-only; Reload never mutates a published slice.
func (r *RosterIndex) Snapshot() []models.RosterRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records
}

func (r *RosterIndex) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *RosterIndex) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}
