package state

import (
	"fmt"

	"github.com/cuemby/rollwatch/pkg/config"
	"github.com/cuemby/rollwatch/pkg/types"
)

// Store defines the interface for task state storage.
//
// Two implementations exist: an in-memory store with bounded, TTL-based
// retention for single-replica deployments, and a postgres-backed store
// that keeps full history. Both honour the same query semantics: an
// unknown or expired task id reads back as types.StatusTaskNotFound.
type Store interface {
	// SetCurrentTask stamps created=now, sets the status and inserts the task
	SetCurrentTask(task *types.Task, status types.TaskStatus) error

	// GetTaskStatus returns the stored status, or StatusTaskNotFound for
	// an unknown or expired id
	GetTaskStatus(id string) (types.TaskStatus, error)

	// UpdateTask stamps updated=now and overwrites status and reason
	UpdateTask(id string, status types.TaskStatus, reason string) error

	// GetState returns tasks whose created timestamp lies in [from, to],
	// both seconds since epoch. A zero to means "now". A non-empty app
	// filters by exact app name.
	GetState(from, to float64, app string) ([]types.Task, error)

	// GetAppList returns the distinct app names currently retained
	GetAppList() ([]string, error)

	// Check reports whether the backing store is reachable
	Check() error

	// Close releases backing resources
	Close() error
}

// New creates the store variant selected by STATE_TYPE
func New(cfg *config.Config) (Store, error) {
	switch cfg.StateType {
	case config.StateTypeInMemory:
		return NewInMemoryStore(cfg.HistoryTTL), nil
	case config.StateTypePostgres:
		return NewPostgresStore(cfg.DSN())
	}
	return nil, fmt.Errorf("unexpected state type: %s", cfg.StateType)
}
