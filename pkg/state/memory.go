package state

import (
	"sort"
	"sync"
	"time"

	"github.com/cuemby/rollwatch/pkg/types"
)

// defaultMaxEntries bounds the in-memory task map. Oldest tasks are
// dropped first once the cap is exceeded.
const defaultMaxEntries = 100

// InMemoryStore keeps tasks in a bounded map with TTL-based eviction.
// Safe for one writer (the watcher) and many readers (the API). Suitable
// for single-replica deployments only; history does not survive restarts.
type InMemoryStore struct {
	mu         sync.RWMutex
	tasks      map[string]*types.Task
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewInMemoryStore creates an in-memory store with the given retention in
// seconds
func NewInMemoryStore(historyTTL int) *InMemoryStore {
	return &InMemoryStore{
		tasks:      make(map[string]*types.Task),
		ttl:        time.Duration(historyTTL) * time.Second,
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
}

// SetCurrentTask stores the task with created=now. Ids are server-assigned
// UUIDs, so a re-insert of an existing id is not reachable through the
// API; the store overwrites if it ever happens.
func (s *InMemoryStore) SetCurrentTask(task *types.Task, status types.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.Status = status
	task.Created = float64(s.now().UnixNano()) / float64(time.Second)

	s.tasks[task.ID] = task
	s.evictLocked()

	return nil
}

// GetTaskStatus returns the stored status or the not-found sentinel
func (s *InMemoryStore) GetTaskStatus(id string) (types.TaskStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()

	task, ok := s.tasks[id]
	if !ok {
		return types.StatusTaskNotFound, nil
	}
	return task.Status, nil
}

// UpdateTask overwrites the status and stamps updated=now. Updating an
// id that has already been evicted is a silent no-op.
func (s *InMemoryStore) UpdateTask(id string, status types.TaskStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()

	task, ok := s.tasks[id]
	if !ok {
		return nil
	}

	task.Status = status
	task.StatusReason = reason
	task.Updated = float64(s.now().UnixNano()) / float64(time.Second)

	return nil
}

// GetState returns retained tasks created within [from, to], optionally
// filtered by app. A zero to means "now". Results are ordered by creation
// time.
func (s *InMemoryStore) GetState(from, to float64, app string) ([]types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()

	if to == 0 {
		to = float64(s.now().UnixNano()) / float64(time.Second)
	}

	tasks := []types.Task{}
	for _, task := range s.tasks {
		if task.Created < from || task.Created > to {
			continue
		}
		if app != "" && task.App != app {
			continue
		}
		tasks = append(tasks, *task)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Created < tasks[j].Created
	})

	return tasks, nil
}

// GetAppList returns the distinct app names currently retained, sorted
func (s *InMemoryStore) GetAppList() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()

	seen := make(map[string]struct{})
	for _, task := range s.tasks {
		seen[task.App] = struct{}{}
	}

	apps := make([]string, 0, len(seen))
	for app := range seen {
		apps = append(apps, app)
	}
	sort.Strings(apps)

	return apps, nil
}

// Check always succeeds; there is no backing service to probe
func (s *InMemoryStore) Check() error {
	return nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryStore) Close() error {
	return nil
}

// evictLocked applies both eviction rules under the held lock: entries
// older than the TTL disappear, and once the map exceeds the cap the
// oldest entries by creation time are dropped.
func (s *InMemoryStore) evictLocked() {
	now := float64(s.now().UnixNano()) / float64(time.Second)
	cutoff := now - s.ttl.Seconds()

	for id, task := range s.tasks {
		if task.Created < cutoff {
			delete(s.tasks, id)
		}
	}

	if len(s.tasks) <= s.maxEntries {
		return
	}

	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.tasks[ids[i]].Created < s.tasks[ids[j]].Created
	})

	for _, id := range ids[:len(s.tasks)-s.maxEntries] {
		delete(s.tasks, id)
	}
}
