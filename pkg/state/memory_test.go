package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/rollwatch/pkg/types"
)

func newTask(id, app string) *types.Task {
	return &types.Task{
		ID:      id,
		App:     app,
		Author:  "ci",
		Project: "default",
		Images:  []types.Image{{Image: "example", Tag: "latest"}},
	}
}

// fakeClock lets tests advance time without sleeping
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestStore(ttlSeconds int) (*InMemoryStore, *fakeClock) {
	clock := &fakeClock{current: time.Unix(1700000000, 0)}
	store := NewInMemoryStore(ttlSeconds)
	store.now = clock.now
	return store, clock
}

func TestInMemorySetAndGetStatus(t *testing.T) {
	store, _ := newTestStore(3600)

	task := newTask("id-1", "test_app")
	require.NoError(t, store.SetCurrentTask(task, types.StatusInProgress))

	status, err := store.GetTaskStatus("id-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, status)
	assert.NotZero(t, task.Created)
}

func TestInMemoryUnknownIDReturnsSentinel(t *testing.T) {
	store, _ := newTestStore(3600)

	status, err := store.GetTaskStatus("never-seen")
	require.NoError(t, err)
	assert.Equal(t, types.StatusTaskNotFound, status)
}

func TestInMemoryUpdateTask(t *testing.T) {
	store, clock := newTestStore(3600)

	task := newTask("id-1", "test_app")
	require.NoError(t, store.SetCurrentTask(task, types.StatusInProgress))

	clock.advance(10 * time.Second)
	require.NoError(t, store.UpdateTask("id-1", types.StatusDeployed, ""))

	status, err := store.GetTaskStatus("id-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusDeployed, status)

	tasks, err := store.GetState(0, 0, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.GreaterOrEqual(t, tasks[0].Updated, tasks[0].Created)
}

func TestInMemoryUpdateMissingIDIsNoop(t *testing.T) {
	store, _ := newTestStore(3600)
	assert.NoError(t, store.UpdateTask("ghost", types.StatusFailed, "whatever"))
}

func TestInMemoryTTLEviction(t *testing.T) {
	store, clock := newTestStore(1)

	require.NoError(t, store.SetCurrentTask(newTask("id-1", "test_app"), types.StatusInProgress))

	clock.advance(2 * time.Second)

	status, err := store.GetTaskStatus("id-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusTaskNotFound, status)

	tasks, err := store.GetState(0, 0, "")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	apps, err := store.GetAppList()
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestInMemoryCapEviction(t *testing.T) {
	store, clock := newTestStore(3600)

	for i := 0; i < defaultMaxEntries+1; i++ {
		task := newTask(fmt.Sprintf("id-%d", i), "test_app")
		require.NoError(t, store.SetCurrentTask(task, types.StatusInProgress))
		clock.advance(time.Second)
	}

	// the oldest entry is gone, the newest survives
	status, err := store.GetTaskStatus("id-0")
	require.NoError(t, err)
	assert.Equal(t, types.StatusTaskNotFound, status)

	status, err = store.GetTaskStatus(fmt.Sprintf("id-%d", defaultMaxEntries))
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, status)

	tasks, err := store.GetState(0, 0, "")
	require.NoError(t, err)
	assert.Len(t, tasks, defaultMaxEntries)
}

func TestInMemoryGetStateFilters(t *testing.T) {
	store, clock := newTestStore(3600)

	require.NoError(t, store.SetCurrentTask(newTask("id-1", "test_app"), types.StatusInProgress))
	clock.advance(time.Minute)
	require.NoError(t, store.SetCurrentTask(newTask("id-2", "test_app"), types.StatusInProgress))
	clock.advance(time.Minute)
	require.NoError(t, store.SetCurrentTask(newTask("id-3", "example"), types.StatusInProgress))

	all, err := store.GetState(0, 0, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// time window excluding the first task
	second := all[1].Created

	window, err := store.GetState(second, 0, "")
	require.NoError(t, err)
	assert.Len(t, window, 2)

	// app filter
	filtered, err := store.GetState(0, 0, "example")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "example", filtered[0].App)

	// upper bound excludes later tasks
	bounded, err := store.GetState(0, second, "")
	require.NoError(t, err)
	assert.Len(t, bounded, 2)
}

func TestInMemoryGetAppList(t *testing.T) {
	store, _ := newTestStore(3600)

	require.NoError(t, store.SetCurrentTask(newTask("id-1", "test_app"), types.StatusInProgress))
	require.NoError(t, store.SetCurrentTask(newTask("id-2", "test_app"), types.StatusInProgress))
	require.NoError(t, store.SetCurrentTask(newTask("id-3", "example"), types.StatusInProgress))

	apps, err := store.GetAppList()
	require.NoError(t, err)
	assert.Equal(t, []string{"example", "test_app"}, apps)
}

func TestInMemoryCheckAlwaysPasses(t *testing.T) {
	store, _ := newTestStore(3600)
	assert.NoError(t, store.Check())
	assert.NoError(t, store.Close())
}
