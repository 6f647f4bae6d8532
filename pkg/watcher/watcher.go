package watcher

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/rollwatch/pkg/argocd"
	"github.com/cuemby/rollwatch/pkg/log"
	"github.com/cuemby/rollwatch/pkg/metrics"
	"github.com/cuemby/rollwatch/pkg/state"
	"github.com/cuemby/rollwatch/pkg/types"
)

// defaultPollInterval is the pause between ArgoCD polls
const defaultPollInterval = 5 * time.Second

// ArgoClient is the slice of the ArgoCD client the watcher depends on
type ArgoClient interface {
	Refresh(app string) (int, error)
	GetAppStatus(app string) (*argocd.AppStatus, error)
}

// Watcher drives verification tasks from "in progress" to a terminal
// status by polling ArgoCD until the expected images are rolled out or
// the deadline expires.
type Watcher struct {
	argo     ArgoClient
	store    state.Store
	timeout  time.Duration
	interval time.Duration
}

// New creates a watcher with the configured verification deadline in
// seconds
func New(argo ArgoClient, store state.Store, timeoutSeconds int) *Watcher {
	return &Watcher{
		argo:     argo,
		store:    store,
		timeout:  time.Duration(timeoutSeconds) * time.Second,
		interval: defaultPollInterval,
	}
}

// Start schedules the verification of a task on its own goroutine and
// returns immediately. The task must already carry a server-assigned id.
func (w *Watcher) Start(task types.Task) {
	go w.run(task)
}

// run executes one complete verification: store the task as in progress,
// poll until a terminal condition, write the verdict back.
func (w *Watcher) run(task types.Task) {
	logger := log.WithTaskID(task.ID).With().Str("app", task.App).Logger()

	if err := w.store.SetCurrentTask(&task, types.StatusInProgress); err != nil {
		logger.Error().Err(err).Msg("Failed to store task")
		return
	}

	logger.Info().Msgf("New task was triggered, expecting %d image(s) in %s", len(task.Images), task.App)

	metrics.TasksInProgress.Inc()
	defer metrics.TasksInProgress.Dec()

	status, reason := w.waitForRollout(task, logger)

	if err := w.store.UpdateTask(task.ID, status, reason); err != nil {
		logger.Error().Err(err).Msg("Failed to record task verdict")
	}
	metrics.TasksProcessed.WithLabelValues(string(status)).Inc()

	switch status {
	case types.StatusDeployed:
		metrics.ResetFailedDeployment(task.App)
		logger.Info().Msg("Task has succeeded, app is running on the expected version")
	case types.StatusFailed:
		metrics.IncFailedDeployment(task.App)
		logger.Warn().Msg("Task has failed, app did not become healthy within a reasonable timeframe")
	case types.StatusAppNotFound:
		logger.Warn().Msg("Task has failed, app does not exist")
	}
}

// waitForRollout polls ArgoCD until one of the three terminal conditions
// holds. Transport errors and not-ready states retry on a fixed cadence
// within the deadline; a 404 from refresh is immediately terminal.
func (w *Watcher) waitForRollout(task types.Task, logger zerolog.Logger) (types.TaskStatus, string) {
	deadline := time.Now().Add(w.timeout)

	for {
		if status, reason, done := w.poll(task, logger); done {
			return status, reason
		}
		if time.Now().Add(w.interval).After(deadline) {
			return types.StatusFailed, "timed out waiting for rollout"
		}
		time.Sleep(w.interval)
	}
}

// poll performs a single verification attempt. done is false when the
// rollout is simply not finished yet.
func (w *Watcher) poll(task types.Task, logger zerolog.Logger) (types.TaskStatus, string, bool) {
	code, err := w.argo.Refresh(task.App)
	if err != nil {
		logger.Debug().Err(err).Msg("ArgoCD refresh failed, will retry")
		return "", "", false
	}
	if code == http.StatusNotFound {
		return types.StatusAppNotFound, "application does not exist", true
	}

	app, err := w.argo.GetAppStatus(task.App)
	if err != nil {
		logger.Debug().Err(err).Msg("ArgoCD app status failed, will retry")
		return "", "", false
	}
	if app == nil {
		logger.Debug().Msg("App status not available yet")
		return "", "", false
	}

	for _, image := range task.Images {
		if !contains(app.Images, image.Ref()) {
			logger.Debug().Msgf("%s is not available yet", image.Ref())
			return "", "", false
		}
	}

	if app.Synced == "Synced" && app.Healthy == "Healthy" {
		return types.StatusDeployed, "", true
	}

	logger.Debug().Msgf("App is not ready yet (sync=%s, health=%s)", app.Synced, app.Healthy)
	return "", "", false
}

func contains(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}
	return false
}
