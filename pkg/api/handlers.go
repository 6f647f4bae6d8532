package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuemby/rollwatch/pkg/log"
	"github.com/cuemby/rollwatch/pkg/types"
)

// addTask accepts a rollout-verification task, assigns it an id and
// schedules verification in the background. The response returns before
// the first poll happens.
func (s *Server) addTask(c *gin.Context) {
	var task types.Task

	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	task.ID = uuid.NewString()
	task.Status = ""
	task.StatusReason = ""
	task.Created = 0
	task.Updated = 0

	s.watcher.Start(task)

	c.JSON(http.StatusAccepted, types.TaskAccepted{
		Status: types.StatusAccepted,
		ID:     task.ID,
	})
}

// getTaskStatus returns the current status of a task. Unknown and expired
// ids answer with the "task not found" sentinel, not an HTTP error.
func (s *Server) getTaskStatus(c *gin.Context) {
	status, err := s.store.GetTaskStatus(c.Param("id"))
	if err != nil {
		apiLogger := log.WithComponent("api")
		apiLogger.Error().Err(err).Msg("Task status query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query task status"})
		return
	}

	c.JSON(http.StatusOK, types.TaskState{Status: status})
}

// getState returns the task history filtered by creation time and
// optionally by app name. Timestamps are seconds since epoch on every
// code path.
func (s *Server) getState(c *gin.Context) {
	from, err := parseTimestamp(c.Query("from_timestamp"), 0)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "from_timestamp must be a unix timestamp"})
		return
	}

	to, err := parseTimestamp(c.Query("to_timestamp"), 0)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "to_timestamp must be a unix timestamp"})
		return
	}

	tasks, err := s.store.GetState(from, to, c.Query("app"))
	if err != nil {
		apiLogger := log.WithComponent("api")
		apiLogger.Error().Err(err).Msg("Task history query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query task history"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// getAppList returns the distinct app names the store currently retains
func (s *Server) getAppList(c *gin.Context) {
	apps, err := s.store.GetAppList()
	if err != nil {
		apiLogger := log.WithComponent("api")
		apiLogger.Error().Err(err).Msg("App list query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query app list"})
		return
	}

	c.JSON(http.StatusOK, apps)
}

// getVersion reports the build version
func (s *Server) getVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": s.version})
}

// healthz reports up only when both ArgoCD and the task store are
// reachable. The in-memory store always passes its check.
func (s *Server) healthz(c *gin.Context) {
	if s.argo.Check() != types.HealthUp {
		c.JSON(http.StatusServiceUnavailable, types.HealthState{Status: types.HealthDown})
		return
	}
	if err := s.store.Check(); err != nil {
		apiLogger := log.WithComponent("api")
		apiLogger.Error().Err(err).Msg("State store check failed")
		c.JSON(http.StatusServiceUnavailable, types.HealthState{Status: types.HealthDown})
		return
	}

	c.JSON(http.StatusOK, types.HealthState{Status: types.HealthUp})
}

func parseTimestamp(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}
