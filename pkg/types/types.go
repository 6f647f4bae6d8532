package types

// Image identifies a single container image a task expects to see rolled out.
// Comparison against ArgoCD is done on the "image:tag" reference form.
type Image struct {
	Image string `json:"image" binding:"required"`
	Tag   string `json:"tag" binding:"required"`
}

// Ref returns the reference form used for comparison against ArgoCD's
// reported image list.
func (i Image) Ref() string {
	return i.Image + ":" + i.Tag
}

// TaskStatus represents the lifecycle state of a verification task
type TaskStatus string

const (
	// StatusAccepted is returned to the client when a task is accepted
	StatusAccepted TaskStatus = "accepted"
	// StatusInProgress means the watcher is still polling ArgoCD
	StatusInProgress TaskStatus = "in progress"
	// StatusDeployed means all expected images were observed and the app
	// reported Synced and Healthy
	StatusDeployed TaskStatus = "deployed"
	// StatusFailed means the deadline expired before the rollout converged
	StatusFailed TaskStatus = "failed"
	// StatusAppNotFound means ArgoCD does not know the application
	StatusAppNotFound TaskStatus = "app not found"
	// StatusTaskNotFound is a query-only sentinel for unknown or expired ids.
	// It is never stored.
	StatusTaskNotFound TaskStatus = "task not found"
)

// IsTerminal reports whether a status ends the task lifecycle
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case StatusDeployed, StatusFailed, StatusAppNotFound:
		return true
	}
	return false
}

// Task is a single rollout-verification request.
//
// Id, Status, Created and Updated are assigned server-side; clients submit
// only app, author, project and images. Timestamps are seconds since epoch.
type Task struct {
	ID           string     `json:"id,omitempty"`
	App          string     `json:"app" binding:"required"`
	Author       string     `json:"author" binding:"required"`
	Project      string     `json:"project" binding:"required"`
	Images       []Image    `json:"images" binding:"required,min=1,dive"`
	Status       TaskStatus `json:"status,omitempty"`
	StatusReason string     `json:"status_reason,omitempty"`
	Created      float64    `json:"created,omitempty"`
	Updated      float64    `json:"updated,omitempty"`
}

// TaskAccepted is the response body for a successful task submission
type TaskAccepted struct {
	Status TaskStatus `json:"status"`
	ID     string     `json:"id"`
}

// TaskState is the response body for a task status query
type TaskState struct {
	Status TaskStatus `json:"status"`
}

// HealthState is the response body for the /healthz endpoint
type HealthState struct {
	Status string `json:"status"`
}

const (
	// HealthUp is reported when ArgoCD and the task store are reachable
	HealthUp = "up"
	// HealthDown is reported when either dependency is unreachable
	HealthDown = "down"
)
