package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/cuemby/rollwatch/pkg/log"
	"github.com/cuemby/rollwatch/pkg/types"
)

const tasksSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id            CHAR(36) PRIMARY KEY,
	created       TIMESTAMP NOT NULL,
	updated       TIMESTAMP,
	images        JSON NOT NULL,
	status        VARCHAR(255) NOT NULL,
	status_reason VARCHAR(255),
	app           VARCHAR(255) NOT NULL,
	author        VARCHAR(255) NOT NULL,
	project       VARCHAR(255) NOT NULL
)`

// PostgresStore persists tasks in a relational table. Unlike the
// in-memory variant it does not evict; retention is an external policy.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// taskRow mirrors the tasks table with timestamps projected to epoch seconds
type taskRow struct {
	ID           string          `db:"id"`
	Created      float64         `db:"created"`
	Updated      sql.NullFloat64 `db:"updated"`
	Images       []byte          `db:"images"`
	Status       string          `db:"status"`
	StatusReason sql.NullString  `db:"status_reason"`
	App          string          `db:"app"`
	Author       string          `db:"author"`
	Project      string          `db:"project"`
}

// NewPostgresStore connects to the database, verifies the connection and
// ensures the tasks table exists. The pool re-pings idle connections so
// database restarts do not surface as permanent failures.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if _, err := db.Exec(tasksSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure tasks schema: %w", err)
	}

	return &PostgresStore{db: db, now: time.Now}, nil
}

// SetCurrentTask inserts the task with created=now. Ids are
// server-assigned UUIDs; a conflicting id overwrites the previous row.
func (s *PostgresStore) SetCurrentTask(task *types.Task, status types.TaskStatus) error {
	images, err := json.Marshal(task.Images)
	if err != nil {
		return fmt.Errorf("failed to serialize images: %w", err)
	}

	now := s.now().UTC()
	task.Status = status
	task.Created = float64(now.UnixNano()) / float64(time.Second)

	_, err = s.db.Exec(
		`INSERT INTO tasks (id, created, images, status, app, author, project)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   created = EXCLUDED.created,
		   images = EXCLUDED.images,
		   status = EXCLUDED.status`,
		task.ID, now, images, status, task.App, task.Author, task.Project,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}

	return nil
}

// GetTaskStatus returns the stored status or the not-found sentinel
func (s *PostgresStore) GetTaskStatus(id string) (types.TaskStatus, error) {
	var status string

	err := s.db.Get(&status, "SELECT status FROM tasks WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StatusTaskNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get status for task %s: %w", id, err)
	}

	return types.TaskStatus(status), nil
}

// UpdateTask overwrites the status and stamps updated=now. Updating an
// unknown id is a silent no-op.
func (s *PostgresStore) UpdateTask(id string, status types.TaskStatus, reason string) error {
	_, err := s.db.Exec(
		"UPDATE tasks SET status = $1, status_reason = $2, updated = $3 WHERE id = $4",
		status, nullString(reason), s.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return nil
}

// GetState returns tasks created within [from, to], optionally filtered
// by app. Timestamps cross the API boundary as epoch seconds; the
// database stores UTC timestamps, so the conversion happens here and
// nowhere else.
func (s *PostgresStore) GetState(from, to float64, app string) ([]types.Task, error) {
	if to == 0 {
		to = float64(s.now().UnixNano()) / float64(time.Second)
	}

	query := `SELECT id, extract(epoch from created) AS created,
		extract(epoch from updated) AS updated,
		images, status, status_reason, app, author, project
		FROM tasks
		WHERE created >= $1 AND created <= $2`
	args := []interface{}{epochToUTC(from), epochToUTC(to)}

	if app != "" {
		query += " AND app = $3"
		args = append(args, app)
	}
	query += " ORDER BY created"

	var rows []taskRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	tasks := make([]types.Task, 0, len(rows))
	for _, row := range rows {
		task := types.Task{
			ID:      row.ID,
			App:     row.App,
			Author:  row.Author,
			Project: row.Project,
			Status:  types.TaskStatus(row.Status),
			Created: row.Created,
		}
		if row.Updated.Valid {
			task.Updated = row.Updated.Float64
		}
		if row.StatusReason.Valid {
			task.StatusReason = row.StatusReason.String
		}
		if err := json.Unmarshal(row.Images, &task.Images); err != nil {
			logger := log.WithComponent("state")
			logger.Error().Err(err).
				Str("task_id", row.ID).Msg("Skipping task with malformed images column")
			continue
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// GetAppList returns the distinct app names present in the table
func (s *PostgresStore) GetAppList() ([]string, error) {
	apps := []string{}
	if err := s.db.Select(&apps, "SELECT DISTINCT app FROM tasks ORDER BY app"); err != nil {
		return nil, fmt.Errorf("failed to query app list: %w", err)
	}
	return apps, nil
}

// Check probes the database with a trivial query
func (s *PostgresStore) Check() error {
	var one int
	if err := s.db.Get(&one, "SELECT 1"); err != nil {
		return fmt.Errorf("database check failed: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func epochToUTC(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
