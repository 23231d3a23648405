package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunCounts tallies video outcomes of a run.
type RunCounts struct {
	Total     int `json:"videos_total"`
	Clustered int `json:"clustered"`
	FellBack  int `json:"fell_back"`
	Skipped   int `json:"skipped"`
	Missing   int `json:"missing"`
	Failed    int `json:"failed"`
}

// Run is one invocation of the batch clusterer.
type Run struct {
	RunID         string          `json:"run_id"`
	Mode          string          `json:"mode"`
	Workers       int             `json:"workers"`
	ParamsJSON    json.RawMessage `json:"params_json,omitempty"`
	Status        string          `json:"status"`
	Counts        RunCounts       `json:"counts"`
	StartedAtNs   int64           `json:"started_at_ns"`
	CompletedAtNs *int64          `json:"completed_at_ns,omitempty"`
}

// VideoRecord is the outcome of one video within a run.
type VideoRecord struct {
	RunID        string   `json:"run_id"`
	Video        string   `json:"video"`
	Outcome      string   `json:"outcome"`
	Ridge        *float64 `json:"ridge,omitempty"`
	Attempts     int      `json:"attempts"`
	NTracklets   int      `json:"n_tracklets"`
	DurationMs   float64  `json:"duration_ms"`
	Error        string   `json:"error,omitempty"`
	RecordedAtNs int64    `json:"recorded_at_ns"`
}

// RunStore provides persistence for runs and their per-video records.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// StartRun inserts a running run and returns its generated ID.
func (s *RunStore) StartRun(mode string, workers int, params json.RawMessage) (string, error) {
	runID := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO cluster_runs (run_id, mode, workers, params_json, status, started_at_ns)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, mode, workers, nullString(string(params)), RunStatusRunning, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// RecordVideo stores the outcome of one video, replacing an earlier
// record of the same video in the same run.
func (s *RunStore) RecordVideo(rec *VideoRecord) error {
	if rec.RecordedAtNs == 0 {
		rec.RecordedAtNs = time.Now().UnixNano()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO cluster_videos (
			run_id, video, outcome, ridge, attempts, n_tracklets,
			duration_ms, error, recorded_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.Video,
		rec.Outcome,
		nullFloat64(rec.Ridge),
		rec.Attempts,
		rec.NTracklets,
		rec.DurationMs,
		nullString(rec.Error),
		rec.RecordedAtNs,
	)
	if err != nil {
		return fmt.Errorf("record video %s: %w", rec.Video, err)
	}
	return nil
}

// CompleteRun stores the final counts and status of a run.
func (s *RunStore) CompleteRun(runID string, counts RunCounts, status string) error {
	res, err := s.db.Exec(`
		UPDATE cluster_runs
		SET status = ?, videos_total = ?, clustered = ?, fell_back = ?,
		    skipped = ?, missing = ?, failed = ?, completed_at_ns = ?
		WHERE run_id = ?
	`, status, counts.Total, counts.Clustered, counts.FellBack,
		counts.Skipped, counts.Missing, counts.Failed, time.Now().UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	var run Run
	var params sql.NullString
	var completed sql.NullInt64
	err := s.db.QueryRow(`
		SELECT run_id, mode, workers, params_json, status,
		       videos_total, clustered, fell_back, skipped, missing, failed,
		       started_at_ns, completed_at_ns
		FROM cluster_runs
		WHERE run_id = ?
	`, runID).Scan(
		&run.RunID, &run.Mode, &run.Workers, &params, &run.Status,
		&run.Counts.Total, &run.Counts.Clustered, &run.Counts.FellBack,
		&run.Counts.Skipped, &run.Counts.Missing, &run.Counts.Failed,
		&run.StartedAtNs, &completed,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	if completed.Valid {
		v := completed.Int64
		run.CompletedAtNs = &v
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT run_id FROM cluster_runs ORDER BY started_at_ns DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ListVideos returns the video records of a run ordered by video name.
func (s *RunStore) ListVideos(runID string) ([]VideoRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, video, outcome, ridge, attempts, n_tracklets,
		       duration_ms, error, recorded_at_ns
		FROM cluster_videos
		WHERE run_id = ?
		ORDER BY video
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []VideoRecord
	for rows.Next() {
		var rec VideoRecord
		var ridge sql.NullFloat64
		var errText sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Video, &rec.Outcome, &ridge, &rec.Attempts,
			&rec.NTracklets, &rec.DurationMs, &errText, &rec.RecordedAtNs); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		if ridge.Valid {
			v := ridge.Float64
			rec.Ridge = &v
		}
		rec.Error = errText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
