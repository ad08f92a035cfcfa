package runs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"lipsync/internal/services"
)

const runColumns = "id, status, segments_path, timeline_path, audio_path, output_path, archive_path, fps, atlas_tier, atlas_fingerprint, event_count, frame_count, skipped_intervals, video_seconds, audio_seconds, audio_trimmed, failure_kind, error_message, started_at, finished_at"

// Store manages render history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "runs", "open", "database path is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Begin records a new running render. A blank run.ID is replaced with a
// fresh UUID. The stored run is returned.
func (s *Store) Begin(ctx context.Context, run Run) (*Run, error) {
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	run.Status = StatusRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.FinishedAt = nil

	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (
            id, status, segments_path, timeline_path, audio_path, output_path, fps, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Status,
		nullableString(run.SegmentsPath),
		nullableString(run.TimelinePath),
		nullableString(run.AudioPath),
		nullableString(run.OutputPath),
		run.FPS,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &run, nil
}

// Finish stores the outcome of a run. A non-nil outcome.Err marks the run
// failed regardless of outcome.Status.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	status := outcome.Status
	var failureKind, message string
	if outcome.Err != nil {
		status = StatusFailed
		failureKind = services.FailureKind(outcome.Err)
		message = outcome.Err.Error()
	}
	if status == "" || status == StatusRunning {
		status = StatusSucceeded
	}

	res, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET status = ?, output_path = COALESCE(?, output_path), archive_path = ?,
             atlas_tier = ?, atlas_fingerprint = ?, event_count = ?, frame_count = ?,
             skipped_intervals = ?, video_seconds = ?, audio_seconds = ?, audio_trimmed = ?,
             failure_kind = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status,
		nullableString(outcome.OutputPath),
		nullableString(outcome.ArchivePath),
		nullableString(outcome.AtlasTier),
		nullableString(outcome.AtlasFingerprint),
		outcome.EventCount,
		outcome.FrameCount,
		outcome.SkippedIntervals,
		outcome.VideoSeconds,
		outcome.AudioSeconds,
		boolToInt(outcome.AudioTrimmed),
		nullableString(failureKind),
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "runs", "finish", fmt.Sprintf("run %s", id), nil)
	}
	return nil
}

// Get fetches a run by identifier. A unique id prefix is accepted.
// It returns nil, nil when no run matches.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC LIMIT 2`,
		id, escapeLike(id)+"%", id,
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	switch {
	case len(found) == 0:
		return nil, nil
	case found[0].ID == id || len(found) == 1:
		return found[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "runs", "get", fmt.Sprintf("id prefix %q is ambiguous", id), nil)
	}
}

// List returns the most recent runs, newest first. A limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// Prune deletes finished runs beyond the newest keep entries and reports how
// many were removed. Running entries are never pruned.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs
         WHERE status != ?
           AND id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?)`,
		StatusRunning, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run              Run
		status           string
		segmentsPath     sql.NullString
		timelinePath     sql.NullString
		audioPath        sql.NullString
		outputPath       sql.NullString
		archivePath      sql.NullString
		atlasTier        sql.NullString
		atlasFingerprint sql.NullString
		audioTrimmed     int
		failureKind      sql.NullString
		errorMessage     sql.NullString
		startedRaw       string
		finishedRaw      sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&status,
		&segmentsPath,
		&timelinePath,
		&audioPath,
		&outputPath,
		&archivePath,
		&run.FPS,
		&atlasTier,
		&atlasFingerprint,
		&run.EventCount,
		&run.FrameCount,
		&run.SkippedIntervals,
		&run.VideoSeconds,
		&run.AudioSeconds,
		&audioTrimmed,
		&failureKind,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run.Status = Status(status)
	run.SegmentsPath = segmentsPath.String
	run.TimelinePath = timelinePath.String
	run.AudioPath = audioPath.String
	run.OutputPath = outputPath.String
	run.ArchivePath = archivePath.String
	run.AtlasTier = atlasTier.String
	run.AtlasFingerprint = atlasFingerprint.String
	run.AudioTrimmed = audioTrimmed != 0
	run.FailureKind = failureKind.String
	run.ErrorMessage = errorMessage.String

	started, err := time.Parse(time.RFC3339Nano, startedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = started
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	return &run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
