package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"lpupload/internal/config"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	// timeLayout is fixed width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrDisabled is returned by Open when the ledger is turned off in config.
var ErrDisabled = errors.New("upload ledger is disabled")

// Ledger stores upload history in SQLite.
type Ledger struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Run is one invocation of the upload command.
type Run struct {
	ID         string     `json:"id"`
	Project    string     `json:"project"`
	Series     string     `json:"series"`
	Milestone  string     `json:"milestone"`
	Version    string     `json:"version"`
	Directory  string     `json:"directory"`
	DryRun     bool       `json:"dry_run"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Summary    Summary    `json:"summary"`
}

// Summary tallies a finished run.
type Summary struct {
	Uploaded int   `json:"uploaded"`
	Skipped  int   `json:"skipped"`
	Failed   int   `json:"failed"`
	Planned  int   `json:"planned"`
	Bytes    int64 `json:"bytes"`
}

// Attempt is the outcome of one file within a run. Project, Series and
// Version are filled in by queries that join the owning run.
type Attempt struct {
	ID            int64
	RunID         string
	Filename      string
	Outcome       string
	ContentType   string
	Size          int64
	SignatureName string
	Link          string
	Error         string
	AttemptedAt   time.Time
	Duration      time.Duration

	Project string
	Series  string
	Version string
}

// Open opens or creates the ledger database named by cfg.
func Open(cfg *config.Config) (*Ledger, error) {
	if !cfg.Ledger.Enabled {
		return nil, ErrDisabled
	}
	return OpenPath(cfg.Ledger.Path)
}

// OpenPath opens or creates a ledger database at path.
func OpenPath(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	l := &Ledger{db: db, path: path, now: time.Now}
	if err := l.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the database file location.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// BeginRun stores a new run and returns it with its ID and start time set.
func (l *Ledger) BeginRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = l.now().UTC()
	}
	err := l.exec(ctx,
		`INSERT INTO runs (id, project, series, milestone, version, directory, dry_run, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Project, run.Series, run.Milestone, run.Version, run.Directory,
		boolToInt(run.DryRun), formatTime(run.StartedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Record appends one file attempt to a run.
func (l *Ledger) Record(ctx context.Context, runID string, attempt Attempt) error {
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = l.now().UTC()
	}
	err := l.exec(ctx,
		`INSERT INTO attempts (run_id, filename, outcome, content_type, size, signature, link, error_message, attempted_at, duration_ms)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, attempt.Filename, attempt.Outcome,
		nullableString(attempt.ContentType), attempt.Size,
		nullableString(attempt.SignatureName), nullableString(attempt.Link),
		nullableString(attempt.Error), formatTime(attempt.AttemptedAt),
		attempt.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt for %s: %w", attempt.Filename, err)
	}
	return nil
}

// FinishRun stamps the run's end time and totals.
func (l *Ledger) FinishRun(ctx context.Context, runID string, summary Summary) error {
	err := l.exec(ctx,
		`UPDATE runs SET finished_at = ?, uploaded = ?, skipped = ?, failed = ?, planned = ?, bytes = ?
         WHERE id = ?`,
		formatTime(l.now().UTC()), summary.Uploaded, summary.Skipped, summary.Failed,
		summary.Planned, summary.Bytes, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// RecentAttempts returns up to limit attempts, newest first.
func (l *Ledger) RecentAttempts(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT a.id, a.run_id, a.filename, a.outcome, a.content_type, a.size, a.signature,
                a.link, a.error_message, a.attempted_at, a.duration_ms,
                r.project, r.series, r.version
         FROM attempts a JOIN runs r ON r.id = a.run_id
         ORDER BY a.id DESC
         LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			a                                   Attempt
			contentType, signature, link, errMs sql.NullString
			attemptedRaw                        string
			durationMs                          int64
		)
		if err := rows.Scan(&a.ID, &a.RunID, &a.Filename, &a.Outcome, &contentType, &a.Size,
			&signature, &link, &errMs, &attemptedRaw, &durationMs,
			&a.Project, &a.Series, &a.Version); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.ContentType = contentType.String
		a.SignatureName = signature.String
		a.Link = link.String
		a.Error = errMs.String
		a.Duration = time.Duration(durationMs) * time.Millisecond
		if t, err := parseTimeString(attemptedRaw); err == nil {
			a.AttemptedAt = t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

// RecentRuns returns up to limit runs, newest first.
func (l *Ledger) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, project, series, milestone, version, directory, dry_run, started_at, finished_at,
                uploaded, skipped, failed, planned, bytes
         FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r           Run
			dryRun      int
			startedRaw  string
			finishedRaw sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Project, &r.Series, &r.Milestone, &r.Version, &r.Directory,
			&dryRun, &startedRaw, &finishedRaw,
			&r.Summary.Uploaded, &r.Summary.Skipped, &r.Summary.Failed, &r.Summary.Planned, &r.Summary.Bytes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.DryRun = dryRun != 0
		if t, err := parseTimeString(startedRaw); err == nil {
			r.StartedAt = t
		}
		if finishedRaw.Valid {
			if t, err := parseTimeString(finishedRaw.String); err == nil {
				r.FinishedAt = &t
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func (l *Ledger) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := l.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy retries op while another process holds the database write lock.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
