// Package ledger journals orchestration runs in a local SQLite database so
// progress survives crashes and can be reported after the fact. The ledger
// is observability only: orchestration never reads its own state back out
// of it.
package ledger

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/imkarma/loom/internal/agent"
	"github.com/imkarma/loom/internal/orchestrate"
)

// Ledger provides access to the run journal.
type Ledger struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at the given path.
func New(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// WAL keeps readers (the board) from blocking the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		plan        TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'running',
		started_at  DATETIME NOT NULL,
		ended_at    DATETIME
	);

	CREATE TABLE IF NOT EXISTS step_runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL REFERENCES runs(id),
		bead_id     TEXT NOT NULL,
		state       TEXT NOT NULL DEFAULT 'running',
		retries     INTEGER NOT NULL DEFAULT 0,
		started_at  DATETIME NOT NULL,
		ended_at    DATETIME
	);

	CREATE TABLE IF NOT EXISTS dispatches (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		step_run_id  INTEGER NOT NULL REFERENCES step_runs(id),
		role         TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT '',
		verdict      TEXT NOT NULL DEFAULT '',
		drift        TEXT NOT NULL DEFAULT '',
		duration     REAL NOT NULL DEFAULT 0,
		error        TEXT NOT NULL DEFAULT '',
		timestamp    DATETIME NOT NULL
	);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Run is one recorded orchestration run.
type Run struct {
	ID        string
	Plan      string
	Status    string // running, completed, halted, failed
	StartedAt time.Time
	EndedAt   time.Time
}

// StepRun is one step inside a run.
type StepRun struct {
	ID        int64
	RunID     string
	BeadID    string
	State     string
	Retries   int
	StartedAt time.Time
	EndedAt   time.Time
}

// StartRun records a new run and returns its id.
func (l *Ledger) StartRun(plan string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := l.db.Exec(
		`INSERT INTO runs (id, plan, status, started_at) VALUES (?, ?, 'running', ?)`,
		id, plan, now,
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// EndRun marks a run as completed, halted, or failed.
func (l *Ledger) EndRun(runID, status string) error {
	now := time.Now().UTC()
	_, err := l.db.Exec(
		`UPDATE runs SET status = ?, ended_at = ? WHERE id = ?`,
		status, now, runID,
	)
	return err
}

// ListRuns returns all runs, newest first.
func (l *Ledger) ListRuns() ([]Run, error) {
	rows, err := l.db.Query(
		`SELECT id, plan, status, started_at, ended_at FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var endedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Plan, &r.Status, &r.StartedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if endedAt.Valid {
			r.EndedAt = endedAt.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListInterruptedRuns returns runs still marked running (crashed or live).
func (l *Ledger) ListInterruptedRuns() ([]Run, error) {
	runs, err := l.ListRuns()
	if err != nil {
		return nil, err
	}
	var interrupted []Run
	for _, r := range runs {
		if r.Status == "running" {
			interrupted = append(interrupted, r)
		}
	}
	return interrupted, nil
}

// ListStepRuns returns the steps of a run in execution order.
func (l *Ledger) ListStepRuns(runID string) ([]StepRun, error) {
	rows, err := l.db.Query(
		`SELECT id, run_id, bead_id, state, retries, started_at, ended_at
		 FROM step_runs WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list step runs: %w", err)
	}
	defer rows.Close()

	var steps []StepRun
	for rows.Next() {
		var s StepRun
		var endedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.RunID, &s.BeadID, &s.State, &s.Retries, &s.StartedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan step run: %w", err)
		}
		if endedAt.Valid {
			s.EndedAt = endedAt.Time
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// Recorder binds a run id to the orchestrator's Recorder interface. All
// writes are best-effort; a journaling failure never affects orchestration.
type Recorder struct {
	ledger *Ledger
	runID  string

	mu      sync.Mutex
	current map[string]int64 // bead id -> open step_run id
}

// NewRecorder creates a Recorder for a started run.
func (l *Ledger) NewRecorder(runID string) *Recorder {
	return &Recorder{ledger: l, runID: runID, current: make(map[string]int64)}
}

func (r *Recorder) StepStarted(beadID string) {
	now := time.Now().UTC()
	res, err := r.ledger.db.Exec(
		`INSERT INTO step_runs (run_id, bead_id, state, started_at) VALUES (?, ?, 'running', ?)`,
		r.runID, beadID, now,
	)
	if err != nil {
		return
	}
	id, _ := res.LastInsertId()
	r.mu.Lock()
	r.current[beadID] = id
	r.mu.Unlock()
}

func (r *Recorder) Dispatched(beadID, role string, result *agent.Result, err error) {
	r.mu.Lock()
	stepRunID := r.current[beadID]
	r.mu.Unlock()

	var status, verdict, drift, errText string
	var duration float64
	if result != nil {
		status = string(result.Status)
		verdict = string(result.Verdict)
		drift = string(result.Drift)
		duration = result.Duration
	}
	if err != nil {
		errText = err.Error()
	}

	now := time.Now().UTC()
	r.ledger.db.Exec(
		`INSERT INTO dispatches (step_run_id, role, status, verdict, drift, duration, error, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stepRunID, role, status, verdict, drift, duration, errText, now,
	)
}

func (r *Recorder) StepEnded(beadID string, state orchestrate.State, retries int) {
	r.mu.Lock()
	stepRunID := r.current[beadID]
	delete(r.current, beadID)
	r.mu.Unlock()

	now := time.Now().UTC()
	r.ledger.db.Exec(
		`UPDATE step_runs SET state = ?, retries = ?, ended_at = ? WHERE id = ?`,
		string(state), retries, now, stepRunID,
	)
}
