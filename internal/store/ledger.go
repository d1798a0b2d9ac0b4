package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

const (
	driverName = "sqlite"
	// MemoryPath opens a private in-memory ledger.
	MemoryPath = ":memory:"

	schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		requirement_id TEXT NOT NULL,
		final_status TEXT NOT NULL,
		iterations INTEGER NOT NULL,
		tests_passed INTEGER NOT NULL,
		linter_passed INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_requirement ON runs(requirement_id);

	CREATE TABLE IF NOT EXISTS oracle_outcomes (
		run_id TEXT NOT NULL,
		iteration INTEGER NOT NULL,
		oracle TEXT NOT NULL,
		passed INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, iteration, oracle),
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);
	`

	insertRun = `
		INSERT INTO runs
		(run_id, requirement_id, final_status, iterations, tests_passed, linter_passed, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertOutcome = `
		INSERT INTO oracle_outcomes
		(run_id, iteration, oracle, passed, errors, warnings, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID         string
	RequirementID string
	FinalStatus   pipeline.Status
	Iterations    int
	TestsPassed   bool
	LinterPassed  bool
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// OracleStat aggregates oracle_outcomes per oracle.
type OracleStat struct {
	Oracle string
	Runs   int
	Passed int
}

// Ledger appends finished runs to a SQLite database so outcomes can be
// compared across invocations.
type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	// One connection serialises writers from batch workers and keeps an
	// in-memory database alive.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Record stores a result and every oracle outcome of every iteration in one
// transaction.
func (l *Ledger) Record(ctx context.Context, result pipeline.PipelineResult) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, insertRun,
		result.RunID, result.RequirementID, string(result.FinalStatus), result.Iterations,
		boolInt(result.Metrics.TestsPassed), boolInt(result.Metrics.LinterPassed), result.Error,
		formatTime(result.StartedAt), formatTime(result.FinishedAt),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}
	for _, report := range result.VerificationReports {
		for _, outcome := range report.Outcomes {
			if _, err := tx.ExecContext(ctx, insertOutcome,
				result.RunID, report.Iteration, outcome.Oracle, boolInt(outcome.Passed),
				len(outcome.Errors), len(outcome.Warnings), outcome.DurationMs,
			); err != nil {
				return fmt.Errorf("insert outcome %s/%d/%s: %w", result.RunID, report.Iteration, outcome.Oracle, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}

// Runs returns every recorded run ordered by start time.
func (l *Ledger) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, requirement_id, final_status, iterations, tests_passed, linter_passed, error, started_at, finished_at
		FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			record                RunRecord
			status                string
			testsPassed, lintOK   int
			startedAt, finishedAt string
		)
		if err := rows.Scan(&record.RunID, &record.RequirementID, &status, &record.Iterations,
			&testsPassed, &lintOK, &record.Error, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		record.FinalStatus = pipeline.Status(status)
		record.TestsPassed = testsPassed != 0
		record.LinterPassed = lintOK != 0
		record.StartedAt = parseTime(startedAt)
		record.FinishedAt = parseTime(finishedAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

// StatusCounts counts runs per final status.
func (l *Ledger) StatusCounts(ctx context.Context) (map[pipeline.Status]int, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT final_status, COUNT(*) FROM runs GROUP BY final_status`)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	counts := map[pipeline.Status]int{}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[pipeline.Status(status)] = count
	}
	return counts, rows.Err()
}

// OracleStats reports, per oracle, how many iterations ran it and how many
// of those passed.
func (l *Ledger) OracleStats(ctx context.Context) ([]OracleStat, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT oracle, COUNT(*), SUM(passed) FROM oracle_outcomes GROUP BY oracle ORDER BY oracle`)
	if err != nil {
		return nil, fmt.Errorf("query oracle stats: %w", err)
	}
	defer rows.Close()

	var stats []OracleStat
	for rows.Next() {
		var stat OracleStat
		if err := rows.Scan(&stat.Oracle, &stat.Runs, &stat.Passed); err != nil {
			return nil, fmt.Errorf("scan oracle stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// timeLayout is fixed width so ORDER BY on the text column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(value time.Time) string { return value.UTC().Format(timeLayout) }

func parseTime(value string) time.Time {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
