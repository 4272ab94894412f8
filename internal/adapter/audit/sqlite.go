package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"jobscout/internal/domain"
)

// SQLiteStore is the append-only routing-audit trail: one row per completed
// search, holding the decision and an execution summary as JSON. It is an
// observer of the pipeline, never a correctness dependency.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the audit database at dbPath and runs
// the schema migration.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS searches (
			id         TEXT PRIMARY KEY,
			raw_query  TEXT NOT NULL,
			decision   TEXT NOT NULL,
			summary    TEXT NOT NULL,
			total_jobs INTEGER NOT NULL,
			all_failed INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// executionSummary is what gets persisted per search: the per-agent outcomes
// without the record payloads, which would bloat the trail for no audit value.
type executionSummary struct {
	SuccessfulAgents   []domain.AgentID `json:"successful_agents"`
	FailedAgents       []domain.AgentID `json:"failed_agents"`
	Results            []agentOutcome   `json:"results"`
	TotalExecutionTime string           `json:"total_execution_time"`
}

type agentOutcome struct {
	Agent         domain.AgentID   `json:"agent"`
	Success       bool             `json:"success"`
	JobCount      int              `json:"job_count"`
	ErrorKind     domain.ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage  string           `json:"error_message,omitempty"`
	ExecutionTime string           `json:"execution_time"`
}

// Record implements the orchestrator's audit sink.
func (s *SQLiteStore) Record(ctx context.Context, rawQuery string, result domain.AggregationResult) error {
	decisionJSON, err := json.Marshal(result.RoutingDecision)
	if err != nil {
		return fmt.Errorf("%w: marshal decision: %v", domain.ErrAuditWrite, err)
	}

	summary := executionSummary{
		SuccessfulAgents:   result.SuccessfulAgents,
		FailedAgents:       result.FailedAgents,
		Results:            make([]agentOutcome, 0, len(result.ExecutionResults)),
		TotalExecutionTime: result.TotalExecutionTime.String(),
	}
	for _, r := range result.ExecutionResults {
		summary.Results = append(summary.Results, agentOutcome{
			Agent:         r.Agent,
			Success:       r.Success,
			JobCount:      r.JobCount,
			ErrorKind:     r.ErrorKind,
			ErrorMessage:  r.ErrorMessage,
			ExecutionTime: r.ExecutionTime.String(),
		})
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("%w: marshal summary: %v", domain.ErrAuditWrite, err)
	}

	allFailed := 0
	if result.AllFailed() {
		allFailed = 1
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO searches (id, raw_query, decision, summary, total_jobs, all_failed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		result.SearchID, rawQuery, string(decisionJSON), string(summaryJSON),
		result.TotalJobs, allFailed, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: insert search %s: %v", domain.ErrAuditWrite, result.SearchID, err)
	}
	return nil
}

// Entry is one audited search as read back from the trail.
type Entry struct {
	SearchID  string
	RawQuery  string
	Decision  domain.RoutingDecision
	TotalJobs int
	AllFailed bool
	CreatedAt time.Time
}

// Recent returns the newest entries, most recent first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, raw_query, decision, total_jobs, all_failed, created_at FROM searches ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			decisionJSON string
			allFailed    int
			createdAt    string
		)
		if err := rows.Scan(&e.SearchID, &e.RawQuery, &decisionJSON, &e.TotalJobs, &allFailed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		if err := json.Unmarshal([]byte(decisionJSON), &e.Decision); err != nil {
			return nil, fmt.Errorf("decode decision for %s: %w", e.SearchID, err)
		}
		e.AllFailed = allFailed != 0
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of audited searches.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM searches").Scan(&n)
	return n, err
}

// PruneOlderThan deletes entries created before cutoff and reports how many
// rows went away.
func (s *SQLiteStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM searches WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune searches: %w", err)
	}
	return res.RowsAffected()
}
