package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

// Store records analysis run history in Postgres. The full analysis
// results are never persisted, only run outcomes and compact stats, so
// operators can see throughput without keeping customer conversation
// data around.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// RunStats is the compact summary stored per run.
type RunStats struct {
	TotalTickets         int    `json:"total_tickets"`
	CompatibleCount      int    `json:"diagnostics_compatible_count"`
	CompatiblePercentage string `json:"diagnostics_compatible_percentage"`
	ComplexIssuesCount   int    `json:"complex_issues_count"`
	OutreachCount        int    `json:"outreach_count"`
	LLMProvider          string `json:"llm_provider"`
}

func StatsFromResults(r models.AnalysisResults) RunStats {
	return RunStats{
		TotalTickets:         r.Diagnostics.Summary.TotalTickets,
		CompatibleCount:      r.Diagnostics.Summary.CompatibleCount,
		CompatiblePercentage: r.Diagnostics.Summary.CompatiblePercentage,
		ComplexIssuesCount:   r.Diagnostics.Summary.ComplexIssuesCount,
		OutreachCount:        len(r.OutreachList),
		LLMProvider:          r.Metadata.LLMProvider,
	}
}

func (s *Store) CreateRun(ctx context.Context, jobID string, provider string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO analysis_runs (job_id, llm_provider, started_at, status)
		 VALUES ($1, $2, now(), 'RUNNING') RETURNING id`,
		jobID, provider).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, stats []byte) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE analysis_runs SET finished_at = now(), status = $2, stats = $3 WHERE id = $1`,
		runID, status, stats)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (map[string]any, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, job_id, llm_provider, started_at, finished_at, status, stats
		 FROM analysis_runs ORDER BY started_at DESC LIMIT 1`)

	var (
		id, jobID, provider, status string
		startedAt                   time.Time
		finishedAt                  *time.Time
		stats                       []byte
	)
	if err := row.Scan(&id, &jobID, &provider, &startedAt, &finishedAt, &status, &stats); err != nil {
		return nil, err
	}

	out := map[string]any{
		"id":           id,
		"job_id":       jobID,
		"llm_provider": provider,
		"started_at":   startedAt,
		"status":       status,
	}
	if finishedAt != nil {
		out["finished_at"] = *finishedAt
	}
	if len(stats) > 0 {
		out["stats"] = json.RawMessage(stats)
	}
	return out, nil
}
