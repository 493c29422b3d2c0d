package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"qcm-runner/internal/domain"
)

// ReportStore persists finished run reports.
type ReportStore struct {
	pool *pgxpool.Pool
}

func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

func (s *ReportStore) SaveReport(ctx context.Context, report domain.Report) error {
	entries, err := json.Marshal(report.Entries)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO run_reports (id, sources, mode, score, question_limit, percent, passed, verdict, finished_at, entries)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
ON CONFLICT (id) DO NOTHING`,
		report.RunID, report.Sources, string(report.Mode), report.Score, report.Limit,
		report.Percent, report.Passed, report.Verdict, report.FinishedAt, string(entries))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Recent returns the latest reports, newest first.
func (s *ReportStore) Recent(ctx context.Context, limit int) ([]domain.Report, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, sources, mode, score, question_limit, percent, passed, verdict, finished_at, entries
FROM run_reports ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		var (
			r       domain.Report
			mode    string
			entries []byte
		)
		if err := rows.Scan(&r.RunID, &r.Sources, &mode, &r.Score, &r.Limit, &r.Percent, &r.Passed, &r.Verdict, &r.FinishedAt, &entries); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Mode = domain.DisclosureMode(mode)
		r.FailPercent = 100 - r.Percent
		if err := json.Unmarshal(entries, &r.Entries); err != nil {
			return nil, fmt.Errorf("unmarshal entries: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PutQuestionSet stores or replaces the JSON payload of a question set.
func PutQuestionSet(ctx context.Context, pool *pgxpool.Pool, id string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("question set %s: invalid json", id)
	}
	_, err := pool.Exec(ctx, `
INSERT INTO question_sets (id, data) VALUES ($1, $2::jsonb)
ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`, id, string(data))
	if err != nil {
		return fmt.Errorf("put question set: %w", err)
	}
	return nil
}
