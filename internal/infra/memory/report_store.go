package memory

import (
	"context"
	"sync"

	"qcm-runner/internal/domain"
)

// ReportStore keeps finished run reports in memory.
type ReportStore struct {
	mu      sync.RWMutex
	reports []domain.Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{}
}

func (s *ReportStore) SaveReport(_ context.Context, report domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

// Reports returns a copy of every saved report in save order.
func (s *ReportStore) Reports() []domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Recent returns up to limit reports, newest first.
func (s *ReportStore) Recent(_ context.Context, limit int) ([]domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.reports)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Report, 0, n)
	for i := len(s.reports) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.reports[i])
	}
	return out, nil
}
