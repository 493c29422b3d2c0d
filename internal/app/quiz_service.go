package app

import (
	"qcm-runner/internal/domain"
	"qcm-runner/internal/prefs"
)

// QuizService creates sessions that share a source catalogue, a preference
// store and a report sink.
type QuizService struct {
	loader    BankLoader
	kv        prefs.KV
	defaults  domain.Settings
	reports   ReportSink
	clock     Clock
	threshold float64
}

func NewQuizService(loader BankLoader, kv prefs.KV, defaults domain.Settings, reports ReportSink) *QuizService {
	return &QuizService{loader: loader, kv: kv, defaults: defaults, reports: reports, clock: RealClock()}
}

// WithPassThreshold overrides the pass ratio of every session created afterwards.
func (s *QuizService) WithPassThreshold(threshold float64) *QuizService {
	s.threshold = threshold
	return s
}

// WithClock overrides the clock of every session created afterwards.
func (s *QuizService) WithClock(clock Clock) *QuizService {
	s.clock = clock
	return s
}

// NewSession builds an unopened session whose preferences live under profile.
func (s *QuizService) NewSession(profile string) *Session {
	return NewSession(Options{
		Loader:        s.loader,
		Prefs:         prefs.NewStore(s.kv, profile, s.defaults),
		Reports:       s.reports,
		Clock:         s.clock,
		PassThreshold: s.threshold,
	})
}
