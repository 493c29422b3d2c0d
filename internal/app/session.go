package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"qcm-runner/internal/bank"
	"qcm-runner/internal/domain"
)

// BankLoader fetches and merges the raw question sets of a source selection.
type BankLoader interface {
	Load(ctx context.Context, ids []string) (bank.Result, error)
	Resolve(ids []string) []string
	SelectionLabel(ids []string) string
}

// Preferences persists settings and the source selection.
type Preferences interface {
	Settings(ctx context.Context) domain.Settings
	SaveSettings(ctx context.Context, settings domain.Settings) error
	Selection(ctx context.Context) []string
	SaveSelection(ctx context.Context, ids []string) error
}

// ReportSink receives the report of every finished run.
type ReportSink interface {
	SaveReport(ctx context.Context, report domain.Report) error
}

// Options wires a Session. Loader and Prefs are required.
type Options struct {
	Loader        BankLoader
	Prefs         Preferences
	Reports       ReportSink
	Clock         Clock
	Rand          *rand.Rand
	PassThreshold float64
	NewRunID      func() string
}

const reportTimeout = 5 * time.Second

// Session is the quiz session controller. It owns the bank, the run history,
// the answer records and the score; every mutation goes through its lock, and
// timer callbacks re-enter through the same lock.
type Session struct {
	loader    BankLoader
	prefs     Preferences
	reports   ReportSink
	clock     Clock
	threshold float64
	newRunID  func() string

	mu          sync.Mutex
	settings    domain.Settings
	opened      bool
	selection   []string
	bank        []domain.Question
	warnings    []string
	phase       domain.Phase
	runID       string
	mode        domain.DisclosureMode
	limit       int
	asked       map[string]struct{}
	run         []*domain.Question
	cursor      int
	score       int
	answers     map[string]domain.AnswerRecord
	optionOrder map[string][]string
	summary     bool
	report      *domain.Report
	draw        drawEngine
	timer       timerController
	subscribers map[chan domain.View]struct{}
}

func NewSession(opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	threshold := opts.PassThreshold
	if threshold <= 0 {
		threshold = domain.PassThreshold
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	s := &Session{
		loader:      opts.Loader,
		prefs:       opts.Prefs,
		reports:     opts.Reports,
		clock:       clock,
		threshold:   threshold,
		newRunID:    newRunID,
		settings:    domain.DefaultSettings(),
		phase:       domain.PhaseEmpty,
		draw:        drawEngine{rnd: rnd},
		timer:       newTimerController(clock),
		subscribers: make(map[chan domain.View]struct{}),
	}
	s.resetLocked()
	return s
}

// Open reads the stored settings and selection and loads the bank.
func (s *Session) Open(ctx context.Context) error {
	s.readSettings(ctx)
	return s.load(ctx, s.prefs.Selection(ctx))
}

func (s *Session) readSettings(ctx context.Context) {
	settings := s.prefs.Settings(ctx)
	s.mu.Lock()
	s.settings = settings
	s.opened = true
	s.mu.Unlock()
}

// ChangeSourceSelection persists a new selection and replaces the bank with it.
// On failure the previous bank stays active.
func (s *Session) ChangeSourceSelection(ctx context.Context, ids []string) error {
	s.mu.Lock()
	opened := s.opened
	s.mu.Unlock()
	if !opened {
		s.readSettings(ctx)
	}
	resolved := s.loader.Resolve(ids)
	if err := s.prefs.SaveSelection(ctx, resolved); err != nil {
		log.Printf("save selection: %v", err)
	}
	return s.load(ctx, resolved)
}

// Reload fetches the current selection again.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	selection := append([]string(nil), s.selection...)
	s.mu.Unlock()
	if len(selection) == 0 {
		selection = s.prefs.Selection(ctx)
	}
	return s.load(ctx, selection)
}

// load runs the fetch without holding the lock and swaps the bank in only once
// it validated.
func (s *Session) load(ctx context.Context, ids []string) error {
	res, err := s.loader.Load(ctx, ids)
	if err != nil {
		return err
	}
	questions, err := bank.Validate(res.Questions)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.bank = questions
	s.selection = res.Selection
	s.warnings = res.Warnings()
	clamped := s.settings.ClampLimit(len(questions))
	changed := clamped != s.settings
	s.settings = clamped
	s.resetLocked()
	s.broadcastLocked()
	s.mu.Unlock()

	if changed {
		if err := s.prefs.SaveSettings(ctx, clamped); err != nil {
			log.Printf("save settings: %v", err)
		}
	}
	return nil
}

// Start resets the run and draws the first question.
func (s *Session) Start() error {
	s.mu.Lock()
	if len(s.bank) == 0 {
		s.mu.Unlock()
		return domain.ErrNoBank
	}
	s.resetLocked()
	s.runID = s.newRunID()
	s.mode = domain.ModeFor(s.settings.InstantDisclosure)
	s.limit = s.settings.Limit(len(s.bank))
	s.draw.reset(len(s.bank))
	s.phase = domain.PhaseRunning
	report := s.drawNextLocked()
	s.broadcastLocked()
	s.mu.Unlock()
	s.persist(report)
	return nil
}

// Submit records value as the answer to the current question. It returns false
// when the input is rejected: no current question, already answered, ended
// run, or a value that is not one of the options.
func (s *Session) Submit(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.currentLocked()
	if q == nil || !hasOption(q.Options, value) {
		return false
	}
	picked := value
	ok := s.submitLocked(&picked, answerAdvanceDelay)
	if ok {
		s.broadcastLocked()
	}
	return ok
}

// SubmitIndex answers with the option at a presented (possibly shuffled) position.
func (s *Session) SubmitIndex(i int) bool {
	s.mu.Lock()
	q := s.currentLocked()
	if q == nil {
		s.mu.Unlock()
		return false
	}
	order := s.optionOrder[q.ID]
	if i < 0 || i >= len(order) {
		s.mu.Unlock()
		return false
	}
	value := order[i]
	s.mu.Unlock()
	return s.Submit(value)
}

// Next moves forward through the run history, draws a new question at the
// frontier, or ends the run once the limit is reached.
func (s *Session) Next() {
	s.mu.Lock()
	report := s.goNextLocked()
	s.broadcastLocked()
	s.mu.Unlock()
	s.persist(report)
}

// Previous re-presents the previous question in review mode.
func (s *Session) Previous() {
	s.mu.Lock()
	s.goPrevLocked()
	s.broadcastLocked()
	s.mu.Unlock()
}

// End finalizes the score and freezes further answers.
func (s *Session) End() {
	s.mu.Lock()
	report := s.endLocked()
	s.broadcastLocked()
	s.mu.Unlock()
	s.persist(report)
}

// Restart returns to the pre-run state without reloading the bank.
func (s *Session) Restart() {
	s.mu.Lock()
	s.resetLocked()
	s.broadcastLocked()
	s.mu.Unlock()
}

// Close cancels every pending timer.
func (s *Session) Close() {
	s.mu.Lock()
	s.timer.reset()
	s.mu.Unlock()
}

// Settings returns the active settings.
func (s *Session) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Report returns the report of the last finished run, if any.
func (s *Session) Report() (domain.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return domain.Report{}, false
	}
	return *s.report, true
}

// UpdateSettings applies and persists new settings. Limit changes restart the
// run; timer changes apply to the current question; disclosure and shuffle
// changes apply from the next run.
func (s *Session) UpdateSettings(ctx context.Context, next domain.Settings) domain.Settings {
	s.mu.Lock()
	prev := s.settings
	if next.TimerSeconds < domain.MinTimerSeconds {
		next.TimerSeconds = prev.TimerSeconds
	}
	if next.LimitEnabled && next.LimitCount < 1 {
		next.LimitCount = min(domain.DefaultLimitCount, max(1, len(s.bank)))
	}
	next = next.ClampLimit(len(s.bank))
	s.settings = next

	switch {
	case prev.LimitEnabled != next.LimitEnabled || (next.LimitEnabled && prev.LimitCount != next.LimitCount):
		s.resetLocked()
	case prev.TimerEnabled != next.TimerEnabled:
		s.timer.stopAll()
		if next.TimerEnabled && s.awaitingAnswerLocked() {
			s.startTimerLocked()
		}
	case next.TimerEnabled && prev.TimerSeconds != next.TimerSeconds && s.awaitingAnswerLocked():
		s.startTimerLocked()
	}
	s.broadcastLocked()
	s.mu.Unlock()

	if err := s.prefs.SaveSettings(ctx, next); err != nil {
		log.Printf("save settings: %v", err)
	}
	return next
}

func (s *Session) resetLocked() {
	s.timer.reset()
	s.runID = ""
	s.mode = domain.ModeFor(s.settings.InstantDisclosure)
	s.limit = 0
	s.asked = make(map[string]struct{})
	s.run = nil
	s.cursor = -1
	s.score = 0
	s.answers = make(map[string]domain.AnswerRecord)
	s.optionOrder = make(map[string][]string)
	s.summary = false
	s.report = nil
	if len(s.bank) == 0 {
		s.phase = domain.PhaseEmpty
	} else {
		s.phase = domain.PhaseReady
	}
}

func (s *Session) currentLocked() *domain.Question {
	if s.phase != domain.PhaseRunning || s.cursor < 0 || s.cursor >= len(s.run) {
		return nil
	}
	return s.run[s.cursor]
}

func (s *Session) awaitingAnswerLocked() bool {
	q := s.currentLocked()
	if q == nil {
		return false
	}
	_, answered := s.answers[q.ID]
	return !answered
}

// submitLocked stores the single answer record of the current question. The
// record is written before any timer work so a late tick or click finds the
// question already answered.
func (s *Session) submitLocked(picked *string, advanceDelay time.Duration) bool {
	q := s.currentLocked()
	if q == nil {
		return false
	}
	if _, answered := s.answers[q.ID]; answered {
		return false
	}
	rec := domain.AnswerRecord{QuestionID: q.ID, Picked: picked, Explanation: q.Explanation}
	s.answers[q.ID] = rec
	s.timer.cancelCountdown()

	if s.mode == domain.ModeInstant {
		if rec.Correct(q.CorrectAnswer) {
			s.score++
		}
		return true
	}
	s.timer.scheduleAdvance(advanceDelay, s.onAdvance)
	return true
}

func (s *Session) drawNextLocked() *domain.Report {
	idx, ok := s.draw.next(s.bank, s.asked, s.limit)
	if !ok {
		return s.endLocked()
	}
	q := &s.bank[idx]
	s.asked[q.ID] = struct{}{}
	s.run = append(s.run, q)
	s.cursor = len(s.run) - 1
	s.optionOrder[q.ID] = s.draw.shuffled(q.Options, s.settings.ShuffleOptions)
	s.presentLocked()
	return nil
}

func (s *Session) presentLocked() {
	s.timer.stopAll()
	if s.settings.TimerEnabled && s.awaitingAnswerLocked() {
		s.startTimerLocked()
	}
}

func (s *Session) goNextLocked() *domain.Report {
	switch s.phase {
	case domain.PhaseEnded:
		if s.summary {
			return nil
		}
		if s.cursor < len(s.run)-1 {
			s.cursor++
		} else {
			s.summary = true
		}
		return nil
	case domain.PhaseRunning:
	default:
		return nil
	}

	q := s.currentLocked()
	if q == nil {
		return nil
	}
	if _, answered := s.answers[q.ID]; !answered {
		return nil
	}
	s.timer.stopAll()
	if s.cursor < len(s.run)-1 {
		s.cursor++
		s.presentLocked()
		return nil
	}
	return s.drawNextLocked()
}

func (s *Session) goPrevLocked() {
	switch s.phase {
	case domain.PhaseEnded:
		if s.summary {
			if len(s.run) > 0 {
				s.summary = false
			}
			return
		}
	case domain.PhaseRunning:
	default:
		return
	}
	if s.cursor <= 0 {
		return
	}
	s.timer.stopAll()
	s.cursor--
	s.presentLocked()
}

func (s *Session) endLocked() *domain.Report {
	if s.phase != domain.PhaseRunning {
		return nil
	}
	s.timer.stopAll()
	if s.mode == domain.ModeDeferred {
		s.score = recomputeScore(s.run, s.answers)
	}
	s.phase = domain.PhaseEnded
	s.summary = true
	report := buildReport(reportInput{
		runID:     s.runID,
		sources:   s.selection,
		mode:      s.mode,
		score:     s.score,
		limit:     s.limit,
		threshold: s.threshold,
		finished:  s.clock.Now(),
		run:       s.run,
		answers:   s.answers,
	})
	s.report = &report
	out := report
	return &out
}

func (s *Session) startTimerLocked() {
	s.timer.start(s.settings.Countdown(), s.onTick)
}

func (s *Session) onTick(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timer.isCountdown(id) {
		return
	}
	s.timer.remaining--
	if s.timer.remaining > 0 {
		s.timer.rearm(id, s.onTick)
		s.broadcastLocked()
		return
	}
	s.timer.expire()
	s.submitLocked(nil, expiryAdvanceDelay)
	s.broadcastLocked()
}

func (s *Session) onAdvance(id uint64) {
	s.mu.Lock()
	if !s.timer.claimAdvance(id) || s.phase != domain.PhaseRunning {
		s.mu.Unlock()
		return
	}
	report := s.goNextLocked()
	s.broadcastLocked()
	s.mu.Unlock()
	s.persist(report)
}

func (s *Session) persist(report *domain.Report) {
	if report == nil || s.reports == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := s.reports.SaveReport(ctx, *report); err != nil {
		log.Printf("save report %s: %v", report.RunID, err)
	}
}

func hasOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
