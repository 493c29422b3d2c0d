package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// IDSeparator joins a source id and a raw question id into a bank-unique id.
const IDSeparator = ":"

// PassThreshold is the minimum score ratio for a passed run.
const PassThreshold = 0.75

const (
	VerdictPassed = "Réussi"
	VerdictFailed = "Échec"
)

// Source is a named, independently fetchable question set.
type Source struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// RawQuestion is one entry of a source payload, tagged with the source it came from.
// Fields stay undecoded until the validator checks them. Malformed is set when the
// entry is not a JSON object.
type RawQuestion struct {
	SourceID  string
	Fields    map[string]json.RawMessage
	Malformed bool
}

// Question models an MCQ question after validation and id assignment.
type Question struct {
	ID            string   `json:"id"`
	SourceID      string   `json:"sourceId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// AnswerRecord is the single answer kept for a question during a run.
// A nil Picked means the countdown expired before an answer was given.
type AnswerRecord struct {
	QuestionID  string  `json:"questionId"`
	Picked      *string `json:"picked"`
	Explanation string  `json:"explanation"`
}

// Correct reports whether the record matches the expected answer.
func (r AnswerRecord) Correct(answer string) bool {
	if r.Picked == nil {
		return false
	}
	return Equal(*r.Picked, answer)
}

// Equal compares answers as trimmed strings.
func Equal(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// Settings are the user preferences consumed by the session engine.
type Settings struct {
	InstantDisclosure bool `json:"instant" yaml:"instant"`
	ShuffleOptions    bool `json:"shuffle" yaml:"shuffle"`
	LimitEnabled      bool `json:"limit" yaml:"limit"`
	LimitCount        int  `json:"count" yaml:"count"`
	TimerEnabled      bool `json:"timer" yaml:"timer"`
	TimerSeconds      int  `json:"tsec" yaml:"tsec"`
	KeyboardShortcuts bool `json:"keys" yaml:"keys"`
}

const (
	MinTimerSeconds     = 5
	DefaultTimerSeconds = 30
	DefaultLimitCount   = 10
)

// DefaultSettings returns the settings used when nothing has been stored.
func DefaultSettings() Settings {
	return Settings{
		InstantDisclosure: true,
		ShuffleOptions:    true,
		LimitEnabled:      false,
		LimitCount:        DefaultLimitCount,
		TimerEnabled:      false,
		TimerSeconds:      DefaultTimerSeconds,
		KeyboardShortcuts: true,
	}
}

// Countdown returns the timer length, floor-clamped to MinTimerSeconds.
func (s Settings) Countdown() int {
	if s.TimerSeconds <= 0 {
		return DefaultTimerSeconds
	}
	if s.TimerSeconds < MinTimerSeconds {
		return MinTimerSeconds
	}
	return s.TimerSeconds
}

// ClampLimit keeps LimitCount within [1, bankSize].
func (s Settings) ClampLimit(bankSize int) Settings {
	if bankSize < 1 {
		return s
	}
	if s.LimitCount < 1 {
		s.LimitCount = min(DefaultLimitCount, bankSize)
	}
	if s.LimitCount > bankSize {
		s.LimitCount = bankSize
	}
	return s
}

// Limit returns the number of questions a run draws for the given bank size.
func (s Settings) Limit(bankSize int) int {
	if bankSize == 0 {
		return 0
	}
	if !s.LimitEnabled {
		return bankSize
	}
	return min(max(1, s.LimitCount), bankSize)
}

// DisclosureMode tells when correctness is revealed.
type DisclosureMode string

const (
	ModeInstant  DisclosureMode = "instant"
	ModeDeferred DisclosureMode = "deferred"
)

// ModeFor maps the instant flag onto a DisclosureMode.
func ModeFor(instant bool) DisclosureMode {
	if instant {
		return ModeInstant
	}
	return ModeDeferred
}

// ReportEntry summarizes one drawn question at end of run.
type ReportEntry struct {
	QuestionID    string  `json:"questionId"`
	Text          string  `json:"text"`
	Picked        *string `json:"picked"`
	CorrectAnswer string  `json:"correctAnswer"`
	Correct       bool    `json:"correct"`
	Explanation   string  `json:"explanation,omitempty"`
}

// Report is the final outcome of a run.
type Report struct {
	RunID       string         `json:"runId"`
	Sources     []string       `json:"sources"`
	Mode        DisclosureMode `json:"mode"`
	Score       int            `json:"score"`
	Limit       int            `json:"limit"`
	Percent     int            `json:"percent"`
	FailPercent int            `json:"failPercent"`
	Passed      bool           `json:"passed"`
	Verdict     string         `json:"verdict"`
	FinishedAt  time.Time      `json:"finishedAt"`
	Entries     []ReportEntry  `json:"entries"`
}
