package domain

import "fmt"

// Phase is the coarse lifecycle state of a session.
type Phase string

const (
	PhaseEmpty   Phase = "empty"   // no bank loaded
	PhaseReady   Phase = "ready"   // bank loaded, run not started
	PhaseRunning Phase = "running" // run in progress
	PhaseEnded   Phase = "ended"   // run finished, review allowed
)

// OptionState is the reveal state of a single option.
type OptionState string

const (
	OptionNone    OptionState = ""
	OptionCorrect OptionState = "correct"
	OptionWrong   OptionState = "wrong"
	OptionPicked  OptionState = "picked"
)

// OptionView is one presented option.
type OptionView struct {
	Label string      `json:"label"`
	Text  string      `json:"text"`
	State OptionState `json:"state,omitempty"`
}

// QuestionView is the presented form of the current question.
type QuestionView struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Options     []OptionView `json:"options"`
	Explanation string       `json:"explanation,omitempty"`
	Answered    bool         `json:"answered"`
	TimedOut    bool         `json:"timedOut"`
	Review      bool         `json:"review"`
}

// TimerView exposes the running countdown.
type TimerView struct {
	Active    bool   `json:"active"`
	Remaining int    `json:"remaining"`
	Display   string `json:"display"`
}

// View is the pure view model handed to the presentation layer.
type View struct {
	Phase          Phase         `json:"phase"`
	SelectionLabel string        `json:"selectionLabel"`
	Selection      []string      `json:"selection"`
	BankSize       int           `json:"bankSize"`
	Question       *QuestionView `json:"question,omitempty"`
	Index          int           `json:"index"`
	Limit          int           `json:"limit"`
	Score          int           `json:"score"`
	ShowScore      bool          `json:"showScore"`
	Timer          TimerView     `json:"timer"`
	CanPrevious    bool          `json:"canPrevious"`
	CanNext        bool          `json:"canNext"`
	Report         *Report       `json:"report,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
	Settings       Settings      `json:"settings"`
}

// OptionLabel returns the A, B, C... label for a zero-based option index.
func OptionLabel(i int) string {
	if i < 0 || i >= 26 {
		return fmt.Sprint(i + 1)
	}
	return string(rune('A' + i))
}

// FormatSeconds renders seconds as MM:SS.
func FormatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
