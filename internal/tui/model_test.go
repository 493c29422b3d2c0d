package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"qcm-runner/internal/domain"
)

type fakeSession struct {
	view      domain.View
	submitted []int
	calls     []string
}

func (f *fakeSession) View() domain.View { return f.view }
func (f *fakeSession) Start() error      { f.calls = append(f.calls, "start"); return nil }
func (f *fakeSession) SubmitIndex(i int) bool {
	f.submitted = append(f.submitted, i)
	return true
}
func (f *fakeSession) Next()     { f.calls = append(f.calls, "next") }
func (f *fakeSession) Previous() { f.calls = append(f.calls, "previous") }
func (f *fakeSession) End()      { f.calls = append(f.calls, "end") }
func (f *fakeSession) Restart()  { f.calls = append(f.calls, "restart") }

func runningView(keys bool) domain.View {
	settings := domain.DefaultSettings()
	settings.KeyboardShortcuts = keys
	return domain.View{
		Phase:          domain.PhaseRunning,
		SelectionLabel: "All (mixed)",
		BankSize:       3,
		Index:          1,
		Limit:          3,
		ShowScore:      true,
		Settings:       settings,
		Timer:          domain.TimerView{Active: true, Remaining: 65, Display: "01:05"},
		Question: &domain.QuestionView{
			ID:   "def:1",
			Text: "Quelle est la hauteur maximale ?",
			Options: []domain.OptionView{
				{Label: "A", Text: "120 m"},
				{Label: "B", Text: "150 m"},
				{Label: "C", Text: "50 m"},
			},
		},
	}
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestOptionLettersSubmit(t *testing.T) {
	session := &fakeSession{view: runningView(true)}
	m := NewModel(session, nil, Options{NoColor: true})

	m = press(m, "b")
	m = press(m, "C")
	m = press(m, "3")
	if len(session.submitted) != 3 || session.submitted[0] != 1 || session.submitted[1] != 2 || session.submitted[2] != 2 {
		t.Fatalf("unexpected submissions %v", session.submitted)
	}

	press(m, "e")
	if len(session.calls) != 1 || session.calls[0] != "end" {
		t.Fatalf("expected e to end the run, got %v", session.calls)
	}
}

func TestShortcutsDisabled(t *testing.T) {
	session := &fakeSession{view: runningView(false)}
	m := NewModel(session, nil, Options{NoColor: true})

	m = press(m, "a")
	if len(session.submitted) != 0 {
		t.Fatalf("letters must not answer with shortcuts off")
	}
	m = press(m, "down")
	m = press(m, " ")
	if len(session.submitted) != 1 || session.submitted[0] != 1 {
		t.Fatalf("expected cursor pick of option 1, got %v", session.submitted)
	}
}

func TestNavigationKeys(t *testing.T) {
	view := runningView(true)
	view.Question.Answered = true
	session := &fakeSession{view: view}
	m := NewModel(session, nil, Options{NoColor: true})

	m = press(m, "enter")
	m = press(m, "left")
	m = press(m, "r")
	got := strings.Join(session.calls, ",")
	if got != "next,previous,restart" {
		t.Fatalf("unexpected calls %s", got)
	}
	if len(session.submitted) != 0 {
		t.Fatalf("answered question must not take option keys")
	}

	session.view = domain.View{Phase: domain.PhaseReady, Settings: domain.DefaultSettings()}
	m = m.setView(session.view)
	press(m, "s")
	if session.calls[len(session.calls)-1] != "start" {
		t.Fatalf("expected s to start, got %v", session.calls)
	}
}

func TestViewRendering(t *testing.T) {
	view := runningView(true)
	view.Warnings = []string{"cannot load «met»: HTTP 404 Not Found: met.json"}
	m := NewModel(&fakeSession{view: view}, nil, Options{NoColor: true})

	out := m.View()
	for _, want := range []string{"All (mixed) · 3 questions · 1/3 · score 0 · 01:05", "! cannot load «met»", "> A. 120 m", "  B. 150 m"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	picked := "120 m"
	ended := domain.View{
		Phase:     domain.PhaseEnded,
		ShowScore: true,
		Report: &domain.Report{
			Score: 0, Limit: 1, Percent: 0, Verdict: domain.VerdictFailed,
			Entries: []domain.ReportEntry{{Text: "Q", Picked: &picked, CorrectAnswer: "150 m"}},
		},
	}
	out = NewModel(&fakeSession{view: ended}, nil, Options{NoColor: true}).View()
	if !strings.Contains(out, "Échec · 0/1 (0%)") || !strings.Contains(out, "120 m → 150 m") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestViewMessageUpdatesModel(t *testing.T) {
	updates := make(chan domain.View, 1)
	m := NewModel(&fakeSession{view: domain.View{Phase: domain.PhaseEmpty}}, updates, Options{NoColor: true})

	updates <- domain.View{Phase: domain.PhaseReady}
	msg := m.Init()()
	next, cmd := m.Update(msg)
	if next.(Model).view.Phase != domain.PhaseReady || cmd == nil {
		t.Fatalf("expected ready view and a follow-up wait")
	}
}
