package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"qcm-runner/internal/domain"
)

var (
	colorTitle   = lipgloss.Color("33")
	colorMuted   = lipgloss.Color("244")
	colorWarn    = lipgloss.Color("220")
	colorCorrect = lipgloss.Color("42")
	colorWrong   = lipgloss.Color("196")
	colorPicked  = lipgloss.Color("39")
)

func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

func renderHeader(v domain.View, noColor bool) string {
	line := fmt.Sprintf("%s · %d questions", v.SelectionLabel, v.BankSize)
	if v.Phase == domain.PhaseRunning || v.Phase == domain.PhaseEnded {
		line += fmt.Sprintf(" · %d/%d", v.Index, v.Limit)
		if v.ShowScore {
			line += fmt.Sprintf(" · score %d", v.Score)
		}
	}
	if v.Timer.Active {
		line += " · " + v.Timer.Display
	}
	return stylize(line, noColor, colorTitle)
}

func renderWarnings(warnings []string, noColor bool) string {
	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, stylize("! "+w, noColor, colorWarn))
	}
	return strings.Join(lines, "\n")
}

func renderBody(v domain.View, cursor int, noColor bool) string {
	switch {
	case v.Phase == domain.PhaseEmpty:
		return "No questions loaded."
	case v.Phase == domain.PhaseReady:
		return "Press s to start."
	case v.Report != nil:
		return renderReport(*v.Report, noColor)
	case v.Question != nil:
		return renderQuestion(*v.Question, cursor, noColor)
	}
	return ""
}

func renderQuestion(q domain.QuestionView, cursor int, noColor bool) string {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteString("\n\n")
	for i, opt := range q.Options {
		pointer := " "
		if i == cursor && !q.Answered {
			pointer = ">"
		}
		line := fmt.Sprintf("%s %s. %s", pointer, opt.Label, opt.Text)
		switch opt.State {
		case domain.OptionCorrect:
			line = stylize(line+"  ✓", noColor, colorCorrect)
		case domain.OptionWrong:
			line = stylize(line+"  ✗", noColor, colorWrong)
		case domain.OptionPicked:
			line = stylize(line+"  •", noColor, colorPicked)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if q.TimedOut {
		b.WriteString(stylize("\nTime is up.", noColor, colorWarn))
		b.WriteString("\n")
	}
	if q.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(stylize(q.Explanation, noColor, colorMuted))
		b.WriteString("\n")
	}
	return b.String()
}

func renderReport(r domain.Report, noColor bool) string {
	color := colorWrong
	if r.Passed {
		color = colorCorrect
	}
	head := stylize(fmt.Sprintf("%s · %d/%d (%d%%)", r.Verdict, r.Score, r.Limit, r.Percent), noColor, color)
	lines := []string{head, ""}
	for i, e := range r.Entries {
		mark := "✗"
		if e.Correct {
			mark = "✓"
		}
		picked := "time out"
		if e.Picked != nil {
			picked = *e.Picked
		}
		lines = append(lines, fmt.Sprintf("%2d. %s %s", i+1, mark, e.Text))
		if !e.Correct {
			lines = append(lines, stylize(fmt.Sprintf("      %s → %s", picked, e.CorrectAnswer), noColor, colorMuted))
		}
	}
	return strings.Join(lines, "\n")
}

func renderFooter(v domain.View, noColor bool) string {
	var keys []string
	switch v.Phase {
	case domain.PhaseReady:
		keys = append(keys, "s start")
	case domain.PhaseRunning:
		if v.Settings.KeyboardShortcuts {
			keys = append(keys, "a-z answer")
		}
		keys = append(keys, "↑↓ space pick")
		keys = append(keys, "← previous", "→ next", "e end")
	case domain.PhaseEnded:
		keys = append(keys, "← → review", "r restart")
	}
	keys = append(keys, "q quit")
	return stylize(strings.Join(keys, " · "), noColor, colorMuted)
}
