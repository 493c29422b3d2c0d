package app

import (
	"math"
	"time"

	"qcm-runner/internal/domain"
)

// recomputeScore counts the run's answers that match their question. It is the
// authoritative score in deferred mode.
func recomputeScore(run []*domain.Question, answers map[string]domain.AnswerRecord) int {
	score := 0
	for _, q := range run {
		if rec, ok := answers[q.ID]; ok && rec.Correct(q.CorrectAnswer) {
			score++
		}
	}
	return score
}

// verdict computes percentages and the pass/fail outcome of a score.
func verdict(score, limit int, threshold float64) (pct, failPct int, passed bool) {
	ratio := float64(score) / float64(max(1, limit))
	pct = int(math.Round(ratio * 100))
	return pct, 100 - pct, ratio >= threshold
}

type reportInput struct {
	runID     string
	sources   []string
	mode      domain.DisclosureMode
	score     int
	limit     int
	threshold float64
	finished  time.Time
	run       []*domain.Question
	answers   map[string]domain.AnswerRecord
}

func buildReport(in reportInput) domain.Report {
	pct, failPct, passed := verdict(in.score, in.limit, in.threshold)
	label := domain.VerdictFailed
	if passed {
		label = domain.VerdictPassed
	}

	entries := make([]domain.ReportEntry, 0, len(in.run))
	for _, q := range in.run {
		entry := domain.ReportEntry{
			QuestionID:    q.ID,
			Text:          q.Text,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if rec, ok := in.answers[q.ID]; ok {
			entry.Picked = rec.Picked
			entry.Correct = rec.Correct(q.CorrectAnswer)
		}
		entries = append(entries, entry)
	}

	sources := make([]string, len(in.sources))
	copy(sources, in.sources)
	return domain.Report{
		RunID:       in.runID,
		Sources:     sources,
		Mode:        in.mode,
		Score:       in.score,
		Limit:       in.limit,
		Percent:     pct,
		FailPercent: failPct,
		Passed:      passed,
		Verdict:     label,
		FinishedAt:  in.finished,
		Entries:     entries,
	}
}
