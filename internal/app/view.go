package app

import "qcm-runner/internal/domain"

// View returns the current view model.
func (s *Session) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives a view after every state change,
// starting with the current one. The caller must invoke the returned cancel
// function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.View, func()) {
	ch := make(chan domain.View, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow subscriber: drop its oldest view so the newest one always lands.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (s *Session) snapshotLocked() domain.View {
	view := domain.View{
		Phase:          s.phase,
		SelectionLabel: s.loader.SelectionLabel(s.selection),
		Selection:      append([]string(nil), s.selection...),
		BankSize:       len(s.bank),
		Limit:          s.limit,
		Score:          s.score,
		ShowScore:      s.mode == domain.ModeInstant,
		Settings:       s.settings,
		Warnings:       append([]string(nil), s.warnings...),
	}
	if view.Limit == 0 {
		view.Limit = s.settings.Limit(len(s.bank))
	}

	switch s.phase {
	case domain.PhaseRunning:
		view.Index = s.cursor + 1
		view.CanPrevious = s.cursor > 0
		if q := s.currentLocked(); q != nil {
			_, answered := s.answers[q.ID]
			view.CanNext = answered
			view.Question = s.questionViewLocked(q)
		}
		if s.timer.running() {
			view.Timer = domain.TimerView{
				Active:    true,
				Remaining: s.timer.remaining,
				Display:   domain.FormatSeconds(s.timer.remaining),
			}
		}
	case domain.PhaseEnded:
		view.ShowScore = true
		if s.summary {
			view.Index = len(s.run)
			view.CanPrevious = len(s.run) > 0
			if s.report != nil {
				report := *s.report
				view.Report = &report
			}
		} else {
			view.Index = s.cursor + 1
			view.CanPrevious = s.cursor > 0
			view.CanNext = true
			view.Question = s.questionViewLocked(s.run[s.cursor])
		}
	}
	return view
}

func (s *Session) questionViewLocked(q *domain.Question) *domain.QuestionView {
	rec, answered := s.answers[q.ID]
	ended := s.phase == domain.PhaseEnded
	reveal := ended || (answered && s.mode == domain.ModeInstant)

	order := s.optionOrder[q.ID]
	if order == nil {
		order = q.Options
	}
	options := make([]domain.OptionView, 0, len(order))
	for i, text := range order {
		opt := domain.OptionView{Label: domain.OptionLabel(i), Text: text}
		picked := answered && rec.Picked != nil && domain.Equal(text, *rec.Picked)
		switch {
		case reveal && domain.Equal(text, q.CorrectAnswer):
			opt.State = domain.OptionCorrect
		case reveal && picked:
			opt.State = domain.OptionWrong
		case picked:
			opt.State = domain.OptionPicked
		}
		options = append(options, opt)
	}

	qv := &domain.QuestionView{
		ID:       q.ID,
		Text:     q.Text,
		Options:  options,
		Answered: answered,
		TimedOut: answered && rec.Picked == nil,
		Review:   ended || s.cursor < len(s.run)-1,
	}
	if reveal {
		qv.Explanation = q.Explanation
	}
	return qv
}
