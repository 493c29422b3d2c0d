package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"qcm-runner/internal/domain"
)

// DefaultFetchTimeout bounds every single source fetch.
const DefaultFetchTimeout = 10 * time.Second

// Result is the outcome of a load where at least one source succeeded.
type Result struct {
	Selection []string
	Questions []domain.RawQuestion
	Failures  []domain.SourceFailure
}

// Warnings returns the non-fatal failure messages.
func (r Result) Warnings() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Message)
	}
	return out
}

// Loader fetches and merges the question sets of selected sources. It keeps no
// state between calls.
type Loader struct {
	sources []domain.Source
	index   map[string]domain.Source
	fetcher Fetcher
	timeout time.Duration
}

func NewLoader(sources []domain.Source, fetcher Fetcher, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	index := make(map[string]domain.Source, len(sources))
	for _, s := range sources {
		index[s.ID] = s
	}
	return &Loader{sources: sources, index: index, fetcher: fetcher, timeout: timeout}
}

// Sources returns the known source catalogue in configuration order.
func (l *Loader) Sources() []domain.Source {
	out := make([]domain.Source, len(l.sources))
	copy(out, l.sources)
	return out
}

// Resolve drops unknown and duplicate ids. An empty result falls back to every
// known source.
func (l *Loader) Resolve(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := l.index[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		for _, s := range l.sources {
			out = append(out, s.ID)
		}
	}
	return out
}

// SelectionLabel describes a resolved selection for display.
func (l *Loader) SelectionLabel(ids []string) string {
	switch {
	case len(ids) == len(l.sources):
		return "All (mixed)"
	case len(ids) == 1:
		if s, ok := l.index[ids[0]]; ok && s.Label != "" {
			return s.Label
		}
		return ids[0]
	default:
		return fmt.Sprintf("Custom mix (%d)", len(ids))
	}
}

type fetchOutcome struct {
	questions []domain.RawQuestion
	failure   *domain.SourceFailure
}

// Load fetches every selected source concurrently and waits for all of them.
// It fails with a *domain.LoadError only when no source succeeded.
func (l *Loader) Load(ctx context.Context, ids []string) (Result, error) {
	selection := l.Resolve(ids)
	outcomes := make([]fetchOutcome, len(selection))

	var g errgroup.Group
	for i, id := range selection {
		i := i
		src := l.index[id]
		g.Go(func() error {
			outcomes[i] = l.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Selection: selection}
	for _, o := range outcomes {
		if o.failure != nil {
			res.Failures = append(res.Failures, *o.failure)
			continue
		}
		res.Questions = append(res.Questions, o.questions...)
	}

	if len(res.Failures) == len(selection) {
		return Result{}, &domain.LoadError{Failures: res.Failures}
	}
	for _, f := range res.Failures {
		log.Printf("warning: source %s skipped: %s", f.SourceID, f.Message)
	}
	return res, nil
}

func (l *Loader) fetchOne(ctx context.Context, src domain.Source) fetchOutcome {
	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	data, err := l.fetcher.Fetch(fetchCtx, src)
	if err != nil {
		return fetchOutcome{failure: &domain.SourceFailure{
			SourceID: src.ID,
			Message:  describeFetchError(src, err, l.timeout),
		}}
	}

	entries, err := decodeArray(data)
	if err != nil {
		return fetchOutcome{failure: &domain.SourceFailure{
			SourceID: src.ID,
			Message:  fmt.Sprintf("invalid format for «%s»: the root JSON value must be an array", src.ID),
		}}
	}

	questions := make([]domain.RawQuestion, 0, len(entries))
	for _, entry := range entries {
		rq := domain.RawQuestion{SourceID: src.ID}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			rq.Malformed = true
		} else {
			rq.Fields = fields
		}
		questions = append(questions, rq)
	}
	return fetchOutcome{questions: questions}
}

func decodeArray(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("not an array")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func describeFetchError(src domain.Source, err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("cannot load «%s»: timed out after %s: %s", src.ID, timeout, src.URL)
	}
	return fmt.Sprintf("cannot load «%s»: %v", src.ID, err)
}
