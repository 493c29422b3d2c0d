package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"golang.org/x/sync/singleflight"

	"qcm-runner/internal/domain"
)

// Scheme is the source URL scheme served by QuestionSetFetcher, as in "pg:def".
const Scheme = "pg"

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// QuestionSetFetcher loads question set JSONB from Postgres. Concurrent loads
// of the same set share one query.
type QuestionSetFetcher struct {
	db    rowQuerier
	group singleflight.Group
}

func NewQuestionSetFetcher(db rowQuerier) *QuestionSetFetcher {
	return &QuestionSetFetcher{db: db}
}

func (f *QuestionSetFetcher) Fetch(ctx context.Context, src domain.Source) ([]byte, error) {
	name := setName(src.URL)
	if name == "" {
		return nil, fmt.Errorf("%w: empty question set name in %s", domain.ErrSourceNotFound, src.URL)
	}
	v, err, _ := f.group.Do(name, func() (interface{}, error) {
		var raw []byte
		err := f.db.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, name).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: question set %s", domain.ErrSourceNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("load question set: %w", err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	raw := v.([]byte)
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func setName(url string) string {
	name := strings.TrimPrefix(url, Scheme+":")
	return strings.Trim(name, "/")
}
