package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"qcm-runner/internal/app"
	"qcm-runner/internal/bank"
	"qcm-runner/internal/config"
	"qcm-runner/internal/domain"
	"qcm-runner/internal/infra/memory"
	"qcm-runner/internal/infra/postgres"
	redisstore "qcm-runner/internal/infra/redis"
	"qcm-runner/internal/prefs"
)

// reportStore is satisfied by both the memory and the Postgres report stores.
type reportStore interface {
	app.ReportSink
	Recent(ctx context.Context, limit int) ([]domain.Report, error)
}

// deps holds the infrastructure shared by every subcommand.
type deps struct {
	cfg     config.Config
	pool    *pgxpool.Pool
	redis   *redis.Client
	loader  *bank.Loader
	kv      prefs.KV
	reports reportStore
}

func (d *deps) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

func buildDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{cfg: cfg}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.pool = pool
	}

	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.kv = redisstore.NewKV(d.redis, config.TTLDuration(cfg.Redis.TTL, 0))
	} else {
		d.kv = memory.NewKV()
	}

	if d.pool != nil {
		d.reports = postgres.NewReportStore(d.pool)
	} else {
		d.reports = memory.NewReportStore()
	}

	fetcher, err := buildFetcher(cfg, d.pool)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.loader = bank.NewLoader(cfg.Quiz.Sources, fetcher, cfg.Quiz.FetchTimeoutDuration())
	return d, nil
}

// buildFetcher routes source URLs by scheme. Relative paths resolve against
// quiz.baseURL when set, and against quiz.sourceDir otherwise.
func buildFetcher(cfg config.Config, pool *pgxpool.Pool) (bank.Fetcher, error) {
	client := &http.Client{Timeout: 2 * cfg.Quiz.FetchTimeoutDuration()}
	web, err := bank.NewHTTPFetcher(client, cfg.Quiz.BaseURL)
	if err != nil {
		return nil, err
	}
	files := bank.FileFetcher{Dir: cfg.Quiz.SourceDir}

	router := bank.SchemeRouter{
		"http":  web,
		"https": web,
		"file":  files,
		"":      files,
	}
	if cfg.Quiz.BaseURL != "" {
		router[""] = web
	}
	if pool != nil {
		router[postgres.Scheme] = postgres.NewQuestionSetFetcher(pool)
	}
	return router, nil
}

func (d *deps) quizService() *app.QuizService {
	return app.NewQuizService(d.loader, d.kv, d.cfg.Quiz.Defaults, d.reports).
		WithPassThreshold(d.cfg.Quiz.PassThreshold)
}

const shutdownTimeout = 5 * time.Second
