package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"qcm-runner/internal/domain"
)

// Catalogue lists the configured question sources.
type Catalogue interface {
	Sources() []domain.Source
}

// ReportLister returns recently finished run reports.
type ReportLister interface {
	Recent(ctx context.Context, limit int) ([]domain.Report, error)
}

type RouterConfig struct {
	AllowedOrigins []string
	Catalogue      Catalogue
	Reports        ReportLister
	WS             *WSHandler
}

const defaultReportPage = 20

// NewRouter mounts the health check, the catalogue and report endpoints and
// the session websocket.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(15 * time.Second))
		api.Get("/sources", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, cfg.Catalogue.Sources())
		})
		if cfg.Reports != nil {
			api.Get("/reports", func(w http.ResponseWriter, r *http.Request) {
				limit := defaultReportPage
				if raw := r.URL.Query().Get("limit"); raw != "" {
					if n, err := strconv.Atoi(raw); err == nil && n > 0 {
						limit = n
					}
				}
				reports, err := cfg.Reports.Recent(r.Context(), limit)
				if err != nil {
					log.Printf("list reports: %v", err)
					http.Error(w, "cannot list reports", http.StatusInternalServerError)
					return
				}
				writeJSON(w, http.StatusOK, reports)
			})
		}
	})

	r.Get("/ws", cfg.WS.ServeWS)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}
