package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"qcm-runner/internal/app"
	"qcm-runner/internal/bank"
	"qcm-runner/internal/domain"
	"qcm-runner/internal/infra/memory"
)

const sampleSet = `[
	{"id": 1, "q": "What is 2 + 2?", "opts": ["3", "4", "5"], "ans": "4", "why": "arithmetic"},
	{"id": 2, "q": "Capital of France?", "opts": ["Paris", "Lyon"], "ans": "Paris"}
]`

func newTestServer(t *testing.T) (*httptest.Server, *memory.ReportStore) {
	t.Helper()
	fetcher := bank.FetcherFunc(func(_ context.Context, src domain.Source) ([]byte, error) {
		if src.ID == "broken" {
			return nil, errors.New("unreachable")
		}
		return []byte(sampleSet), nil
	})
	loader := bank.NewLoader([]domain.Source{
		{ID: "def", Label: "Définitions", URL: "def.json"},
		{ID: "broken", Label: "Broken", URL: "broken.json"},
	}, fetcher, time.Second)

	defaults := domain.DefaultSettings()
	defaults.ShuffleOptions = false
	reports := memory.NewReportStore()
	service := app.NewQuizService(loader, memory.NewKV(), defaults, reports)

	router := NewRouter(RouterConfig{
		AllowedOrigins: []string{"*"},
		Catalogue:      loader,
		Reports:        reports,
		WS:             NewWSHandler(service, "default"),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, reports
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?profile=p1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readMessage(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	var msg message
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

// readViewUntil skips views until match accepts one.
func readViewUntil(t *testing.T, conn *websocket.Conn, match func(domain.View) bool) domain.View {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type != "view" {
			continue
		}
		var view domain.View
		if err := json.Unmarshal(msg.Payload, &view); err != nil {
			t.Fatalf("decode view: %v", err)
		}
		if match(view) {
			return view
		}
	}
	t.Fatalf("expected view not received")
	return domain.View{}
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type != "error" {
			continue
		}
		var payload errorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		return payload.Message
	}
	t.Fatalf("expected error message not received")
	return ""
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestWebSocketRunFlow(t *testing.T) {
	server, reports := newTestServer(t)
	conn := dial(t, server)

	ready := readViewUntil(t, conn, func(v domain.View) bool { return v.Phase == domain.PhaseReady })
	if ready.BankSize != 2 || ready.SelectionLabel != "All (mixed)" {
		t.Fatalf("expected bank from the reachable source, got %+v", ready)
	}
	if len(ready.Warnings) != 1 || !strings.Contains(ready.Warnings[0], "«broken»") {
		t.Fatalf("expected warning about broken source, got %v", ready.Warnings)
	}

	send(t, conn, "start", nil)
	running := readViewUntil(t, conn, func(v domain.View) bool { return v.Phase == domain.PhaseRunning })
	if running.Question == nil || running.Index != 1 {
		t.Fatalf("expected first question, got %+v", running)
	}

	view := running
	for view.Phase != domain.PhaseEnded {
		correct := correctIndex(view.Question)
		send(t, conn, "answerIndex", map[string]int{"index": correct})
		answered := readViewUntil(t, conn, func(v domain.View) bool { return v.Question != nil && v.Question.Answered })
		if answered.Question.Options[correct].State != domain.OptionCorrect {
			t.Fatalf("expected instant reveal, got %+v", answered.Question.Options)
		}
		send(t, conn, "next", nil)
		view = readViewUntil(t, conn, func(v domain.View) bool {
			return v.Phase == domain.PhaseEnded || (v.Question != nil && !v.Question.Answered)
		})
	}
	if view.Report == nil || view.Report.Score != 2 || view.Report.Verdict != domain.VerdictPassed {
		t.Fatalf("expected passed summary, got %+v", view.Report)
	}

	// The report is persisted right after the final view is pushed.
	deadline := time.Now().Add(2 * time.Second)
	for len(reports.Reports()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := reports.Reports(); len(got) != 1 || got[0].Score != 2 || !got[0].Passed {
		t.Fatalf("expected one passed report, got %+v", got)
	}
}

func correctIndex(q *domain.QuestionView) int {
	answers := map[string]string{"What is 2 + 2?": "4", "Capital of France?": "Paris"}
	for i, opt := range q.Options {
		if opt.Text == answers[q.Text] {
			return i
		}
	}
	return -1
}

func TestWebSocketErrors(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server)
	readViewUntil(t, conn, func(v domain.View) bool { return v.Phase == domain.PhaseReady })

	send(t, conn, "select", map[string]any{"ids": []string{"broken"}})
	if msg := readError(t, conn); !strings.HasPrefix(msg, "no question source available") {
		t.Fatalf("unexpected load error %q", msg)
	}

	send(t, conn, "bogus", nil)
	if msg := readError(t, conn); msg != "unsupported message type" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestWebSocketSettingsMerge(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server)
	readViewUntil(t, conn, func(v domain.View) bool { return v.Phase == domain.PhaseReady })

	send(t, conn, "settings", map[string]any{"timer": true, "tsec": 12})
	view := readViewUntil(t, conn, func(v domain.View) bool { return v.Settings.TimerEnabled })
	if view.Settings.TimerSeconds != 12 || !view.Settings.InstantDisclosure {
		t.Fatalf("expected merged settings, got %+v", view.Settings)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/sources")
	if err != nil {
		t.Fatalf("get sources: %v", err)
	}
	defer resp.Body.Close()
	var sources []domain.Source
	if err := json.NewDecoder(resp.Body).Decode(&sources); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sources) != 2 || sources[0].ID != "def" {
		t.Fatalf("unexpected sources %+v", sources)
	}

	health, err := http.Get(server.URL + "/healthz")
	if err != nil || health.StatusCode != http.StatusOK {
		t.Fatalf("healthz failed: %v", err)
	}
	health.Body.Close()
}
