package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/relay-sequencer/internal/engine"
	"github.com/nerrad567/relay-sequencer/internal/history"
	"github.com/nerrad567/relay-sequencer/internal/infrastructure/config"
	"github.com/nerrad567/relay-sequencer/internal/infrastructure/logging"
	"github.com/nerrad567/relay-sequencer/internal/preset"
	"github.com/nerrad567/relay-sequencer/internal/schedule"
)

// fakeEngine implements RunController for handler tests.
type fakeEngine struct {
	mu       sync.Mutex
	runID    string
	startErr error
	started  []schedule.RunConfig
	stopped  bool
	status   engine.RunStatus
}

func (f *fakeEngine) Start(_ context.Context, cfg schedule.RunConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, cfg)
	return f.runID, nil
}

func (f *fakeEngine) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeEngine) Status() engine.RunStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// fakeHistory implements history.Repository over a fixed set of runs.
type fakeHistory struct {
	runs []history.Run
}

func (f *fakeHistory) Record(context.Context, engine.Result) error {
	return nil
}

func (f *fakeHistory) List(_ context.Context, filter history.Filter) (*history.ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return &history.ListResult{
		Runs:   f.runs,
		Total:  len(f.runs),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func (f *fakeHistory) Get(_ context.Context, id string) (*history.Run, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, history.ErrNotFound
}

// fakeLibrary implements PresetLibrary over an in-memory map.
type fakeLibrary struct {
	configs map[string]*schedule.RunConfig
}

func (f *fakeLibrary) List() ([]preset.Preset, error) {
	presets := []preset.Preset{}
	for name, cfg := range f.configs {
		presets = append(presets, preset.Preset{
			Name:        name,
			Description: cfg.Description,
			Channels:    len(cfg.Channels),
		})
	}
	return presets, nil
}

func (f *fakeLibrary) Load(name string) (*schedule.RunConfig, error) {
	cfg, ok := f.configs[name]
	if !ok {
		return nil, preset.ErrNotFound
	}
	return cfg, nil
}

func testLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// newTestServer builds a server over the fakes and returns its router.
func newTestServer(t *testing.T, eng *fakeEngine, hist history.Repository, lib PresetLibrary) http.Handler {
	t.Helper()
	srv, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  testLogger(),
		Engine:  eng,
		History: hist,
		Presets: lib,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv.buildRouter()
}

const validRunDoc = `{
	"description": "germination lighting",
	"channels": {
		"grow-light": {"channel": 2, "signal": {"length": 10, "state": 1}}
	}
}`

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Deps{Engine: &fakeEngine{}}); err == nil {
		t.Error("expected error without logger")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("expected error without engine")
	}
}

func TestHealth(t *testing.T) {
	router := newTestServer(t, &fakeEngine{}, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestStartRun(t *testing.T) {
	eng := &fakeEngine{runID: "run-a1b2c3d4"}
	router := newTestServer(t, eng, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/runs", validRunDoc)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["run_id"] != "run-a1b2c3d4" {
		t.Errorf("run_id = %v", body["run_id"])
	}

	if len(eng.started) != 1 || eng.started[0].Description != "germination lighting" {
		t.Errorf("engine received %+v", eng.started)
	}
}

func TestStartRun_InvalidBody(t *testing.T) {
	router := newTestServer(t, &fakeEngine{}, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{nope"},
		{"missing description", `{"channels": {}}`},
		{"channel out of range", `{"description": "x", "channels": {"a": {"channel": 9, "signal": {"length": 1, "state": 0}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/runs", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestStartRun_AlreadyRunning(t *testing.T) {
	eng := &fakeEngine{startErr: engine.ErrAlreadyRunning}
	router := newTestServer(t, eng, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/runs", validRunDoc)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestStartRun_RelayUnavailable(t *testing.T) {
	eng := &fakeEngine{startErr: engine.ErrInitFailed}
	router := newTestServer(t, eng, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/runs", validRunDoc)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestStopRun(t *testing.T) {
	t.Run("active run stopped", func(t *testing.T) {
		router := newTestServer(t, &fakeEngine{stopped: true}, nil, nil)
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/runs/active", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"stopped":true`) {
			t.Errorf("body = %s", rec.Body)
		}
	})

	t.Run("no active run is a no-op", func(t *testing.T) {
		router := newTestServer(t, &fakeEngine{stopped: false}, nil, nil)
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/runs/active", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"stopped":false`) {
			t.Errorf("body = %s", rec.Body)
		}
	})
}

func TestActiveRun(t *testing.T) {
	eng := &fakeEngine{status: engine.RunStatus{
		State:            engine.StateRunning,
		StateName:        "running",
		RunID:            "run-ffee0011",
		EventsTotal:      7,
		EventsDispatched: 3,
	}}
	router := newTestServer(t, eng, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/runs/active", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var status engine.RunStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if status.StateName != "running" || status.RunID != "run-ffee0011" {
		t.Errorf("status = %+v", status)
	}
}

func TestListRuns(t *testing.T) {
	hist := &fakeHistory{runs: []history.Run{
		{ID: "run-00000001", Description: "first", Outcome: "completed"},
		{ID: "run-00000002", Description: "second", Outcome: "cancelled"},
	}}
	router := newTestServer(t, &fakeEngine{}, hist, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/runs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var result history.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if result.Total != 2 || len(result.Runs) != 2 {
		t.Errorf("result = %+v", result)
	}
}

func TestListRuns_BadPagination(t *testing.T) {
	router := newTestServer(t, &fakeEngine{}, &fakeHistory{}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/runs?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListRuns_HistoryDisabled(t *testing.T) {
	router := newTestServer(t, &fakeEngine{}, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/runs", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetRun(t *testing.T) {
	hist := &fakeHistory{runs: []history.Run{
		{ID: "run-00000001", Description: "first", Outcome: "completed"},
	}}
	router := newTestServer(t, &fakeEngine{}, hist, nil)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/runs/run-00000001", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "first") {
			t.Errorf("body = %s", rec.Body)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/runs/run-missing1", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestPresets(t *testing.T) {
	cfg, err := schedule.Parse([]byte(validRunDoc))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	lib := &fakeLibrary{configs: map[string]*schedule.RunConfig{"lighting": cfg}}
	eng := &fakeEngine{runID: "run-deadbeef"}
	router := newTestServer(t, eng, nil, lib)

	t.Run("list", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/presets", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "lighting") {
			t.Errorf("body = %s", rec.Body)
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/presets/lighting", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "germination lighting") {
			t.Errorf("body = %s", rec.Body)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/presets/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("start", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/presets/lighting/start", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		if len(eng.started) != 1 {
			t.Errorf("engine received %d starts", len(eng.started))
		}
	})

	t.Run("disabled", func(t *testing.T) {
		bare := newTestServer(t, &fakeEngine{}, nil, nil)
		rec := doRequest(t, bare, http.MethodGet, "/api/v1/presets", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestServer(t, &fakeEngine{}, nil, nil)

	t.Run("generated when absent", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected generated X-Request-ID header")
		}
	})

	t.Run("echoed when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("X-Request-ID", "fixed-id-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Header().Get("X-Request-ID") != "fixed-id-123" {
			t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
		}
	})
}
