package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/fincopilot/internal/app"
	"github.com/dvloznov/fincopilot/internal/config"
	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/infra/memory"
	"github.com/dvloznov/fincopilot/internal/jobs"
	"github.com/dvloznov/fincopilot/internal/jobs/inmemory"
)

// scriptedCompleter answers extraction and categorize prompts differently.
type scriptedCompleter struct {
	extract string
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	if maxTokens <= 50 {
		return "еда", nil
	}
	return c.extract, nil
}

type testServer struct {
	handler   http.Handler
	completer *scriptedCompleter
	jobStore  *inmemory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		App:        config.AppConfig{HomeCurrency: "RUB", Source: "api", Timezone: "UTC", OwnerID: "default"},
		LLM:        config.LLMConfig{Provider: config.ProviderOpenRouter, Model: "test-model"},
		Storage:    config.StorageConfig{Backend: config.BackendMemory},
		Vocabulary: domain.DefaultVocabulary(),
	}
	completer := &scriptedCompleter{extract: `{"type":"expense","amount":500,"category":"Еда","description":"обед"}`}
	now := func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }
	a := app.Assemble(cfg, zerolog.Nop(), memory.NewStore(), completer, nil, now)

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(inmemory.Options{Workers: 1}, jobStore, zerolog.Nop())
	require.NoError(t, queue.Start(context.Background(), jobs.IngestHandler(a.Ingest)))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.Drain(ctx)
	})

	return &testServer{
		handler:   NewRouter(a, queue, jobStore, zerolog.Nop()),
		completer: completer,
		jobStore:  jobStore,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestParse_DoesNotPersist(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/parse", map[string]string{"text": "расход 500 обед"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "enriched", body["tier"])
	record := body["record"].(map[string]interface{})
	assert.Equal(t, "expense", record["type"])
	assert.Equal(t, 500.0, record["amount"])
	assert.Equal(t, "еда", record["category"])
	assert.Equal(t, "2024-03-15", record["date"])

	_, list := s.do(t, http.MethodGet, "/transactions", nil)
	assert.Equal(t, 0.0, list["count"])
}

func TestParse_Failures(t *testing.T) {
	s := newTestServer(t)
	s.completer.extract = "I cannot help with that"

	rec, body := s.do(t, http.MethodPost, "/parse", map[string]string{"text": "как дела"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "malformed_model_output", body["kind"])

	rec, body = s.do(t, http.MethodPost, "/parse", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "ambiguous_input", body["kind"])

	req := httptest.NewRequest(http.MethodPost, "/parse", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	s.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/transactions", map[string]string{"text": "расход 500 обед"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := body["record"].(map[string]interface{})["id"].(string)
	require.NotEmpty(t, id)

	rec, body = s.do(t, http.MethodGet, "/transactions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "обед", body["description"])

	rec, body = s.do(t, http.MethodPatch, "/transactions/"+id, map[string]string{"amount": "700,5", "category": "Кафе"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 700.5, body["amount"])
	assert.Equal(t, "кафе", body["category"])

	rec, _ = s.do(t, http.MethodPatch, "/transactions/"+id, map[string]string{"created_at": "2020-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/search?q="+url.QueryEscape("ОБЕД"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["count"])

	rec, body = s.do(t, http.MethodGet, "/transactions?start_date=2024-03-01&end_date=2024-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["count"])

	rec, _ = s.do(t, http.MethodGet, "/transactions?start_date=2024-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/transactions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/transactions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodPost, "/transactions", map[string]string{"text": "расход 500 обед"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := s.do(t, http.MethodGet, "/reports/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := body["stats"].(map[string]interface{})
	assert.Equal(t, 500.0, st["total_expense"])
	assert.Equal(t, -500.0, st["profit"])
	assert.Contains(t, body["text"], "месяц")

	rec, body = s.do(t, http.MethodGet, "/reports/top?n=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["categories"], 1)

	rec, body = s.do(t, http.MethodGet, "/reports/profit?period=day", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -500.0, body["profit"])

	rec, _ = s.do(t, http.MethodGet, "/reports/stats?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/reports/narrative", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["analyzed"])

	rec, body = s.do(t, http.MethodGet, "/reports/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["text"])
}

func TestBudgets(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodPost, "/transactions", map[string]string{"text": "расход 500 обед"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := s.do(t, http.MethodPut, "/budgets", map[string]interface{}{"category": "Еда", "amount": 300, "period": "monthly"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "еда", body["category"])

	rec, _ = s.do(t, http.MethodPut, "/budgets", map[string]interface{}{"category": "еда", "amount": -1, "period": "monthly"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/budgets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["count"])

	rec, body = s.do(t, http.MethodGet, "/budgets/status?overspent=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1.0, body["count"])
	status := body["statuses"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, status["overspent"])
	assert.Equal(t, -200.0, status["remaining"])

	del := "/budgets?" + url.Values{"category": {"еда"}, "period": {"monthly"}}.Encode()
	rec, _ = s.do(t, http.MethodDelete, del, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, del, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessages(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/messages", map[string]string{"text": "привет"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body := s.do(t, http.MethodPost, "/messages", map[string]string{"text": "расход 500 обед"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := body["job_id"].(string)

	require.Eventually(t, func() bool {
		job, err := s.jobStore.GetJob(context.Background(), jobID)
		return err == nil && job.Done()
	}, 5*time.Second, 10*time.Millisecond)

	rec, body = s.do(t, http.MethodGet, "/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", body["status"])
	assert.NotEmpty(t, body["record_id"])

	rec, body = s.do(t, http.MethodGet, "/jobs?origin=api", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["count"])

	rec, _ = s.do(t, http.MethodGet, "/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndRouting(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["config"].(map[string]interface{})["storage"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, _ = s.do(t, http.MethodPut, "/transactions", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
