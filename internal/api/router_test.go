package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baharkarakas/copywriter-backend/internal/auth"
	"github.com/baharkarakas/copywriter-backend/internal/config"
	"github.com/baharkarakas/copywriter-backend/internal/generator"
	"github.com/baharkarakas/copywriter-backend/internal/models"
	"github.com/baharkarakas/copywriter-backend/internal/repository/memory"
	"github.com/baharkarakas/copywriter-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend answers with a fixed text, or fails with err.
type stubBackend struct {
	text string
	err  error
}

func (b stubBackend) Complete(context.Context, string, string) (string, error) {
	return b.text, b.err
}

type env struct {
	h     http.Handler
	repos memory.Repositories
	tm    *auth.TokenManager
}

func newEnv(t *testing.T, backend generator.Backend) env {
	t.Helper()
	cfg := config.Config{Env: "dev", RateRPS: 0}
	repos := memory.NewRepositories(0)
	tm := auth.NewTokenManager("a", "r", time.Minute, time.Hour)
	ledger := services.NewBalanceService(repos.Balances, repos.AuditLogs, nil)
	cache := services.NewStatsCache(time.Minute)
	gen := services.NewGenerationService(services.GenerationDeps{
		Generator: generator.New(backend, "gemini-2.5-flash", time.Second),
		Ledger:    ledger,
		Store:     repos.Generations,
		AuditLogs: repos.AuditLogs,
		Cache:     cache,
	})
	hist := services.NewHistoryService(repos.Generations, ledger, cache)
	h := NewRouter(RouterDeps{Cfg: cfg, TM: tm, BalanceSvc: ledger, GenSvc: gen, HistorySvc: hist})
	return env{h: h, repos: repos, tm: tm}
}

func (e env) do(t *testing.T, method, path, user string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("Authorization", "Bearer dev-"+user)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

const prompt = "Write a tagline for a coffee shop"

// tokensFor is the cost the generator charges for prompt+output on ad-copy.
func tokensFor(output string) int64 {
	return generator.EstimateTokens(generator.FullPrompt(models.AdCopy, prompt) + output)
}

func TestGenerateHappyPath(t *testing.T) {
	e := newEnv(t, stubBackend{text: "Brewed for you."})
	e.repos.Balances.Set("alice", 500, "")
	cost := tokensFor("Brewed for you.")

	rec, body := e.do(t, http.MethodPost, "/api/v1/generate/ad-copy", "alice", map[string]string{"prompt": prompt})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(500-cost), data["tokensRemaining"])
	gen := data["generation"].(map[string]any)
	assert.Equal(t, "ad-copy", gen["contentType"])
	assert.Equal(t, float64(cost), gen["tokensUsed"])
	assert.Equal(t, "gemini-2.5-flash", gen["model"])
	assert.Equal(t, "alice", gen["user"])

	b, _ := e.repos.Balances.Get(context.Background(), "alice")
	assert.Equal(t, 500-cost, b.TokensRemaining)
}

func TestGenerateInsufficientBalance(t *testing.T) {
	e := newEnv(t, stubBackend{text: "Brewed for you."})
	e.repos.Balances.Set("alice", 5, "")
	cost := tokensFor("Brewed for you.")

	rec, body := e.do(t, http.MethodPost, "/api/v1/generate/ad-copy", "alice", map[string]string{"prompt": prompt})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(5), body["tokensRemaining"])
	assert.Equal(t, float64(cost), body["tokensRequired"])
	assert.NotEmpty(t, body["message"])

	n, _ := e.repos.Generations.CountByOwner(context.Background(), "alice")
	assert.Zero(t, n)
}

func TestGenerateMissingPrompt(t *testing.T) {
	e := newEnv(t, stubBackend{text: "x"})
	rec, body := e.do(t, http.MethodPost, "/api/v1/generate/blog-post", "alice", map[string]string{"model": "m"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Please provide a prompt", body["message"])
}

func TestGenerateBackendErrors(t *testing.T) {
	e := newEnv(t, stubBackend{err: errors.New("RESOURCE_EXHAUSTED")})
	e.repos.Balances.Set("alice", 500, "")
	rec, _ := e.do(t, http.MethodPost, "/api/v1/generate/social-media", "alice", map[string]string{"prompt": "p"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	e = newEnv(t, stubBackend{err: errors.New("boom")})
	e.repos.Balances.Set("alice", 500, "")
	rec, body := e.do(t, http.MethodPost, "/api/v1/generate/social-media", "alice", map[string]string{"prompt": "p"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, false, body["success"])

	b, _ := e.repos.Balances.Get(context.Background(), "alice")
	assert.Equal(t, int64(500), b.TokensRemaining)
}

func TestUnknownContentTypeNotRouted(t *testing.T) {
	e := newEnv(t, stubBackend{text: "x"})
	rec, _ := e.do(t, http.MethodPost, "/api/v1/generate/limerick", "alice", map[string]string{"prompt": "p"})
	assert.GreaterOrEqual(t, rec.Code, 400)
	assert.NotEqual(t, http.StatusCreated, rec.Code)
}

func TestRequiresAuth(t *testing.T) {
	e := newEnv(t, stubBackend{text: "x"})
	rec, body := e.do(t, http.MethodGet, "/api/v1/generate/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestHistoryStatsAndOwnership(t *testing.T) {
	e := newEnv(t, stubBackend{text: "Out."})
	e.repos.Balances.Set("alice", 10000, "pro")
	e.repos.Balances.Set("bob", 10000, "")

	var ids []string
	for i := 0; i < 3; i++ {
		rec, body := e.do(t, http.MethodPost, "/api/v1/generate/blog-post", "alice", map[string]string{"prompt": "p"})
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, body["data"].(map[string]any)["generation"].(map[string]any)["id"].(string))
	}
	rec, _ := e.do(t, http.MethodPost, "/api/v1/generate/ad-copy", "alice", map[string]string{"prompt": "p"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := e.do(t, http.MethodGet, "/api/v1/generate/history?page=2&limit=3", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Len(t, data["generations"], 1)
	assert.Equal(t, map[string]any{"page": 2.0, "limit": 3.0, "total": 4.0, "pages": 2.0}, data["pagination"])

	rec, body = e.do(t, http.MethodGet, "/api/v1/generate/history?page=abc", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pag := body["data"].(map[string]any)["pagination"].(map[string]any)
	assert.Equal(t, 1.0, pag["page"])
	assert.Equal(t, 10.0, pag["limit"])

	rec, body = e.do(t, http.MethodGet, "/api/v1/generate/history?page=922337203685477582&limit=10", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = body["data"].(map[string]any)
	assert.Empty(t, data["generations"])
	assert.Equal(t, 4.0, data["pagination"].(map[string]any)["total"])

	rec, body = e.do(t, http.MethodGet, "/api/v1/generate/stats", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := body["data"].(map[string]any)
	assert.Equal(t, 4.0, st["totalGenerations"])
	assert.Equal(t, "pro", st["subscriptionTier"])
	assert.Len(t, st["generationsByType"], 2)
	used := st["totalTokensUsed"].(float64)
	assert.Equal(t, 10000.0-used, st["tokensRemaining"])

	// bob cannot read or delete alice's record
	rec, body = e.do(t, http.MethodGet, "/api/v1/generate/"+ids[0], "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, body["data"])
	rec, _ = e.do(t, http.MethodDelete, "/api/v1/generate/"+ids[0], "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/v1/generate/"+ids[0], "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = e.do(t, http.MethodDelete, "/api/v1/generate/"+ids[0], "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, _ = e.do(t, http.MethodGet, "/api/v1/generate/"+ids[0], "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCredit(t *testing.T) {
	e := newEnv(t, stubBackend{text: "x"})
	access, _, _, err := e.tm.GeneratePair("root", "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/balances/alice/credit", strings.NewReader(`{"amount":250}`))
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	b, _ := e.repos.Balances.Get(context.Background(), "alice")
	assert.Equal(t, int64(250), b.TokensRemaining)

	rec, _ = e.do(t, http.MethodPost, "/api/v1/admin/balances/alice/credit", "alice", map[string]int{"amount": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/balances/alice/credit", strings.NewReader(`{"amount":0}`))
	req.Header.Set("Authorization", "Bearer "+access)
	rec = httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalanceEndpoint(t *testing.T) {
	e := newEnv(t, stubBackend{text: "x"})
	e.repos.Balances.Set("alice", 42, "")
	rec, body := e.do(t, http.MethodGet, "/api/v1/balance", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42.0, body["data"].(map[string]any)["tokensRemaining"])
}
