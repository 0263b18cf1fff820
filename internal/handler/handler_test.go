package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sasselerator/internal/mcp"
	"sasselerator/internal/middleware"
	"sasselerator/internal/models"
	"sasselerator/internal/repository/mocks"
	"sasselerator/internal/service"
	"sasselerator/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	doc *models.PlanDocument
	err error
}

func (g stubGenerator) Generate(_ context.Context, idea string) (*models.PlanDocument, error) {
	if idea == "   " {
		return nil, fmt.Errorf("%w: idea is required", models.ErrValidation)
	}
	return g.doc, g.err
}

type testEnv struct {
	router *gin.Engine
	repo   *mocks.PlanRepository
}

func newTestEnv(t *testing.T, gen stubGenerator, limiter gin.HandlerFunc) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := new(mocks.PlanRepository)
	svc := service.NewPlanService(repo, gen, nil, time.Second, zap.NewNop())
	h := NewPlanHandler(svc, mcp.NewDispatcher(mcp.NewCatalog(svc), zap.NewNop()), zap.NewNop())

	router := gin.New()
	h.RegisterRoutes(router, limiter)
	return &testEnv{router: router, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetPlans_List(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	now := time.Now().UTC()
	env.repo.On("GetAll", mock.Anything).Return([]*models.Plan{
		testutil.SamplePlan("a", "First", now),
		testutil.SamplePlan("b", "Second", now.Add(time.Second)),
	}, nil)

	rec := env.do(t, http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plans []models.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 2)
	assert.Equal(t, "a", plans[0].ID)
	assert.Equal(t, "Second", plans[1].Idea)
}

func TestGetPlans_EmptyListIsArray(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("GetAll", mock.Anything).Return(nil, nil)

	rec := env.do(t, http.MethodGet, "/api/plans", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestGetPlans_ByID(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("GetByID", mock.Anything, "a").Return(testutil.SamplePlan("a", "First", time.Now()), nil)
	env.repo.On("GetByID", mock.Anything, "zzz").Return(nil, models.ErrNotFound)

	rec := env.do(t, http.MethodGet, "/api/plans?id=a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"businessCanvas"`)

	rec = env.do(t, http.MethodGet, "/api/plans?id=zzz", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Plan not found", decodeError(t, rec))
}

func TestGetPlans_StoreFailure(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("GetAll", mock.Anything).Return(nil, fmt.Errorf("%w: list: %w", models.ErrStorage, errors.New("boom")))

	rec := env.do(t, http.MethodGet, "/api/plans", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch plans", decodeError(t, rec))
}

func TestCreatePlan(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	doc := testutil.SampleDocument()
	env.repo.On("Create", mock.Anything, "Dental booking", mock.AnythingOfType("models.PlanDocument")).
		Return(testutil.SamplePlan("new-id", "Dental booking", time.Now()), nil)

	rec := env.do(t, http.MethodPost, "/api/plans", gin.H{"idea": "Dental booking", "plan": doc})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"new-id"`)
}

func TestCreatePlan_MissingFields(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)

	for _, body := range []any{
		gin.H{"idea": "x"},
		gin.H{"plan": testutil.SampleDocument()},
		"{broken",
	} {
		rec := env.do(t, http.MethodPost, "/api/plans", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Idea and plan are required", decodeError(t, rec))
	}
	env.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePlan_StoreFailure(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: insert", models.ErrStorage))

	rec := env.do(t, http.MethodPost, "/api/plans", gin.H{"idea": "x", "plan": testutil.SampleDocument()})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to save plan", decodeError(t, rec))
}

func TestUpdatePlan(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("Update", mock.Anything, "a", mock.Anything).Return(testutil.SamplePlan("a", "First", time.Now()), nil)
	env.repo.On("Update", mock.Anything, "gone", mock.Anything).Return(nil, models.ErrNotFound)

	rec := env.do(t, http.MethodPut, "/api/plans", gin.H{"id": "a", "plan": testutil.SampleDocument()})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/plans", gin.H{"id": "gone", "plan": testutil.SampleDocument()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/plans", gin.H{"id": "a"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Plan ID and plan data are required", decodeError(t, rec))
}

func TestDeletePlan(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("Delete", mock.Anything, "a").Return(true, nil).Once()
	env.repo.On("Delete", mock.Anything, "a").Return(false, nil).Once()

	rec := env.do(t, http.MethodDelete, "/api/plans?id=a", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/plans?id=a", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/plans", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Plan ID is required", decodeError(t, rec))
}

func TestGenerate(t *testing.T) {
	doc := testutil.SampleDocument()
	env := newTestEnv(t, stubGenerator{doc: &doc}, nil)

	rec := env.do(t, http.MethodPost, "/api/generate", gin.H{"idea": "Dental booking"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.PlanDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.MVPPlan.Tasks, 12)
	env.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_InvalidIdea(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)

	for _, body := range []any{gin.H{}, gin.H{"idea": 42}, gin.H{"idea": "   "}} {
		rec := env.do(t, http.MethodPost, "/api/generate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please provide a valid SaaS idea", decodeError(t, rec))
	}
}

func TestGenerate_BackendFailure(t *testing.T) {
	env := newTestEnv(t, stubGenerator{err: fmt.Errorf("%w: timeout", models.ErrGeneration)}, nil)

	rec := env.do(t, http.MethodPost, "/api/generate", gin.H{"idea": "Dental booking"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate plan. Please check your API key and try again.", decodeError(t, rec))
}

func TestGenerate_RateLimited(t *testing.T) {
	doc := testutil.SampleDocument()
	env := newTestEnv(t, stubGenerator{doc: &doc}, middleware.RateLimit(1, nil, zap.NewNop()))

	rec := env.do(t, http.MethodPost, "/api/generate", gin.H{"idea": "first"})
	assert.Equal(t, http.StatusOK, rec.Code)

	for range 4 {
		rec = env.do(t, http.MethodPost, "/api/generate", gin.H{"idea": "again"})
	}
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestDatabaseTest(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("Ping", mock.Anything).Return(nil).Once()
	env.repo.On("Ping", mock.Anything).Return(fmt.Errorf("%w: ping: %w", models.ErrStorage, errors.New("refused"))).Once()
	env.repo.On("Ping", mock.Anything).Return(errors.New("unexpected")).Once()

	rec := env.do(t, http.MethodGet, "/api/db/test", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok struct {
		OK        bool   `json:"ok"`
		Database  string `json:"database"`
		LatencyMs *int64 `json:"latencyMs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.OK)
	assert.Equal(t, "connected", ok.Database)
	assert.NotNil(t, ok.LatencyMs)

	rec = env.do(t, http.MethodGet, "/api/db/test", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":false`)
	assert.Contains(t, rec.Body.String(), "refused")

	rec = env.do(t, http.MethodGet, "/api/db/test", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRPC_ToolCallThroughHTTP(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("GetLatest", mock.Anything).Return(nil, models.ErrNotFound)

	rec := env.do(t, http.MethodPost, "/api/mcp",
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"export_tasks_markdown"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":{"content":[{"type":"text","text":"No plan found."}]}}`, rec.Body.String())
}

func TestRPC_MarkTaskCompletePersists(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	plan := testutil.SamplePlan("p1", "Idea", time.Now())
	env.repo.On("GetByID", mock.Anything, "p1").Return(plan, nil)
	env.repo.On("Update", mock.Anything, "p1", mock.Anything).Return(plan, nil)

	rec := env.do(t, http.MethodPost, "/api/mcp",
		`{"jsonrpc":"2.0","id":"x","method":"tools/call","params":{"name":"mark_task_complete","arguments":{"planId":"p1","taskId":"task-5"}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `Task \"Task 5\" marked as complete.`)
	env.repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestRPC_StoreFaultIsInternalError(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)
	env.repo.On("GetAll", mock.Anything).Return(nil, fmt.Errorf("%w: list: %w", models.ErrStorage, errors.New("db down")))

	rec := env.do(t, http.MethodPost, "/api/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_plans"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp mcp.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.CodeInternalError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "db down")
}

func TestRPC_ParseError(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)

	for _, body := range []string{"{not json", "null", "7"} {
		rec := env.do(t, http.MethodPost, "/api/mcp", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}`, rec.Body.String(), body)
	}
}

func TestRPC_Batch(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)

	rec := env.do(t, http.MethodPost, "/api/mcp",
		`[{"jsonrpc":"2.0","id":1,"method":"ping"},{"jsonrpc":"2.0","id":2,"method":"nope"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"jsonrpc":"2.0","id":1,"result":{}},
		{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"Method not found: nope"}}
	]`, rec.Body.String())
}

func TestRPC_Discovery(t *testing.T) {
	env := newTestEnv(t, stubGenerator{}, nil)

	rec := env.do(t, http.MethodGet, "/api/mcp", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info mcp.DiscoveryInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "sasselerator", info.Name)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Len(t, info.Tools, 9)
	assert.Contains(t, rec.Body.String(), `"capabilities":{"tools":{}}`)
}
