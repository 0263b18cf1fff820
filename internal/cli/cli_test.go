package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"sasselerator/internal/app"
	"sasselerator/internal/database"
	"sasselerator/internal/mcp"
	"sasselerator/internal/models"
	"sasselerator/internal/repository"
	"sasselerator/internal/service"
	"sasselerator/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (*models.PlanDocument, error) {
	doc := testutil.SampleDocument()
	return &doc, nil
}

// newTestDeps собирает зависимости поверх SQLite в памяти.
func newTestDeps(t *testing.T) *app.App {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewSQLitePlanRepository(db, zap.NewNop())
	plans := service.NewPlanService(repo, stubGenerator{}, nil, time.Second, zap.NewNop())
	return &app.App{
		Logger:  zap.NewNop(),
		Repo:    repo,
		Plans:   plans,
		Catalog: mcp.NewCatalog(plans),
	}
}

func run(t *testing.T, deps *app.App, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(func(context.Context, bool) (*app.App, error) { return deps, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestList_Empty(t *testing.T) {
	out, err := run(t, newTestDeps(t), "list")
	require.NoError(t, err)
	assert.Equal(t, "No plans found\n", out)
}

func TestGenerateListAndExport(t *testing.T) {
	deps := newTestDeps(t)

	out, err := run(t, deps, "generate", "Dental", "booking")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved plan")
	assert.Contains(t, out, "12 tasks over 8 weeks, ~$45/month")

	plan, err := deps.Plans.LatestPlan(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Dental booking", plan.Idea)

	out, err = run(t, deps, "list")
	require.NoError(t, err)
	assert.Contains(t, out, plan.ID)
	assert.Contains(t, out, "[0/12]")

	out, err = run(t, deps, "export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# MVP Tasks: Dental booking\n\n"))
}

func TestDoneAndTasks(t *testing.T) {
	deps := newTestDeps(t)
	plan, err := deps.Plans.CreatePlan(t.Context(), "Invoices", testutil.SampleDocument())
	require.NoError(t, err)

	out, err := run(t, deps, "done", plan.ID, "task-10")
	require.NoError(t, err)
	assert.Equal(t, "Task \"Task 10\" marked as complete.\n", out)

	out, err = run(t, deps, "done", plan.ID, "task-404")
	require.NoError(t, err)
	assert.Equal(t, "Task \"task-404\" not found in plan.\n", out)

	out, err = run(t, deps, "tasks", "--phase", "launch")
	require.NoError(t, err)
	assert.Contains(t, out, "(3 of 12 tasks)")
	assert.Contains(t, out, "[x] task-10")
	assert.Contains(t, out, "[ ] task-11")

	_, err = run(t, deps, "tasks", "--priority", "urgent")
	assert.ErrorContains(t, err, "invalid --priority")
}

func TestShowAndDelete(t *testing.T) {
	deps := newTestDeps(t)

	out, err := run(t, deps, "show")
	require.NoError(t, err)
	assert.Equal(t, "No plans found. Create a plan in Sasselerator first.\n", out)

	plan, err := deps.Plans.CreatePlan(t.Context(), "Invoices", testutil.SampleDocument())
	require.NoError(t, err)

	out, err = run(t, deps, "show", plan.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"idea": "Invoices"`)

	out, err = run(t, deps, "delete", plan.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted plan")

	out, err = run(t, deps, "delete", plan.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestFailedCommandClosesDependencies(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	repo := repository.NewSQLitePlanRepository(db, zap.NewNop())
	plans := service.NewPlanService(repo, stubGenerator{}, nil, time.Second, zap.NewNop())
	deps := &app.App{Logger: zap.NewNop(), Repo: repo, Plans: plans, Catalog: mcp.NewCatalog(plans)}

	closed := 0
	deps.OnClose(func() { closed++ })
	require.NoError(t, db.Close())

	_, err = run(t, deps, "delete", "plan-1")
	require.Error(t, err)
	assert.Equal(t, 1, closed)
}

func TestSuccessfulCommandClosesDependencies(t *testing.T) {
	deps := newTestDeps(t)
	closed := 0
	deps.OnClose(func() { closed++ })

	_, err := run(t, deps, "list")
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
}
