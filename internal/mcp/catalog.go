package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sasselerator/internal/models"
	"sasselerator/internal/service"
)

const (
	planIDFallbackDescription = "Plan ID (uses latest if not provided)"

	textNoPlans      = "No plans found. Create a plan in Sasselerator first."
	textNoPlanFound  = "No plan found."
	textPlanNotFound = "Plan with ID \"%s\" not found."
)

// PlanService - операции над планами, которые использует каталог.
type PlanService interface {
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	LatestPlan(ctx context.Context) (*models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	ResolvePlan(ctx context.Context, planID string) (*models.Plan, error)
	CompleteTask(ctx context.Context, planID, taskID string) (*models.Task, error)
}

// Property - описание одного аргумента инструмента.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// InputSchema - декларативная схема аргументов инструмента.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Tool - запись каталога.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// ToolSummary - имя и описание инструмента для discovery.
type ToolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UnknownToolError - запрошен инструмент, которого нет в каталоге.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string { return "Unknown tool: " + e.Name }

type toolFunc func(ctx context.Context, c *Catalog, args Args) (string, error)

type entry struct {
	tool Tool
	run  toolFunc
}

// Catalog - неизменяемый набор инструментов поверх PlanService.
type Catalog struct {
	service PlanService
	entries []entry
	byName  map[string]int
}

func objectSchema(props map[string]Property, required ...string) InputSchema {
	if props == nil {
		props = map[string]Property{}
	}
	if required == nil {
		required = []string{}
	}
	return InputSchema{Type: "object", Properties: props, Required: required}
}

func planIDOnlySchema() InputSchema {
	return objectSchema(map[string]Property{
		"planId": {Type: "string", Description: planIDFallbackDescription},
	})
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// NewCatalog собирает каталог из девяти инструментов.
func NewCatalog(svc PlanService) *Catalog {
	c := &Catalog{service: svc}
	c.entries = []entry{
		{
			tool: Tool{
				Name:        "list_plans",
				Description: "List all saved SaaS plans from Sasselerator",
				InputSchema: objectSchema(nil),
			},
			run: listPlans,
		},
		{
			tool: Tool{
				Name:        "get_latest_plan",
				Description: "Get the most recently created SaaS plan",
				InputSchema: objectSchema(nil),
			},
			run: getLatestPlan,
		},
		{
			tool: Tool{
				Name:        "get_plan",
				Description: "Get a specific SaaS plan by its ID",
				InputSchema: objectSchema(map[string]Property{
					"planId": {Type: "string", Description: "The ID of the plan to retrieve"},
				}, "planId"),
			},
			run: getPlan,
		},
		{
			tool: Tool{
				Name:        "get_mvp_tasks",
				Description: "Get MVP tasks from a plan, optionally filtered by phase or priority",
				InputSchema: objectSchema(map[string]Property{
					"planId":   {Type: "string", Description: planIDFallbackDescription},
					"phase":    {Type: "string", Enum: enumValues(models.Phases)},
					"priority": {Type: "string", Enum: enumValues(models.Priorities)},
				}),
			},
			run: getMVPTasks,
		},
		{
			tool: Tool{
				Name:        "get_business_canvas",
				Description: "Get the business canvas from a plan",
				InputSchema: planIDOnlySchema(),
			},
			run: getBusinessCanvas,
		},
		{
			tool: Tool{
				Name:        "get_infrastructure_costs",
				Description: "Get infrastructure cost estimates from a plan",
				InputSchema: planIDOnlySchema(),
			},
			run: getInfrastructureCosts,
		},
		{
			tool: Tool{
				Name:        "get_problems",
				Description: "Get identified problems and risks from a plan",
				InputSchema: planIDOnlySchema(),
			},
			run: getProblems,
		},
		{
			tool: Tool{
				Name:        "mark_task_complete",
				Description: "Mark a task as completed in a plan",
				InputSchema: objectSchema(map[string]Property{
					"planId": {Type: "string", Description: "The plan ID"},
					"taskId": {Type: "string", Description: "The task ID to mark as complete"},
				}, "planId", "taskId"),
			},
			run: markTaskComplete,
		},
		{
			tool: Tool{
				Name:        "export_tasks_markdown",
				Description: "Export tasks as a markdown checklist",
				InputSchema: planIDOnlySchema(),
			},
			run: exportTasksMarkdown,
		},
	}
	c.byName = make(map[string]int, len(c.entries))
	for i, e := range c.entries {
		c.byName[e.tool.Name] = i
	}
	return c
}

// Tools возвращает копию описаний инструментов в порядке каталога.
func (c *Catalog) Tools() []Tool {
	tools := make([]Tool, len(c.entries))
	for i, e := range c.entries {
		tools[i] = e.tool
	}
	return tools
}

// Summaries возвращает имена и описания инструментов.
func (c *Catalog) Summaries() []ToolSummary {
	out := make([]ToolSummary, len(c.entries))
	for i, e := range c.entries {
		out[i] = ToolSummary{Name: e.tool.Name, Description: e.tool.Description}
	}
	return out
}

// Call выполняет инструмент и возвращает его текстовый результат.
// Отсутствие плана или задачи - это успешный текстовый ответ, а не ошибка.
func (c *Catalog) Call(ctx context.Context, name string, args Args) (string, error) {
	idx, ok := c.byName[name]
	if !ok {
		return "", &UnknownToolError{Name: name}
	}
	if args == nil {
		args = Args{}
	}
	return c.entries[idx].run(ctx, c, args)
}

// renderJSON сериализует значение с отступом в два пробела, как JSON.stringify(v, null, 2).
func renderJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("render result: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// resolve возвращает план или nil, если его нет.
func (c *Catalog) resolve(ctx context.Context, args Args) (*models.Plan, error) {
	planID, err := args.optionalString("planId")
	if err != nil {
		return nil, err
	}
	plan, err := c.service.ResolvePlan(ctx, planID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return plan, err
}

func listPlans(ctx context.Context, c *Catalog, _ Args) (string, error) {
	plans, err := c.service.ListPlans(ctx)
	if err != nil {
		return "", err
	}
	summaries := make([]models.PlanSummary, 0, len(plans))
	for _, p := range plans {
		summaries = append(summaries, p.Summary())
	}
	return renderJSON(summaries)
}

func getLatestPlan(ctx context.Context, c *Catalog, _ Args) (string, error) {
	plan, err := c.service.LatestPlan(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return textNoPlans, nil
	}
	if err != nil {
		return "", err
	}
	return renderJSON(plan)
}

func getPlan(ctx context.Context, c *Catalog, args Args) (string, error) {
	planID, err := args.requiredString("planId")
	if err != nil {
		return "", err
	}
	plan, err := c.service.GetPlan(ctx, planID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Sprintf(textPlanNotFound, planID), nil
	}
	if err != nil {
		return "", err
	}
	return renderJSON(plan)
}

type tasksResult struct {
	PlanID        string        `json:"planId"`
	Idea          string        `json:"idea"`
	TotalTasks    int           `json:"totalTasks"`
	FilteredTasks int           `json:"filteredTasks"`
	Tasks         []models.Task `json:"tasks"`
}

func getMVPTasks(ctx context.Context, c *Catalog, args Args) (string, error) {
	phase, err := args.phase()
	if err != nil {
		return "", err
	}
	priority, err := args.priority()
	if err != nil {
		return "", err
	}
	plan, err := c.resolve(ctx, args)
	if err != nil {
		return "", err
	}
	if plan == nil {
		return textNoPlanFound, nil
	}
	tasks := service.FilterTasks(plan, service.TaskFilter{Phase: phase, Priority: priority})
	return renderJSON(tasksResult{
		PlanID:        plan.ID,
		Idea:          plan.Idea,
		TotalTasks:    len(plan.Document.MVPPlan.Tasks),
		FilteredTasks: len(tasks),
		Tasks:         tasks,
	})
}

func getBusinessCanvas(ctx context.Context, c *Catalog, args Args) (string, error) {
	plan, err := c.resolve(ctx, args)
	if err != nil {
		return "", err
	}
	if plan == nil {
		return textNoPlanFound, nil
	}
	return renderJSON(struct {
		PlanID         string                `json:"planId"`
		Idea           string                `json:"idea"`
		BusinessCanvas models.BusinessCanvas `json:"businessCanvas"`
	}{plan.ID, plan.Idea, plan.Document.BusinessCanvas})
}

func getInfrastructureCosts(ctx context.Context, c *Catalog, args Args) (string, error) {
	plan, err := c.resolve(ctx, args)
	if err != nil {
		return "", err
	}
	if plan == nil {
		return textNoPlanFound, nil
	}
	costs := plan.Document.MVPPlan.InfrastructureCosts
	if costs == nil {
		costs = []models.InfrastructureCost{}
	}
	return renderJSON(struct {
		PlanID              string                      `json:"planId"`
		Idea                string                      `json:"idea"`
		InfrastructureCosts []models.InfrastructureCost `json:"infrastructureCosts"`
		TotalMonthlyCost    float64                     `json:"totalMonthlyCost"`
	}{plan.ID, plan.Idea, costs, plan.Document.MVPPlan.TotalMonthlyCost})
}

func getProblems(ctx context.Context, c *Catalog, args Args) (string, error) {
	plan, err := c.resolve(ctx, args)
	if err != nil {
		return "", err
	}
	if plan == nil {
		return textNoPlanFound, nil
	}
	problems := plan.Document.MVPPlan.Problems
	if problems == nil {
		problems = []models.Problem{}
	}
	return renderJSON(struct {
		PlanID   string           `json:"planId"`
		Idea     string           `json:"idea"`
		Problems []models.Problem `json:"problems"`
	}{plan.ID, plan.Idea, problems})
}

func markTaskComplete(ctx context.Context, c *Catalog, args Args) (string, error) {
	planID, err := args.requiredString("planId")
	if err != nil {
		return "", err
	}
	taskID, err := args.requiredString("taskId")
	if err != nil {
		return "", err
	}

	task, err := c.service.CompleteTask(ctx, planID, taskID)
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return fmt.Sprintf("Task \"%s\" not found in plan.", taskID), nil
	case errors.Is(err, models.ErrNotFound):
		return fmt.Sprintf("Plan \"%s\" not found.", planID), nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("Task \"%s\" marked as complete.", task.Title), nil
}

func exportTasksMarkdown(ctx context.Context, c *Catalog, args Args) (string, error) {
	plan, err := c.resolve(ctx, args)
	if err != nil {
		return "", err
	}
	if plan == nil {
		return textNoPlanFound, nil
	}
	return service.RenderTasksMarkdown(plan), nil
}
