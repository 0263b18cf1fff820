package models

import "time"

// Priority - приоритет задачи MVP.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities перечисляет допустимые приоритеты.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Phase - фаза плана MVP.
type Phase string

const (
	PhasePlanning    Phase = "planning"
	PhaseDevelopment Phase = "development"
	PhaseTesting     Phase = "testing"
	PhaseLaunch      Phase = "launch"
)

// Phases перечисляет фазы в порядке выполнения.
var Phases = []Phase{PhasePlanning, PhaseDevelopment, PhaseTesting, PhaseLaunch}

// Severity - серьезность риска.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// IsValidPriority проверяет, что строка является допустимым приоритетом.
func IsValidPriority(p string) bool {
	for _, v := range Priorities {
		if string(v) == p {
			return true
		}
	}
	return false
}

// IsValidPhase проверяет, что строка является допустимой фазой.
func IsValidPhase(p string) bool {
	for _, v := range Phases {
		if string(v) == p {
			return true
		}
	}
	return false
}

// BusinessCanvas - девять полей бизнес-модели.
type BusinessCanvas struct {
	CustomerSegments      string `json:"customerSegments" validate:"required"`
	ValuePropositions     string `json:"valuePropositions" validate:"required"`
	Channels              string `json:"channels" validate:"required"`
	CustomerRelationships string `json:"customerRelationships" validate:"required"`
	RevenueStreams        string `json:"revenueStreams" validate:"required"`
	KeyResources          string `json:"keyResources" validate:"required"`
	KeyActivities         string `json:"keyActivities" validate:"required"`
	KeyPartnerships       string `json:"keyPartnerships" validate:"required"`
	CostStructure         string `json:"costStructure" validate:"required"`
}

// Task - задача плана MVP. Изменяемое поле только Completed.
type Task struct {
	ID             string   `json:"id" validate:"required"`
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description"`
	Priority       Priority `json:"priority" validate:"oneof=high medium low"`
	EstimatedHours float64  `json:"estimatedHours" validate:"gte=0"`
	Completed      bool     `json:"completed"`
	Phase          Phase    `json:"phase" validate:"oneof=planning development testing launch"`
}

// InfrastructureCost - статья инфраструктурных затрат.
type InfrastructureCost struct {
	Service         string   `json:"service" validate:"required"`
	Provider        string   `json:"provider" validate:"required"`
	MonthlyCost     float64  `json:"monthlyCost" validate:"gte=0"`
	Description     string   `json:"description"`
	Alternative     string   `json:"alternative,omitempty"`
	AlternativeCost *float64 `json:"alternativeCost,omitempty" validate:"omitempty,gte=0"`
}

// Problem - выявленный риск и способ его снижения.
type Problem struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity" validate:"oneof=high medium low"`
	Mitigation  string   `json:"mitigation" validate:"required"`
}

// Professional - рекомендация по найму.
type Professional struct {
	Role          string `json:"role" validate:"required"`
	Description   string `json:"description"`
	EstimatedCost string `json:"estimatedCost"`
	WhenToHire    string `json:"whenToHire"`
	Alternative   string `json:"alternative"`
}

// MVPPlan - исполнительная часть плана.
type MVPPlan struct {
	Summary             string               `json:"summary" validate:"required"`
	TimelineWeeks       float64              `json:"timelineWeeks" validate:"gt=0"`
	Tasks               []Task               `json:"tasks" validate:"required,dive"`
	InfrastructureCosts []InfrastructureCost `json:"infrastructureCosts" validate:"dive"`
	TotalMonthlyCost    float64              `json:"totalMonthlyCost" validate:"gte=0"`
	Problems            []Problem            `json:"problems" validate:"dive"`
	Professionals       []Professional       `json:"professionals" validate:"dive"`
}

// CostSum возвращает сумму основных ежемесячных затрат.
func (p MVPPlan) CostSum() float64 {
	var sum float64
	for _, c := range p.InfrastructureCosts {
		sum += c.MonthlyCost
	}
	return sum
}

// FindTask возвращает индекс задачи с данным id или -1.
func (p MVPPlan) FindTask(id string) int {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// PlanDocument - сгенерированное содержимое плана.
type PlanDocument struct {
	BusinessCanvas BusinessCanvas `json:"businessCanvas"`
	MVPPlan        MVPPlan        `json:"mvpPlan"`
}

// NormalizeLists заменяет отсутствующие списки пустыми, чтобы в JSON были [] вместо null.
func (d *PlanDocument) NormalizeLists() {
	if d.MVPPlan.Tasks == nil {
		d.MVPPlan.Tasks = []Task{}
	}
	if d.MVPPlan.InfrastructureCosts == nil {
		d.MVPPlan.InfrastructureCosts = []InfrastructureCost{}
	}
	if d.MVPPlan.Problems == nil {
		d.MVPPlan.Problems = []Problem{}
	}
	if d.MVPPlan.Professionals == nil {
		d.MVPPlan.Professionals = []Professional{}
	}
}

// Plan - сохраненная запись: идея, документ и временные метки.
type Plan struct {
	ID        string       `json:"id"`
	Idea      string       `json:"idea"`
	Document  PlanDocument `json:"plan"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// PlanSummary - краткое описание плана для списков.
type PlanSummary struct {
	ID        string    `json:"id"`
	Idea      string    `json:"idea"`
	CreatedAt time.Time `json:"createdAt"`
	TaskCount int       `json:"taskCount"`
}

// Summary строит PlanSummary.
func (p *Plan) Summary() PlanSummary {
	return PlanSummary{
		ID:        p.ID,
		Idea:      p.Idea,
		CreatedAt: p.CreatedAt,
		TaskCount: len(p.Document.MVPPlan.Tasks),
	}
}
