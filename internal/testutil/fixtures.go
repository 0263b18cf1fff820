// Package testutil содержит фикстуры для тестов пакетов sasselerator.
package testutil

import (
	"fmt"
	"time"

	"sasselerator/internal/models"
)

// SampleDocument возвращает валидный документ плана с 12 задачами во всех фазах.
func SampleDocument() models.PlanDocument {
	phases := []models.Phase{
		models.PhasePlanning, models.PhasePlanning,
		models.PhaseDevelopment, models.PhaseDevelopment, models.PhaseDevelopment,
		models.PhaseDevelopment, models.PhaseDevelopment,
		models.PhaseTesting, models.PhaseTesting,
		models.PhaseLaunch, models.PhaseLaunch, models.PhaseLaunch,
	}
	priorities := []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}

	tasks := make([]models.Task, 0, len(phases))
	for i, ph := range phases {
		tasks = append(tasks, models.Task{
			ID:             fmt.Sprintf("task-%d", i+1),
			Title:          fmt.Sprintf("Task %d", i+1),
			Description:    fmt.Sprintf("Description of task %d", i+1),
			Priority:       priorities[i%len(priorities)],
			EstimatedHours: float64(4 + i),
			Phase:          ph,
		})
	}

	freeTier, selfHosted := 0.0, 5.0
	return models.PlanDocument{
		BusinessCanvas: models.BusinessCanvas{
			CustomerSegments:      "Independent dental clinics with 1-5 chairs",
			ValuePropositions:     "Fewer no-shows through automated reminders",
			Channels:              "Dental associations, SEO, direct outreach",
			CustomerRelationships: "Self-serve onboarding with chat support",
			RevenueStreams:        "Monthly subscription per chair",
			KeyResources:          "Scheduling engine, SMS integration",
			KeyActivities:         "Product development, clinic onboarding",
			KeyPartnerships:       "Practice management software vendors",
			CostStructure:         "Hosting, SMS fees, support staff",
		},
		MVPPlan: models.MVPPlan{
			Summary:       "Ship a booking calendar with SMS reminders in eight weeks.",
			TimelineWeeks: 8,
			Tasks:         tasks,
			InfrastructureCosts: []models.InfrastructureCost{
				{Service: "Hosting", Provider: "Fly.io", MonthlyCost: 20, Description: "App servers", Alternative: "Render free tier", AlternativeCost: &freeTier},
				{Service: "Database", Provider: "Supabase", MonthlyCost: 25, Description: "Managed Postgres", Alternative: "Self-hosted Postgres", AlternativeCost: &selfHosted},
			},
			TotalMonthlyCost: 45,
			Problems: []models.Problem{
				{Title: "Low adoption", Description: "Clinics resist change", Severity: models.SeverityHigh, Mitigation: "Free migration help"},
				{Title: "SMS cost", Description: "Reminder volume grows", Severity: models.SeverityMedium, Mitigation: "Email fallback"},
				{Title: "Data privacy", Description: "Patient data rules", Severity: models.SeverityHigh, Mitigation: "Minimal PHI storage"},
				{Title: "Competition", Description: "Incumbent suites", Severity: models.SeverityLow, Mitigation: "Focus on small clinics"},
			},
			Professionals: []models.Professional{
				{Role: "Full-stack developer", Description: "Builds the MVP", EstimatedCost: "$60-90/h", WhenToHire: "Week 1", Alternative: "Founder builds it"},
				{Role: "Designer", Description: "Booking flow UX", EstimatedCost: "$1,500 fixed", WhenToHire: "Week 2", Alternative: "UI kit"},
				{Role: "Compliance advisor", Description: "Privacy review", EstimatedCost: "$150/h", WhenToHire: "Before launch", Alternative: "Online checklist"},
			},
		},
	}
}

// SamplePlan оборачивает SampleDocument в сохраненный план.
func SamplePlan(id, idea string, createdAt time.Time) *models.Plan {
	return &models.Plan{
		ID:        id,
		Idea:      idea,
		Document:  SampleDocument(),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}
