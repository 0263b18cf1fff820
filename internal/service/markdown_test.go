package service

import (
	"strings"
	"testing"
	"time"

	"sasselerator/internal/models"
	"sasselerator/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func TestRenderTasksMarkdown_Layout(t *testing.T) {
	plan := &models.Plan{
		ID:   "p-1",
		Idea: "Dental booking",
		Document: models.PlanDocument{
			MVPPlan: models.MVPPlan{
				Summary:       "Short summary.",
				TimelineWeeks: 6,
				Tasks: []models.Task{
					{ID: "t1", Title: "Ship", Description: "Deploy it", Priority: models.PriorityLow, EstimatedHours: 2.5, Phase: models.PhaseLaunch},
					{ID: "t2", Title: "Interview", Description: "Talk to clinics", Priority: models.PriorityHigh, EstimatedHours: 8, Completed: true, Phase: models.PhasePlanning},
				},
			},
		},
	}

	want := "# MVP Tasks: Dental booking\n\n" +
		"**Timeline:** 6 weeks\n\n" +
		"Short summary.\n\n" +
		"## Planning Phase\n\n" +
		"- [x] 🔴 **Interview** (~8h)\n" +
		"  Talk to clinics\n\n" +
		"## Launch Phase\n\n" +
		"- [ ] 🟢 **Ship** (~2.5h)\n" +
		"  Deploy it\n\n"
	assert.Equal(t, want, RenderTasksMarkdown(plan))
}

func TestRenderTasksMarkdown_AllPhasesInOrder(t *testing.T) {
	md := RenderTasksMarkdown(testutil.SamplePlan("p-1", "Idea", time.Now()))

	planning := strings.Index(md, "## Planning Phase")
	development := strings.Index(md, "## Development Phase")
	testing_ := strings.Index(md, "## Testing Phase")
	launch := strings.Index(md, "## Launch Phase")
	assert.True(t, planning >= 0 && planning < development && development < testing_ && testing_ < launch)
	assert.Equal(t, 12, strings.Count(md, "- [ ] "))
	assert.Contains(t, md, "- [ ] 🟡 **Task 2** (~5h)\n  Description of task 2\n\n")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "8", FormatNumber(8))
	assert.Equal(t, "2.5", FormatNumber(2.5))
	assert.Equal(t, "0", FormatNumber(0))
}
