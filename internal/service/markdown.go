package service

import (
	"strconv"
	"strings"

	"sasselerator/internal/models"
)

var priorityIcons = map[models.Priority]string{
	models.PriorityHigh:   "🔴",
	models.PriorityMedium: "🟡",
	models.PriorityLow:    "🟢",
}

// FormatNumber печатает число без лишних нулей: 8 -> "8", 2.5 -> "2.5".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderTasksMarkdown строит чек-лист задач по фазам в порядке planning, development, testing, launch.
// Пустые фазы пропускаются.
func RenderTasksMarkdown(plan *models.Plan) string {
	mvp := plan.Document.MVPPlan

	var b strings.Builder
	b.WriteString("# MVP Tasks: " + plan.Idea + "\n\n")
	b.WriteString("**Timeline:** " + FormatNumber(mvp.TimelineWeeks) + " weeks\n\n")
	b.WriteString(mvp.Summary + "\n\n")

	for _, phase := range models.Phases {
		tasks := FilterTasks(plan, TaskFilter{Phase: phase})
		if len(tasks) == 0 {
			continue
		}
		name := string(phase)
		b.WriteString("## " + strings.ToUpper(name[:1]) + name[1:] + " Phase\n\n")
		for _, t := range tasks {
			checkbox := "[ ]"
			if t.Completed {
				checkbox = "[x]"
			}
			icon, ok := priorityIcons[t.Priority]
			if !ok {
				icon = priorityIcons[models.PriorityLow]
			}
			b.WriteString("- " + checkbox + " " + icon + " **" + t.Title + "** (~" + FormatNumber(t.EstimatedHours) + "h)\n")
			b.WriteString("  " + t.Description + "\n\n")
		}
	}
	return b.String()
}
