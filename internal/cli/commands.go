package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"sasselerator/internal/models"
	"sasselerator/internal/service"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	dim     = color.New(color.Faint)
	bold    = color.New(color.Bold)
	success = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
)

var priorityColors = map[models.Priority]*color.Color{
	models.PriorityHigh:   color.New(color.FgRed),
	models.PriorityMedium: color.New(color.FgYellow),
	models.PriorityLow:    color.New(color.FgGreen),
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func listCmd(s *session) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved plans, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				text, err := callTool(cmd, s, "list_plans", nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}

			deps, err := s.get(cmd.Context(), false)
			if err != nil {
				return err
			}
			plans, err := deps.Plans.ListPlans(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}
			if len(plans) == 0 {
				fmt.Fprintln(out, "No plans found")
				return nil
			}
			for _, p := range plans {
				done := 0
				for _, t := range p.Document.MVPPlan.Tasks {
					if t.Completed {
						done++
					}
				}
				fmt.Fprintf(out, "%s  %s  %s  %s\n",
					bold.Sprint(p.ID),
					dim.Sprint(p.CreatedAt.Local().Format("2006-01-02 15:04")),
					progress(done, len(p.Document.MVPPlan.Tasks)),
					p.Idea,
				)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary list as JSON")
	return cmd
}

func progress(done, total int) string {
	label := fmt.Sprintf("[%d/%d]", done, total)
	if total > 0 && done == total {
		return success.Sprint(label)
	}
	return label
}

func showCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show [planId]",
		Short: "Print a plan as JSON (latest plan when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, toolArgs := "get_latest_plan", map[string]any{}
			if len(args) == 1 {
				name, toolArgs = "get_plan", map[string]any{"planId": args[0]}
			}
			text, err := callTool(cmd, s, name, toolArgs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func tasksCmd(s *session) *cobra.Command {
	var planID, phase, priority string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List MVP tasks, optionally filtered by phase and priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if phase != "" && !models.IsValidPhase(phase) {
				return fmt.Errorf("invalid --phase %q", phase)
			}
			if priority != "" && !models.IsValidPriority(priority) {
				return fmt.Errorf("invalid --priority %q", priority)
			}
			deps, err := s.get(cmd.Context(), false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			plan, err := deps.Plans.ResolvePlan(cmd.Context(), planID)
			if err != nil {
				if isNotFound(err) {
					fmt.Fprintln(out, "No plan found.")
					return nil
				}
				return err
			}

			tasks := service.FilterTasks(plan, service.TaskFilter{
				Phase:    models.Phase(phase),
				Priority: models.Priority(priority),
			})
			fmt.Fprintf(out, "%s %s\n", bold.Sprint(plan.Idea), dim.Sprintf("(%d of %d tasks)", len(tasks), len(plan.Document.MVPPlan.Tasks)))
			for _, t := range tasks {
				fmt.Fprintln(out, formatTask(t))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Plan ID (latest plan when empty)")
	cmd.Flags().StringVar(&phase, "phase", "", "planning, development, testing or launch")
	cmd.Flags().StringVar(&priority, "priority", "", "high, medium or low")
	return cmd
}

func formatTask(t models.Task) string {
	check := "[ ]"
	if t.Completed {
		check = success.Sprint("[x]")
	}
	prio := string(t.Priority)
	if c, ok := priorityColors[t.Priority]; ok {
		prio = c.Sprint(prio)
	}
	return fmt.Sprintf("%s %-8s %s %s %s",
		check,
		t.ID,
		prio,
		t.Title,
		dim.Sprintf("(%s, ~%sh)", t.Phase, service.FormatNumber(t.EstimatedHours)),
	)
}

func doneCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "done <planId> <taskId>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := callTool(cmd, s, "mark_task_complete", map[string]any{"planId": args[0], "taskId": args[1]})
			if err != nil {
				return err
			}
			printer := warn
			if strings.HasSuffix(text, "marked as complete.") {
				printer = success
			}
			printer.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func exportCmd(s *session) *cobra.Command {
	var planID string
	var raw bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as a markdown checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]any{}
			if planID != "" {
				toolArgs["planId"] = planID
			}
			text, err := callTool(cmd, s, "export_tasks_markdown", toolArgs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw || !isTerminal(out) {
				fmt.Fprint(out, text)
				return nil
			}
			rendered, err := renderMarkdown(text, out)
			if err != nil {
				fmt.Fprint(out, text)
				return nil
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Plan ID (latest plan when empty)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown source instead of rendering it")
	return cmd
}

func renderMarkdown(md string, out io.Writer) (string, error) {
	width := 80
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func generateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <idea...>",
		Short: "Generate a plan for an idea and save it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := s.get(cmd.Context(), true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			idea := strings.Join(args, " ")
			fmt.Fprintln(out, dim.Sprint("Generating plan, this can take a minute..."))

			plan, err := deps.Plans.GenerateAndSave(cmd.Context(), idea)
			if err != nil {
				return fmt.Errorf("failed to generate plan: %w", err)
			}
			mvp := plan.Document.MVPPlan
			success.Fprintf(out, "✓ Saved plan %s\n", plan.ID)
			fmt.Fprintf(out, "  %d tasks over %s weeks, ~$%s/month\n",
				len(mvp.Tasks), service.FormatNumber(mvp.TimelineWeeks), service.FormatNumber(mvp.TotalMonthlyCost))
			fmt.Fprintf(out, "  %s\n", mvp.Summary)
			return nil
		},
	}
}

func deleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <planId>",
		Short: "Delete a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := s.get(cmd.Context(), false)
			if err != nil {
				return err
			}
			removed, err := deps.Plans.DeletePlan(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete plan: %w", err)
			}
			out := cmd.OutOrStdout()
			if !removed {
				warn.Fprintf(out, "Plan %q not found\n", args[0])
				return nil
			}
			success.Fprintf(out, "✓ Deleted plan %s\n", args[0])
			return nil
		},
	}
}
