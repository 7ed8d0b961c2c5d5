package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taskdash/internal/controller"
	"github.com/balkashynov/taskdash/internal/models"
	"github.com/balkashynov/taskdash/internal/parser"
	"github.com/balkashynov/taskdash/internal/tui"
	"github.com/balkashynov/taskdash/internal/validate"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List tasks",
	Long:    "List your tasks in server order, optionally filtered by status",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		var filter models.Status
		if raw, _ := cmd.Flags().GetString("status"); raw != "" {
			status, err := parser.ParseStatus(raw)
			if err != nil {
				return err
			}
			filter = status
		}

		ctrl, err := mountList(cmd, e, controller.PrintNotifier{W: stdout()})
		if err != nil {
			return err
		}

		tasks := ctrl.Tasks()
		if filter != "" {
			kept := tasks[:0]
			for _, t := range tasks {
				if t.Status == filter {
					kept = append(kept, t)
				}
			}
			tasks = kept
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(stdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		}

		printTasks(tasks)
		return nil
	}),
}

var addCmd = &cobra.Command{
	Use:   "add [task title]",
	Short: "Add a new task",
	Long: `Add a new task.

Modes:
  Interactive: taskdash add (the form opens for anything missing)
  Quick: taskdash add "Task title" -d "description" -s pending
  Smart parsing: taskdash add "Write report +wip // numbers for Q3"

Smart parsing syntax:
  +status     - Status (pending, wip, done, ...), also status:done
  // text     - Everything after // is the description`,
	Args: cobra.ArbitraryArgs,
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		if err := requireLogin(e); err != nil {
			return err
		}

		parsed := parser.ParseTitle(strings.Join(args, " "))
		if len(parsed.Errors) > 0 {
			return errors.New(strings.Join(parsed.Errors, ", "))
		}

		draft := models.Draft{
			Title:       parsed.Title,
			Description: parsed.Description,
			Status:      parsed.Status,
		}
		if d, _ := cmd.Flags().GetString("description"); d != "" {
			draft.Description = d
		}
		if raw, _ := cmd.Flags().GetString("status"); raw != "" {
			status, err := parser.ParseStatus(raw)
			if err != nil {
				return err
			}
			draft.Status = string(status)
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if !noUI && !complete(draft) {
			var ok bool
			var err error
			draft, ok, err = runForm(&models.Task{
				Title:       draft.Title,
				Description: draft.Description,
				Status:      models.Status(draft.Status),
			})
			if !ok {
				return err
			}
		}

		// creating needs no initial list
		ctrl := e.controller(controller.PrintNotifier{W: stdout()})
		errs, err := ctrl.Create(cmd.Context(), draft)
		if len(errs) > 0 {
			printFieldErrors(errs)
			return err
		}
		return resyncWarning(err)
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <task_id>",
	Short: "Edit an existing task",
	Long: `Edit an existing task.

With no field flags the form opens pre-populated with the current task
data. Any of --title, --description and --status update just those fields.
The ID may be shortened to any unique prefix.

Usage:
  taskdash edit 3f2a            - Edit in the form
  taskdash edit 3f2a -s done    - Change the status only`,
	Args: cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		ctrl, err := mountList(cmd, e, controller.PrintNotifier{W: stdout()})
		if err != nil {
			return err
		}

		task, err := resolveTask(ctrl, args[0])
		if err != nil {
			return err
		}

		draft := models.DraftFrom(task)
		changed := false
		if cmd.Flags().Changed("title") {
			draft.Title, _ = cmd.Flags().GetString("title")
			changed = true
		}
		if cmd.Flags().Changed("description") {
			draft.Description, _ = cmd.Flags().GetString("description")
			changed = true
		}
		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			status, err := parser.ParseStatus(raw)
			if err != nil {
				return err
			}
			draft.Status = string(status)
			changed = true
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if !changed {
			if noUI {
				fmt.Fprintln(stdout(), "Nothing to change.")
				return nil
			}
			var ok bool
			draft, ok, err = runForm(&task)
			if !ok {
				return err
			}
		}

		return updateTask(cmd, ctrl, task.ID, draft)
	}),
}

var doneCmd = &cobra.Command{
	Use:   "done <task_id>",
	Short: "Mark a task as done",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		return setStatus(cmd, e, args[0], models.StatusDone)
	}),
}

var undoneCmd = &cobra.Command{
	Use:   "undone <task_id>",
	Short: "Mark a task back to pending",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		return setStatus(cmd, e, args[0], models.StatusPending)
	}),
}

var rmCmd = &cobra.Command{
	Use:     "rm <task_id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		ctrl, err := mountList(cmd, e, controller.PrintNotifier{W: stdout()})
		if err != nil {
			return err
		}

		task, err := resolveTask(ctrl, args[0])
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Fprintf(stdout(), "Are you sure you want to delete this task? %q [y/N] ", task.Title)
			answer, _ := readAnswer(cmd)
			if answer != "y" && answer != "yes" {
				fmt.Fprintln(stdout(), "Cancelled.")
				return nil
			}
		}

		return ctrl.Delete(cmd.Context(), task.ID)
	}),
}

func setStatus(cmd *cobra.Command, e *env, id string, status models.Status) error {
	ctrl, err := mountList(cmd, e, controller.PrintNotifier{W: stdout()})
	if err != nil {
		return err
	}

	task, err := resolveTask(ctrl, id)
	if err != nil {
		return err
	}
	if task.Status == status {
		fmt.Fprintf(stdout(), "Task %q is already %s.\n", task.Title, status)
		return nil
	}

	draft := models.DraftFrom(task)
	draft.Status = string(status)
	return updateTask(cmd, ctrl, task.ID, draft)
}

func updateTask(cmd *cobra.Command, ctrl *controller.Controller, id string, draft models.Draft) error {
	errs, err := ctrl.Update(cmd.Context(), id, draft)
	if len(errs) > 0 {
		printFieldErrors(errs)
		return err
	}
	return resyncWarning(err)
}

// resyncWarning reports a failed list refresh after a mutation that landed
// without failing the command
func resyncWarning(err error) error {
	if errors.Is(err, controller.ErrResync) {
		fmt.Fprintf(stdout(), "⚠️  %v\n", err)
		return nil
	}
	return err
}

// resolveTask finds a task by full ID or unique ID prefix
func resolveTask(ctrl *controller.Controller, id string) (models.Task, error) {
	if task, ok := ctrl.Task(id); ok {
		return task, nil
	}

	var matches []models.Task
	for _, t := range ctrl.Tasks() {
		if strings.HasPrefix(t.ID, id) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("task %q not found", id)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("task ID prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

func complete(d models.Draft) bool {
	return strings.TrimSpace(d.Title) != "" &&
		strings.TrimSpace(d.Description) != "" &&
		strings.TrimSpace(d.Status) != ""
}

func printTasks(tasks []models.Task) {
	out := stdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found. Use 'taskdash add \"task title\"' to create your first task.")
		return
	}

	// Print table header
	fmt.Fprintf(out, "%-8s %-12s %-40s %s\n", "ID", "STATUS", "TITLE", "UPDATED")
	fmt.Fprintln(out, strings.Repeat("-", 80))

	for _, task := range tasks {
		title := task.Title
		if len([]rune(title)) > 38 {
			title = string([]rune(title)[:35]) + "..."
		}

		id := task.ID
		if len(id) > 8 {
			id = id[:8]
		}

		updated := "-"
		if !task.UpdatedAt.IsZero() {
			updated = task.UpdatedAt.Local().Format("02 Jan 2006, 15:04")
		}

		fmt.Fprintf(out, "%-8s %-12s %-40s %s\n", id, task.Status, title, updated)
	}

	fmt.Fprintf(out, "\nTotal: %d tasks\n", len(tasks))
}

// runForm opens the task form; ok is false when the user cancelled or the
// form could not run, in which case err is what the command should return
func runForm(initial *models.Task) (draft models.Draft, ok bool, err error) {
	draft, err = tui.RunTaskForm(initial)
	if errors.Is(err, tui.ErrFormCancelled) {
		fmt.Fprintln(stdout(), "❌ Cancelled.")
		return draft, false, nil
	}
	if err != nil {
		return draft, false, err
	}
	return draft, true, nil
}

func readAnswer(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func printFieldErrors(errs validate.Errors) {
	for _, field := range []string{validate.FieldTitle, validate.FieldDescription, validate.FieldStatus} {
		if msg, ok := errs[field]; ok {
			fmt.Fprintf(stdout(), "❌ %s\n", msg)
		}
	}
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Filter by status: pending|in_progress|done")
	listCmd.Flags().Bool("json", false, "JSON output")

	addCmd.Flags().StringP("description", "d", "", "Task description")
	addCmd.Flags().StringP("status", "s", "", "Task status: pending|in_progress|done")
	addCmd.Flags().Bool("no-ui", false, "Never open the form")

	editCmd.Flags().StringP("title", "t", "", "New title")
	editCmd.Flags().StringP("description", "d", "", "New description")
	editCmd.Flags().StringP("status", "s", "", "New status: pending|in_progress|done")
	editCmd.Flags().Bool("no-ui", false, "Never open the form")

	rmCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation")
}
