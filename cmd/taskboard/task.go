package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui"
)

func taskCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect and edit tasks",
	}
	cmd.AddCommand(taskShowCmd(configPath))
	cmd.AddCommand(taskTagCmd(configPath))
	cmd.AddCommand(taskUntagCmd(configPath))
	cmd.AddCommand(taskBulkCmd(configPath))
	return cmd
}

func taskShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Print a task with its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			t, err := e.store.GetTask(cmd.Context(), e.user.ID, args[0])
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), *t)
			return nil
		},
	}
}

func printTask(out io.Writer, t model.Task) {
	fmt.Fprintf(out, "%s\n", t.Title)
	fmt.Fprintf(out, "  status:    %s\n", t.Status)
	if t.Priority != model.PriorityUnset {
		fmt.Fprintf(out, "  priority:  %s\n", model.PriorityLabel(t.Priority))
	}
	if t.Category != "" {
		fmt.Fprintf(out, "  category:  %s\n", t.Category)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(out, "  tags:      %s\n", formatTags(t.Tags))
	}
	if t.Deadline != nil {
		fmt.Fprintf(out, "  deadline:  %s\n", t.Deadline.Local().Format("2006-01-02"))
	}
	if t.ArchivedAt != nil {
		fmt.Fprintf(out, "  archived:  %s\n", t.ArchivedAt.Local().Format("2006-01-02"))
	}
	if strings.TrimSpace(t.Description) != "" {
		fmt.Fprintf(out, "\n%s\n", ui.RenderMarkdown(t.Description, 80))
	}
}

func formatTags(tags []model.Tag) string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = "#" + tag.Name
	}
	return strings.Join(names, " ")
}

func taskTagCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <task-id> <tag>...",
		Short: "Attach tags to a task, creating missing ones",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, id := cmd.Context(), args[0]
			if err := e.store.AddTaskTags(ctx, e.user.ID, id, args[1:]); err != nil {
				return err
			}
			tags, err := e.store.GetTaskTags(ctx, e.user.ID, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tags: %s\n", formatTags(tags))
			return nil
		},
	}
}

func taskUntagCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "untag <task-id> <tag>...",
		Short: "Detach tags from a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, id := cmd.Context(), args[0]
			current, err := e.store.GetTaskTags(ctx, e.user.ID, id)
			if err != nil {
				return err
			}
			ids := tagIDs(current, args[1:])
			if err := e.store.RemoveTaskTags(ctx, e.user.ID, id, ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d tag(s).\n", len(ids))
			return nil
		},
	}
}

// tagIDs returns the IDs of the tags in current named in names. Names are
// matched without a leading '#' and case-insensitively.
func tagIDs(current []model.Tag, names []string) []string {
	var ids []string
	for _, n := range names {
		n = strings.TrimPrefix(strings.TrimSpace(n), "#")
		for _, t := range current {
			if strings.EqualFold(t.Name, n) {
				ids = append(ids, t.ID)
				break
			}
		}
	}
	return ids
}

func taskBulkCmd(configPath *string) *cobra.Command {
	var (
		priority int
		category string
		deadline string
	)
	cmd := &cobra.Command{
		Use:   "bulk <task-id>...",
		Short: "Apply the same change to several tasks at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := bulkPatch(cmd, priority, category, deadline)
			if err != nil {
				return err
			}

			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.BulkUpdateTasks(cmd.Context(), e.user.ID, args, patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d task(s).\n", len(args))
			return nil
		},
	}
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority 1 (critical) to 5 (lowest), 0 clears")
	cmd.Flags().StringVar(&category, "category", "", "Category name, empty clears")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline as YYYY-MM-DD, 'none' clears")
	return cmd
}

// bulkPatch builds a patch from the flags the user actually set.
func bulkPatch(cmd *cobra.Command, priority int, category, deadline string) (model.TaskPatch, error) {
	var patch model.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("priority") {
		if !model.ValidPriority(priority) {
			return patch, fmt.Errorf("priority must be between 1 and 5")
		}
		patch.Priority = &priority
	}
	if flags.Changed("category") {
		patch.Category = &category
	}
	if flags.Changed("deadline") {
		patch.SetDeadline = true
		if deadline != "none" {
			d, err := time.ParseInLocation("2006-01-02", deadline, time.Local)
			if err != nil {
				return patch, fmt.Errorf("deadline must be YYYY-MM-DD or none")
			}
			patch.Deadline = &d
		}
	}
	if patch.Empty() {
		return patch, fmt.Errorf("nothing to change: set --priority, --category or --deadline")
	}
	return patch, nil
}

func notesCmd(configPath *string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Print the notes of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				date = time.Now().Format(model.NoteDateLayout)
			}
			if _, err := time.Parse(model.NoteDateLayout, date); err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD")
			}

			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			notes, err := e.store.ListNotesByDate(cmd.Context(), e.user.ID, date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintf(out, "No notes for %s.\n", date)
				return nil
			}
			for _, n := range notes {
				fmt.Fprintf(out, "# %s\n\n%s\n", n.Title, ui.RenderMarkdown(n.Content, 80))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (default today)")
	return cmd
}
