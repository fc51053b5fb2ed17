package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()
			e.logger.Info().Str("driver", e.cfg.Database.Driver).Msg("schema is up to date")
			return nil
		},
	}
}

func boardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			b, err := e.loader.Load(cmd.Context(), e.user.ID)
			if err != nil {
				return err
			}
			return printBoard(cmd.OutOrStdout(), b, time.Now())
		},
	}
}

func printBoard(out io.Writer, b model.Board, now time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", b.Title)
	for _, c := range b.Columns {
		fmt.Fprintf(tw, "\n%s (%d)\n", c.Title, len(c.Tasks))
		for _, t := range c.Tasks {
			var extra []string
			if t.Priority != model.PriorityUnset {
				extra = append(extra, model.PriorityLabel(t.Priority))
			}
			if t.Category != "" {
				extra = append(extra, t.Category)
			}
			for _, tag := range t.Tags {
				extra = append(extra, "#"+tag.Name)
			}
			if t.Deadline != nil {
				extra = append(extra, "due "+t.Deadline.Local().Format("2006-01-02"))
				if st := t.DeadlineState(now); st == model.DeadlineOverdue || st == model.DeadlineToday {
					extra = append(extra, "("+st.String()+")")
				}
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", t.ID, t.Title, strings.Join(extra, " "))
		}
	}
	return tw.Flush()
}

func moveCmd(configPath *string) *cobra.Command {
	var (
		to    string
		index int
	)
	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task to a column and position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			current, err := e.loader.Load(ctx, e.user.ID)
			if err != nil {
				return err
			}
			mv, err := resolveMove(current, args[0], to, index)
			if err != nil {
				return err
			}

			var shown model.Board
			err = e.handler.Drag(ctx, e.user.ID, current, mv, func(b model.Board) { shown = b })
			if err != nil {
				return fmt.Errorf("move failed, board reloaded: %w", err)
			}
			if shown.ID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to move.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s.\n", args[0], to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Destination column title")
	cmd.Flags().IntVar(&index, "index", 0, "Destination index in the column")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// resolveMove turns CLI arguments into a Move against b.
func resolveMove(b model.Board, taskID, columnTitle string, index int) (board.Move, error) {
	ci, ti := b.FindTask(taskID)
	if ci < 0 {
		return board.Move{}, fmt.Errorf("task %s is not on the board", taskID)
	}
	dest, ok := b.ColumnByTitle(columnTitle)
	if !ok {
		return board.Move{}, fmt.Errorf("no column titled %q", columnTitle)
	}
	if index < 0 {
		return board.Move{}, fmt.Errorf("index must not be negative")
	}
	return board.Move{
		TaskID: taskID,
		From:   board.Location{ColumnID: b.Columns[ci].ID, Index: ti},
		To:     board.Location{ColumnID: dest.ID, Index: index},
	}, nil
}

func sweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Archive tasks that have been done longer than the archive window",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			n, err := e.handler.Sweep(ctx, e.user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d task(s).\n", n)
			return nil
		},
	}
}

func credentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the database password in the OS keyring",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Read the database password from stdin and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			if err := credential.Set(credential.DatabasePasswordKey, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password stored.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored database password",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := credential.Delete(credential.DatabasePasswordKey)
			if errors.Is(err, credential.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No password stored.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password removed.")
			return nil
		},
	})

	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
