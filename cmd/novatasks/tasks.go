package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/tracker"
)

func addCmd() *cobra.Command {
	var (
		desc     string
		category string
		priority string
		deadline string
		tags     []string
		color    string
		repeat   string
		interval int
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := model.Task{
				Title:       strings.Join(args, " "),
				Description: desc,
				Category:    category,
				Priority:    model.Priority(priority),
				Status:      model.StatusPending,
				Tags:        tags,
				Color:       model.Color(color),
			}
			if !task.Priority.Valid() {
				return fmt.Errorf("unknown priority %q", priority)
			}
			if deadline != "" {
				d, err := model.ParseTime(deadline)
				if err != nil {
					return err
				}
				task.Deadline = &d
			}
			if repeat != "" {
				rule := model.Recurrence{Frequency: model.Frequency(repeat), Interval: interval}
				if err := rule.Validate(); err != nil {
					return err
				}
				task.Recurring = &rule
			}
			task.ApplyDefaults()

			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			created, err := e.tracker.CreateTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q\n", created.ID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringVarP(&category, "category", "c", model.DefaultCategory, "category")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityLow), "Low, Medium, High or Critical")
	cmd.Flags().StringVar(&deadline, "due", "", `deadline, e.g. "2025-03-01 17:00"`)
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tags")
	cmd.Flags().StringVar(&color, "color", string(model.ColorDefault), "accent color")
	cmd.Flags().StringVar(&repeat, "repeat", "", "daily, weekly, monthly or yearly")
	cmd.Flags().IntVar(&interval, "every", 1, "units between occurrences")

	return cmd
}

func listCmd() *cobra.Command {
	var (
		date     string
		category string
		sortMode string
		query    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			e.tracker.SetFilter(tracker.Filter{
				Date:     tracker.DateFilter(date),
				Category: category,
				Query:    query,
			})
			e.tracker.SetSort(tracker.SortMode(sortMode))

			tasks, err := e.tracker.View(cmd.Context())
			if err != nil {
				return err
			}

			now := e.tracker.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDEADLINE\tTITLE")
			for _, t := range tasks {
				due := "-"
				if t.Deadline != nil {
					due = t.Deadline.Local().Format("2006-01-02 15:04")
					if t.IsOverdue(now) {
						due += " (overdue)"
					}
				}
				title := t.Title
				if t.Recurring != nil {
					title += " [" + t.Recurring.String() + "]"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due, title)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			all, err := e.tracker.Tasks(cmd.Context())
			if err != nil {
				return err
			}
			stats := tracker.ComputeStats(all, now)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d done (%d%%), %d overdue\n",
				stats.Completed, stats.Total, stats.Percent(), stats.Overdue)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "when", string(tracker.DateAll), "all, today, week, overdue or recurring")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVarP(&sortMode, "sort", "s", string(tracker.SortCustom), "custom, deadline, priority, created, title or category")
	cmd.Flags().StringVarP(&query, "search", "q", "", "search title and description")

	return cmd
}

func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			task, err := e.tracker.SetStatus(cmd.Context(), args[0], model.StatusCompleted)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %q\n", task.Title)
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("give a task id or --all")
			}

			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			if all {
				return e.tracker.ClearAll(cmd.Context())
			}
			return e.tracker.DeleteTask(cmd.Context(), args[0])
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete every task")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write all tasks as JSON (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			if len(args) == 0 {
				return e.tracker.Export(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			if err := e.tracker.Export(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Replace all tasks with the tasks in a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.tracker.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", n)
			return nil
		},
	}
}

func notificationsCmd() *cobra.Command {
	var markRead bool

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notes"},
		Short:   "Show the notification log",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			now := e.tracker.Now()
			for _, n := range e.tracker.Notifications() {
				marker := " "
				if !n.Read {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %s  (%s ago)\n",
					marker, n.Kind, n.Message, now.Sub(n.Timestamp).Round(time.Minute))
			}
			if markRead {
				return e.tracker.MarkAllRead(cmd.Context())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&markRead, "mark-read", false, "mark every entry read")
	return cmd
}

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Roll recurring tasks and scan deadlines once",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.tracker.RollRecurring(cmd.Context())
			if err != nil {
				return err
			}
			alerts, err := e.tracker.ScanDeadlines(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled %d recurring tasks (%d skipped, %d failed), raised %d alerts\n",
				len(report.Created), len(report.Skipped), report.Failed, alerts)
			return nil
		},
	}
}
