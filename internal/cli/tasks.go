package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
	"hufschlaeger.net/timing-client/internal/service"
	"hufschlaeger.net/timing-client/pkg/utils"
)

const taskPrefix = "/time-entries/"

func newTasksCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Tasks (Zeiteinträge) verwalten",
	}

	cmd.AddCommand(newTasksListCommand(app))
	cmd.AddCommand(newTasksStartCommand(app))
	cmd.AddCommand(newTasksStopCommand(app))
	cmd.AddCommand(newTasksStatusCommand(app))
	cmd.AddCommand(newTasksDeleteCommand(app))
	return cmd
}

type taskListFlags struct {
	from     string
	to       string
	projects []string
	search   string
	running  bool
	page     int
	markdown bool
}

// query übersetzt die gesetzten Flags in eine TaskQuery.
func (f *taskListFlags) query(cmd *cobra.Command) (*timingDomain.TaskQuery, error) {
	q := &timingDomain.TaskQuery{}

	if f.from != "" {
		from, err := utils.ParseDate(f.from, time.Local)
		if err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
		q.StartDateMin = &from
	}
	if f.to != "" {
		to, err := utils.ParseDate(f.to, time.Local)
		if err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
		q.StartDateMax = &to
	}
	for _, p := range f.projects {
		q.Projects = append(q.Projects, p)
	}
	if cmd.Flags().Changed("search") {
		q.SearchQuery = &f.search
	}
	if cmd.Flags().Changed("running") {
		q.IsRunning = &f.running
	}
	if cmd.Flags().Changed("page") {
		q.Page = &f.page
	}
	return q, nil
}

func newTasksListCommand(app *App) *cobra.Command {
	flags := &taskListFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Tasks auflisten (ohne Zeitraum: die letzten 30 Tage)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := flags.query(cmd)
			if err != nil {
				return err
			}

			if flags.markdown {
				return app.tracker.WriteReport(cmd.Context(), query)
			}

			includeProject := true
			query.IncludeProjectData = &includeProject
			list, err := app.repo.ListTasks(cmd.Context(), query)
			if err != nil {
				return err
			}

			if len(list.Data) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ℹ️  Keine Tasks gefunden")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SELF\tSTART\tDAUER\tPROJEKT\tTITEL")
			for _, task := range list.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					task.Self,
					utils.FormatDateForDisplay(&task.StartDate),
					utils.FormatDuration(task.Duration),
					projectLabel(task.Project),
					utils.TruncateText(task.Title, 60))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if list.HasNext() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSeite %d von %d, weiter mit --page %d\n",
					list.Meta.CurrentPage, list.Meta.LastPage, list.Meta.CurrentPage+1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.from, "from", "", "Frühester Start (z.B. 2024-03-01 oder 01.03.2024 08:00)")
	cmd.Flags().StringVar(&flags.to, "to", "", "Spätester Start")
	cmd.Flags().StringArrayVar(&flags.projects, "project", nil, "Projekt-Pfad oder ID (mehrfach möglich)")
	cmd.Flags().StringVar(&flags.search, "search", "", "Suchbegriffe in Titel und Notizen")
	cmd.Flags().BoolVar(&flags.running, "running", false, "Nur laufende Tasks")
	cmd.Flags().IntVar(&flags.page, "page", 1, "Seite")
	cmd.Flags().BoolVar(&flags.markdown, "markdown", false, "Als Markdown-Report ausgeben (OUTPUT_FILE oder stdout)")
	return cmd
}

func newTasksStartCommand(app *App) *cobra.Command {
	var (
		title   string
		project string
		chain   string
		notes   string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Task starten, der laufende Task wird beendet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.StartRequest{Title: title, Notes: notes}

			if chain != "" {
				for _, part := range strings.Split(chain, "/") {
					if part = strings.TrimSpace(part); part != "" {
						req.Chain = append(req.Chain, part)
					}
				}
			} else if project != "" {
				ref, err := timingDomain.ParseProjectRef(project)
				if err != nil {
					return err
				}
				req.Project = ref
			}

			task, err := app.tracker.Start(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "▶️  Task gestartet: %s (%s)\n", taskLabel(task), task.Self)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Titel des Tasks")
	cmd.Flags().StringVar(&project, "project", "", "Projekt-Titel oder Pfad")
	cmd.Flags().StringVar(&chain, "chain", "", "Projekt-Hierarchie, z.B. \"Kunde/Support\" (wird angelegt)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notizen")
	cmd.MarkFlagsMutuallyExclusive("project", "chain")
	return cmd
}

func newTasksStopCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Laufenden Task beenden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := app.tracker.Stop(cmd.Context())
			if err != nil {
				return err
			}
			if task == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "ℹ️  Kein laufender Task")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "⏹️  Task beendet: %s (%s)\n", taskLabel(task), utils.FormatDuration(task.Duration))
			return nil
		},
	}
}

func newTasksStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Laufenden Task anzeigen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := app.tracker.Running(cmd.Context())
			if err != nil {
				return err
			}
			if task == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "ℹ️  Kein laufender Task")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "⏱️  %s seit %s (%s)\n",
				taskLabel(task), utils.FormatDateForDisplay(&task.StartDate), utils.FormatDuration(task.Duration))
			return nil
		},
	}
}

func newTasksDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete REF",
		Short: "Task löschen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := refArg(taskPrefix, args[0])
			if err := app.repo.Delete(cmd.Context(), ref); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Gelöscht: %s\n", ref)
			return nil
		},
	}
}

func projectLabel(p *timingDomain.Project) string {
	switch {
	case p == nil:
		return "-"
	case len(p.TitleChain) > 0:
		return utils.FormatTitleChain(p.TitleChain)
	case p.Title != "":
		return p.Title
	default:
		return p.Self
	}
}

// taskLabel ist der Titel oder, ohne Titel, das Projekt.
func taskLabel(task *timingDomain.Task) string {
	if task.Title != "" {
		return task.Title
	}
	return projectLabel(task.Project)
}
