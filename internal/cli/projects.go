package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
	"hufschlaeger.net/timing-client/pkg/utils"
)

const projectPrefix = "/projects/"

func newProjectsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Projekte verwalten",
	}

	cmd.AddCommand(newProjectsListCommand(app))
	cmd.AddCommand(newProjectsCreateCommand(app))
	cmd.AddCommand(newProjectsArchiveCommand(app))
	cmd.AddCommand(newProjectsDeleteCommand(app))
	return cmd
}

func newProjectsListCommand(app *App) *cobra.Command {
	var (
		title        string
		hideArchived bool
		tree         bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Projekte auflisten",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				projects []timingDomain.Project
				err      error
			)
			if tree {
				projects, err = app.repo.ListProjectsHierarchy(ctx)
			} else {
				filter := &timingDomain.ProjectFilter{Title: title}
				if cmd.Flags().Changed("hide-archived") {
					filter.HideArchived = &hideArchived
				}
				projects, err = app.repo.ListProjects(ctx, filter)
			}
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ℹ️  Keine Projekte gefunden")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SELF\tPROJEKT\tARCHIVIERT")
			for _, p := range projects {
				name := utils.FormatTitleChain(p.TitleChain)
				if tree {
					name = strings.Repeat("  ", max(len(p.TitleChain)-1, 0)) + p.Title
				}
				if name == "" {
					name = p.Title
				}
				archived := ""
				if p.IsArchived {
					archived = "ja"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Self, name, archived)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Nur Projekte, deren Titel alle Wörter enthält")
	cmd.Flags().BoolVar(&hideArchived, "hide-archived", false, "Archivierte Projekte ausblenden")
	cmd.Flags().BoolVar(&tree, "tree", false, "Als Hierarchie anzeigen")
	return cmd
}

func newProjectsCreateCommand(app *App) *cobra.Command {
	var (
		parent string
		color  string
		score  float64
	)

	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Projekt anlegen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := timingDomain.NewProject{Title: args[0], Color: color}
			if cmd.Flags().Changed("score") {
				project.ProductivityScore = &score
			}
			if parent != "" {
				project.Parent = refArg(projectPrefix, parent)
			}

			created, err := app.repo.CreateProject(cmd.Context(), project)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "📋 Projekt erstellt: %s (%s)\n",
				utils.FormatTitleChain(created.TitleChain), created.Self)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Übergeordnetes Projekt (Pfad oder ID)")
	cmd.Flags().StringVar(&color, "color", "", "Farbe im Format #RRGGBB")
	cmd.Flags().Float64Var(&score, "score", 0, "Produktivität zwischen -1 und 1")
	return cmd
}

func newProjectsArchiveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive REF",
		Short: "Projekt archivieren",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archived := true
			project, err := app.repo.UpdateProject(cmd.Context(), refArg(projectPrefix, args[0]),
				timingDomain.ProjectPatch{IsArchived: &archived})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "🗄️  Projekt archiviert: %s (%s)\n", project.Title, project.Self)
			return nil
		},
	}
}

func newProjectsDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete REF",
		Short: "Projekt samt Unterprojekten löschen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := refArg(projectPrefix, args[0])
			if err := app.repo.Delete(cmd.Context(), ref); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Gelöscht: %s\n", ref)
			return nil
		},
	}
}
