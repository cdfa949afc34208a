package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
	"hufschlaeger.net/timing-client/pkg/utils"
)

const noProject = "Ohne Projekt"

// Report erstellt einen Markdown-Report einer Seite Tasks, gruppiert nach Projekt.
func (t *Tracker) Report(ctx context.Context, query *timingDomain.TaskQuery) (string, error) {
	// Projektdaten werden für die Gruppierung gebraucht
	q := timingDomain.TaskQuery{}
	if query != nil {
		q = *query
	}
	includeProject := true
	q.IncludeProjectData = &includeProject

	list, err := t.repo.ListTasks(ctx, &q)
	if err != nil {
		return "", fmt.Errorf("fehler beim Laden der Tasks: %w", err)
	}

	return t.generateMarkdownContent(list), nil
}

// WriteReport schreibt den Report nach OutputFile oder, ohne OutputFile, auf die Ausgabe.
func (t *Tracker) WriteReport(ctx context.Context, query *timingDomain.TaskQuery) error {
	content, err := t.Report(ctx, query)
	if err != nil {
		return err
	}

	if t.config == nil || t.config.OutputFile == "" {
		_, err := fmt.Fprint(t.out, content)
		return err
	}

	if err := os.WriteFile(t.config.OutputFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("datei-Export fehlgeschlagen: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ Datei erstellt: %s\n", t.config.OutputFile)
	return nil
}

type projectGroup struct {
	name  string
	tasks []timingDomain.Task
	total float64
}

func (t *Tracker) generateMarkdownContent(list *timingDomain.TasksList) string {
	var content strings.Builder

	// Header
	content.WriteString("# Timing Report\n\n")
	content.WriteString(fmt.Sprintf("**Export-Zeit:** %s  \n", t.now().Format("02.01.2006 15:04:05")))
	content.WriteString(fmt.Sprintf("**Anzahl Tasks:** %d  \n", len(list.Data)))
	if list.Meta.LastPage > 1 {
		content.WriteString(fmt.Sprintf("**Seite:** %d von %d (%d Tasks gesamt)  \n",
			list.Meta.CurrentPage, list.Meta.LastPage, list.Meta.Total))
	}
	content.WriteString("\n")

	var total float64
	for _, group := range groupByProject(list.Data) {
		content.WriteString(formatGroupAsMarkdown(group))
		total += group.total
	}

	content.WriteString(fmt.Sprintf("**Gesamt:** %s\n", utils.FormatDuration(total)))
	return content.String()
}

func formatGroupAsMarkdown(group projectGroup) string {
	var content strings.Builder

	content.WriteString(fmt.Sprintf("## %s\n\n", utils.EscapeMarkdown(group.name)))
	content.WriteString("| Start | Ende | Titel | Dauer |\n")
	content.WriteString("|-------|------|-------|-------|\n")

	for _, task := range group.tasks {
		title := task.Title
		if task.IsRunning {
			title += " ⏱️"
		}
		content.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			utils.FormatDateForDisplay(&task.StartDate),
			utils.FormatDateForDisplay(task.EndDate),
			utils.EscapeMarkdown(utils.TruncateText(title, 80)),
			utils.FormatDuration(task.Duration)))
	}

	content.WriteString(fmt.Sprintf("\n**Summe:** %s\n\n", utils.FormatDuration(group.total)))
	return content.String()
}

// groupByProject sortiert Gruppen nach Name, Tasks ohne Projekt kommen zuletzt.
func groupByProject(tasks []timingDomain.Task) []projectGroup {
	groups := make(map[string]*projectGroup)
	for _, task := range tasks {
		name := projectName(task.Project)
		g, ok := groups[name]
		if !ok {
			g = &projectGroup{name: name}
			groups[name] = g
		}
		g.tasks = append(g.tasks, task)
		g.total += task.Duration
	}

	out := make([]projectGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].name == noProject) != (out[j].name == noProject) {
			return out[j].name == noProject
		}
		return out[i].name < out[j].name
	})
	return out
}

func projectName(p *timingDomain.Project) string {
	switch {
	case p == nil:
		return noProject
	case len(p.TitleChain) > 0:
		return utils.FormatTitleChain(p.TitleChain)
	case p.Title != "":
		return p.Title
	default:
		return p.Self
	}
}
