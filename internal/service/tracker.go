package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"hufschlaeger.net/timing-client/internal/config"
	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
	timingRepo "hufschlaeger.net/timing-client/internal/repository/timing"
)

// TimingRepository is the part of the Timing client the Tracker needs.
type TimingRepository interface {
	FindProjectByTitleChain(ctx context.Context, chain ...string) (*timingDomain.Project, error)
	CreateProject(ctx context.Context, project timingDomain.NewProject) (*timingDomain.Project, error)
	StartNewTaskWithMessage(ctx context.Context, task timingDomain.NewStartedTask) (*timingDomain.Task, string, error)
	StopTaskWithMessage(ctx context.Context) (*timingDomain.Task, string, error)
	ListTasks(ctx context.Context, query *timingDomain.TaskQuery) (*timingDomain.TasksList, error)
}

type Tracker struct {
	config *config.Config
	repo   TimingRepository
	logger *zap.Logger

	// out receives reports when no OutputFile is configured.
	out io.Writer
	now func() time.Time
}

func NewTracker(cfg *config.Config, repo TimingRepository, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		config: cfg,
		repo:   repo,
		logger: logger,
		out:    os.Stdout,
		now:    time.Now,
	}
}

// SetOutput ändert das Ziel für Reports ohne OutputFile.
func (t *Tracker) SetOutput(w io.Writer) {
	t.out = w
}

// StartRequest beschreibt einen neuen Task. Chain hat Vorrang vor Project.
type StartRequest struct {
	Title   string
	Notes   string
	Project timingDomain.ProjectRef
	// Chain wird bei Bedarf angelegt, z.B. {"Kunde", "Projekt"}.
	Chain []string
}

// EnsureProject liefert das Projekt zur Titel-Kette und legt fehlende Ebenen an.
func (t *Tracker) EnsureProject(ctx context.Context, chain ...string) (*timingDomain.Project, error) {
	if len(chain) == 0 {
		return nil, &timingDomain.ValidationError{Field: "project", Reason: "empty title chain"}
	}

	var parent *timingDomain.Project
	for i := range chain {
		existing, err := t.repo.FindProjectByTitleChain(ctx, chain[:i+1]...)
		if err != nil {
			return nil, fmt.Errorf("projekt '%s' suchen: %w", strings.Join(chain[:i+1], " / "), err)
		}
		if existing != nil {
			parent = existing
			continue
		}

		newProject := timingDomain.NewProject{Title: chain[i]}
		if parent != nil {
			newProject.Parent = parent
		}
		created, err := t.repo.CreateProject(ctx, newProject)
		if err != nil {
			return nil, fmt.Errorf("projekt '%s' anlegen: %w", chain[i], err)
		}
		t.logger.Info("project created", zap.String("self", created.Self), zap.Strings("title_chain", chain[:i+1]))
		parent = created
	}

	return parent, nil
}

// Start startet einen Task und beendet dabei den laufenden.
func (t *Tracker) Start(ctx context.Context, req StartRequest) (*timingDomain.Task, error) {
	project := req.Project
	if len(req.Chain) > 0 {
		p, err := t.EnsureProject(ctx, req.Chain...)
		if err != nil {
			return nil, err
		}
		project = timingDomain.ProjectReference(p)
	}

	task, err := timingDomain.StartTask(t.now(), req.Title, project)
	if err != nil {
		return nil, err
	}
	task.Notes = req.Notes

	started, message, err := t.repo.StartNewTaskWithMessage(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("task starten: %w", err)
	}

	t.logger.Info("task started", zap.String("self", started.Self), zap.String("message", message))
	return started, nil
}

// Stop beendet den laufenden Task. Läuft keiner, ist das Ergebnis nil.
func (t *Tracker) Stop(ctx context.Context) (*timingDomain.Task, error) {
	stopped, message, err := t.repo.StopTaskWithMessage(ctx)
	if timingRepo.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("task stoppen: %w", err)
	}

	t.logger.Info("task stopped", zap.String("self", stopped.Self), zap.String("message", message))
	return stopped, nil
}

// runningSince reaches back far enough that the server's 30 day default
// window does not hide long running tasks.
var runningSince = time.Unix(0, 0).UTC()

// Running liefert den laufenden Task oder nil.
func (t *Tracker) Running(ctx context.Context) (*timingDomain.Task, error) {
	running, includeProject := true, true
	since := runningSince
	list, err := t.repo.ListTasks(ctx, &timingDomain.TaskQuery{
		StartDateMin:       &since,
		IsRunning:          &running,
		IncludeProjectData: &includeProject,
	})
	if err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	if len(list.Data) > 1 {
		t.logger.Warn("more than one running task", zap.Int("count", len(list.Data)))
	}
	return &list.Data[0], nil
}
