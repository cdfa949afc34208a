package timing

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
)

// taskBody is the JSON sent to create, start or update a task. Timestamps are
// truncated to whole seconds.
type taskBody struct {
	StartDate *timestamp               `json:"start_date,omitempty"`
	EndDate   *timestamp               `json:"end_date,omitempty"`
	Title     *string                  `json:"title,omitempty"`
	Notes     *string                  `json:"notes,omitempty"`
	Project   *timingDomain.ProjectRef `json:"project,omitempty"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalProject(p timingDomain.ProjectRef) *timingDomain.ProjectRef {
	if p.IsZero() {
		return nil
	}
	return &p
}

func optionalTime(t time.Time) *timestamp {
	if t.IsZero() {
		return nil
	}
	return newTimestamp(&t)
}

// ListTasks returns one page of tasks matching query.
//
// Without a start date range the server returns the tasks between midnight
// (UTC) 30 days ago and the end of today (UTC).
func (r *Repository) ListTasks(ctx context.Context, query *timingDomain.TaskQuery) (*timingDomain.TasksList, error) {
	params, err := newTaskQueryParams(query)
	if err != nil {
		return nil, err
	}

	var list timingDomain.TasksList
	if err := r.fetch(ctx, http.MethodGet, "time-entries", params, nil, &list); err != nil {
		return nil, err
	}

	if !list.Meta.Valid() && len(list.Data) > 0 {
		r.logger.Warn("inconsistent list metadata",
			zap.Int("current_page", list.Meta.CurrentPage),
			zap.Int("last_page", list.Meta.LastPage),
			zap.Int("from", list.Meta.From),
			zap.Int("to", list.Meta.To),
			zap.Int("total", list.Meta.Total))
	}
	return &list, nil
}

// StartNewTask starts a task and stops the one currently running, if any.
func (r *Repository) StartNewTask(ctx context.Context, task timingDomain.NewStartedTask) (*timingDomain.Task, error) {
	started, _, err := r.StartNewTaskWithMessage(ctx, task)
	return started, err
}

// StartNewTaskWithMessage is StartNewTask that also returns the server's message.
func (r *Repository) StartNewTaskWithMessage(ctx context.Context, task timingDomain.NewStartedTask) (*timingDomain.Task, string, error) {
	if err := task.Validate(); err != nil {
		return nil, "", err
	}

	body := taskBody{
		StartDate: optionalTime(task.StartDate),
		EndDate:   newTimestamp(task.EndDate),
		Title:     optionalString(task.Title),
		Notes:     optionalString(task.Notes),
		Project:   optionalProject(task.Project),
	}

	var resp envelope[timingDomain.Task]
	if err := r.fetch(ctx, http.MethodPost, "time-entries/start", nil, body, &resp); err != nil {
		return nil, "", err
	}

	r.logger.Debug("task started", zap.String("self", resp.Data.Self), zap.String("message", resp.Message))
	return &resp.Data, resp.Message, nil
}

// CreateTask records a finished task.
func (r *Repository) CreateTask(ctx context.Context, task timingDomain.NewCompletedTask) (*timingDomain.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	body := taskBody{
		StartDate: optionalTime(task.StartDate),
		EndDate:   optionalTime(task.EndDate),
		Title:     optionalString(task.Title),
		Notes:     optionalString(task.Notes),
		Project:   optionalProject(task.Project),
	}

	var resp envelope[timingDomain.Task]
	if err := r.fetch(ctx, http.MethodPost, "time-entries", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (r *Repository) GetTask(ctx context.Context, ref any) (*timingDomain.Task, error) {
	path, err := timingDomain.Resolve(ref)
	if err != nil {
		return nil, err
	}

	var resp envelope[timingDomain.Task]
	if err := r.fetch(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateTask changes the fields set in patch; omitted fields are left untouched.
func (r *Repository) UpdateTask(ctx context.Context, ref any, patch timingDomain.TaskPatch) (*timingDomain.Task, error) {
	path, err := timingDomain.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	body := taskBody{
		StartDate: newTimestamp(patch.StartDate),
		EndDate:   newTimestamp(patch.EndDate),
		Title:     patch.Title,
		Notes:     patch.Notes,
		Project:   optionalProject(patch.Project),
	}

	var resp envelope[timingDomain.Task]
	if err := r.fetch(ctx, http.MethodPatch, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// StopTask stops the running task and returns it.
func (r *Repository) StopTask(ctx context.Context) (*timingDomain.Task, error) {
	stopped, _, err := r.StopTaskWithMessage(ctx)
	return stopped, err
}

func (r *Repository) StopTaskWithMessage(ctx context.Context) (*timingDomain.Task, string, error) {
	var resp envelope[timingDomain.Task]
	if err := r.fetch(ctx, http.MethodPut, "time-entries/stop", nil, nil, &resp); err != nil {
		return nil, "", err
	}
	return &resp.Data, resp.Message, nil
}
