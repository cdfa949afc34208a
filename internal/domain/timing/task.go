package timing

import (
	"time"
)

// Task ist ein Zeiteintrag ("time entry") der Timing API.
type Task struct {
	Reference

	StartDate time.Time `json:"start_date"`
	// EndDate is nil while the task is running.
	EndDate *time.Time `json:"end_date"`
	// Project carries only Self unless the list was requested with project data.
	Project *Project `json:"project"`
	Title   string   `json:"title"`
	Notes   string   `json:"notes"`
	// Duration in seconds.
	Duration  float64 `json:"duration"`
	IsRunning bool    `json:"is_running"`
}

// NewStartedTask is sent to start a task. Starting a task stops the one that
// is currently running.
type NewStartedTask struct {
	StartDate time.Time
	EndDate   *time.Time
	Title     string
	Notes     string
	Project   ProjectRef
}

// StartTask builds a validated NewStartedTask.
func StartTask(start time.Time, title string, project ProjectRef) (NewStartedTask, error) {
	t := NewStartedTask{StartDate: start, Title: title, Project: project}
	if err := t.Validate(); err != nil {
		return NewStartedTask{}, err
	}
	return t, nil
}

func (t NewStartedTask) Validate() error {
	if t.Title == "" && t.Project.IsZero() {
		return ErrTitleOrProjectRequired
	}
	if err := t.Project.Validate(); err != nil {
		return err
	}
	if t.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "is required"}
	}
	return nil
}

// NewCompletedTask is sent to record a task that is not left running.
type NewCompletedTask struct {
	StartDate time.Time
	EndDate   time.Time
	Title     string
	Notes     string
	Project   ProjectRef
}

// CompletedTask builds a validated NewCompletedTask.
func CompletedTask(start, end time.Time, title string, project ProjectRef) (NewCompletedTask, error) {
	t := NewCompletedTask{StartDate: start, EndDate: end, Title: title, Project: project}
	if err := t.Validate(); err != nil {
		return NewCompletedTask{}, err
	}
	return t, nil
}

func (t NewCompletedTask) Validate() error {
	if t.Title == "" && t.Project.IsZero() {
		return ErrTitleOrProjectRequired
	}
	if err := t.Project.Validate(); err != nil {
		return err
	}
	if t.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "is required"}
	}
	if t.EndDate.IsZero() {
		return &ValidationError{Field: "end_date", Reason: "is required"}
	}
	if t.EndDate.Before(t.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}
	return nil
}

// TaskPatch lists the fields of a task to update. Omitted fields are left
// untouched.
type TaskPatch struct {
	StartDate *time.Time
	EndDate   *time.Time
	Title     *string
	Notes     *string
	Project   ProjectRef
}

// Validate checks the dates of the patch and enforces the title-or-project
// rule once either field is touched.
func (p TaskPatch) Validate() error {
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}
	if err := p.Project.Validate(); err != nil {
		return err
	}
	if p.Title == nil && p.Project.IsZero() {
		return nil
	}
	if (p.Title == nil || *p.Title == "") && p.Project.IsZero() {
		return ErrTitleOrProjectRequired
	}
	return nil
}

// TaskQuery filters ListTasks. Nil fields are not sent.
//
// Without StartDateMin and StartDateMax the server returns the tasks between
// midnight (UTC) 30 days ago and the end of today (UTC).
type TaskQuery struct {
	StartDateMin *time.Time
	StartDateMax *time.Time
	// Projects holds project paths, plain project ids or references.
	Projects    []any
	SearchQuery *string
	IsRunning   *bool
	// IncludeProjectData embeds the project attributes into every task.
	IncludeProjectData *bool
	// IncludeChildProjects also returns tasks of descendants of Projects.
	IncludeChildProjects *bool
	Page                 *int
}

type ListLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type ListMeta struct {
	CurrentPage int    `json:"current_page"`
	From        int    `json:"from"`
	LastPage    int    `json:"last_page"`
	Path        string `json:"path"`
	PerPage     int    `json:"per_page"`
	To          int    `json:"to"`
	Total       int    `json:"total"`
}

// Valid reports whether the page metadata is consistent.
func (m ListMeta) Valid() bool {
	if m.From > m.To || m.To > m.Total {
		return false
	}
	return m.CurrentPage >= 1 && m.CurrentPage <= m.LastPage
}

// TasksList is one page of tasks.
type TasksList struct {
	Data  []Task    `json:"data"`
	Links ListLinks `json:"links"`
	Meta  ListMeta  `json:"meta"`
}

func (l *TasksList) HasNext() bool {
	return l.Links.Next != nil && *l.Links.Next != ""
}
