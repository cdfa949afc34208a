// Package timingtest provides an in-memory Timing API for tests.
package timingtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
	"hufschlaeger.net/timing-client/internal/repository/timing"
)

const apiPrefix = "/api/v1"

type project struct {
	id       int
	title    string
	color    string
	score    float64
	archived bool
	parent   int
}

type task struct {
	id      int
	start   time.Time
	end     *time.Time
	title   string
	notes   string
	project int
}

// Server implements timing.Transport on top of in-memory projects and tasks.
// It mirrors the server-side rules the client relies on: one running task,
// immutable project parents and 404 for unknown resources.
type Server struct {
	// Now is the server clock.
	Now func() time.Time
	// PerPage is the page size of task lists.
	PerPage int

	mu          sync.Mutex
	nextProject int
	nextTask    int
	projects    map[int]*project
	tasks       map[int]*task
	requests    []*timing.Request
}

func NewServer() *Server {
	return &Server{
		Now:         time.Now,
		PerPage:     50,
		nextProject: 1,
		nextTask:    1,
		projects:    make(map[int]*project),
		tasks:       make(map[int]*task),
	}
}

// Requests returns all requests received so far.
func (s *Server) Requests() []*timing.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// LastRequest returns the most recent request or nil.
func (s *Server) LastRequest() *timing.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// AddProject seeds a project and returns its path. parent may be "".
func (s *Server) AddProject(title, parent string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &project{id: s.nextProject, title: title, color: "#007AFF", parent: idFromPath(parent, "/projects/")}
	s.nextProject++
	s.projects[p.id] = p
	return projectPath(p.id)
}

// AddTask seeds a task and returns its path. A nil end leaves it running.
func (s *Server) AddTask(title, projectRef string, start time.Time, end *time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &task{id: s.nextTask, start: start, end: end, title: title, project: idFromPath(projectRef, "/projects/")}
	s.nextTask++
	s.tasks[t.id] = t
	return taskPath(t.id)
}

func (s *Server) RoundTrip(ctx context.Context, req *timing.Request) (*timing.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
		return s.fail(req, http.StatusUnauthorized, "Unauthenticated."), nil
	}
	if !strings.HasPrefix(u.Path, apiPrefix+"/") {
		return s.fail(req, http.StatusNotFound, "Not found."), nil
	}

	path := strings.TrimPrefix(u.Path, apiPrefix)
	query := u.Query()

	switch {
	case path == "/projects/hierarchy" && req.Method == http.MethodGet:
		return s.ok(req, http.StatusOK, map[string]any{"data": s.renderProjects(s.hierarchyOrder())}), nil
	case path == "/projects" && req.Method == http.MethodGet:
		return s.ok(req, http.StatusOK, map[string]any{"data": s.renderProjects(s.filterProjects(query))}), nil
	case path == "/projects" && req.Method == http.MethodPost:
		return s.createProject(req), nil
	case strings.HasPrefix(path, "/projects/"):
		return s.projectByID(req, idFromPath(path, "/projects/")), nil
	case path == "/time-entries" && req.Method == http.MethodGet:
		return s.listTasks(req, query), nil
	case path == "/time-entries" && req.Method == http.MethodPost:
		return s.createTask(req, false), nil
	case path == "/time-entries/start" && req.Method == http.MethodPost:
		return s.createTask(req, true), nil
	case path == "/time-entries/stop" && req.Method == http.MethodPut:
		return s.stopTask(req), nil
	case strings.HasPrefix(path, "/time-entries/"):
		return s.taskByID(req, idFromPath(path, "/time-entries/")), nil
	}

	return s.fail(req, http.StatusNotFound, "Not found."), nil
}

// Projects

func (s *Server) createProject(req *timing.Request) *timing.Response {
	var in struct {
		Title             string   `json:"title"`
		Color             string   `json:"color"`
		ProductivityScore *float64 `json:"productivity_score"`
		IsArchived        bool     `json:"is_archived"`
		Parent            *string  `json:"parent"`
	}
	if err := json.Unmarshal(req.Body, &in); err != nil {
		return s.fail(req, http.StatusBadRequest, "Malformed JSON.")
	}
	if in.Title == "" {
		return s.invalid(req, "title", "The title field is required.")
	}

	p := &project{id: s.nextProject, title: in.Title, color: in.Color, archived: in.IsArchived}
	if p.color == "" {
		p.color = "#007AFF"
	}
	if in.ProductivityScore != nil {
		p.score = *in.ProductivityScore
	}
	if in.Parent != nil {
		parent := idFromPath(*in.Parent, "/projects/")
		if _, ok := s.projects[parent]; !ok {
			return s.invalid(req, "parent", "The selected parent is invalid.")
		}
		p.parent = parent
	}

	s.nextProject++
	s.projects[p.id] = p
	return s.ok(req, http.StatusCreated, map[string]any{
		"data":  s.renderProject(p),
		"links": map[string]string{"time-entries": "/time-entries?projects[]=" + projectPath(p.id)},
	})
}

func (s *Server) projectByID(req *timing.Request, id int) *timing.Response {
	p, ok := s.projects[id]
	if !ok {
		return s.fail(req, http.StatusNotFound, "Not found.")
	}

	switch req.Method {
	case http.MethodGet:
		return s.ok(req, http.StatusOK, map[string]any{
			"data":  s.renderProject(p),
			"links": map[string]string{"time-entries": "/time-entries?projects[]=" + projectPath(p.id)},
		})
	case http.MethodPatch:
		var in map[string]json.RawMessage
		if err := json.Unmarshal(req.Body, &in); err != nil {
			return s.fail(req, http.StatusBadRequest, "Malformed JSON.")
		}
		if _, ok := in["parent"]; ok {
			return s.invalid(req, "parent", "Changing a project's parent is not possible.")
		}
		if raw, ok := in["title"]; ok {
			_ = json.Unmarshal(raw, &p.title)
		}
		if raw, ok := in["color"]; ok {
			_ = json.Unmarshal(raw, &p.color)
		}
		if raw, ok := in["productivity_score"]; ok {
			_ = json.Unmarshal(raw, &p.score)
		}
		if raw, ok := in["is_archived"]; ok {
			_ = json.Unmarshal(raw, &p.archived)
		}
		return s.ok(req, http.StatusOK, map[string]any{"data": s.renderProject(p)})
	case http.MethodDelete:
		for _, child := range s.descendants(id) {
			delete(s.projects, child)
		}
		delete(s.projects, id)
		return s.noContent(req)
	}
	return s.fail(req, http.StatusMethodNotAllowed, "Method not allowed.")
}

func (s *Server) sortedProjectIDs() []int {
	ids := make([]int, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Server) childIDs(parent int) []int {
	var ids []int
	for _, id := range s.sortedProjectIDs() {
		if s.projects[id].parent == parent {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Server) descendants(id int) []int {
	var out []int
	for _, child := range s.childIDs(id) {
		out = append(out, child)
		out = append(out, s.descendants(child)...)
	}
	return out
}

// hierarchyOrder lists projects depth first, roots first.
func (s *Server) hierarchyOrder() []int {
	var out []int
	for _, root := range s.childIDs(0) {
		out = append(out, root)
		out = append(out, s.descendants(root)...)
	}
	return out
}

func (s *Server) hiddenByArchive(id int) bool {
	for p, ok := s.projects[id]; ok; p, ok = s.projects[p.parent] {
		if p.archived {
			return true
		}
	}
	return false
}

func (s *Server) filterProjects(query url.Values) []int {
	words := strings.Fields(strings.ToLower(query.Get("title")))
	hideArchived := query.Get("hide_archived") == "true"

	var out []int
	for _, id := range s.sortedProjectIDs() {
		title := strings.ToLower(s.projects[id].title)
		if !containsAll(title, words) {
			continue
		}
		if hideArchived && s.hiddenByArchive(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (s *Server) titleChain(id int) []string {
	var chain []string
	for p, ok := s.projects[id]; ok; p, ok = s.projects[p.parent] {
		chain = append([]string{p.title}, chain...)
	}
	return chain
}

func (s *Server) renderProject(p *project) timingDomain.Project {
	out := timingDomain.Project{
		Reference:         timingDomain.Reference{Self: projectPath(p.id)},
		Title:             p.title,
		TitleChain:        s.titleChain(p.id),
		Color:             p.color,
		ProductivityScore: p.score,
		IsArchived:        p.archived,
		Children:          []timingDomain.Reference{},
	}
	if p.parent != 0 {
		out.Parent = &timingDomain.ParentRef{Self: projectPath(p.parent)}
	}
	for _, child := range s.childIDs(p.id) {
		out.Children = append(out.Children, timingDomain.Reference{Self: projectPath(child)})
	}
	return out
}

func (s *Server) renderProjects(ids []int) []timingDomain.Project {
	out := make([]timingDomain.Project, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.renderProject(s.projects[id]))
	}
	return out
}

// resolveProject interprets the "project" member of a task body.
func (s *Server) resolveProject(raw json.RawMessage) (int, bool) {
	var chain []string
	if err := json.Unmarshal(raw, &chain); err == nil {
		for _, id := range s.sortedProjectIDs() {
			if slices.Equal(s.titleChain(id), chain) {
				return id, true
			}
		}
		return 0, false
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	if strings.HasPrefix(value, "/projects/") {
		id := idFromPath(value, "/projects/")
		_, ok := s.projects[id]
		return id, ok
	}
	for _, id := range s.sortedProjectIDs() {
		if s.projects[id].title == value {
			return id, true
		}
	}
	return 0, false
}

// Tasks

func (s *Server) running() *task {
	for _, t := range s.tasks {
		if t.end == nil {
			return t
		}
	}
	return nil
}

func (s *Server) createTask(req *timing.Request, start bool) *timing.Response {
	var in map[string]json.RawMessage
	if err := json.Unmarshal(req.Body, &in); err != nil {
		return s.fail(req, http.StatusBadRequest, "Malformed JSON.")
	}

	t := &task{}
	if resp := s.applyTaskFields(req, t, in); resp != nil {
		return resp
	}
	if t.title == "" && t.project == 0 {
		return s.invalid(req, "title", "The title field is required when project is not present.")
	}

	now := s.Now()
	if t.start.IsZero() {
		if !start {
			return s.invalid(req, "start_date", "The start date field is required.")
		}
		t.start = now
	}

	message := "Task created."
	if start {
		if current := s.running(); current != nil {
			current.end = &now
		}
		t.end = nil
		message = "Task started."
	} else if t.end == nil {
		return s.invalid(req, "end_date", "The end date field is required.")
	}

	t.id = s.nextTask
	s.nextTask++
	s.tasks[t.id] = t
	return s.ok(req, http.StatusCreated, map[string]any{"data": s.renderTask(t, false), "message": message})
}

func (s *Server) applyTaskFields(req *timing.Request, t *task, in map[string]json.RawMessage) *timing.Response {
	for _, field := range []string{"start_date", "end_date"} {
		raw, ok := in[field]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return s.invalid(req, field, "The "+field+" is not a valid date.")
		}
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return s.invalid(req, field, "The "+field+" is not a valid date.")
		}
		if field == "start_date" {
			t.start = parsed
		} else {
			t.end = &parsed
		}
	}
	if raw, ok := in["title"]; ok {
		_ = json.Unmarshal(raw, &t.title)
	}
	if raw, ok := in["notes"]; ok {
		_ = json.Unmarshal(raw, &t.notes)
	}
	if raw, ok := in["project"]; ok {
		id, found := s.resolveProject(raw)
		if !found {
			return s.invalid(req, "project", "The selected project is invalid.")
		}
		t.project = id
	}
	return nil
}

func (s *Server) stopTask(req *timing.Request) *timing.Response {
	current := s.running()
	if current == nil {
		return s.fail(req, http.StatusNotFound, "There is no running task.")
	}
	now := s.Now()
	current.end = &now
	return s.ok(req, http.StatusOK, map[string]any{"data": s.renderTask(current, false), "message": "Task stopped."})
}

func (s *Server) taskByID(req *timing.Request, id int) *timing.Response {
	t, ok := s.tasks[id]
	if !ok {
		return s.fail(req, http.StatusNotFound, "Not found.")
	}

	switch req.Method {
	case http.MethodGet:
		return s.ok(req, http.StatusOK, map[string]any{"data": s.renderTask(t, false)})
	case http.MethodPatch:
		var in map[string]json.RawMessage
		if err := json.Unmarshal(req.Body, &in); err != nil {
			return s.fail(req, http.StatusBadRequest, "Malformed JSON.")
		}
		updated := *t
		if resp := s.applyTaskFields(req, &updated, in); resp != nil {
			return resp
		}
		*t = updated
		return s.ok(req, http.StatusOK, map[string]any{"data": s.renderTask(t, false)})
	case http.MethodDelete:
		delete(s.tasks, id)
		return s.noContent(req)
	}
	return s.fail(req, http.StatusMethodNotAllowed, "Method not allowed.")
}

func (s *Server) listTasks(req *timing.Request, query url.Values) *timing.Response {
	now := s.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	minStart, maxStart := midnight.AddDate(0, 0, -30), midnight.AddDate(0, 0, 1).Add(-time.Second)

	if v := query.Get("start_date_min"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return s.invalid(req, "start_date_min", "The start date min is not a valid date.")
		}
		minStart = parsed
		if query.Get("start_date_max") == "" {
			maxStart = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		}
	}
	if v := query.Get("start_date_max"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return s.invalid(req, "start_date_max", "The start date max is not a valid date.")
		}
		maxStart = parsed
		if query.Get("start_date_min") == "" {
			minStart = time.Time{}
		}
	}

	projectFilter := make(map[int]bool)
	for _, ref := range query["projects[]"] {
		id := idFromPath(ref, "/projects/")
		projectFilter[id] = true
		if query.Get("include_child_projects") == "true" {
			for _, child := range s.descendants(id) {
				projectFilter[child] = true
			}
		}
	}
	words := strings.Fields(strings.ToLower(query.Get("search_query")))
	includeProject := query.Get("include_project_data") == "true"

	ids := make([]int, 0, len(s.tasks))
	for id, t := range s.tasks {
		if t.start.Before(minStart) || t.start.After(maxStart) {
			continue
		}
		if len(projectFilter) > 0 && !projectFilter[t.project] {
			continue
		}
		if !containsAll(strings.ToLower(t.title+" "+t.notes), words) {
			continue
		}
		if v := query.Get("is_running"); v != "" && (t.end == nil) != (v == "true") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	page := 1
	if v, err := strconv.Atoi(query.Get("page")); err == nil && v > 0 {
		page = v
	}
	perPage := s.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	lastPage := max(1, (len(ids)+perPage-1)/perPage)
	from := min((page-1)*perPage, len(ids))
	to := min(from+perPage, len(ids))

	data := make([]timingDomain.Task, 0, to-from)
	for _, id := range ids[from:to] {
		data = append(data, s.renderTask(s.tasks[id], includeProject))
	}

	links := timingDomain.ListLinks{
		First: pageLink(1),
		Last:  pageLink(lastPage),
	}
	if page > 1 {
		prev := pageLink(page - 1)
		links.Prev = &prev
	}
	if page < lastPage {
		next := pageLink(page + 1)
		links.Next = &next
	}

	meta := timingDomain.ListMeta{
		CurrentPage: page,
		LastPage:    lastPage,
		Path:        "/time-entries",
		PerPage:     perPage,
		Total:       len(ids),
	}
	if to > from {
		meta.From, meta.To = from+1, to
	}

	return s.ok(req, http.StatusOK, timingDomain.TasksList{Data: data, Links: links, Meta: meta})
}

func (s *Server) renderTask(t *task, includeProject bool) timingDomain.Task {
	out := timingDomain.Task{
		Reference: timingDomain.Reference{Self: taskPath(t.id)},
		StartDate: t.start,
		EndDate:   t.end,
		Title:     t.title,
		Notes:     t.notes,
		IsRunning: t.end == nil,
	}

	end := s.Now()
	if t.end != nil {
		end = *t.end
	}
	out.Duration = end.Sub(t.start).Seconds()

	if p, ok := s.projects[t.project]; ok {
		if includeProject {
			rendered := s.renderProject(p)
			out.Project = &rendered
		} else {
			out.Project = &timingDomain.Project{Reference: timingDomain.Reference{Self: projectPath(p.id)}}
		}
	}
	return out
}

// Responses

func (s *Server) ok(req *timing.Request, status int, payload any) *timing.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return s.fail(req, http.StatusInternalServerError, err.Error())
	}
	return &timing.Response{StatusCode: status, StatusText: http.StatusText(status), URL: req.URL, Body: body}
}

func (s *Server) noContent(req *timing.Request) *timing.Response {
	return &timing.Response{StatusCode: http.StatusNoContent, StatusText: http.StatusText(http.StatusNoContent), URL: req.URL}
}

func (s *Server) fail(req *timing.Request, status int, message string) *timing.Response {
	body, _ := json.Marshal(map[string]string{"message": message})
	return &timing.Response{StatusCode: status, StatusText: http.StatusText(status), URL: req.URL, Body: body}
}

func (s *Server) invalid(req *timing.Request, field, message string) *timing.Response {
	body, _ := json.Marshal(map[string]any{
		"message": "The given data was invalid.",
		"errors":  map[string][]string{field: {message}},
	})
	status := http.StatusUnprocessableEntity
	return &timing.Response{StatusCode: status, StatusText: http.StatusText(status), URL: req.URL, Body: body}
}

// Helpers

func projectPath(id int) string {
	return "/projects/" + strconv.Itoa(id)
}

func taskPath(id int) string {
	return "/time-entries/" + strconv.Itoa(id)
}

func pageLink(page int) string {
	return fmt.Sprintf("/time-entries?page=%d", page)
}

// idFromPath returns the numeric id after prefix, or 0.
func idFromPath(path, prefix string) int {
	id, err := strconv.Atoi(strings.TrimPrefix(path, prefix))
	if err != nil {
		return 0
	}
	return id
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
