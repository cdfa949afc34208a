package timing

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"go.uber.org/zap"

	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
)

type createProjectBody struct {
	Title             string   `json:"title"`
	Color             string   `json:"color,omitempty"`
	ProductivityScore *float64 `json:"productivity_score,omitempty"`
	IsArchived        bool     `json:"is_archived"`
	Parent            *string  `json:"parent,omitempty"`
}

// updateProjectBody has no parent on purpose: the API refuses to move projects.
type updateProjectBody struct {
	Title             *string  `json:"title,omitempty"`
	Color             *string  `json:"color,omitempty"`
	ProductivityScore *float64 `json:"productivity_score,omitempty"`
	IsArchived        *bool    `json:"is_archived,omitempty"`
}

// withoutFields serializes v and drops the given top-level members.
func withoutFields(v any, fields ...string) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for _, f := range fields {
		delete(members, f)
	}
	return json.Marshal(members)
}

// Project operations

// ListProjectsHierarchy returns all projects in the order the server delivers
// them, each with its parent and children.
func (r *Repository) ListProjectsHierarchy(ctx context.Context) ([]timingDomain.Project, error) {
	var resp envelope[[]timingDomain.Project]
	if err := r.fetch(ctx, http.MethodGet, "projects/hierarchy", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListProjects returns a flat list of projects, optionally filtered.
func (r *Repository) ListProjects(ctx context.Context, filter *timingDomain.ProjectFilter) ([]timingDomain.Project, error) {
	var resp envelope[[]timingDomain.Project]
	if err := r.fetch(ctx, http.MethodGet, "projects", newProjectQueryParams(filter), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetProject loads the project ref points to.
func (r *Repository) GetProject(ctx context.Context, ref any) (*timingDomain.Project, error) {
	path, err := timingDomain.Resolve(ref)
	if err != nil {
		return nil, err
	}

	var resp envelope[timingDomain.Project]
	if err := r.fetch(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (r *Repository) CreateProject(ctx context.Context, project timingDomain.NewProject) (*timingDomain.Project, error) {
	if err := project.Validate(); err != nil {
		return nil, err
	}

	body := createProjectBody{
		Title:             project.Title,
		Color:             project.Color,
		ProductivityScore: project.ProductivityScore,
		IsArchived:        project.IsArchived,
	}
	if project.Parent != nil {
		parent, err := timingDomain.Resolve(project.Parent)
		if err != nil {
			return nil, err
		}
		body.Parent = &parent
	}

	var resp envelope[timingDomain.Project]
	if err := r.fetch(ctx, http.MethodPost, "projects", nil, body, &resp); err != nil {
		return nil, err
	}

	r.logger.Debug("project created", zap.String("self", resp.Data.Self), zap.String("title", resp.Data.Title))
	return &resp.Data, nil
}

// UpdateProject changes the fields set in patch. A project's parent and
// children can not be changed; "parent" is never sent.
func (r *Repository) UpdateProject(ctx context.Context, ref any, patch timingDomain.ProjectPatch) (*timingDomain.Project, error) {
	path, err := timingDomain.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	body, err := withoutFields(updateProjectBody{
		Title:             patch.Title,
		Color:             patch.Color,
		ProductivityScore: patch.ProductivityScore,
		IsArchived:        patch.IsArchived,
	}, "parent", "children")
	if err != nil {
		return nil, err
	}

	var resp envelope[timingDomain.Project]
	if err := r.fetch(ctx, http.MethodPatch, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Delete removes the project or task ref points to.
func (r *Repository) Delete(ctx context.Context, ref any) error {
	path, err := timingDomain.Resolve(ref)
	if err != nil {
		return err
	}
	return r.fetch(ctx, http.MethodDelete, path, nil, nil, nil)
}

// FindProjectByTitle sucht Projekt nach Titel (exakter Vergleich)
func (r *Repository) FindProjectByTitle(ctx context.Context, title string) (*timingDomain.Project, error) {
	projects, err := r.ListProjects(ctx, &timingDomain.ProjectFilter{Title: title})
	if err != nil {
		return nil, err
	}

	for _, project := range projects {
		if project.Title == title {
			return &project, nil
		}
	}

	return nil, nil // Nicht gefunden
}

// FindProjectByTitleChain sucht Projekt anhand der kompletten Titel-Kette
func (r *Repository) FindProjectByTitleChain(ctx context.Context, chain ...string) (*timingDomain.Project, error) {
	if len(chain) == 0 {
		return nil, nil
	}

	projects, err := r.ListProjects(ctx, &timingDomain.ProjectFilter{Title: chain[len(chain)-1]})
	if err != nil {
		return nil, err
	}

	for _, project := range projects {
		if slices.Equal(project.TitleChain, chain) {
			return &project, nil
		}
	}

	return nil, nil // Nicht gefunden
}
