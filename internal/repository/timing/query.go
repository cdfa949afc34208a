package timing

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	timingDomain "hufschlaeger.net/timing-client/internal/domain/timing"
	"hufschlaeger.net/timing-client/pkg/utils"
)

// timestamp encodes as an API timestamp with the milliseconds cut off.
type timestamp time.Time

func (t timestamp) EncodeValues(key string, v *url.Values) error {
	v.Add(key, utils.FormatTimestamp(time.Time(t)))
	return nil
}

func (t timestamp) MarshalText() ([]byte, error) {
	return []byte(utils.FormatTimestamp(time.Time(t))), nil
}

func newTimestamp(t *time.Time) *timestamp {
	if t == nil {
		return nil
	}
	ts := timestamp(*t)
	return &ts
}

// Nil fields are omitted; false and 0 are sent.
type taskQueryParams struct {
	StartDateMin         *timestamp `url:"start_date_min,omitempty"`
	StartDateMax         *timestamp `url:"start_date_max,omitempty"`
	Projects             []string   `url:"projects[],omitempty"`
	SearchQuery          *string    `url:"search_query,omitempty"`
	IsRunning            *bool      `url:"is_running,omitempty"`
	IncludeProjectData   *bool      `url:"include_project_data,omitempty"`
	IncludeChildProjects *bool      `url:"include_child_projects,omitempty"`
	Page                 *int       `url:"page,omitempty"`
}

type projectQueryParams struct {
	Title        string `url:"title,omitempty"`
	HideArchived *bool  `url:"hide_archived,omitempty"`
}

func newTaskQueryParams(q *timingDomain.TaskQuery) (*taskQueryParams, error) {
	if q == nil {
		return nil, nil
	}

	projects, err := projectFilterPaths(q.Projects)
	if err != nil {
		return nil, err
	}

	return &taskQueryParams{
		StartDateMin:         newTimestamp(q.StartDateMin),
		StartDateMax:         newTimestamp(q.StartDateMax),
		Projects:             projects,
		SearchQuery:          q.SearchQuery,
		IsRunning:            q.IsRunning,
		IncludeProjectData:   q.IncludeProjectData,
		IncludeChildProjects: q.IncludeChildProjects,
		Page:                 q.Page,
	}, nil
}

func newProjectQueryParams(f *timingDomain.ProjectFilter) *projectQueryParams {
	if f == nil {
		return nil
	}
	return &projectQueryParams{Title: f.Title, HideArchived: f.HideArchived}
}

// projectFilterPaths resolves the entries of TaskQuery.Projects. Plain ids
// become "/projects/<id>".
func projectFilterPaths(projects []any) ([]string, error) {
	if projects == nil {
		return nil, nil
	}

	paths := make([]string, 0, len(projects))
	for _, p := range projects {
		path, err := timingDomain.Resolve(p)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(path) == "" {
			return nil, &timingDomain.InvalidReferenceError{Value: p}
		}
		if _, plain := p.(string); plain && !strings.HasPrefix(path, "/") {
			path = "/projects/" + path
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// encodeQuery turns a params struct (or url.Values) into a query string.
// nil yields "".
func encodeQuery(v any) (string, error) {
	switch params := v.(type) {
	case nil:
		return "", nil
	case url.Values:
		return params.Encode(), nil
	case *taskQueryParams:
		if params == nil {
			return "", nil
		}
	case *projectQueryParams:
		if params == nil {
			return "", nil
		}
	}

	values, err := query.Values(v)
	if err != nil {
		return "", err
	}
	return values.Encode(), nil
}
