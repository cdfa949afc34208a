package timing

import (
	"math"
	"regexp"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Project ist ein Projekt aus der Timing API.
type Project struct {
	Reference

	Title string `json:"title"`
	// TitleChain contains the titles of all ancestors and the project itself, root first.
	TitleChain []string `json:"title_chain"`
	// Color in #RRGGBB notation.
	Color string `json:"color"`
	// ProductivityScore ranges from -1 (very unproductive) to 1 (very productive).
	ProductivityScore float64     `json:"productivity_score"`
	IsArchived        bool        `json:"is_archived"`
	Parent            *ParentRef  `json:"parent"`
	Children          []Reference `json:"children"`
}

// NewProject holds the fields sent when creating a project.
type NewProject struct {
	Title             string
	Color             string
	ProductivityScore *float64
	IsArchived        bool
	// Parent is anything Resolve accepts; nil creates a root project.
	Parent any
}

func (p NewProject) Validate() error {
	if p.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := validateColor(p.Color); err != nil {
		return err
	}
	return validateScore(p.ProductivityScore)
}

// ProjectPatch lists the fields of a project that can be updated. Omitted
// fields are left untouched. The parent of a project can not be changed.
type ProjectPatch struct {
	Title             *string
	Color             *string
	ProductivityScore *float64
	IsArchived        *bool
}

func (p ProjectPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Color != nil {
		if err := validateColor(*p.Color); err != nil {
			return err
		}
	}
	return validateScore(p.ProductivityScore)
}

// ProjectFilter restricts ListProjects.
type ProjectFilter struct {
	// Title matches projects whose title contains all words of it.
	Title string
	// HideArchived drops archived projects and their descendants.
	HideArchived *bool
}

func validateColor(color string) error {
	if color != "" && !hexColor.MatchString(color) {
		return &ValidationError{Field: "color", Reason: "must have the form #RRGGBB"}
	}
	return nil
}

func validateScore(score *float64) error {
	if score != nil && (math.IsNaN(*score) || *score < -1 || *score > 1) {
		return &ValidationError{Field: "productivity_score", Reason: "must be between -1 and 1"}
	}
	return nil
}
