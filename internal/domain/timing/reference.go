package timing

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Reference adressiert eine Ressource der Timing API, z.B. "/projects/1".
type Reference struct {
	Self string `json:"self"`
}

// Path returns the canonical path of the referenced resource.
func (r Reference) Path() string {
	return r.Self
}

// Referencer is implemented by every value that can name its canonical path.
// Task and Project satisfy it through their embedded Reference.
type Referencer interface {
	Path() string
}

// InvalidReferenceError is returned when a value can not be reduced to a
// canonical path.
type InvalidReferenceError struct {
	Value any
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("timing: incorrect reference argument (%T)", e.Value)
}

// Resolve reduces a reference argument to its canonical path.
//
// Strings are returned unchanged without validating their shape. Values
// implementing Referencer return Path(), and decoded JSON objects return their
// "self" member when it is a string. Everything else fails with
// *InvalidReferenceError.
func Resolve(v any) (string, error) {
	switch ref := v.(type) {
	case string:
		return ref, nil
	case Referencer:
		if isNilPointer(ref) {
			return "", &InvalidReferenceError{Value: v}
		}
		return ref.Path(), nil
	case map[string]string:
		if self, ok := ref["self"]; ok {
			return self, nil
		}
	case map[string]any:
		if self, ok := ref["self"].(string); ok {
			return self, nil
		}
	}
	return "", &InvalidReferenceError{Value: v}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// ParentRef is the parent link of a project. The API sends it either as a
// plain path or as a reference object.
type ParentRef struct {
	Self string
}

func (p ParentRef) Path() string {
	return p.Self
}

func (p ParentRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Self)
}

func (p *ParentRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.Self)
	}
	var ref Reference
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	p.Self = ref.Self
	return nil
}

type projectRefKind int

const (
	projectRefNone projectRefKind = iota
	projectRefPath
	projectRefTitle
	projectRefTitleChain
)

// ProjectRef names the project a task belongs to. It is either a canonical
// path, a project title or the full title chain from the root project down.
// The zero value means "no project".
//
// Titles and chains are sent to the server unresolved.
type ProjectRef struct {
	kind  projectRefKind
	value string
	chain []string
}

func ProjectPath(path string) ProjectRef {
	if path == "" {
		return ProjectRef{}
	}
	return ProjectRef{kind: projectRefPath, value: path}
}

// ProjectReference uses the canonical path of r, e.g. a *Project returned by
// the API.
func ProjectReference(r Referencer) ProjectRef {
	if r == nil || isNilPointer(r) {
		return ProjectRef{}
	}
	return ProjectPath(r.Path())
}

func ProjectTitle(title string) ProjectRef {
	if title == "" {
		return ProjectRef{}
	}
	return ProjectRef{kind: projectRefTitle, value: title}
}

// ProjectTitleChain addresses a project by its titles, root first.
func ProjectTitleChain(titles ...string) ProjectRef {
	if len(titles) == 0 {
		return ProjectRef{}
	}
	chain := make([]string, len(titles))
	copy(chain, titles)
	return ProjectRef{kind: projectRefTitleChain, chain: chain}
}

// ParseProjectRef normalizes every accepted project argument: a string
// starting with "/" is a path, any other string a title, a []string a title
// chain, and everything Resolve accepts a path.
func ParseProjectRef(v any) (ProjectRef, error) {
	switch ref := v.(type) {
	case nil:
		return ProjectRef{}, nil
	case ProjectRef:
		return ref, nil
	case string:
		if strings.HasPrefix(ref, "/") {
			return ProjectPath(ref), nil
		}
		return ProjectTitle(ref), nil
	case []string:
		return ProjectTitleChain(ref...), nil
	}

	path, err := Resolve(v)
	if err != nil {
		return ProjectRef{}, err
	}
	return ProjectPath(path), nil
}

func (p ProjectRef) IsZero() bool {
	return p.kind == projectRefNone
}

// Validate rejects title chains containing an empty title.
func (p ProjectRef) Validate() error {
	if p.kind != projectRefTitleChain {
		return nil
	}
	for _, title := range p.chain {
		if strings.TrimSpace(title) == "" {
			return &ValidationError{Field: "project", Reason: "title chain contains an empty title"}
		}
	}
	return nil
}

// TitleChain returns the chain for title-chain references, nil otherwise.
func (p ProjectRef) TitleChain() []string {
	if p.kind != projectRefTitleChain {
		return nil
	}
	return append([]string(nil), p.chain...)
}

func (p ProjectRef) String() string {
	switch p.kind {
	case projectRefTitleChain:
		return strings.Join(p.chain, " / ")
	default:
		return p.value
	}
}

func (p ProjectRef) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case projectRefNone:
		return []byte("null"), nil
	case projectRefTitleChain:
		return json.Marshal(p.chain)
	default:
		return json.Marshal(p.value)
	}
}
