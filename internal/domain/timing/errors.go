package timing

import (
	"errors"
	"fmt"
)

// ErrTitleOrProjectRequired is returned when a task has neither a title nor a project.
var ErrTitleOrProjectRequired = errors.New("timing: title and project can not both be empty")

// ValidationError reports an input field the API would refuse.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("timing: invalid %s: %s", e.Field, e.Reason)
}
