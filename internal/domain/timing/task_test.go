package timing

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTask_TitleOrProject(t *testing.T) {
	start := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)

	_, err := StartTask(start, "", ProjectRef{})
	assert.ErrorIs(t, err, ErrTitleOrProjectRequired)

	task, err := StartTask(start, "Write report", ProjectRef{})
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)

	task, err = StartTask(start, "", ProjectTitleChain("Work", "Reports"))
	require.NoError(t, err)
	assert.False(t, task.Project.IsZero())

	_, err = StartTask(time.Time{}, "x", ProjectRef{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "start_date", vErr.Field)
}

func TestCompletedTask_Validation(t *testing.T) {
	start := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	_, err := CompletedTask(start, end, "", ProjectRef{})
	assert.ErrorIs(t, err, ErrTitleOrProjectRequired)

	_, err = CompletedTask(start, time.Time{}, "x", ProjectRef{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "end_date", vErr.Field)

	_, err = CompletedTask(end, start, "x", ProjectRef{})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "before start_date")

	task, err := CompletedTask(start, end, "", ProjectPath("/projects/1"))
	require.NoError(t, err)
	assert.Equal(t, end, task.EndDate)
}

func TestTaskPatch_Validate(t *testing.T) {
	empty := ""
	title := "New title"
	notes := "only notes"

	cases := []struct {
		name    string
		patch   TaskPatch
		wantErr bool
	}{
		{"untouched title and project", TaskPatch{Notes: &notes}, false},
		{"title set", TaskPatch{Title: &title}, false},
		{"project set", TaskPatch{Project: ProjectTitle("Work")}, false},
		{"title cleared without project", TaskPatch{Title: &empty}, true},
		{"title cleared with project", TaskPatch{Title: &empty, Project: ProjectPath("/projects/1")}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.patch.Validate()
			if c.wantErr != errors.Is(err, ErrTitleOrProjectRequired) {
				t.Fatalf("Validate() = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestTaskPatch_ValidateDatesWithoutTitle(t *testing.T) {
	start := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	var vErr *ValidationError
	require.ErrorAs(t, TaskPatch{StartDate: &start, EndDate: &end}.Validate(), &vErr)
	assert.Equal(t, "end_date", vErr.Field)

	later := start.Add(time.Hour)
	assert.NoError(t, TaskPatch{StartDate: &start, EndDate: &later}.Validate())
}

func TestTask_EmptyTitleInChain(t *testing.T) {
	start := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)

	for _, chain := range [][]string{{""}, {"Work", ""}, {" ", "Reports"}} {
		ref := ProjectTitleChain(chain...)

		var vErr *ValidationError
		_, err := StartTask(start, "", ref)
		require.ErrorAs(t, err, &vErr, "chain %q", chain)
		assert.Equal(t, "project", vErr.Field)

		_, err = CompletedTask(start, start.Add(time.Hour), "x", ref)
		assert.ErrorAs(t, err, &vErr, "chain %q", chain)

		assert.ErrorAs(t, TaskPatch{Project: ref}.Validate(), &vErr, "chain %q", chain)
	}
}

func TestProject_Validate(t *testing.T) {
	score := 1.5
	okScore := -1.0
	badColor := "red"

	assert.Error(t, NewProject{}.Validate())
	assert.Error(t, NewProject{Title: "X", Color: "blue"}.Validate())
	assert.Error(t, NewProject{Title: "X", ProductivityScore: &score}.Validate())

	nan := math.NaN()
	var vErr *ValidationError
	require.ErrorAs(t, NewProject{Title: "X", ProductivityScore: &nan}.Validate(), &vErr)
	assert.Equal(t, "productivity_score", vErr.Field)
	require.ErrorAs(t, ProjectPatch{ProductivityScore: &nan}.Validate(), &vErr)
	assert.NoError(t, NewProject{Title: "X", Color: "#00ff00", ProductivityScore: &okScore}.Validate())

	assert.Error(t, ProjectPatch{Color: &badColor}.Validate())
	assert.NoError(t, ProjectPatch{}.Validate())
}

func TestTasksList_DecodeAndMeta(t *testing.T) {
	body := `{
		"data":[{"self":"/time-entries/1","start_date":"2019-01-01T00:00:00+00:00","end_date":null,
			"project":{"self":"/projects/1"},"title":"A","notes":"","duration":60,"is_running":true}],
		"links":{"first":"/time-entries?page=1","last":"/time-entries?page=2","prev":null,"next":"/time-entries?page=2"},
		"meta":{"current_page":1,"from":1,"last_page":2,"path":"/time-entries","per_page":1,"to":1,"total":2}
	}`

	var list TasksList
	require.NoError(t, json.Unmarshal([]byte(body), &list))

	require.Len(t, list.Data, 1)
	task := list.Data[0]
	assert.Equal(t, "/time-entries/1", task.Path())
	assert.Nil(t, task.EndDate)
	assert.True(t, task.IsRunning)
	require.NotNil(t, task.Project)
	assert.Equal(t, "/projects/1", task.Project.Self)
	assert.True(t, list.HasNext())
	assert.True(t, list.Meta.Valid())

	assert.False(t, ListMeta{CurrentPage: 3, LastPage: 2, From: 1, To: 2, Total: 2}.Valid())
	assert.False(t, ListMeta{CurrentPage: 1, LastPage: 1, From: 1, To: 5, Total: 2}.Valid())
}
