package taskform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
)

func TestParseDeadline(t *testing.T) {
	d, err := parseDeadline("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDeadline("2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), *d)

	d, err = parseDeadline(" 2024-05-01 17:30 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 17, 30, 0, 0, time.Local), *d)

	_, err = parseDeadline("tomorrow")
	assert.Error(t, err)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, splitTags(" a, ,b c ,"))
	assert.Nil(t, splitTags("  "))
}

func TestSubmitCreate(t *testing.T) {
	m := New(80, 24)
	m.SetOptions([]model.Column{{ID: "c1", Title: model.StatusToDo}}, nil, nil)
	m.StartCreate("c1")

	m.fb.title = "  Buy milk "
	m.fb.priority = model.PriorityHigh
	m.fb.deadline = "2024-05-01"
	m.fb.category = "Home"
	m.fb.tags = "errand, quick"

	msg := m.handleSubmit()()
	created, ok := msg.(TaskCreatedMsg)
	require.True(t, ok)
	assert.Equal(t, "Buy milk", created.Task.Title)
	assert.Equal(t, model.PriorityHigh, created.Task.Priority)
	assert.Equal(t, "Home", created.Task.Category)
	assert.Equal(t, []string{"errand", "quick"}, created.Task.Tags)
	assert.Equal(t, "c1", created.Task.ColumnID)
	require.NotNil(t, created.Task.Deadline)
}

func TestSubmitEditClearsTagsAndDeadline(t *testing.T) {
	deadline := time.Now()
	m := New(80, 24)
	m.StartEdit(model.Task{
		ID:       "t1",
		Title:    "Old",
		Deadline: &deadline,
		Category: "Work",
		Tags:     []model.Tag{{Name: "a"}, {Name: "b"}},
	})
	assert.Equal(t, "a, b", m.fb.tags)
	assert.Equal(t, "Work", m.fb.category)

	m.fb.tags = ""
	m.fb.deadline = ""

	msg := m.handleSubmit()()
	updated, ok := msg.(TaskUpdatedMsg)
	require.True(t, ok)
	assert.Equal(t, "t1", updated.TaskID)
	assert.True(t, updated.Patch.SetDeadline)
	assert.Nil(t, updated.Patch.Deadline)
	assert.NotNil(t, updated.Patch.Tags)
	assert.Empty(t, updated.Patch.Tags)
	assert.Equal(t, "Old", *updated.Patch.Title)
}
