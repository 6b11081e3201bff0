package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	open := &Task{State: TaskInProgress, Deadline: &past}
	assert.True(t, open.Overdue(now))

	done := &Task{State: TaskDone, Deadline: &past}
	assert.False(t, done.Overdue(now))

	upcoming := &Task{State: TaskTodo, Deadline: &future}
	assert.False(t, upcoming.Overdue(now))

	noDeadline := &Task{State: TaskTodo}
	assert.False(t, noDeadline.Overdue(now))
}

func TestTaskDueToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	sameDay := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	task := &Task{State: TaskTodo, Deadline: &sameDay}
	assert.True(t, task.DueToday(now))

	tomorrow := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	task.Deadline = &tomorrow
	assert.False(t, task.DueToday(now))

	doneToday := &Task{State: TaskDone, Deadline: &sameDay}
	assert.False(t, doneToday.DueToday(now))
}
