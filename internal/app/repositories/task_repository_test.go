package repositories

import (
	"strings"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamael/internhub/internal/app/models"
	"github.com/oussamael/internhub/internal/app/scope"
)

func TestTaskCountersQueryPendingMeansTodo(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	query, args, err := taskCountersQuery(squirrel.Eq{"tasks.assignee_id": int64(9)}, now)
	require.NoError(t, err)

	// completed and pending are both equality filters; a task in
	// in_progress lands in neither bucket
	assert.Contains(t, query, "FILTER (WHERE state = $1)")
	assert.Contains(t, query, "FILTER (WHERE state = $2)")
	assert.NotContains(t, query, "state <> $2")
	require.GreaterOrEqual(t, len(args), 2)
	assert.Equal(t, models.TaskDone, args[0])
	assert.Equal(t, models.TaskTodo, args[1])

	// the scope predicate comes last
	assert.Equal(t, int64(9), args[len(args)-1])
}

func TestTaskCountersQueryUnrestrictedScope(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	query, args, err := taskCountersQuery(scope.MatchAll, now)
	require.NoError(t, err)

	// the unrestricted predicate renders as a tautology, keeping the
	// WHERE clause well formed with no extra arguments
	assert.True(t, strings.HasSuffix(query, "WHERE (1=1)"))
	assert.Len(t, args, 7)
}
