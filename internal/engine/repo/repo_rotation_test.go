package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotationMember_AssignsDistinctIds(t *testing.T) {
	a := newRotationMember("sched-1", "alice", 0)
	b := newRotationMember("sched-1", "bob", 1)

	// rotation_id is the position tie-breaker; an empty id would collide
	// across every row in the schema
	require.NotEmpty(t, a.RotationId)
	require.NotEmpty(t, b.RotationId)
	assert.NotEqual(t, a.RotationId, b.RotationId)

	assert.Equal(t, "sched-1", a.ScheduleId)
	assert.Equal(t, "alice", a.UserId)
	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, a.IsActive)
}
