package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUUID(t *testing.T) {
	a := GetUUID()
	b := GetUUID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestGetUUIDWithoutDashes(t *testing.T) {
	u := GetUUIDWithoutDashes()
	assert.Len(t, u, 32)
	assert.False(t, strings.Contains(u, "-"))
}

func TestGetULID(t *testing.T) {
	a := GetULID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, GetULID())
}
