package id

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

/**
 * @file: ulid.go
 * @description: ulid
 */

// GetULID generates a lexicographically sortable id, used for escalation runs.
func GetULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	ms := ulid.Timestamp(time.Now())
	id, err := ulid.New(ms, entropy)
	if err != nil {
		return ""
	}
	return id.String()
}
