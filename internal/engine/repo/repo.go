package repo

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/firelater/firelater/pkg/ctx"
)

/**
 * @file: repo.go
 * @description: tenant-scoped repository base
 */

// Error taxonomy shared by all repositories.
var (
	// ErrNotFound unknown schedule/rotation/policy/step/token
	ErrNotFound = errors.New("not found")
	// ErrInvalidTarget step target fields inconsistent with notify type
	ErrInvalidTarget = errors.New("escalation step target is inconsistent with its notify type")
)

// Repo is the base of every tenant-scoped repository. All tenant tables
// live in the tenant's own schema; table() qualifies names accordingly.
type Repo struct {
	Ctx    *ctx.Context
	Schema string
}

func (r *Repo) db() *gorm.DB {
	return r.Ctx.DB
}

// table returns a query rooted at the tenant-qualified table name.
func (r *Repo) table(name string) *gorm.DB {
	return r.Ctx.DB.Table(r.qualified(name))
}

func (r *Repo) qualified(name string) string {
	return fmt.Sprintf("%s.%s", r.Schema, name)
}

// notFound maps gorm's sentinel onto the engine taxonomy.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
