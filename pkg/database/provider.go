package database

import (
	"github.com/google/wire"
	"gorm.io/gorm"
)

// ProviderSet is the Wire provider set for the database package.
var ProviderSet = wire.NewSet(ProvideDatabase, NewGormDB)

// ProvideDatabase provides the gorm connection.
func ProvideDatabase(cfg Database) (*gorm.DB, error) {
	return NewDatabase(cfg)
}
