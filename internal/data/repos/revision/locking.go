package revision

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate applies a row lock on dialects that speak FOR UPDATE. The
// sqlite local mode has a single writer, so skipping the clause there is
// safe.
func forUpdate(txx *gorm.DB, options string) *gorm.DB {
	if txx.Dialector.Name() == "sqlite" {
		return txx
	}
	return txx.Clauses(clause.Locking{Strength: "UPDATE", Options: options})
}
