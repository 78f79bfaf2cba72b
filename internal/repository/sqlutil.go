package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// clause collects "col=?" fragments and their arguments for WHERE and SET
// lists. Nil pointers are skipped so a typed query or patch can be passed
// field by field.
type clause struct {
	parts []string
	args  []any
}

func (c *clause) add(col string, v any) {
	c.parts = append(c.parts, col+"=?")
	c.args = append(c.args, v)
}

func addIf[V any](c *clause, col string, v *V) {
	if v != nil {
		c.add(col, *v)
	}
}

func (c *clause) where() string {
	if len(c.parts) == 0 {
		return "1=1"
	}
	return strings.Join(c.parts, " AND ")
}

func (c *clause) set() string { return strings.Join(c.parts, ", ") }

// isDuplicateKey reports a unique constraint violation on either driver.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isMissingReference reports a foreign key violation on either driver.
func isMissingReference(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1452
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
