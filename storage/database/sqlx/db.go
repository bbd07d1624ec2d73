package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
)

// postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

type txKey struct{}

// executor is implemented by both *sqlx.DB and *sqlx.Tx.
type executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// getExec returns the transaction carried by ctx, if any, or db.
func getExec(ctx context.Context, db *sqlx.DB) executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

type Transactor struct {
	db *sqlx.DB
}

var _ core.Transactor = (*Transactor)(nil) // interface compliance check

func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn in a transaction, committed when fn succeeds.
// Nested calls join the outer transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func pqCode(err error) (string, string) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

// isUniqueViolation reports whether err violates constraint (any unique constraint when empty).
func isUniqueViolation(err error, constraint string) bool {
	code, cons := pqCode(err)
	return code == uniqueViolation && (constraint == "" || cons == constraint)
}

func isForeignKeyViolation(err error) bool {
	code, _ := pqCode(err)
	return code == foreignKeyViolation
}

// validID reports whether id can be compared to a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// trapNoRowsErr maps "no rows" to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// checkAffected fails with notFound when res affected no rows.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// where accumulates AND conditions written with "?" placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	s := " WHERE " + w.conds[0]
	for _, c := range w.conds[1:] {
		s += " AND " + c
	}
	return s
}
