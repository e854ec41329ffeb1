package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgDiagnostics is the part of a postgres error worth logging, whichever
// driver produced it.
type pgDiagnostics struct {
	code, constraint, table, column, detail string
}

func postgresDiagnostics(err error) (pgDiagnostics, bool) {
	if pgxErr := (*pgconn.PgError)(nil); stdErrors.As(err, &pgxErr) {
		return pgDiagnostics{pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail}, true
	}
	if pqErr := (*pq.Error)(nil); stdErrors.As(err, &pqErr) {
		return pgDiagnostics{string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail}, true
	}
	return pgDiagnostics{}, false
}

// LogFields flattens err into structured log fields. Postgres keys appear only
// when a driver error sits somewhere in the chain.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	chain := make([]string, 0, 4)
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	fields := map[string]any{
		"error":       err.Error(),
		"error_code":  As(err).Code(),
		"error_chain": chain,
	}
	if pg, ok := postgresDiagnostics(err); ok {
		fields["pg_code"] = pg.code
		fields["pg_constraint"] = pg.constraint
		fields["pg_table"] = pg.table
		fields["pg_column"] = pg.column
		fields["pg_detail"] = pg.detail
	}
	return fields
}
