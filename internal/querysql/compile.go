// Package querysql compiles archive query scans to parameterized SQLite.
//
// Every compiled query carries a stable ORDER BY keyed on the table's
// natural identity, so listing the same archive twice always produces the
// same row order. Every literal value is a bind parameter; compiled SQL
// never embeds caller data.
package querysql

import (
	"fmt"
	"strings"

	"github.com/kinetic-lang/kinetic/internal/queryir"
)

// orderKeys is the deterministic ordering per archive table. Text keys use
// COLLATE BINARY so ordering never depends on database collation settings.
var orderKeys = map[queryir.Table]string{
	queryir.TablePrograms: "created_at, hash COLLATE BINARY",
	queryir.TableSessions: "token COLLATE BINARY",
	queryir.TableFrames:   "session_token COLLATE BINARY, seq",
}

// Compile converts a validated Scan into SQL and its bind parameters. The
// scan is validated first; callers never need a separate Validate pass.
func Compile(scan queryir.Scan) (string, []any, error) {
	if result := queryir.Validate(scan); !result.Valid {
		return "", nil, fmt.Errorf("invalid scan: %s", strings.Join(result.Errors, "; "))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(scan.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(string(scan.Table))

	var params []any
	if scan.Filter != nil {
		where, whereParams, err := compilePredicate(scan.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		params = whereParams
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderKeys[scan.Table])

	return sb.String(), params, nil
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Eq:
		return pred.Column + " = ?", []any{pred.Value}, nil
	case *queryir.Eq:
		return compilePredicate(*pred)
	case queryir.Range:
		return compileRange(pred)
	case *queryir.Range:
		return compileRange(*pred)
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileRange(r queryir.Range) (string, []any, error) {
	switch {
	case r.Min != nil && r.Max != nil:
		return "(" + r.Column + " >= ? AND " + r.Column + " <= ?)", []any{r.Min, r.Max}, nil
	case r.Min != nil:
		return r.Column + " >= ?", []any{r.Min}, nil
	default:
		return r.Column + " <= ?", []any{r.Max}, nil
	}
}

func compileAnd(and queryir.And) (string, []any, error) {
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, p := range and.Predicates {
		sql, sub, err := compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, sub...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}
