package queryir

import "fmt"

// ValidationResult collects every violation found in a Scan. Validation
// never fails fast; a malformed query reports all of its problems at once.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks a Scan against the archive schema: the table must exist,
// every referenced column must belong to it, and predicates must be
// structurally sound.
func Validate(scan Scan) ValidationResult {
	v := &validator{table: scan.Table}

	if _, ok := tableColumns[scan.Table]; !ok {
		v.addError("unknown table %q", scan.Table)
		return ValidationResult{Valid: false, Errors: v.errors}
	}

	if len(scan.Columns) == 0 {
		v.addError("scan selects no columns")
	}
	seen := make(map[string]bool, len(scan.Columns))
	for _, col := range scan.Columns {
		if !scan.Table.HasColumn(col) {
			v.addError("table %q has no column %q", scan.Table, col)
		}
		if seen[col] {
			v.addError("column %q selected twice", col)
		}
		seen[col] = true
	}

	if scan.Filter != nil {
		v.validatePredicate(scan.Filter)
	}

	return ValidationResult{Valid: len(v.errors) == 0, Errors: v.errors}
}

type validator struct {
	table  Table
	errors []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Eq:
		v.validateEq(pred)
	case *Eq:
		v.validateEq(*pred)
	case Range:
		v.validateRange(pred)
	case *Range:
		v.validateRange(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addError("unknown predicate type %T", p)
	}
}

func (v *validator) validateEq(eq Eq) {
	if !v.table.HasColumn(eq.Column) {
		v.addError("table %q has no column %q", v.table, eq.Column)
	}
	if eq.Value == nil {
		v.addError("eq on %q has no value; absence is not a comparable value", eq.Column)
	}
}

func (v *validator) validateRange(r Range) {
	if !v.table.HasColumn(r.Column) {
		v.addError("table %q has no column %q", v.table, r.Column)
	}
	if r.Min == nil && r.Max == nil {
		v.addError("range on %q has no bounds", r.Column)
	}
}

func (v *validator) validateAnd(and And) {
	if len(and.Predicates) == 0 {
		v.addError("and with no predicates")
		return
	}
	for _, p := range and.Predicates {
		if p == nil {
			v.addError("and contains a nil predicate")
			continue
		}
		v.validatePredicate(p)
	}
}
