package queryir

// Table names an archive table a Scan may read.
type Table string

// The archive tables.
const (
	TablePrograms Table = "programs"
	TableSessions Table = "sessions"
	TableFrames   Table = "frames"
)

// tableColumns is the readable column set per table. Scans referencing
// anything else fail validation instead of failing at execution.
var tableColumns = map[Table]map[string]bool{
	TablePrograms: {
		"hash":           true,
		"name":           true,
		"graph_hash":     true,
		"ir_version":     true,
		"engine_version": true,
		"created_at":     true,
	},
	TableSessions: {
		"token":        true,
		"program_hash": true,
	},
	TableFrames: {
		"session_token": true,
		"seq":           true,
		"abs_ms":        true,
		"trace_hash":    true,
	},
}

// HasColumn reports whether name is a readable column of the table.
func (t Table) HasColumn(name string) bool {
	return tableColumns[t][name]
}

// Predicate is a filter condition over one archive table.
//
// Sealed: only types in this package implement it, so backends can type
// switch exhaustively.
type Predicate interface {
	predicateNode()
}

// Eq filters rows where a column equals a literal value.
type Eq struct {
	Column string
	Value  any
}

func (Eq) predicateNode() {}

// Range filters rows where a column lies inside [Min, Max]. A nil bound is
// open; at least one bound must be set.
type Range struct {
	Column string
	Min    any
	Max    any
}

func (Range) predicateNode() {}

// And requires every contained predicate to hold.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Scan reads one archive table with an optional filter and explicit column
// bindings. There is no wildcard: every column a caller reads is named, so
// schema growth never silently changes result shapes.
type Scan struct {
	Table   Table
	Filter  Predicate // nil = no filter
	Columns []string  // selected in declared order
}
