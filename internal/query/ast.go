package query

import "github.com/quirkdb/quirkdb/internal/types"

// Kind identifies a Query's statement kind; the 8 accepted statement shapes
// map onto these five kinds.
type Kind int

const (
	KindInsert Kind = iota
	KindUpdate
	KindDelete
	KindBatch
	KindSelect
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindBatch:
		return "BATCH"
	case KindSelect:
		return "SELECT"
	default:
		return "UNKNOWN"
	}
}

// Condition is a single WHERE predicate: field (possibly qualified,
// e.g. "orders.user") op literal.
type Condition struct {
	Field   string
	Op      string
	Literal string
}

// JoinKind distinguishes INNER from LEFT OUTER joins.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftOuterJoin
)

// Join describes one `JOIN <table> [alias] ON l.f = r.f` clause.
type Join struct {
	Kind  JoinKind
	Table string
	Alias string

	LeftQualifier  string
	LeftField      string
	RightQualifier string
	RightField     string
}

// Aggregate is a `SUM(field) [AS alias]` projection term.
type Aggregate struct {
	Field string
	Alias string
}

// Query is the parsed AST for one statement.
type Query struct {
	Kind  Kind
	Table string
	Alias string

	// INSERT / UPDATE: the row data (full row for INSERT, patch for UPDATE).
	RowData *types.Row

	// BATCH: one row per entry of the JSON object, in source order.
	BatchRows []*types.Row

	// DELETE ... KEYS [...]: explicit primary keys.
	DeleteKeys []string

	// WHERE, flat AND only.
	Conditions []Condition

	Joins []Join

	// SELECT projection.
	Projection []string // bare or qualified field names, or ["*"]; empty means "*"
	IsCount    bool
	Aggregates []Aggregate // SUM(...) AS alias terms

	GroupBy string

	OrderByField string
	OrderDesc    bool

	Skip  int // 0 if unset
	Limit int // -1 means unlimited
}

func newQuery(kind Kind) *Query {
	return &Query{Kind: kind, Limit: -1}
}
