// Package types holds the shared data shapes used across quirkdb: rows,
// table schemas, and the sentinel errors every other package wraps.
package types

import "errors"

// Row is an ordered mapping from field name to stringified scalar value.
// Order matters only for JSON round-tripping; lookups are by key.
type Row struct {
	fields []string
	values map[string]string
}

// NewRow returns an empty Row ready for Set calls.
func NewRow() *Row {
	return &Row{values: make(map[string]string)}
}

// RowFromMap builds a Row from a plain map, field order is the map's
// iteration order sorted lexicographically for determinism.
func RowFromMap(m map[string]string) *Row {
	r := NewRow()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	for _, k := range keys {
		r.Set(k, m[k])
	}
	return r
}

// Set assigns field to value, appending field to the order if new.
func (r *Row) Set(field, value string) {
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = value
}

// Get returns the value of field and whether it was present.
func (r *Row) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// GetOr returns the value of field, or "" if absent.
func (r *Row) GetOr(field string) string {
	return r.values[field]
}

// Has reports whether field is present.
func (r *Row) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Delete removes field from the row.
func (r *Row) Delete(field string) {
	if _, ok := r.values[field]; !ok {
		return
	}
	delete(r.values, field)
	for i, f := range r.fields {
		if f == field {
			r.fields = append(r.fields[:i], r.fields[i+1:]...)
			break
		}
	}
}

// Fields returns field names in insertion order.
func (r *Row) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Map returns a plain copy of the row's field/value pairs.
func (r *Row) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Merge overwrites r's fields with patch's fields (UPDATE merge semantics).
func (r *Row) Merge(patch *Row) {
	for _, f := range patch.Fields() {
		v, _ := patch.Get(f)
		r.Set(f, v)
	}
}

// Clone returns an independent copy of r.
func (r *Row) Clone() *Row {
	c := NewRow()
	for _, f := range r.fields {
		c.Set(f, r.values[f])
	}
	return c
}

func sortStrings(s []string) {
	// small helper to avoid importing sort in every caller of RowFromMap
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// TableSchema declares which fields of a table are indexed.
type TableSchema struct {
	// IndexedFields maps field name -> informational type label.
	IndexedFields map[string]string
}

// IsIndexed reports whether field is declared as indexed.
func (s TableSchema) IsIndexed(field string) bool {
	if s.IndexedFields == nil {
		return false
	}
	_, ok := s.IndexedFields[field]
	return ok
}

// Sentinel errors. Every package-specific error wraps one of these via
// fmt.Errorf("...: %w", ...) so callers can use errors.Is.
var (
	// ErrUnsupportedShape indicates the SQL string does not match any of
	// the accepted statement shapes.
	ErrUnsupportedShape = errors.New("unsupported SQL shape")
	// ErrBadCondition indicates a WHERE/SET clause could not be parsed.
	ErrBadCondition = errors.New("bad condition")
	// ErrBadJSON indicates a JSON literal embedded in SQL failed to parse.
	ErrBadJSON = errors.New("bad json literal")
	// ErrUnknownOperator indicates a predicate used an unsupported operator.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrBadDate indicates a date-shaped literal failed to parse.
	ErrBadDate = errors.New("bad date literal")

	// ErrStorageOpen indicates the storage backend failed to open.
	ErrStorageOpen = errors.New("storage open failed")
	// ErrNotFound indicates a key had no stored value.
	ErrNotFound = errors.New("not found")

	// ErrUnknownTable indicates a table has no schema entry.
	ErrUnknownTable = errors.New("unknown table")
	// ErrBadSchemaJSON indicates the schema file failed validation.
	ErrBadSchemaJSON = errors.New("bad schema json")

	// ErrAmbiguousField indicates a bare field name is carried by more than
	// one joined table's rows in a multi-table SELECT.
	ErrAmbiguousField = errors.New("ambiguous field")
	// ErrUnknownField indicates no table owns a referenced field.
	ErrUnknownField = errors.New("unknown field")
)
