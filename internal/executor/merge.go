package executor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/quirkdb/quirkdb/internal/types"
)

// splitQualified splits "alias.field" into ("alias", "field"), or returns
// ("", s) if s carries no qualifier.
func splitQualified(s string) (qualifier, field string) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// qualifiedGet looks up field in row, preferring the namespaced
// "qualifier.field" form left behind by a merge collision (conflicting
// field names are namespaced rather than silently overwritten) and
// falling back to the bare field.
func qualifiedGet(row *types.Row, qualifier, field string) (string, bool) {
	if qualifier != "" {
		if v, ok := row.Get(qualifier + "." + field); ok {
			return v, true
		}
	}
	return row.Get(field)
}

// fieldOwners returns the table/alias qualifiers under which field survives
// in row as a namespaced "qualifier.field" key. A field with more than one
// owner was left ambiguous by a merge collision; an owner list paired with
// no bare field at all means the row never carried the field under that
// exact name (see resolveBareField).
func fieldOwners(row *types.Row, field string) []string {
	suffix := "." + field
	var owners []string
	for _, f := range row.Fields() {
		if strings.HasSuffix(f, suffix) && f != suffix {
			owners = append(owners, strings.TrimSuffix(f, suffix))
		}
	}
	return owners
}

// resolveBareField validates an unqualified field reference against rows
// drawn from a multi-table SELECT. A merge collision namespaces both
// colliding copies under "qualifier.field" (see mergeRows), so a field
// surviving under more than one such qualifier in any row came from more
// than one joined table and cannot be resolved bare: ErrAmbiguousField.
// A field absent from every row, under any name, belongs to no table in
// the join: ErrUnknownField. Qualified references are trusted as-is; the
// caller named the owning table itself.
func resolveBareField(rows []*types.Row, qualifier, field string) error {
	if qualifier != "" {
		return nil
	}
	seen := false
	for _, r := range rows {
		if owners := fieldOwners(r, field); len(owners) > 1 {
			return fmt.Errorf("executor: field %q: %w", field, types.ErrAmbiguousField)
		}
		if _, ok := r.Get(field); ok {
			seen = true
		}
	}
	if !seen && len(rows) > 0 {
		return fmt.Errorf("executor: field %q: %w", field, types.ErrUnknownField)
	}
	return nil
}

// mergeRows combines a left and right row for one matched join pair. On a
// bare field-name collision, both copies are preserved under their
// table-qualified names so post-join filters can still address either side;
// the bare name keeps the right row's value, matching a flat-merge
// "right overwrites left" default.
func mergeRows(left *types.Row, leftAlias string, right *types.Row, rightAlias string) *types.Row {
	merged := left.Clone()
	for _, f := range right.Fields() {
		v, _ := right.Get(f)
		if lv, collide := merged.Get(f); collide {
			merged.Set(leftAlias+"."+f, lv)
			merged.Set(rightAlias+"."+f, v)
		}
		merged.Set(f, v)
	}
	return merged
}

// applySkipLimitRows windows rows by [skip, skip+limit); limit < 0 means
// unbounded.
func applySkipLimitRows(rows []*types.Row, skip, limit int) []*types.Row {
	if skip > 0 {
		if skip >= len(rows) {
			return nil
		}
		rows = rows[skip:]
	}
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func applySkipLimitKeys(keys []string, skip, limit int) []string {
	if skip > 0 {
		if skip >= len(keys) {
			return nil
		}
		keys = keys[skip:]
	}
	if limit >= 0 && limit < len(keys) {
		keys = keys[:limit]
	}
	return keys
}

// sortRows stably sorts rows by the named field (qualifier-aware), using
// the predicate package's numeric/date/lexicographic comparison ladder.
func sortRows(rows []*types.Row, qualifier, field string, desc bool, cmp func(a, b string) int) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := qualifiedGet(rows[i], qualifier, field)
		b, _ := qualifiedGet(rows[j], qualifier, field)
		c := cmp(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// parseNumberOrZero parses s as a float, returning 0 for non-numeric
// content.
func parseNumberOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// formatSum renders a SUM accumulator in minimal decimal form.
func formatSum(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
