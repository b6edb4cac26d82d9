package executor

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/quirkdb/quirkdb/internal/predicate"
	"github.com/quirkdb/quirkdb/internal/query"
	"github.com/quirkdb/quirkdb/internal/storage"
	"github.com/quirkdb/quirkdb/internal/types"
)

// runSelect implements the query plan: index pushdown, scan, joins,
// post-join filtering, grouping, ordering, and windowing, in that order.
func (e *Engine) runSelect(ctx context.Context, q *query.Query) ([]*types.Row, error) {
	needsPostProcess := len(q.Joins) > 0 || q.GroupBy != "" || q.IsCount || len(q.Aggregates) > 0

	// Step B fast path: ORDER BY served directly from an index, with no
	// joins/GROUP BY/COUNT/WHERE to otherwise materialize.
	if !needsPostProcess && q.OrderByField != "" && len(q.Conditions) == 0 {
		qualifier, field := splitQualified(q.OrderByField)
		if (qualifier == "" || qualifier == q.Alias || qualifier == q.Table) && e.index.HasIndex(q.Table, field) {
			rows, err := e.pushdownOrderBy(ctx, q, field)
			if err != nil {
				return nil, err
			}
			return applyProjection(rows, q, false)
		}
	}

	baseConds, postConds := partitionConditions(q)

	scanSkip, scanLimit := 0, -1
	if !needsPostProcess {
		scanSkip, scanLimit = q.Skip, q.Limit
	}

	keys, err := storage.ScanWith(ctx, e.storage, q.Table, baseConds, scanSkip, scanLimit)
	if err != nil {
		return nil, fmt.Errorf("executor: select: %w", err)
	}

	rows := make([]*types.Row, 0, len(keys))
	for _, k := range keys {
		row, err := storage.Get(ctx, e.storage, q.Table, k)
		if err != nil {
			return nil, fmt.Errorf("executor: select: %w", err)
		}
		rows = append(rows, row)
	}

	// Step C: joins. Right-hand tables with no usable index are preloaded
	// concurrently since each is an independent full-table scan.
	if len(q.Joins) > 0 {
		preloaded := make([]map[string][]*types.Row, len(q.Joins))
		g, gctx := errgroup.WithContext(ctx)
		for i, j := range q.Joins {
			if e.index.HasIndex(j.Table, j.RightField) {
				continue
			}
			i, j := i, j
			g.Go(func() error {
				m, err := e.scanTableByField(gctx, j.Table, j.RightField)
				if err != nil {
					return err
				}
				preloaded[i] = m
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("executor: select: join preload: %w", err)
		}

		leftAlias := q.Alias
		for i, j := range q.Joins {
			rows, err = e.applyJoin(ctx, rows, leftAlias, j, preloaded[i])
			if err != nil {
				return nil, fmt.Errorf("executor: select: %w", err)
			}
			leftAlias = j.Alias
		}
	}

	// Step D: post-join filtering.
	multiTable := len(q.Joins) > 0
	if multiTable {
		for _, c := range postConds {
			qualifier, field := splitQualified(c.Field)
			if err := resolveBareField(rows, qualifier, field); err != nil {
				return nil, err
			}
		}
	}
	rows, err = filterPostJoin(rows, postConds)
	if err != nil {
		return nil, fmt.Errorf("executor: select: %w", err)
	}

	// Step E: GROUP BY / COUNT.
	if q.GroupBy != "" {
		rows, err = groupRows(rows, q, multiTable)
		if err != nil {
			return nil, err
		}
	} else if q.IsCount {
		out := types.NewRow()
		out.Set("count", strconv.Itoa(len(rows)))
		rows = []*types.Row{out}
	}

	// Step F: ORDER BY (already served by the pushdown path above, so this
	// only runs for the generic/joined/aggregated path).
	if q.OrderByField != "" && !q.IsCount {
		qualifier, field := splitQualified(q.OrderByField)
		if multiTable {
			if err := resolveBareField(rows, qualifier, field); err != nil {
				return nil, err
			}
		}
		sortRows(rows, qualifier, field, q.OrderDesc, predicate.Compare)
	}

	// Step G: SKIP/LIMIT, re-applied only for joined/aggregated/COUNT
	// queries; the generic path already pushed them into the scan.
	if needsPostProcess {
		rows = applySkipLimitRows(rows, q.Skip, q.Limit)
	}

	return applyProjection(rows, q, multiTable)
}

func (e *Engine) pushdownOrderBy(ctx context.Context, q *query.Query, field string) ([]*types.Row, error) {
	keys := e.index.OrderedKeys(q.Table, field, q.OrderDesc)
	keys = applySkipLimitKeys(keys, q.Skip, q.Limit)

	rows := make([]*types.Row, 0, len(keys))
	for _, k := range keys {
		row, err := storage.Get(ctx, e.storage, q.Table, k)
		if err != nil {
			return nil, fmt.Errorf("executor: select: pushdown: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// partitionConditions splits WHERE predicates into base-table conditions
// (unqualified, or qualified with the base table's name/alias) and
// post-join conditions (qualified with a joined table).
func partitionConditions(q *query.Query) (base []storage.Condition, post []query.Condition) {
	for _, c := range q.Conditions {
		qualifier, field := splitQualified(c.Field)
		if qualifier == "" || qualifier == q.Alias || qualifier == q.Table {
			base = append(base, storage.Condition{Field: field, Op: c.Op, Literal: c.Literal})
		} else {
			post = append(post, c)
		}
	}
	return base, post
}

func filterPostJoin(rows []*types.Row, postConds []query.Condition) ([]*types.Row, error) {
	if len(postConds) == 0 {
		return rows, nil
	}
	out := make([]*types.Row, 0, len(rows))
	for _, r := range rows {
		keep := true
		for _, c := range postConds {
			qualifier, field := splitQualified(c.Field)
			v, _ := qualifiedGet(r, qualifier, field)
			ok, err := predicate.Eval(v, c.Op, c.Literal)
			if err != nil {
				return nil, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out, nil
}

// scanTableByField fully scans table and buckets its rows by field's
// value, for the join fallback path when no index covers (table, field).
func (e *Engine) scanTableByField(ctx context.Context, table, field string) (map[string][]*types.Row, error) {
	keys, err := storage.ScanWith(ctx, e.storage, table, nil, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	out := make(map[string][]*types.Row)
	for _, k := range keys {
		row, err := storage.Get(ctx, e.storage, table, k)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		v := row.GetOr(field)
		out[v] = append(out[v], row)
	}
	return out, nil
}

// applyJoin joins leftRows against j, either via an index lookup or the
// preloaded full-table bucket map.
func (e *Engine) applyJoin(ctx context.Context, leftRows []*types.Row, leftAlias string, j query.Join, preloaded map[string][]*types.Row) ([]*types.Row, error) {
	var out []*types.Row
	for _, lr := range leftRows {
		leftVal, _ := qualifiedGet(lr, j.LeftQualifier, j.LeftField)

		var matches []*types.Row
		if preloaded != nil {
			matches = preloaded[leftVal]
		} else {
			keys := e.index.Lookup(j.Table, j.RightField, leftVal)
			for _, k := range keys {
				rr, err := storage.Get(ctx, e.storage, j.Table, k)
				if err != nil {
					return nil, err
				}
				matches = append(matches, rr)
			}
		}

		if len(matches) == 0 {
			if j.Kind == query.LeftOuterJoin {
				out = append(out, lr)
			}
			continue
		}
		for _, rr := range matches {
			out = append(out, mergeRows(lr, leftAlias, rr, j.Alias))
		}
	}
	return out, nil
}

// groupRows implements Step E for GROUP BY, with or without SUM aggregates.
// When multiTable is set, the GROUP BY field and every aggregate's field
// are validated as unambiguous, table-owned references first.
func groupRows(rows []*types.Row, q *query.Query, multiTable bool) ([]*types.Row, error) {
	qualifier, field := splitQualified(q.GroupBy)
	if multiTable {
		if err := resolveBareField(rows, qualifier, field); err != nil {
			return nil, err
		}
		for _, agg := range q.Aggregates {
			aq, af := splitQualified(agg.Field)
			if err := resolveBareField(rows, aq, af); err != nil {
				return nil, err
			}
		}
	}

	var order []string
	groups := make(map[string][]*types.Row)
	for _, r := range rows {
		v, _ := qualifiedGet(r, qualifier, field)
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], r)
	}

	out := make([]*types.Row, 0, len(order))
	for _, v := range order {
		members := groups[v]
		row := types.NewRow()
		row.Set(field, v)
		if len(q.Aggregates) > 0 {
			for _, agg := range q.Aggregates {
				aq, af := splitQualified(agg.Field)
				var sum float64
				for _, m := range members {
					mv, _ := qualifiedGet(m, aq, af)
					sum += parseNumberOrZero(mv)
				}
				row.Set(agg.Alias, formatSum(sum))
			}
		} else {
			row.Set("count", strconv.Itoa(len(members)))
		}
		out = append(out, row)
	}
	return out, nil
}

// applyProjection narrows rows to the requested fields, in requested order.
// "*", an empty projection, COUNT, and GROUP BY results pass through
// unchanged: their shape is already fixed by the earlier steps. When
// multiTable is set, each projected field is validated as unambiguous and
// table-owned before being read.
func applyProjection(rows []*types.Row, q *query.Query, multiTable bool) ([]*types.Row, error) {
	if q.IsCount || q.GroupBy != "" {
		return rows, nil
	}
	if len(q.Projection) == 0 {
		return rows, nil
	}
	for _, f := range q.Projection {
		if f == "*" {
			return rows, nil
		}
	}

	if multiTable {
		for _, f := range q.Projection {
			qualifier, field := splitQualified(f)
			if err := resolveBareField(rows, qualifier, field); err != nil {
				return nil, err
			}
		}
	}

	out := make([]*types.Row, len(rows))
	for i, r := range rows {
		projected := types.NewRow()
		for _, f := range q.Projection {
			qualifier, field := splitQualified(f)
			if v, ok := qualifiedGet(r, qualifier, field); ok {
				projected.Set(field, v)
			}
		}
		out[i] = projected
	}
	return out, nil
}
