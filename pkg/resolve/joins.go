// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/validate"
)

func lowerJoins(c *ctx, q *query.Query, res *validate.Result) ([]JoinPart, error) {
	if len(q.Joins) == 0 {
		return nil, nil
	}
	parts := make([]JoinPart, 0, len(q.Joins))
	for _, j := range q.Joins {
		target := c.index.TablesByAPIName[j.Table]
		ref := c.tableRef(target)

		leftCol, rightCol, ok := relationColumns(res.FromTable, target)
		if !ok {
			return nil, fmt.Errorf("resolve: no relation found between %q and %q", res.FromTable.APIName, j.Table)
		}
		fromAlias := c.aliases[res.FromTable.APIName]

		jt := j.Type
		if jt == "" {
			jt = query.JoinInner
		}

		where, err := lowerFilters(c, ref.Alias, j.Filters)
		if err != nil {
			return nil, err
		}

		parts = append(parts, JoinPart{
			Type:        jt,
			Table:       ref,
			LeftColumn:  ColumnRef{Table: fromAlias, PhysicalName: physicalColumnName(c, fromAlias, leftCol)},
			RightColumn: ColumnRef{Table: ref.Alias, PhysicalName: physicalColumnName(c, ref.Alias, rightCol)},
			Where:       where,
		})
	}
	return parts, nil
}

// relationColumns returns the (a-side column, b-side column) apiNames
// linking a and b via a declared Relation, checking both directions.
func relationColumns(a, b *catalog.Table) (aCol, bCol string, ok bool) {
	for _, rel := range a.Relations {
		if rel.References.Table == b.ID || rel.References.Table == b.APIName {
			return rel.Column, rel.References.Column, true
		}
	}
	for _, rel := range b.Relations {
		if rel.References.Table == a.ID || rel.References.Table == a.APIName {
			return rel.References.Column, rel.Column, true
		}
	}
	return "", "", false
}
