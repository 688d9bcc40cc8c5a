// SPDX-License-Identifier: Apache-2.0

package dialect

import (
	"fmt"
	"strings"

	"github.com/querygateway/gateway/pkg/resolve"
	"github.com/querygateway/gateway/internal/sqlsafe"
)

// qualify renders a table-qualified identifier, e.g. "t0"."order_status".
func qualify(quote byte, table, column string) string {
	if table == "" {
		return sqlsafe.QuoteIdent(quote, column)
	}
	return sqlsafe.QuoteIdent(quote, table) + "." + sqlsafe.QuoteIdent(quote, column)
}

func qualifyRef(quote byte, ref resolve.ColumnRef) string {
	return qualify(quote, ref.Table, ref.PhysicalName)
}

// quotePhysical quotes a (possibly schema-qualified, dot-separated)
// physical table name, quoting each part separately.
func quotePhysical(quote byte, name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return sqlsafe.QuoteIdent(quote, name[:idx]) + "." + sqlsafe.QuoteIdent(quote, name[idx+1:])
	}
	return sqlsafe.QuoteIdent(quote, name)
}

func joinKeyword(t string) string {
	if t == "left" {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

func renderGroupBy(quote byte, cols []resolve.ColumnRef) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = qualifyRef(quote, c)
	}
	return strings.Join(parts, ", ")
}

func renderOrderBy(quote byte, terms []resolve.OrderPart) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		var ref string
		if t.Alias != "" {
			ref = sqlsafe.QuoteIdent(quote, t.Alias)
		} else {
			ref = qualifyRef(quote, t.Column)
		}
		dir := strings.ToUpper(string(t.Direction))
		parts[i] = fmt.Sprintf("%s %s", ref, dir)
	}
	return strings.Join(parts, ", ")
}

func renderLimitOffset(limit, offset *int) string {
	var b strings.Builder
	if limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *limit)
	}
	if offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *offset)
	}
	return b.String()
}
