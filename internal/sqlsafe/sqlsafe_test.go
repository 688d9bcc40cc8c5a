// SPDX-License-Identifier: Apache-2.0

package sqlsafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentDoublesInternalQuote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"orders"`, QuoteIdent('"', "orders"))
	assert.Equal(t, `"ord""ers"`, QuoteIdent('"', `ord"ers`))
	assert.Equal(t, "`ord``ers`", QuoteIdent('`', "ord`ers"))
}

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `100\%`, EscapeLikePattern("100%"))
	assert.Equal(t, `a\_b`, EscapeLikePattern("a_b"))
	assert.Equal(t, `a\\b`, EscapeLikePattern(`a\b`))
}

func TestIsValidAggFn(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidAggFn("COUNT"))
	assert.True(t, IsValidAggFn("sum"))
	assert.False(t, IsValidAggFn("drop table"))
}

func TestIsValidWhereFn(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidWhereFn("levenshtein"))
	assert.False(t, IsValidWhereFn("bogus"))
}
