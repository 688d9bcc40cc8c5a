// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAPIName(t *testing.T) {
	t.Parallel()

	t.Run("valid camelCase", func(t *testing.T) {
		assert.True(t, IsValidAPIName("orderId"))
		assert.True(t, IsValidAPIName("a"))
	})

	t.Run("rejects leading uppercase", func(t *testing.T) {
		assert.False(t, IsValidAPIName("OrderId"))
	})

	t.Run("rejects leading digit", func(t *testing.T) {
		assert.False(t, IsValidAPIName("1order"))
	})

	t.Run("rejects snake_case", func(t *testing.T) {
		assert.False(t, IsValidAPIName("order_id"))
	})

	t.Run("rejects reserved words", func(t *testing.T) {
		assert.False(t, IsValidAPIName("select"))
		assert.False(t, IsValidAPIName("having"))
	})

	t.Run("rejects too long", func(t *testing.T) {
		assert.False(t, IsValidAPIName("a"+strings.Repeat("b", MaxAPINameLength)))
	})

	t.Run("rejects empty", func(t *testing.T) {
		assert.False(t, IsValidAPIName(""))
	})
}
