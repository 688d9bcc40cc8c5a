// SPDX-License-Identifier: Apache-2.0

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/querygateway/gateway/pkg/catalog"
)

func TestMaskPassthroughNil(t *testing.T) {
	t.Parallel()

	for _, fn := range []catalog.MaskingFn{catalog.MaskEmail, catalog.MaskPhone, catalog.MaskName, catalog.MaskUUID, catalog.MaskNumber, catalog.MaskDate, catalog.MaskFull} {
		assert.Nil(t, Mask(fn, nil))
	}
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "j***@***.com", Mask(catalog.MaskEmail, "jane@example.com"))
	assert.Equal(t, "***", Mask(catalog.MaskEmail, "not-an-email"))
}

func TestMaskPhone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+1***567", Mask(catalog.MaskPhone, "+14155550567"))
	assert.Equal(t, "***", Mask(catalog.MaskPhone, "12"))
}

func TestMaskName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "J**e", Mask(catalog.MaskName, "Jane"))
	assert.Equal(t, "***", Mask(catalog.MaskName, "Jo"))
}

func TestMaskUUID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a1b2****", Mask(catalog.MaskUUID, "a1b2c3d4-e5f6-7890-abcd-ef1234567890"))
	assert.Equal(t, "****", Mask(catalog.MaskUUID, "a1b2"))
}

func TestMaskNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Mask(catalog.MaskNumber, 42))
	assert.Equal(t, 0, Mask(catalog.MaskNumber, 3.14))
}

func TestMaskDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2024-01-01", Mask(catalog.MaskDate, "2024-06-15"))
	assert.Equal(t, "***", Mask(catalog.MaskDate, "not-a-date"))
}

func TestMaskFull(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "***", Mask(catalog.MaskFull, "anything"))
}
