// SPDX-License-Identifier: Apache-2.0

package access

import (
	"strconv"
	"strings"
	"time"

	"github.com/querygateway/gateway/pkg/catalog"
)

// Mask applies fn to value, following the rules in spec section 4.2. A nil
// value passes through unchanged for every function, and repeated
// application is idempotent (masked output is stable under re-masking --
// see spec section 8 P4) since each function's output is itself a fixed
// point.
func Mask(fn catalog.MaskingFn, value any) any {
	if value == nil {
		return nil
	}
	switch fn {
	case catalog.MaskEmail:
		return maskEmail(value)
	case catalog.MaskPhone:
		return maskPhone(value)
	case catalog.MaskName:
		return maskName(value)
	case catalog.MaskUUID:
		return maskUUID(value)
	case catalog.MaskNumber:
		return maskNumber(value)
	case catalog.MaskDate:
		return maskDate(value)
	case catalog.MaskFull:
		return "***"
	default:
		return maskFull(value)
	}
}

func maskFull(any) any { return "***" }

func asString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

func maskEmail(value any) any {
	s, ok := asString(value)
	if !ok {
		return value
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 {
		return "***"
	}
	local := s[:at]
	domain := s[at+1:]
	tld := domain
	if dot := strings.LastIndexByte(domain, '.'); dot >= 0 {
		tld = domain[dot:]
	}
	return string(local[0]) + "***@***" + tld
}

func maskPhone(value any) any {
	s, ok := asString(value)
	if !ok {
		return value
	}

	var cc strings.Builder
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	ds := digits.String()
	if len(ds) <= 3 {
		return "***"
	}

	// Treat a leading "+<cc>" group in the original string, ended by a
	// non-digit, as the country code prefix. When the input has no such
	// group, the first digit stands in for it, so the output always keeps at
	// least four digits and re-masking it returns the same string.
	if strings.HasPrefix(s, "+") {
		for _, r := range s[1:] {
			if r >= '0' && r <= '9' {
				cc.WriteRune(r)
				continue
			}
			break
		}
	}

	last3 := ds[len(ds)-3:]
	if cc.Len() == 0 || cc.Len() >= len(ds) {
		cc.Reset()
		cc.WriteByte(ds[0])
	}
	return "+" + cc.String() + "***" + last3
}

func maskName(value any) any {
	s, ok := asString(value)
	if !ok {
		return value
	}
	runes := []rune(s)
	if len(runes) <= 2 {
		return "***"
	}
	fill := strings.Repeat("*", len(runes)-2)
	return string(runes[0]) + fill + string(runes[len(runes)-1])
}

func maskUUID(value any) any {
	s, ok := asString(value)
	if !ok {
		return value
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

func maskNumber(value any) any {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return 0
	default:
		if _, ok := asString(value); ok {
			return "0"
		}
		return 0
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func maskDate(value any) any {
	switch v := value.(type) {
	case time.Time:
		return yearOnly(v.Year())
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return yearOnly(t.Year())
			}
		}
		return "***"
	default:
		return "***"
	}
}

func yearOnly(year int) string {
	return strconv.Itoa(year) + "-01-01"
}
