// Package strutil provides small string helpers shared across the
// application.
package strutil

import (
	"fmt"
	"strings"
)

// NormalizeSpaces trims the string and collapses runs of whitespace
// into a single space.
// Example: "  hello   world  " -> "hello world"
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

// Integer covers every built-in integer type.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// FormatCommas renders an integer with thousands separators.
// Example: 1234567 -> "1,234,567"
func FormatCommas[T Integer](num T) string {
	str := fmt.Sprintf("%d", num)

	startOffset := 0
	if strings.HasPrefix(str, "-") {
		startOffset = 1
	}

	if len(str)-startOffset <= 3 {
		return str
	}

	var builder strings.Builder

	commaCount := (len(str) - startOffset - 1) / 3
	builder.Grow(len(str) + commaCount)

	if startOffset == 1 {
		builder.WriteByte('-')
		str = str[1:]
	}

	firstGroupLen := len(str) % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}

	builder.WriteString(str[:firstGroupLen])

	for i := firstGroupLen; i < len(str); i += 3 {
		builder.WriteByte(',')
		builder.WriteString(str[i : i+3])
	}

	return builder.String()
}

// SplitAndTrim splits the string on sep, trims each token and drops
// empty ones. Returns nil when nothing remains.
// Example: "a, , b,c" with sep "," -> ["a", "b", "c"]
func SplitAndTrim(s, sep string) []string {
	tokens := strings.Split(s, sep)
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token != "" {
			result = append(result, token)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// JoinInts renders a slice of integers as a comma separated list.
// Example: [12, 13] -> "12, 13"
func JoinInts[T Integer](nums []T, sep string) string {
	if len(nums) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, n := range nums {
		if i > 0 {
			builder.WriteString(sep)
		}
		builder.WriteString(fmt.Sprintf("%d", n))
	}
	return builder.String()
}
