package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSpaces(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", ""},
		{"OnlySpaces", "   ", ""},
		{"LeadingTrailing", "  hello  ", "hello"},
		{"InnerRuns", "hello   world", "hello world"},
		{"TabsAndNewlines", "hello\t\nworld", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeSpaces(tt.in))
		})
	}
}

func TestFormatCommas(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", FormatCommas(0))
	assert.Equal(t, "999", FormatCommas(999))
	assert.Equal(t, "1,000", FormatCommas(1000))
	assert.Equal(t, "1,234,567", FormatCommas(1234567))
	assert.Equal(t, "-1,234", FormatCommas(-1234))
	assert.Equal(t, "-999", FormatCommas(-999))
}

func TestSplitAndTrim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		sep  string
		want []string
	}{
		{"Empty", "", ",", nil},
		{"OnlySeparators", ", ,", ",", nil},
		{"Mixed", "a, , b,c", ",", []string{"a", "b", "c"}},
		{"NoSeparator", " a ", ",", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitAndTrim(tt.in, tt.sep))
		})
	}
}

func TestJoinInts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", JoinInts([]int{}, ", "))
	assert.Equal(t, "12", JoinInts([]int{12}, ", "))
	assert.Equal(t, "12, 13, 14", JoinInts([]int{12, 13, 14}, ", "))
}
