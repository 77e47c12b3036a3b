package bol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"24500", 24500, true},
		{"24,500", 24500, true},
		{"24,500.000", 24500, true},
		{"24.500,75", 24500.75, true},
		{"1.234.567", 1234567, true},
		{"12,5", 12.5, true},
		{"1,234,567", 1234567, true},
		{"50000.000.", 50000, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDecimal(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestParseCount(t *testing.T) {
	n, ok := parseCount("1,200")
	assert.True(t, ok)
	assert.Equal(t, 1200, n)

	_, ok = parseCount("1.5")
	assert.False(t, ok)
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "25,000.000", formatThousands(25000, 3))
	assert.Equal(t, "999.500", formatThousands(999.5, 3))
	assert.Equal(t, "1,234,567.10", formatThousands(1234567.1, 2))
	assert.Equal(t, "-1,000", formatThousands(-1000, 0))
	assert.Equal(t, "0.333", formatThousands(1.0/3, 3))
}
