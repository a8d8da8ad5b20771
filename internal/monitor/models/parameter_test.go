package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"  12.5", 12.5, true},
		{"12abc", 12, true},
		{"-3.25e2", -325, true},
		{".5", 0.5, true},
		{"1.", 1, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"Infinity", 0, false},
		{"1e400", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestFormatFixed(t *testing.T) {
	tests := []struct {
		x      float64
		digits int
		want   string
	}{
		{2000, 0, "2000"},
		{749.6, 0, "750"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{12.25, 1, "12.3"},
		{10.04, 1, "10.0"},
		{-0.04, 1, "-0.0"},
		{0, 1, "0.0"},
		{1.005, 2, "1.00"},
		{3.333333, 2, "3.33"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFixed(tt.x, tt.digits), "x=%v digits=%d", tt.x, tt.digits)
	}
}

func TestParameterFloat(t *testing.T) {
	v, ok := Parameter{Value: "42"}.Float()
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	_, ok = Parameter{}.Float()
	assert.False(t, ok)
	assert.True(t, Parameter{}.IsBlank())
}
