package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCityName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"São Paulo", "sao paulo"},
		{"Florianópolis", "florianopolis"},
		{"RIBEIRÃO CORRENTE", "ribeirao corrente"},
		{"Cuiabá", "cuiaba"},
		{"Santos", "santos"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := normalizeCityName(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestNormalizeCityNameRejectsInvalidUTF8(t *testing.T) {
	_, err := normalizeCityName(string([]byte{0xff, 0xfe}))
	assert.Error(t, err)
}
