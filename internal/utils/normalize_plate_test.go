package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"kz 123 ab", "KZ123AB"},
		{"  A-100-BC  ", "A100BC"},
		{"a100bc", "A100BC"},
		{"", ""},
		{" - ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePlate(tc.in), "input %q", tc.in)
	}
}
