package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveRoleKey(t *testing.T) {
	cases := map[string]string{
		"Floor Supervisor":      "floor_supervisor",
		"  HR -- Admin!! ":      "hr_admin",
		"Auditor":               "auditor",
		"Level 2 / Night Shift": "level_2_night_shift",
		"___":                   "",
		"Über Manager":          "ber_manager",
	}
	for in, want := range cases {
		assert.Equal(t, want, DeriveRoleKey(in), in)
	}
}
