package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stayRequest struct {
	CheckIn    string `validate:"required,date"`
	CheckOut   string `validate:"required,date"`
	GuestCount int    `validate:"min=1"`
	LateHours  int    `validate:"min=0,max=12"`
}

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2026-03-06", true},
		{"2024-02-29", true},
		{"2026-02-29", false},
		{"2026-3-6", false},
		{"06.03.2026", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidDate(tt.in))
		})
	}
}

func TestStruct(t *testing.T) {
	ok := stayRequest{CheckIn: "2026-03-06", CheckOut: "2026-03-08", GuestCount: 2, LateHours: 2}
	require.NoError(t, Struct(ok))

	bad := stayRequest{CheckIn: "2026-13-01", GuestCount: 0, LateHours: 13}
	err := Struct(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CheckIn: date")
	assert.Contains(t, err.Error(), "CheckOut: required")
	assert.Contains(t, err.Error(), "GuestCount: min")
	assert.Contains(t, err.Error(), "LateHours: max")
}
