package phone_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"connecta/pkg/phone"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{"bare ten digits", "9876543210", "+91 9876543210", true},
		{"already canonical", "+91 9876543210", "+91 9876543210", true},
		{"spaces and dashes", "98-765 432 10", "+91 9876543210", true},
		{"explicit country code", "+1 4155552671", "+1 4155552671", true},
		{"three digit country code", "3581234567890", "+358 1234567890", true},
		{"too short", "12345", "", false},
		{"empty", "", "", false},
		{"letters only", "not-a-phone", "", false},
		{"too many leading digits", "12345678901234567", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := phone.Normalize(tc.in)
			if !tc.valid {
				require.ErrorIs(t, err, phone.ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

// The same subscriber number must land on one stored value no matter how
// the caller formatted it, since lookups compare canonical forms.
func TestNormalizeEquivalence(t *testing.T) {
	a, err := phone.Normalize("9876543210")
	require.NoError(t, err)
	b, err := phone.Normalize("+91 9876543210")
	require.NoError(t, err)
	require.Equal(t, a, b)
}
