package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surfalert/internal/types"
)

func parseAll(ss ...string) []types.Date {
	out := make([]types.Date, len(ss))
	for i, s := range ss {
		out[i] = types.MustParseDate(s)
	}
	return out
}

func TestDeriveTripDates(t *testing.T) {
	tests := []struct {
		name   string
		in     []types.Date
		depart string
		ret    string
		length int
	}{
		{"single day", parseAll("2026-06-05"), "2026-06-05", "2026-06-08", 3},
		{"two days", parseAll("2026-06-05", "2026-06-06"), "2026-06-05", "2026-06-07", 2},
		{"unsorted with gap", parseAll("2026-06-09", "2026-06-05", "2026-06-06"), "2026-06-05", "2026-06-10", 5},
		{"month boundary", parseAll("2026-06-30"), "2026-06-30", "2026-07-03", 3},
		{"duplicates collapse", parseAll("2026-06-05", "2026-06-05"), "2026-06-05", "2026-06-08", 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeriveTripDates(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.depart, got.Depart.String())
			assert.Equal(t, tc.ret, got.Return.String())
			assert.Equal(t, tc.length, got.Length)
		})
	}
}

func TestDeriveTripDatesOrderIndependent(t *testing.T) {
	a, err := DeriveTripDates(parseAll("2026-06-01", "2026-06-03", "2026-06-02"))
	require.NoError(t, err)
	b, err := DeriveTripDates(parseAll("2026-06-03", "2026-06-02", "2026-06-01"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDeriveTripDatesEmpty(t *testing.T) {
	_, err := DeriveTripDates(nil)
	assert.ErrorIs(t, err, ErrNoQualifyingDays)
}

func TestDeriveTripDatesKeepsInput(t *testing.T) {
	in := parseAll("2026-06-03", "2026-06-01")
	_, err := DeriveTripDates(in)
	require.NoError(t, err)
	assert.Equal(t, "2026-06-03", in[0].String())
}
