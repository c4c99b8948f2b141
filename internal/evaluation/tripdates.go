package evaluation

import (
	"errors"
	"slices"

	"surfalert/internal/types"
)

// SingleDayTripLength is the stay used when only one day qualifies.
const SingleDayTripLength = 3

// ErrNoQualifyingDays is returned when trip dates are requested without any
// qualifying day. Callers must check ConditionsGood first.
var ErrNoQualifyingDays = errors.New("evaluation: no qualifying days to derive trip dates from")

// DeriveTripDates turns qualifying dates into a depart/return pair. Input
// order does not matter and duplicates are collapsed. One day departs on it
// and returns SingleDayTripLength days later; several days depart on the
// earliest and return the day after the latest.
func DeriveTripDates(days []types.Date) (types.TripDates, error) {
	if len(days) == 0 {
		return types.TripDates{}, ErrNoQualifyingDays
	}

	sorted := slices.Clone(days)
	slices.SortFunc(sorted, types.Date.Compare)
	sorted = slices.CompactFunc(sorted, types.Date.Equal)

	depart := sorted[0]
	var ret types.Date
	if len(sorted) == 1 {
		ret = depart.AddDays(SingleDayTripLength)
	} else {
		ret = sorted[len(sorted)-1].AddDays(1)
	}
	return types.TripDates{
		Depart: depart,
		Return: ret,
		Length: depart.DaysUntil(ret),
	}, nil
}
