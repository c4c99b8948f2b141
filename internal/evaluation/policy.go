// Package evaluation holds the pure decision functions behind an alert
// check: per-day threshold policy, window qualification, price freshness
// and trip date derivation. Nothing here performs I/O or reads a clock.
package evaluation

import (
	"strings"

	"surfalert/internal/types"
)

// Bounds applied when a rule leaves a threshold unset.
const (
	DefaultWaveMinM   = 0.0
	DefaultWaveMaxM   = 100.0
	DefaultWindMaxKmh = 100.0
)

// ParsePolicy maps a stored planning_logic value to a policy. Unknown and
// empty values are conservative.
func ParsePolicy(s string) types.PlanningPolicy {
	switch types.PlanningPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case types.PolicyOptimistic:
		return types.PolicyOptimistic
	case types.PolicyAggressive:
		return types.PolicyAggressive
	default:
		return types.PolicyConservative
	}
}

// compared returns the wave and wind statistics the policy checks.
func compared(day types.ForecastDay, p types.PlanningPolicy) (wave, wind float64) {
	switch ParsePolicy(string(p)) {
	case types.PolicyOptimistic:
		return day.Wave.Avg, day.Wind.Avg
	case types.PolicyAggressive:
		return day.Wave.Min, day.Wind.Avg
	default:
		return day.Wave.Avg, day.Wind.Max
	}
}

func boundOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// EvaluateDay checks one forecast day against thresholds under policy p.
func EvaluateDay(day types.ForecastDay, t types.Thresholds, p types.PlanningPolicy) types.DayVerdict {
	return evaluateDay(day, t, p).Verdict
}

func evaluateDay(day types.ForecastDay, t types.Thresholds, p types.PlanningPolicy) types.DayEvaluation {
	wave, wind := compared(day, p)
	waveMin := boundOr(t.WaveMin, DefaultWaveMinM)
	waveMax := boundOr(t.WaveMax, DefaultWaveMaxM)
	windMax := boundOr(t.WindMax, DefaultWindMaxKmh)

	ev := types.DayEvaluation{
		Date:         day.Date,
		Wave:         day.Wave,
		Wind:         day.Wind,
		WaveValue:    wave,
		WindValue:    wind,
		WaveBelowMin: wave < waveMin,
		WaveAboveMax: wave > waveMax,
		WindAboveMax: wind > windMax,
	}
	ev.Verdict = types.DayVerdict{
		WaveOK:    !ev.WaveBelowMin && !ev.WaveAboveMax,
		WindOK:    !ev.WindAboveMax,
		MorningOK: day.MorningOK,
	}
	ev.Verdict.OverallOK = ev.Verdict.WaveOK && ev.Verdict.WindOK && ev.Verdict.MorningOK
	return ev
}
