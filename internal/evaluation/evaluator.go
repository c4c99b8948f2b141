package evaluation

import (
	"slices"

	"surfalert/internal/types"
)

// EvaluateWindow qualifies rule against the forecast days that fall inside
// [today, today+window-1]. Days outside the window are ignored; a missing or
// partial batch is evaluated as present. The result lists qualifying dates
// in ascending order and BestDay is the earliest of them.
func EvaluateWindow(rule *types.AlertRule, batch []types.ForecastDay, today types.Date) types.QualificationResult {
	last := today.AddDays(rule.Window() - 1)

	days := make([]types.ForecastDay, 0, len(batch))
	for _, d := range batch {
		if d.Date.Before(today) || d.Date.After(last) {
			continue
		}
		days = append(days, d)
	}
	slices.SortStableFunc(days, func(a, b types.ForecastDay) int {
		return a.Date.Compare(b.Date)
	})

	res := types.QualificationResult{
		QualifyingDates: []types.Date{},
		Days:            make([]types.DayEvaluation, 0, len(days)),
	}
	thresholds := rule.Thresholds()
	for _, d := range days {
		ev := evaluateDay(d, thresholds, rule.PlanningLogic)
		res.Days = append(res.Days, ev)
		res.TotalDays++
		if ev.Verdict.OverallOK {
			res.GoodDays++
			res.QualifyingDates = append(res.QualifyingDates, d.Date)
		}
	}

	res.ConditionsGood = res.GoodDays > 0
	if res.ConditionsGood {
		best := res.QualifyingDates[0]
		res.BestDay = &best
		farthest := res.QualifyingDates[len(res.QualifyingDates)-1]
		res.Tier = TierForDaysOut(today.DaysUntil(farthest))
	}
	return res
}

// TierForDaysOut grades forecast confidence by lead time in days.
func TierForDaysOut(days int) types.ConfidenceTier {
	switch {
	case days <= 3:
		return types.TierConfident
	case days <= 5:
		return types.TierTrend
	case days <= 7:
		return types.TierEarly
	default:
		return types.TierWatch
	}
}
