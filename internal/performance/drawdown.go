package performance

import "sort"

const maxReportedDrawdowns = 5

// DrawdownPeriod is one peak-to-trough decline of the equity curve
type DrawdownPeriod struct {
	StartIndex  int     `json:"start_idx"`
	TroughIndex int     `json:"trough_idx"`
	PeakValue   float64 `json:"peak_value"`
	TroughValue float64 `json:"trough_value"`
	Drawdown    float64 `json:"drawdown_pct"`
	Duration    int     `json:"duration"`
}

// DrawdownReport summarizes the declines of an equity curve
type DrawdownReport struct {
	MaxDrawdown         float64          `json:"max_drawdown"`
	MaxDrawdownDuration int              `json:"max_drawdown_duration"`
	AverageDrawdown     float64          `json:"average_drawdown"`
	TotalDrawdowns      int              `json:"total_drawdowns"`
	Periods             []DrawdownPeriod `json:"drawdown_periods"`
}

// MaxDrawdown is the largest (peak - value) / peak over the curve, tracked
// against the running peak
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	maxDD := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// AnalyzeDrawdowns splits the curve into drawdown periods, each closed by a
// new equity high. Periods reports the five deepest.
func AnalyzeDrawdowns(equity []float64) DrawdownReport {
	var rep DrawdownReport
	if len(equity) == 0 {
		return rep
	}

	var periods []DrawdownPeriod
	cur := DrawdownPeriod{PeakValue: equity[0], TroughValue: equity[0]}
	closePeriod := func() {
		if cur.TroughValue < cur.PeakValue && cur.PeakValue > 0 {
			cur.Drawdown = (cur.PeakValue - cur.TroughValue) / cur.PeakValue
			cur.Duration = cur.TroughIndex - cur.StartIndex
			periods = append(periods, cur)
		}
	}

	for i, v := range equity {
		switch {
		case v > cur.PeakValue:
			closePeriod()
			cur = DrawdownPeriod{StartIndex: i, TroughIndex: i, PeakValue: v, TroughValue: v}
		case v < cur.TroughValue:
			cur.TroughIndex = i
			cur.TroughValue = v
		}
	}
	closePeriod()

	rep.MaxDrawdown = MaxDrawdown(equity)
	rep.TotalDrawdowns = len(periods)
	if len(periods) == 0 {
		return rep
	}

	sum := 0.0
	for _, p := range periods {
		sum += p.Drawdown
		rep.MaxDrawdownDuration = max(rep.MaxDrawdownDuration, p.Duration)
	}
	rep.AverageDrawdown = sum / float64(len(periods))

	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Drawdown > periods[j].Drawdown })
	if len(periods) > maxReportedDrawdowns {
		periods = periods[:maxReportedDrawdowns]
	}
	rep.Periods = periods
	return rep
}
