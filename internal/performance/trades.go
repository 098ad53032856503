package performance

import (
	"math"
	"sort"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

const monthLayout = "2006-01"

// summarize computes totals and averages. A trade with PnL > 0 is a win,
// anything else a loss.
func summarize(trades []types.Trade, initialCapital float64) Summary {
	s := Summary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	s.BestTrade = math.Inf(-1)
	s.WorstTrade = math.Inf(1)
	hours := 0.0
	for _, t := range trades {
		s.TotalPnL += t.PnL
		if t.PnL > 0 {
			s.WinningTrades++
			s.GrossProfit += t.PnL
		} else {
			s.LosingTrades++
			s.GrossLoss += math.Abs(t.PnL)
		}
		s.BestTrade = math.Max(s.BestTrade, t.PnL)
		s.WorstTrade = math.Min(s.WorstTrade, t.PnL)
		hours += t.ExitTime.Sub(t.EntryTime).Hours()
	}

	n := float64(len(trades))
	s.WinRate = float64(s.WinningTrades) / n
	s.AvgPnL = s.TotalPnL / n
	s.AvgDurationHours = hours / n
	s.ProfitFactor = ratio(s.GrossProfit, s.GrossLoss)
	if s.WinningTrades > 0 {
		s.AvgWin = s.GrossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.LosingTrades)
	}
	s.WinLossRatio = ratio(s.AvgWin, s.AvgLoss)
	s.Expectancy = s.WinRate*s.AvgWin - (1-s.WinRate)*s.AvgLoss
	if initialCapital > 0 {
		s.TotalReturn = s.TotalPnL / initialCapital
	}
	return s
}

// streaks finds the longest runs of wins (PnL > 0) and losses (PnL < 0).
// Break-even trades leave both runs untouched.
func streaks(trades []types.Trade) Streaks {
	var s Streaks
	wins, losses := 0, 0
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			wins++
			losses = 0
			s.MaxWinStreak = max(s.MaxWinStreak, wins)
		case t.PnL < 0:
			losses++
			wins = 0
			s.MaxLossStreak = max(s.MaxLossStreak, losses)
		}
	}
	return s
}

func groupBy[K comparable](trades []types.Trade, key func(types.Trade) K) map[K]GroupStats {
	out := make(map[K]GroupStats)
	for _, t := range trades {
		k := key(t)
		g := out[k]
		g.Trades++
		g.TotalPnL += t.PnL
		if t.PnL > 0 {
			g.Wins++
		}
		out[k] = g
	}
	for k, g := range out {
		g.WinRate = float64(g.Wins) / float64(g.Trades)
		g.AvgPnL = g.TotalPnL / float64(g.Trades)
		out[k] = g
	}
	return out
}

// monthly groups trades by exit month in calendar order and names the best
// and worst months by total PnL
func monthly(trades []types.Trade) ([]MonthlyStats, string, string) {
	if len(trades) == 0 {
		return nil, "", ""
	}

	byMonth := make(map[string]*MonthlyStats)
	for _, t := range trades {
		key := t.ExitTime.Format(monthLayout)
		m, ok := byMonth[key]
		if !ok {
			m = &MonthlyStats{Month: key, BestTrade: t.PnL, WorstTrade: t.PnL}
			byMonth[key] = m
		}
		m.Trades++
		m.TotalPnL += t.PnL
		if t.PnL > 0 {
			m.WinningTrades++
		} else {
			m.LosingTrades++
		}
		m.BestTrade = math.Max(m.BestTrade, t.PnL)
		m.WorstTrade = math.Min(m.WorstTrade, t.PnL)
	}

	out := make([]MonthlyStats, 0, len(byMonth))
	for _, m := range byMonth {
		m.WinRate = float64(m.WinningTrades) / float64(m.Trades)
		m.AvgPnL = m.TotalPnL / float64(m.Trades)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })

	best, worst := out[0], out[0]
	for _, m := range out[1:] {
		if m.TotalPnL > best.TotalPnL {
			best = m
		}
		if m.TotalPnL < worst.TotalPnL {
			worst = m
		}
	}
	return out, best.Month, worst.Month
}
