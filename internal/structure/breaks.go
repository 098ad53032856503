package structure

import (
	"time"

	"github.com/ducminhle1904/ict-trading-agent/pkg/types"
)

// Break is a close through the most recent confirmed swing point.
// ChangeOfCharacter is set when the break runs against the previous one.
type Break struct {
	Index             int             `json:"index"`
	Timestamp         time.Time       `json:"timestamp"`
	Direction         types.Direction `json:"direction"`
	Level             float64         `json:"level"`
	SwingIndex        int             `json:"swing_index"`
	ChangeOfCharacter bool            `json:"change_of_character"`
}

// DetectBreaks walks bars in order and records each close above the latest confirmed
// swing high or below the latest confirmed swing low. A swing at index s is confirmed
// once bar s+window has closed. Each swing can be broken once.
func DetectBreaks(bars []types.OHLCV, highs, lows []SwingPoint, window int) []Break {
	var (
		out        []Break
		hp, lp     int
		activeHigh *SwingPoint
		activeLow  *SwingPoint
		lastDir    types.Direction
	)

	for k := range bars {
		for hp < len(highs) && highs[hp].Index+window < k {
			activeHigh = &highs[hp]
			hp++
		}
		for lp < len(lows) && lows[lp].Index+window < k {
			activeLow = &lows[lp]
			lp++
		}

		closePrice := bars[k].Close
		if activeHigh != nil && closePrice > activeHigh.Price {
			out = append(out, newBreak(bars[k], k, types.Bullish, *activeHigh, lastDir))
			lastDir = types.Bullish
			activeHigh = nil
		}
		if activeLow != nil && closePrice < activeLow.Price {
			out = append(out, newBreak(bars[k], k, types.Bearish, *activeLow, lastDir))
			lastDir = types.Bearish
			activeLow = nil
		}
	}
	return out
}

func newBreak(bar types.OHLCV, k int, dir types.Direction, swing SwingPoint, lastDir types.Direction) Break {
	return Break{
		Index:             k,
		Timestamp:         bar.Timestamp,
		Direction:         dir,
		Level:             swing.Price,
		SwingIndex:        swing.Index,
		ChangeOfCharacter: lastDir != "" && lastDir != dir,
	}
}
