package ui

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkFault marks a second in which at least one block was zero-filled.
const sparkFault = '×'

// Sparkline renders per-second read rates as exactly width runes, scaled to
// the fastest second shown. faults holds the zero-filled block count for
// each second, right-aligned with rates; those seconds draw as sparkFault.
// Short histories are padded on the left.
func Sparkline(rates []float64, faults []int64, width int) string {
	if width <= 0 {
		return ""
	}
	rates = lastN(rates, width)
	faults = lastN(faults, len(rates))

	peak := 0.0
	for _, v := range rates {
		peak = max(peak, v)
	}

	out := make([]rune, width)
	pad := width - len(rates)
	shift := len(rates) - len(faults)
	for i := range out {
		j := i - pad
		switch {
		case j < 0:
			out[i] = sparkLevels[0]
		case j >= shift && faults[j-shift] > 0:
			out[i] = sparkFault
		default:
			out[i] = sparkLevel(rates[j], peak)
		}
	}
	return string(out)
}

func sparkLevel(v, peak float64) rune {
	if peak <= 0 || v <= 0 {
		return sparkLevels[0]
	}
	idx := int(v / peak * float64(len(sparkLevels)-1))
	return sparkLevels[min(idx, len(sparkLevels)-1)]
}

func lastN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
