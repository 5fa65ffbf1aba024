package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// dvd1x is the nominal single-speed DVD read rate in bytes/sec.
const dvd1x = 1385000

func TestSparklineIdleDrive(t *testing.T) {
	assert.Equal(t, "▁▁▁▁▁", Sparkline([]float64{0, 0, 0, 0, 0}, nil, 5))
}

func TestSparklineSpinUp(t *testing.T) {
	rates := []float64{0, dvd1x, 2 * dvd1x, 4 * dvd1x, 8 * dvd1x}
	runes := []rune(Sparkline(rates, make([]int64, len(rates)), 5))

	assert.Len(t, runes, 5)
	assert.Equal(t, '▁', runes[0])
	assert.Equal(t, '█', runes[4])
	for i := 1; i < len(runes); i++ {
		assert.GreaterOrEqual(t, runes[i], runes[i-1])
	}
}

func TestSparklineSteadyRate(t *testing.T) {
	assert.Equal(t, "████", Sparkline([]float64{dvd1x, dvd1x, dvd1x, dvd1x}, nil, 4))
}

func TestSparklineFirstSecond(t *testing.T) {
	runes := []rune(Sparkline([]float64{512 * 2048}, []int64{0}, 6))
	assert.Len(t, runes, 6)
	assert.Equal(t, '▁', runes[0])
	assert.Equal(t, '█', runes[5])
}

func TestSparklineMarksZeroFilledSeconds(t *testing.T) {
	rates := []float64{4 * dvd1x, 4 * dvd1x, 16 * 2048, 4 * dvd1x}
	faults := []int64{0, 0, 16, 0}

	assert.Equal(t, "██×█", Sparkline(rates, faults, 4))
}

func TestSparklineShortFaultHistoryAlignsRight(t *testing.T) {
	rates := []float64{dvd1x, dvd1x, dvd1x}

	assert.Equal(t, "██×", Sparkline(rates, []int64{3}, 3))
}

func TestSparklineKeepsNewestSeconds(t *testing.T) {
	rates := []float64{8 * dvd1x, 8 * dvd1x, dvd1x, dvd1x, dvd1x}
	faults := []int64{5, 5, 0, 0, 1}

	assert.Equal(t, "██×", Sparkline(rates, faults, 3))
}

func TestSparklineZeroWidth(t *testing.T) {
	assert.Equal(t, "", Sparkline([]float64{dvd1x}, []int64{1}, 0))
}
