package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

func TestPatternDetector_LadderVolume(t *testing.T) {
	d := NewPatternDetector(strategyconfig.Default().Pattern)

	candles := candlesFrom(linear(5, 10, 0), 100)
	for i, v := range []float64{100, 100, 100, 110, 160} {
		candles[i].Volume = v
	}
	assert.True(t, d.LadderVolume(candles))

	assert.False(t, d.LadderVolume(candlesFrom(linear(5, 10, 0), 100)), "flat volume")
	assert.False(t, d.LadderVolume(candlesFrom(linear(4, 10, 0), 100)), "too short")
}

func TestPatternDetector_AboveMA5High(t *testing.T) {
	d := NewPatternDetector(strategyconfig.Default().Pattern)
	candles := candlesFrom(linear(10, 10, 0), 100)

	assert.True(t, d.AboveMA5High(candles, 10.0))
	assert.False(t, d.AboveMA5High(candles, 9.5))
	assert.False(t, d.AboveMA5High(candles[:9], 10.0), "too short")
}

func TestPatternDetector_Detect(t *testing.T) {
	d := NewPatternDetector(strategyconfig.Default().Pattern)

	candles := candlesFrom(linear(10, 10, 0), 100)
	candles[8].Volume = 110
	candles[9].Volume = 200
	candles[7].Low = 9.2

	sig := d.Detect(candles, 10.05)

	assert.True(t, sig.LadderVolume)
	assert.True(t, sig.AboveMA5High)
	assert.True(t, sig.Qualified())
	assert.Equal(t, 9.2, sig.Support)
}

func TestMA5(t *testing.T) {
	assert.InDelta(t, 13.0, MA5(candlesFrom(linear(8, 8, 1), 100)), 1e-9)
	assert.Zero(t, MA5(candlesFrom(linear(4, 10, 0), 100)))
}

func TestPatternDetector_SupportNeedsBars(t *testing.T) {
	d := NewPatternDetector(strategyconfig.Default().Pattern)
	assert.Zero(t, d.Support([]contracts.Candle{{Low: 9}}))
}
