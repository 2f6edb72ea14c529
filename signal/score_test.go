package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreMonotonicInConfidence(t *testing.T) {
	for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
		prev := -1.0
		for c := 0; c <= 100; c++ {
			s := Score(c, risk)
			assert.GreaterOrEqual(t, s, prev, "risk %s confidence %d", risk, c)
			prev = s
		}
	}
}

func TestScoreRiskAdjustment(t *testing.T) {
	assert.Greater(t, Score(90, RiskLow), Score(90, RiskHigh))
	assert.InDelta(t, 93.5, Score(85, RiskLow), 1e-9)
	assert.InDelta(t, 70.0, Score(70, RiskMedium), 1e-9)
	assert.InDelta(t, 63.0, Score(70, RiskHigh), 1e-9)
}

func TestScoreBounds(t *testing.T) {
	for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh, Risk("GARBAGE")} {
		for c := 0; c <= 100; c++ {
			s := Score(c, risk)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
		}
	}
}

func TestScoreCap(t *testing.T) {
	assert.Equal(t, 100.0, Score(100, RiskLow))
}
