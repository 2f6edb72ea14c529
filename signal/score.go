package signal

// Risk multipliers favor lower-risk setups when ranking opportunities.
var riskMultipliers = map[Risk]float64{
	RiskLow:    1.1,
	RiskMedium: 1.0,
	RiskHigh:   0.9,
}

// Score maps (confidence, risk) to a ranking score in [0,100].
// score = confidence * risk multiplier, capped at 100. Unknown risk values
// rank as MEDIUM.
func Score(confidence int, risk Risk) float64 {
	mult, ok := riskMultipliers[risk]
	if !ok {
		mult = 1.0
	}

	score := float64(confidence) * mult
	if score > 100.0 {
		score = 100.0
	}
	return score
}
