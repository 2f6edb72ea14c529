package signal

import (
	"regexp"
	"strconv"
	"strings"
)

// Action is a trading recommendation extracted from analyst text.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Risk is the risk level attached to a recommendation.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// DefaultConfidenceAdvice is the confidence assumed when an analyst
// response carries no parseable number. Extract takes the default as a
// parameter so other call sites can pick their own.
const DefaultConfidenceAdvice = 70

// Signal is the structured form of one free-text analyst response.
type Signal struct {
	Action     Action
	Confidence int
	Risk       Risk
}

var (
	// Negation immediately preceding the action word only. "not a good
	// time to BUY" deliberately slips through; see ExtractActionScreened.
	negationRe = regexp.MustCompile(`(?i)\b(?:DON'?T|AVOID|NOT)\s+(?:BUY|SELL)`)

	confidenceRe = regexp.MustCompile(`(?i)confidence\D*?(\d{1,3})`)
	percentRe    = regexp.MustCompile(`(\d{1,3})%`)
	scoreRe      = regexp.MustCompile(`(?i)score:\s*(\d{1,3})`)
)

// ExtractAction scans for the literal tokens BUY, SELL, HOLD in that
// priority order, anywhere in the text, case-insensitively. No match
// defaults to HOLD. Negated mentions ("don't sell") still count; callers
// that need a screen use ExtractActionScreened.
func ExtractAction(text string) Action {
	upper := strings.ToUpper(text)

	if strings.Contains(upper, "BUY") {
		return ActionBuy
	}
	if strings.Contains(upper, "SELL") {
		return ActionSell
	}
	return ActionHold
}

// ExtractActionScreened is the opportunity-evaluation variant: a negation
// pattern (DON'T/AVOID/NOT directly before BUY or SELL) forces HOLD before
// any keyword matching happens.
func ExtractActionScreened(text string) Action {
	if negationRe.MatchString(text) {
		return ActionHold
	}
	return ExtractAction(text)
}

// ExtractConfidence finds a confidence value in [0,100]: first a number
// following the word "confidence" (optionally "confidence score"), then a
// bare NN% token, then a number after "score:". def is returned when
// nothing usable matches.
func ExtractConfidence(text string, def int) int {
	for _, re := range []*regexp.Regexp{confidenceRe, percentRe, scoreRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 0 || v > 100 {
			continue
		}
		return v
	}
	return def
}

// ExtractRisk looks for LOW/HIGH co-occurring with the word RISK and
// defaults to MEDIUM.
func ExtractRisk(text string) Risk {
	upper := strings.ToUpper(text)

	if !strings.Contains(upper, "RISK") {
		return RiskMedium
	}
	if strings.Contains(upper, "LOW") {
		return RiskLow
	}
	if strings.Contains(upper, "HIGH") {
		return RiskHigh
	}
	return RiskMedium
}

// Extract converts one raw analyst response into a Signal. Total: every
// input, including the empty string, yields a valid tuple.
func Extract(text string, defConfidence int) Signal {
	return Signal{
		Action:     ExtractAction(text),
		Confidence: ExtractConfidence(text, defConfidence),
		Risk:       ExtractRisk(text),
	}
}

// ExtractScreened is Extract with the negation screen applied to the action.
func ExtractScreened(text string, defConfidence int) Signal {
	return Signal{
		Action:     ExtractActionScreened(text),
		Confidence: ExtractConfidence(text, defConfidence),
		Risk:       ExtractRisk(text),
	}
}
