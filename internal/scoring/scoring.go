// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package scoring rates USSD codes, SMS bodies and URLs with fixed
// point tables. Every function here is pure.
package scoring

// Kind names the input that was scored.
type Kind string

const (
	KindUSSD Kind = "ussd"
	KindSMS  Kind = "sms"
	KindURL  Kind = "url"
)

// Verdict is the coarse outcome shown to the user.
type Verdict string

const (
	Safe    Verdict = "safe"
	Warning Verdict = "warning"
	Scam    Verdict = "scam"
)

// Level is the fine-grained band a score falls into. Each level maps to a
// localized message.
type Level string

const (
	LevelVerified   Level = "verified"
	LevelExtreme    Level = "extreme"
	LevelHigh       Level = "high"
	LevelSuspicious Level = "suspicious"
	LevelCaution    Level = "caution"
	LevelLikelySafe Level = "likely_safe"
)

// Result is the outcome of scoring one input.
type Result struct {
	Kind        Kind     `json:"kind"`
	Verdict     Verdict  `json:"type"`
	Level       Level    `json:"level"`
	Score       int      `json:"risk_score"`
	Matches     []string `json:"matched_patterns,omitempty"`
	AllowListed bool     `json:"allow_listed,omitempty"`
}

// MessageID is the i18n key for the result's headline.
func (r Result) MessageID() string {
	return "verdict_" + string(r.Kind) + "_" + string(r.Level)
}

// band is one row of a threshold table, checked in order.
type band struct {
	min     int
	level   Level
	verdict Verdict
}

func classify(score int, bands []band) (Level, Verdict) {
	for _, b := range bands {
		if score >= b.min {
			return b.level, b.verdict
		}
	}
	return LevelLikelySafe, Safe
}

// Score dispatches on kind.
func Score(kind Kind, input string) Result {
	switch kind {
	case KindUSSD:
		return ScoreUSSD(input)
	case KindSMS:
		return ScoreSMS(input)
	case KindURL:
		return ScanURL(input)
	default:
		return Result{Kind: kind, Verdict: Safe, Level: LevelLikelySafe}
	}
}
