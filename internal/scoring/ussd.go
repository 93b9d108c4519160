// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scoring

import "strings"

// SafeUSSDCodes are the published short codes of Nigerian banks.
var SafeUSSDCodes = []string{
	"*901#", "*894#", "*737#", "*919#", "*822#", "*533#",
	"*322#", "*326#", "*779#", "*989#", "*123#", "*500#",
	"*955#", "*833#", "*706#", "*909#", "*966#", "*482#",
}

var safeUSSD = func() map[string]struct{} {
	m := make(map[string]struct{}, len(SafeUSSDCodes))
	for _, c := range SafeUSSDCodes {
		m[c] = struct{}{}
	}
	return m
}()

type keyword struct {
	word   string
	points int
}

// ussdKeywords are matched as lower-case substrings.
var ussdKeywords = []keyword{
	{"password", 10},
	{"pin", 10},
	{"bvn", 15},
	{"winner", 12},
	{"won", 12},
	{"prize", 12},
	{"lottery", 12},
	{"claim", 10},
	{"verification", 8},
}

var ussdBands = []band{
	{20, LevelExtreme, Scam},
	{15, LevelHigh, Scam},
	{10, LevelSuspicious, Warning},
	{5, LevelCaution, Warning},
}

// ScoreUSSD rates a USSD code. Exact matches on the bank allow-list are
// always safe.
func ScoreUSSD(code string) Result {
	code = strings.TrimSpace(code)
	if _, ok := safeUSSD[code]; ok {
		return Result{Kind: KindUSSD, Verdict: Safe, Level: LevelVerified, AllowListed: true}
	}

	lower := strings.ToLower(code)
	res := Result{Kind: KindUSSD}
	for _, k := range ussdKeywords {
		if strings.Contains(lower, k.word) {
			res.Score += k.points
			res.Matches = append(res.Matches, k.word)
		}
	}
	res.Level, res.Verdict = classify(res.Score, ussdBands)
	return res
}
