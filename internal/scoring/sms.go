// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scoring

import (
	"regexp"
	"strings"
)

type rule struct {
	name    string
	pattern *regexp.Regexp
	points  int
}

// smsRules are evaluated against the lower-cased message; each rule counts
// once no matter how often it matches.
var smsRules = []rule{
	{"large_win", regexp.MustCompile(`won\s*\d+[,.]?\d*\s*(million|thousand|billion)`), 15},
	{"congratulations", regexp.MustCompile(`congratulation(s)?!*\s*you\s+(won|have|are)`), 12},
	{"prize", regexp.MustCompile(`prize\s*(money|award|winner)`), 10},
	{"lottery", regexp.MustCompile(`lottery|jackpot|raffle`), 10},
	{"claim", regexp.MustCompile(`claim\s*(your|this|now)`), 8},
	{"free_offer", regexp.MustCompile(`free\s*(money|airtime|data|gift)`), 8},
	{"account_verification", regexp.MustCompile(`account\s*verification`), 7},
	{"password_reset", regexp.MustCompile(`password\s*reset`), 7},
	{"bvn", regexp.MustCompile(`bvn`), 15},
	{"atm_card", regexp.MustCompile(`atm\s*card\s*(details|pin)`), 15},
	{"click_link", regexp.MustCompile(`click\s*(link|here|below)`), 6},
	{"link", regexp.MustCompile(`https?://|www\.|bit\.ly`), 8},
	{"phone_number", regexp.MustCompile(`call\s*0[7-9][0-9]{8,}`), 7},
	{"urgency", regexp.MustCompile(`urgent|immediate|action\s*required`), 5},
}

var smsBands = []band{
	{25, LevelExtreme, Scam},
	{18, LevelHigh, Scam},
	{12, LevelSuspicious, Warning},
	{8, LevelCaution, Warning},
}

// ScoreSMS rates a text message body.
func ScoreSMS(body string) Result {
	lower := strings.ToLower(strings.TrimSpace(body))
	res := Result{Kind: KindSMS}
	for _, r := range smsRules {
		if r.pattern.MatchString(lower) {
			res.Score += r.points
			res.Matches = append(res.Matches, r.name)
		}
	}
	res.Level, res.Verdict = classify(res.Score, smsBands)
	return res
}
