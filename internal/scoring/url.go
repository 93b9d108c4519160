// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scoring

import (
	"net/url"
	"strings"
)

var knownScamDomains = map[string]struct{}{
	"tcnnationalizeuze.site": {},
	"gtbank-verify.tk":       {},
	"nigerianlottery.com":    {},
	"zenithbank-update.xyz":  {},
	"profitize.site":         {},
	"moneytized.online":      {},
}

var legitimateDomains = map[string]struct{}{
	"zenithbank.com":       {},
	"facebook.com":         {},
	"google.com":           {},
	"gtbank.com":           {},
	"firstbanknigeria.com": {},
	"accessbankplc.com":    {},
}

var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".xyz", ".top", ".club", ".site", ".online"}

var urlBands = []band{
	{25, LevelHigh, Scam},
	{12, LevelSuspicious, Warning},
}

// ExtractDomain returns the lower-cased host of raw without "www.".
func ExtractDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// ScanURL rates a link against the domain lists.
func ScanURL(raw string) Result {
	domain := ExtractDomain(raw)
	if _, ok := legitimateDomains[domain]; ok {
		return Result{Kind: KindURL, Verdict: Safe, Level: LevelVerified, AllowListed: true}
	}

	res := Result{Kind: KindURL}
	if _, ok := knownScamDomains[domain]; ok {
		res.Score += 25
		res.Matches = append(res.Matches, "known_scam_domain")
	}
	for _, tld := range suspiciousTLDs {
		if domain != "" && strings.HasSuffix(domain, tld) {
			res.Score += 12
			res.Matches = append(res.Matches, "suspicious_tld")
			break
		}
	}
	res.Level, res.Verdict = classify(res.Score, urlBands)
	return res
}
