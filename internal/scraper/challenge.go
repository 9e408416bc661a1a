package scraper

import (
	"regexp"
	"strings"
)

// challengeIndicators are matched case-insensitively against the response body
var challengeIndicators = []string{
	"captcha",
	"robot check",
	"automated access",
	"unusual traffic",
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// DetectBotChallenge returns a BotChallengeError when html looks like an
// anti-bot interstitial rather than a product page
func DetectBotChallenge(pageURL, html string) error {
	lower := strings.ToLower(html)
	for _, indicator := range challengeIndicators {
		if strings.Contains(lower, indicator) {
			return &BotChallengeError{URL: pageURL, Indicator: indicator}
		}
	}

	if m := titleRe.FindStringSubmatch(html); m != nil {
		title := strings.ToLower(m[1])
		if strings.Contains(title, "robot") {
			return &BotChallengeError{URL: pageURL, Indicator: "title: robot"}
		}
	}
	return nil
}
