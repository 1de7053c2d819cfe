// Package botdetect classifies HTTP callers as link-preview bots or crawlers
// by their User-Agent header.
package botdetect

import "strings"

// signatures are lower-case substrings of known crawler and link-unfurler
// User-Agent strings.
var signatures = []string{
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"whatsapp",
	"telegrambot",
	"slackbot",
	"slack-imgproxy",
	"discordbot",
	"skypeuripreview",
	"pinterest",
	"redditbot",
	"googlebot",
	"bingbot",
	"yandex",
	"baiduspider",
	"duckduckbot",
	"applebot",
	"embedly",
	"quora link preview",
	"showyoubot",
	"outbrain",
	"vkshare",
	"w3c_validator",
	"tumblr",
	"viber",
	"line-poker",
	"kakaotalk",
	"snapchat",
	"iframely",
}

var defaultClassifier = New()

// IsBot reports whether userAgent contains any known bot signature.
// An empty header is never a bot.
func IsBot(userAgent string) bool {
	return defaultClassifier.IsBot(userAgent)
}

// Signatures returns a copy of the built-in signature list.
func Signatures() []string {
	out := make([]string, len(signatures))
	copy(out, signatures)
	return out
}

// Classifier matches User-Agent headers against the built-in signatures plus
// any operator-supplied extras.
type Classifier struct {
	tokens []string
}

// New creates a Classifier. Extra tokens are lower-cased; blanks are dropped.
func New(extra ...string) *Classifier {
	tokens := make([]string, 0, len(signatures)+len(extra))
	tokens = append(tokens, signatures...)
	for _, tok := range extra {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return &Classifier{tokens: tokens}
}

// IsBot reports whether userAgent matches any token.
func (c *Classifier) IsBot(userAgent string) bool {
	_, ok := c.Match(userAgent)
	return ok
}

// Match returns the first token contained in userAgent.
func (c *Classifier) Match(userAgent string) (string, bool) {
	if userAgent == "" {
		return "", false
	}
	ua := strings.ToLower(userAgent)
	for _, tok := range c.tokens {
		if strings.Contains(ua, tok) {
			return tok, true
		}
	}
	return "", false
}
