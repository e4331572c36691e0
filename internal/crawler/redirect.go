package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// scriptRedirectRegex matches the script some listing pages use instead
// of an HTTP redirect.
var scriptRedirectRegex = regexp.MustCompile(`^\s*document\.location\s*=\s*'(https?://[^']+)'`)

// ResolveRedirect returns the target of a script redirect in doc.
// Only the first matching script is used.
func ResolveRedirect(doc *goquery.Document) (string, bool) {
	var target string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := scriptRedirectRegex.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		target = strings.TrimSpace(m[1])
		return false
	})
	return target, target != ""
}
