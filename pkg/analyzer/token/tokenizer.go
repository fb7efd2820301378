package token

import (
	"regexp"
	"strings"

	"github.com/panbanda/codesim/pkg/profile"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize strips comments and then string literals using the profile's
// patterns in registration order, and returns the remaining word tokens
// joined by single spaces.
func Tokenize(code string, p *profile.Profile) string {
	if code == "" {
		return ""
	}
	for _, re := range p.CommentPatterns {
		code = re.ReplaceAllString(code, " ")
	}
	for _, re := range p.StringPatterns {
		code = re.ReplaceAllString(code, " ")
	}
	return strings.Join(wordPattern.FindAllString(code, -1), " ")
}
