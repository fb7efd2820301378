// Package analyzer defines the contract shared by the similarity scorers and
// the failure taxonomy used to report degraded results.
package analyzer

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/panbanda/codesim/pkg/parser"
	"github.com/panbanda/codesim/pkg/profile"
)

// Input is a pair of samples resolved against a language profile.
type Input struct {
	Source  string
	Target  string
	Profile *profile.Profile
}

// Language returns the language the input was resolved to.
func (in Input) Language() parser.Language {
	if in.Profile == nil {
		return profile.DefaultLanguage
	}
	return in.Profile.Language
}

// Scorer produces a similarity score in [0,1] for a pair of samples.
// Implementations must not panic on malformed input and must be safe for
// concurrent use.
type Scorer interface {
	Name() string
	Score(ctx context.Context, in Input) Result
}

// Result is the outcome of a single scorer. A non-nil Failure marks the
// score as degraded; Score then holds the fallback value.
type Result struct {
	Score   float64
	Failure *Failure
}

// OK returns a successful result with the score clamped to [0,1].
func OK(score float64) Result {
	return Result{Score: Clamp(score)}
}

// Fail returns a degraded result carrying a fallback score.
func Fail(score float64, f *Failure) Result {
	return Result{Score: Clamp(score), Failure: f}
}

// Degraded reports whether the scorer fell back.
func (r Result) Degraded() bool {
	return r.Failure != nil
}

// Clamp bounds v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Ratio compares two values that are expected to be non-negative: equal
// zeros agree fully, otherwise min/max.
func Ratio(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	hi, lo := math.Max(a, b), math.Min(a, b)
	if hi <= 0 {
		return 0
	}
	return lo / hi
}

// EditRatio is the character-level SequenceMatcher ratio of two strings.
// Two empty strings are identical.
func EditRatio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// SplitLines breaks s at \n, \r\n and \r without keeping terminators. A
// trailing terminator does not produce an empty final line.
func SplitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}
