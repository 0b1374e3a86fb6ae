// Package keyformat infers the redemption platform of a raw activation code from its shape.
package keyformat

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"keybot/keyhub/internal/model"
)

var ErrBadFormat = errors.New("key matches no known platform format")

// Rule maps one code shape to a platform.
type Rule struct {
	Platform model.Platform
	Pattern  string
}

// DefaultRules is evaluated in order; the first match wins.
var DefaultRules = []Rule{
	{Platform: model.PlatformGOG, Pattern: segments(5, 5, 5, 5)},
	{Platform: model.PlatformSteam, Pattern: segments(5, 5, 5)},
	{Platform: model.PlatformSteam, Pattern: segments(5, 5, 5, 5, 5)},
	{Platform: model.PlatformPlayStation, Pattern: segments(4, 4, 4)},
	{Platform: model.PlatformOrigin, Pattern: segments(4, 4, 4, 4, 4)},
	{Platform: model.PlatformUplay, Pattern: segments(4, 4, 4, 4)},
	{Platform: model.PlatformUplay, Pattern: segments(3, 4, 4, 4, 4)},
	{Platform: model.PlatformURL, Pattern: `^http`},
}

type compiledRule struct {
	platform model.Platform
	re       *regexp.Regexp
}

type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles rules in order. Passing no rules yields DefaultRules.
func NewClassifier(rules ...Rule) (*Classifier, error) {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if !r.Platform.Valid() {
			return nil, fmt.Errorf("rule %q: %w", r.Pattern, model.ErrInvalidPlatform)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule for %s: %w", r.Platform, err)
		}
		c.rules = append(c.rules, compiledRule{platform: r.Platform, re: re})
	}
	return c, nil
}

// Classify returns the platform of the first rule code matches.
func (c *Classifier) Classify(code string) (model.Platform, error) {
	code = strings.TrimSpace(code)
	for _, r := range c.rules {
		if r.re.MatchString(code) {
			return r.platform, nil
		}
	}
	return "", ErrBadFormat
}

// segments builds an anchored pattern of hyphen-joined alphanumeric groups of the given lengths.
func segments(lengths ...int) string {
	parts := make([]string, len(lengths))
	for i, n := range lengths {
		parts[i] = fmt.Sprintf("[A-Za-z0-9]{%d}", n)
	}
	return "^" + strings.Join(parts, "-") + "$"
}
