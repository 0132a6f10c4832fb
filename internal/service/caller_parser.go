package service

import (
	"regexp"
	"strings"
	"unicode"
)

// UnknownCallerName is used when the caller text carries no name.
const UnknownCallerName = "Unknown"

// CallerID is the structured form of a raw caller-ID string.
type CallerID struct {
	Name    string
	Phone   string
	Matcher string
}

type callerMatcher struct {
	name  string
	match func(text string, fields []string) (name, phone string, ok bool)
}

// CallerParser turns phone-system caller text into a name and phone. The first
// matcher that accepts the text wins.
type CallerParser struct {
	matchers []callerMatcher
}

var areaCodePattern = regexp.MustCompile(`^(.+?),?\s*\((\d{3})\)\s*([\d\-]+)$`)

// NewCallerParser returns the parser with the phone-system matchers in order.
func NewCallerParser() *CallerParser {
	return &CallerParser{matchers: []callerMatcher{
		{name: "parenthesizedAreaCode", match: matchParenthesizedAreaCode},
		{name: "bracketedPhone", match: matchBracketedPhone},
		{name: "leadingPhone", match: matchLeadingPhone},
		{name: "nameOnly", match: matchNameOnly},
	}}
}

// Parse never fails; text with no usable name yields UnknownCallerName.
func (p *CallerParser) Parse(text string) CallerID {
	text = strings.TrimSpace(text)
	fields := strings.Fields(text)
	for _, m := range p.matchers {
		name, phone, ok := m.match(text, fields)
		if !ok {
			continue
		}
		name = titleCase(strings.TrimSuffix(strings.TrimSpace(name), ","))
		if name == "" {
			name = UnknownCallerName
		}
		return CallerID{Name: name, Phone: phone, Matcher: m.name}
	}
	return CallerID{Name: UnknownCallerName, Matcher: "none"}
}

// "TAPIA SALVADON, (786) 651-6455"
func matchParenthesizedAreaCode(text string, _ []string) (string, string, bool) {
	m := areaCodePattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], digitsOnly(m[2] + m[3]), true
}

// "5638 Esteban Ulloa 5638"
func matchBracketedPhone(_ string, fields []string) (string, string, bool) {
	if len(fields) < 3 {
		return "", "", false
	}
	first, last := fields[0], fields[len(fields)-1]
	if first != last || !allDigits(first) {
		return "", "", false
	}
	return strings.Join(fields[1:len(fields)-1], " "), first, true
}

// "3055551111 Front Desk"
func matchLeadingPhone(_ string, fields []string) (string, string, bool) {
	if len(fields) == 0 || !allDigits(fields[0]) {
		return "", "", false
	}
	return strings.Join(fields[1:], " "), fields[0], true
}

func matchNameOnly(text string, _ []string) (string, string, bool) {
	return text, "", true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// titleCase capitalizes the first letter of each whitespace-separated token
// and lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
