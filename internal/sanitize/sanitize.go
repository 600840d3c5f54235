// Package sanitize implements the input-sanitization and SQL-injection
// heuristic applied to every inbound request field. It is defense in depth
// on top of parameterized queries, and it is deliberately conservative:
// ambiguous input is rejected rather than waved through.
package sanitize

import (
	"regexp"
	"strings"
)

var scriptTagRe = regexp.MustCompile(`(?is)<script\b.*?</script>`)

// emailRe is the whitelist escape hatch: a value shaped like an email is
// never flagged, regardless of what the signatures below would say.
var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// injectionSignatures are checked in order after the email whitelist.
var injectionSignatures = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\b|'|");\s*(SELECT|INSERT|UPDATE|DELETE|DROP)`),
	regexp.MustCompile(`(\b|'|")--\s*$`),
	regexp.MustCompile(`(\b|'|")/\*.*\*/`),
	regexp.MustCompile(`(?i)(\b|'|")xp_\w+`),
	regexp.MustCompile(`(?i)(\b|'|")sp_\w+`),
	regexp.MustCompile(`(?i)(\b|'|")WAITFOR\s+DELAY`),
	regexp.MustCompile(`(?i)(\b|'|")EXEC\s+`),
	regexp.MustCompile(`(?i)(\b|'|");\s*DROP\s+`),
	regexp.MustCompile(`(?i)(\b|'|");\s*DELETE\s+`),
	regexp.MustCompile(`(?i)(\b|'|");\s*ALTER\s+`),
	regexp.MustCompile(`(?i)(\b|'|");\s*TRUNCATE\s+`),
}

// Clean strips script tags and angle brackets, removes SQL comment and
// statement separators, and escapes quotes and backslashes. Replacements
// run in a fixed order; backslashes are doubled last.
func Clean(value string) string {
	cleaned := scriptTagRe.ReplaceAllString(value, "")
	cleaned = strings.NewReplacer("<", "", ">", "").Replace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, "--", "")
	cleaned = strings.ReplaceAll(cleaned, ";", "")
	cleaned = strings.ReplaceAll(cleaned, "'", "''")
	cleaned = strings.ReplaceAll(cleaned, `\`, `\\`)
	return cleaned
}

// CleanValue returns a sanitized copy of an arbitrary decoded-JSON value.
// Strings are cleaned, sequences element-wise, mappings value-wise; every
// other primitive passes through untouched. The input is never mutated.
func CleanValue(value any) any {
	switch v := value.(type) {
	case string:
		return Clean(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = CleanValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = CleanValue(item)
		}
		return out
	default:
		return value
	}
}

// LooksMalicious reports whether a string matches a known SQL-injection
// signature. Well-formed emails are whitelisted first and short-circuit
// every other check.
func LooksMalicious(value string) bool {
	if value == "" {
		return false
	}
	if emailRe.MatchString(value) {
		return false
	}

	for _, signature := range injectionSignatures {
		if signature.MatchString(value) {
			return true
		}
	}
	return false
}

// AnyMalicious walks an arbitrary decoded-JSON value and reports whether
// any string inside it trips LooksMalicious.
func AnyMalicious(value any) bool {
	switch v := value.(type) {
	case string:
		return LooksMalicious(v)
	case []any:
		for _, item := range v {
			if AnyMalicious(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range v {
			if AnyMalicious(item) {
				return true
			}
		}
	}
	return false
}
