package meta

import (
	"os"
	"strings"
	"unicode"
)

const envPrefix = "${env."

// expandEnv substitutes ${env.KEY} and ${env.KEY:-fallback} expressions.
// An unset or empty KEY yields fallback, or "" when none is given.
// Malformed expressions are copied through unchanged.
func expandEnv(value string) string {
	if !strings.Contains(value, envPrefix) {
		return value
	}
	var b strings.Builder
	for {
		start := strings.Index(value, envPrefix)
		if start < 0 {
			b.WriteString(value)
			return b.String()
		}
		b.WriteString(value[:start])
		body := value[start+len(envPrefix):]
		end := strings.IndexByte(body, '}')
		if end < 0 {
			b.WriteString(value[start:])
			return b.String()
		}
		key, fallback, hasFallback := strings.Cut(body[:end], ":-")
		if !isEnvKey(key) {
			// keep scanning after the prefix so nested expressions still expand
			b.WriteString(envPrefix)
			value = body
			continue
		}
		resolved := os.Getenv(key)
		if resolved == "" && hasFallback {
			resolved = fallback
		}
		b.WriteString(resolved)
		value = body[end+1:]
	}
}

func isEnvKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
