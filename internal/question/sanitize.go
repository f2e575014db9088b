// Package question turns queried domain names into natural-language prompts
// and guards the LLM backend against injection-shaped input.
package question

import (
	"regexp"
	"strings"
)

// MaxPromptLen is the byte limit for a sanitized prompt.
const MaxPromptLen = 200

// MinPromptLen is the minimum byte length for a prompt worth forwarding.
const MinPromptLen = 3

// dangerousPatterns are stripped from prompts and, when they match the raw
// input, mark it unsafe outright. Matched case-insensitively.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(script|javascript|vbscript|expression|onload|onerror|onclick)`),
	regexp.MustCompile(`(?i)(union|select|insert|update|delete|drop|create|alter)`),
	regexp.MustCompile(`(?i)(eval|exec|system|shell|cmd|powershell)`),
	regexp.MustCompile(`[<>"'&]`),
}

// allowedChar reports whether c may appear in a sanitized prompt:
// ASCII letters, digits, space, and .,!?-_'"():;
func allowedChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case ' ', '.', ',', '!', '?', '-', '_', '\'', '"', '(', ')', ':', ';':
		return true
	}
	return false
}

// Sanitize normalizes a prompt: lowercase, dangerous patterns stripped,
// characters outside the allowlist dropped, whitespace collapsed, and the
// result truncated to MaxPromptLen bytes. The output is the cache
// fingerprint, so Sanitize must be idempotent.
func Sanitize(input string) string {
	s := strings.ToLower(input)

	for _, p := range dangerousPatterns {
		s = p.ReplaceAllString(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if allowedChar(s[i]) {
			b.WriteByte(s[i])
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	if len(s) > MaxPromptLen {
		// The string is pure ASCII at this point, so a byte cut is safe.
		s = strings.TrimRight(s[:MaxPromptLen], " ")
	}
	return s
}

// IsSafe reports whether a raw prompt may be forwarded to the backend.
// It is false when a dangerous pattern matches the raw input, when the
// sanitized form is too short, or when sanitization removed more than a
// quarter of the input — heavy shrinkage means the input was mostly noise
// or an evasion attempt, not a question.
func IsSafe(input string) bool {
	for _, p := range dangerousPatterns {
		if p.MatchString(input) {
			return false
		}
	}

	s := Sanitize(input)
	if len(s) < MinPromptLen {
		return false
	}
	if len(s) < len(input)*3/4 {
		return false
	}
	return true
}
