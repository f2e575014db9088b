package question_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmdig/llmdig/internal/question"
)

// ============================================================================
// Sanitizer
// ============================================================================

func TestSanitize_Basic(t *testing.T) {
	assert.Equal(t, "what is the weather like today?",
		question.Sanitize("What is the weather like today?"))
}

func TestSanitize_StripsScriptPatterns(t *testing.T) {
	got := question.Sanitize("What is <script>alert(1)</script> the weather?")
	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, ">")
}

func TestSanitize_StripsSQLVerbs(t *testing.T) {
	got := question.Sanitize("weather UNION SELECT name FROM users")
	assert.NotContains(t, got, "union")
	assert.NotContains(t, got, "select")
}

func TestSanitize_StripsShellTokens(t *testing.T) {
	got := question.Sanitize("please eval this powershell thing")
	assert.NotContains(t, got, "eval")
	assert.NotContains(t, got, "powershell")
}

func TestSanitize_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", question.Sanitize("  a   b\t\tc  "))
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"What is the weather like today?",
		"hello world example",
		"  spaced   out  question  ",
		"punctuation: yes, it works! (really)",
		"mixed <tags> and 'quotes'",
		strings.Repeat("long question ", 40),
		"",
	}
	for _, in := range inputs {
		once := question.Sanitize(in)
		assert.Equal(t, once, question.Sanitize(once), "input %q", in)
	}
}

func TestSanitize_Bounds(t *testing.T) {
	inputs := []string{
		strings.Repeat("a", 500),
		strings.Repeat("word ", 100),
		"Ünïcödé gets dropped entirely ☃",
	}
	for _, in := range inputs {
		got := question.Sanitize(in)
		assert.LessOrEqual(t, len(got), question.MaxPromptLen)
		for i := 0; i < len(got); i++ {
			c := got[i]
			ok := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
				strings.ContainsRune(" .,!?-_'\"():;", rune(c))
			assert.True(t, ok, "character %q escaped the allowlist", c)
		}
	}
}

func TestIsSafe(t *testing.T) {
	assert.True(t, question.IsSafe("what is the weather today"))
	assert.True(t, question.IsSafe("how tall is mount everest"))

	assert.False(t, question.IsSafe("<script>alert(1)</script>"), "script pattern")
	assert.False(t, question.IsSafe("weather union select passwords"), "sql pattern")
	assert.False(t, question.IsSafe(""), "empty")
	assert.False(t, question.IsSafe("a"), "too short")
	assert.False(t, question.IsSafe("€€€€€€€€ hi €€€€€€€€"), "heavy shrinkage")
}

// ============================================================================
// Extractor
// ============================================================================

func TestFromDomain_Scenarios(t *testing.T) {
	cases := []struct {
		domain string
		want   string
	}{
		{"what.is.the.weather.com", "what is the weather"},
		{"hello-world.example.com", "hello world example"},
		{"single.com", "single"},
		{"what.is.the.weather.com.", "what is the weather"}, // trailing dot
		{"snake_case_words.example.org", "snake case words example"},
	}
	for _, tc := range cases {
		got, err := question.FromDomain(tc.domain)
		require.NoError(t, err, tc.domain)
		assert.Equal(t, tc.want, got, tc.domain)
	}
}

func TestFromDomain_TooFewLabels(t *testing.T) {
	for _, domain := range []string{"com", "localhost", ""} {
		_, err := question.FromDomain(domain)
		assert.ErrorIs(t, err, question.ErrInvalidQuery, domain)
	}
}

func TestFromDomain_UnsafeQuestion(t *testing.T) {
	_, err := question.FromDomain("drop.table.users.com")
	assert.ErrorIs(t, err, question.ErrUnsafeQuery)
}

// Extraction then sanitization must agree with sanitizing the joined labels
// directly.
func TestFromDomain_MatchesSanitizedJoin(t *testing.T) {
	labelSets := [][]string{
		{"what", "is", "love", "com"},
		{"how", "do", "magnets", "work", "net"},
		{"weather-in", "new-york", "org"},
	}
	for _, labels := range labelSets {
		domain := strings.Join(labels, ".")
		joined := strings.Join(labels[:len(labels)-1], " ")
		joined = strings.NewReplacer("-", " ", "_", " ").Replace(joined)

		got, err := question.FromDomain(domain)
		require.NoError(t, err, domain)
		assert.Equal(t, question.Sanitize(joined), got, domain)
	}
}
