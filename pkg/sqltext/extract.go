package sqltext

import (
	"regexp"
	"strings"
)

var (
	// fencedSQL matches ```sql ... ``` blocks, tag in any case, non-greedy across lines.
	fencedSQL = regexp.MustCompile("(?s)```[Ss][Qq][Ll]\\s*\\n?(.*?)```")

	// bareStatement matches a keyword-led span up to the next semicolon.
	bareStatement = regexp.MustCompile(`(?is)(?:SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)\s+.+?;`)
)

// Extract returns the SQL embedded in text.
//
// The first ```sql fenced block with non-blank content wins and is returned
// trimmed. Without such a block, every keyword...; span is collected and the
// spans are joined with a blank line. ok is false when neither finds anything;
// that means "no SQL detected", not an error.
func Extract(text string) (sql string, ok bool) {
	for _, m := range fencedSQL.FindAllStringSubmatch(text, -1) {
		if body := strings.TrimSpace(m[1]); body != "" {
			return body, true
		}
	}

	spans := bareStatement.FindAllString(text, -1)
	if len(spans) == 0 {
		return "", false
	}
	return strings.Join(spans, "\n\n"), true
}
