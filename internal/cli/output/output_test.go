package output

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"text", ModeText, false},
		{"md", ModeMarkdown, false},
		{"markdown", ModeMarkdown, false},
		{"json", ModeJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, true, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, false, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&out, &errOut, true, ModeJSON).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRenderer(&out, &errOut, "").EffectiveMode())
}

func TestNotices_GoToErrOut(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeAuto)

	r.Success("connected")
	r.Warning("no tables found")
	r.Error("boom")
	r.Muted("quiet")

	assert.Empty(t, out.String())
	assert.Equal(t, "✓ connected\n! no tables found\n✗ boom\nquiet\n", errOut.String())
}

func TestStatusLine(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeMarkdown)

	r.StatusLine("Ollama", true, "http://localhost:11434")
	r.StatusLine("Database", false, "")

	assert.Equal(t, "✓ Ollama: http://localhost:11434\n✗ Database\n", out.String())
}

func TestSQL(t *testing.T) {
	var out, errOut bytes.Buffer
	sql := "select name from roads where kind = 'select'"

	md := NewRendererWithTTY(&out, &errOut, false, ModeMarkdown)
	assert.Equal(t, "```sql\n"+sql+"\n```", md.SQL(sql))

	js := NewRendererWithTTY(&out, &errOut, false, ModeJSON)
	assert.Equal(t, sql, js.SQL(sql))

	text := NewRendererWithTTY(&out, &errOut, true, ModeText)
	assert.Equal(t, sql, ansi.ReplaceAllString(text.SQL(sql), ""))
}

func TestJSON(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"rows": 2}))
	assert.Equal(t, "{\n  \"rows\": 2\n}\n", out.String())
}
