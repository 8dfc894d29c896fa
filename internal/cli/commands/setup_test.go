package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInput(t *testing.T) {
	file := filepath.Join(t.TempDir(), "q.sql")
	require.NoError(t, os.WriteFile(file, []byte("SELECT 2 FROM dual"), 0600))

	tests := []struct {
		name   string
		args   []string
		file   string
		stdin  string
		want   string
		wantOK bool
	}{
		{name: "args win", args: []string{"SELECT", "1"}, file: file, stdin: "ignored", want: "SELECT 1", wantOK: true},
		{name: "file before stdin", file: file, stdin: "ignored", want: "SELECT 2 FROM dual", wantOK: true},
		{name: "stdin", stdin: "SELECT 3\n", want: "SELECT 3\n", wantOK: true},
		{name: "blank stdin", stdin: " \n\t", want: " \n\t", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.SetIn(strings.NewReader(tt.stdin))

			got, ok, err := readInput(cmd, tt.args, tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestReadInput_MissingFile(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(new(bytes.Buffer))

	_, _, err := readInput(cmd, nil, filepath.Join(t.TempDir(), "nope.sql"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestStdinIsTerminal_ReplacedInput(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(new(bytes.Buffer))
	assert.False(t, stdinIsTerminal(cmd))
}
