package ogr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name:  "nil params returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name: "extensions only",
			input: map[string]any{
				"extensions": []any{"httpfs", "json"},
			},
			want: &Params{Extensions: []string{"httpfs", "json"}},
		},
		{
			name: "settings are weakly typed",
			input: map[string]any{
				"settings": map[string]any{
					"memory_limit": "4GB",
					"threads":      4,
				},
			},
			want: &Params{Settings: map[string]string{"memory_limit": "4GB", "threads": "4"}},
		},
		{
			name: "secrets",
			input: map[string]any{
				"secrets": []any{
					map[string]any{"type": "s3", "provider": "credential_chain", "region": "eu-north-1"},
				},
			},
			want: &Params{Secrets: []SecretConfig{{Type: "s3", Provider: "credential_chain", Region: "eu-north-1"}}},
		},
		{
			name:    "wrong shape",
			input:   map[string]any{"secrets": "s3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Extensions, got.Extensions)
			assert.Equal(t, tt.want.Settings, got.Settings)
			assert.Equal(t, tt.want.Secrets, got.Secrets)
		})
	}
}

func TestParams_Extensions(t *testing.T) {
	assert.Equal(t, []string{"spatial"}, (&Params{}).extensions())
	assert.Equal(t, []string{"spatial", "httpfs"}, (&Params{Extensions: []string{"httpfs", "spatial", "httpfs", ""}}).extensions())
}
