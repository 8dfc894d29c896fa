package sqltext

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr string
	}{
		{name: "nine characters rejected", sql: "SELECT 1;", wantErr: "too short"},
		{name: "padded short rejected", sql: "   SELECT 1;   \n", wantErr: "too short"},
		{name: "empty rejected", sql: "", wantErr: "too short"},
		{name: "truncated select star", sql: "SELECT * FROM", wantErr: "after 'FROM'"},
		{name: "truncated lower case with newline", sql: "select * from\n", wantErr: "after 'FROM'"},
		{name: "truncated subquery", sql: "SELECT a FROM t WHERE id IN (SELECT * FROM", wantErr: "after 'FROM'"},
		{name: "complete short statement", sql: "SELECT 1 FROM t;"},
		{name: "select star with table", sql: "SELECT * FROM roads"},
		{name: "ddl", sql: "CREATE VIEW big AS SELECT * FROM cities WHERE pop > 1000"},
		{name: "identifier ending in from", sql: "SELECT * FROM t WHERE x = a_from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sql)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}
