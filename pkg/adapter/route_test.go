package adapter

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/geoprompt/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name    string
		src     core.Source
		want    string
		wantErr bool
	}{
		{
			name: "postgres ignores file extension",
			src:  core.Source{Provider: core.ProviderPostgres, Locator: "dbname='world.gpkg' host=localhost"},
			want: StrategyPostgres,
		},
		{
			name: "spatialite",
			src:  core.Source{Provider: core.ProviderSpatiaLite, Locator: "dbname='/data/city.sqlite' table=\"parks\""},
			want: StrategySpatiaLite,
		},
		{
			name: "ogr geopackage with layer",
			src:  core.Source{Provider: core.ProviderOGR, Locator: "/data/world.gpkg|layername=countries"},
			want: StrategySpatiaLite,
		},
		{
			name: "ogr sqlite upper case extension",
			src:  core.Source{Provider: core.ProviderOGR, Locator: "/data/CITY.SQLITE"},
			want: StrategySpatiaLite,
		},
		{
			name: "ogr db file",
			src:  core.Source{Provider: core.ProviderOGR, Locator: "/data/store.db"},
			want: StrategySpatiaLite,
		},
		{
			name: "ogr shapefile",
			src:  core.Source{Provider: core.ProviderOGR, Locator: "/data/rivers.shp"},
			want: StrategyOGR,
		},
		{
			name: "ogr geojson",
			src:  core.Source{Provider: core.ProviderOGR, Locator: "/data/points.geojson|layername=points"},
			want: StrategyOGR,
		},
		{
			name:    "unknown provider",
			src:     core.Source{Provider: "wms", Locator: "url=https://example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Route(tt.src)
			if tt.wantErr {
				var unsupported *UnsupportedProviderError
				require.True(t, errors.As(err, &unsupported))
				assert.Equal(t, tt.src.Provider, unsupported.Provider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecError(t *testing.T) {
	err := &ExecError{Backend: "PostgreSQL", Err: errors.New("relation \"x\" does not exist")}
	assert.Equal(t, `PostgreSQL error: relation "x" does not exist`, err.Error())

	err.Hint = "Available fields: a, b"
	assert.Contains(t, err.Error(), "\n\nAvailable fields: a, b")
	assert.True(t, errors.Is(&ExecError{Backend: "OGR", Err: assert.AnError}, assert.AnError))
}
