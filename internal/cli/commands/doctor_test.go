package commands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/geoprompt/internal/cli/config"
	"github.com/leapstack-labs/geoprompt/internal/cli/testutil"
	"github.com/leapstack-labs/geoprompt/internal/ollama"
	"github.com/leapstack-labs/geoprompt/pkg/core"

	_ "github.com/leapstack-labs/geoprompt/pkg/adapters/ogr"
	_ "github.com/leapstack-labs/geoprompt/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/geoprompt/pkg/adapters/spatialite"
)

func TestIsRemotePath(t *testing.T) {
	for _, p := range []string{"s3://bucket/a.parquet", "https://example.com/x.geojson", "http://h/x.shp", "gs://b/x", "az://c/x"} {
		assert.True(t, isRemotePath(p), p)
	}
	for _, p := range []string{"/data/x.shp", "data/x.gpkg", "file.s3"} {
		assert.False(t, isRemotePath(p), p)
	}
}

func TestCheckSource(t *testing.T) {
	dir := t.TempDir()
	gpkg := filepath.Join(dir, "world.gpkg")
	require.NoError(t, os.WriteFile(gpkg, nil, 0600))

	tests := []struct {
		name   string
		src    core.Source
		status string
		detail string
	}{
		{
			name:   "existing geopackage",
			src:    core.Source{Name: "world", Provider: core.ProviderOGR, Locator: gpkg + "|layername=countries"},
			status: StatusPass,
			detail: "ogr via spatialite",
		},
		{
			name:   "missing shapefile",
			src:    core.Source{Name: "roads", Provider: core.ProviderOGR, Locator: filepath.Join(dir, "roads.shp")},
			status: StatusFail,
			detail: "file not found: " + filepath.Join(dir, "roads.shp"),
		},
		{
			name:   "missing spatialite file",
			src:    core.Source{Name: "city", Provider: core.ProviderSpatiaLite, Locator: "dbname='" + filepath.Join(dir, "city.sqlite") + "'"},
			status: StatusFail,
			detail: "file not found: " + filepath.Join(dir, "city.sqlite"),
		},
		{
			name:   "remote file is not checked",
			src:    core.Source{Name: "remote", Provider: core.ProviderOGR, Locator: "s3://bucket/rivers.parquet"},
			status: StatusPass,
			detail: "ogr via ogr",
		},
		{
			name:   "postgres needs no file",
			src:    core.Source{Name: "pg", Provider: core.ProviderPostgres, Locator: "dbname='gis'"},
			status: StatusPass,
			detail: "postgres via postgres",
		},
		{
			name:   "unsupported provider",
			src:    core.Source{Name: "wfs", Provider: core.ProviderKind("wfs"), Locator: "https://example.com/wfs"},
			status: StatusFail,
			detail: `provider type "wfs" not yet supported`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := checkSource(tt.src)
			assert.Equal(t, GroupSources, check.Group)
			assert.Equal(t, tt.src.Name, check.Name)
			assert.Equal(t, tt.status, check.Status)
			assert.Contains(t, check.Detail, tt.detail)
		})
	}
}

func TestCheckDatabase_NotConfigured(t *testing.T) {
	checks := checkDatabase(context.Background(), config.DatabaseConfig{})
	require.Len(t, checks, 1)
	assert.Equal(t, StatusSkip, checks[0].Status)
	assert.Equal(t, "no database configured", checks[0].Detail)
}

func TestCheckDatabase_Incomplete(t *testing.T) {
	checks := checkDatabase(context.Background(), config.DatabaseConfig{Database: "gis"})
	require.Len(t, checks, 1)
	assert.Equal(t, StatusFail, checks[0].Status)
	assert.Contains(t, checks[0].Detail, "user is required")
}

func TestCheckOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llava:latest"},{"name":"mistral:7b"}]}`))
	}))
	defer srv.Close()
	client := ollama.NewClient(ollama.Config{URL: srv.URL}, nil)

	checks := checkOllama(context.Background(), client, "llava")
	require.Len(t, checks, 2)
	assert.Equal(t, StatusPass, checks[0].Status)
	assert.Contains(t, checks[0].Detail, "(2 models)")
	assert.Equal(t, "model llava", checks[1].Name)
	assert.Equal(t, StatusPass, checks[1].Status)
	assert.Equal(t, "llava:latest", checks[1].Detail)

	checks = checkOllama(context.Background(), client, "bakllava")
	assert.Equal(t, StatusFail, checks[1].Status)
	assert.Equal(t, "not installed, run: ollama pull bakllava", checks[1].Detail)
}

func TestCheckOllama_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := ollama.NewClient(ollama.Config{URL: url}, nil)

	checks := checkOllama(context.Background(), client, "llava")
	require.Len(t, checks, 2)
	assert.Equal(t, StatusFail, checks[0].Status)
	assert.Equal(t, StatusSkip, checks[1].Status)
	assert.Equal(t, "server unreachable", checks[1].Detail)
}

func sampleDoctorOutput() *DoctorOutput {
	return &DoctorOutput{
		ConfigFile: "/work/geoprompt.yaml",
		Checks: []HealthCheck{
			{Group: GroupOllama, Name: "server", Status: StatusPass, Detail: "http://localhost:11434 (2 models)"},
			{Group: GroupOllama, Name: "model llava", Status: StatusPass, Detail: "llava:latest"},
			{Group: GroupDatabase, Name: "connection", Status: StatusSkip, Detail: "no database configured"},
			{Group: GroupSources, Name: "roads", Status: StatusFail, Detail: "file not found: roads.shp"},
		},
		Failed: 1,
	}
}

func TestRenderDoctorMarkdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	renderDoctorMarkdown(tr.Renderer, sampleDoctorOutput())

	out := tr.Output()
	assert.Contains(t, out, "# geoprompt Health Report")
	assert.Contains(t, out, "Config: `/work/geoprompt.yaml`")
	assert.Contains(t, out, "## Ollama")
	assert.Contains(t, out, "## Database")
	assert.Contains(t, out, "## Sources")
	assert.Contains(t, out, "- **[PASS]** model llava: llava:latest")
	assert.Contains(t, out, "- **[SKIP]** connection: no database configured")
	assert.Contains(t, out, "- **[FAIL]** roads: file not found: roads.shp")
	assert.Contains(t, out, "- **Failed**: 1")
	testutil.AssertValidMarkdown(t, out)
}

func TestRenderDoctorText(t *testing.T) {
	tr := testutil.NewTestRendererText()
	renderDoctorText(tr.Renderer, sampleDoctorOutput())

	out := testutil.StripANSI(tr.Output())
	assert.Contains(t, out, "geoprompt Health Report")
	assert.Contains(t, out, "Ollama")
	assert.Contains(t, out, "roads: file not found: roads.shp")
	assert.Contains(t, out, "1 failed")

	tr.Reset()
	renderDoctorText(tr.Renderer, &DoctorOutput{Checks: []HealthCheck{{Group: GroupOllama, Name: "server", Status: StatusPass}}})
	assert.Contains(t, testutil.StripANSI(tr.Output()), "All checks passed")
}
