package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("out")

	assert.Equal(t, filepath.Join("out", "combined.csv"), p.CombinedCSV)
	assert.Equal(t, filepath.Join("out", "latest.json"), p.LatestJSON)
	assert.Equal(t, filepath.Join("out", "report.xlsx"), p.Workbook)
	assert.Equal(t, filepath.Join("out", "manifest.json"), p.Manifest)
	assert.Equal(t, filepath.Join("out", "summary.json"), p.TablePath(TableSummary, FormatJSON))
	assert.Equal(t, p.Workbook, p.TablePath(TableSummary, FormatXLSX))

	assert.Equal(t, DefaultOutputDir, NewPaths("").OutputDir)
}

func TestPaths_ForCategory(t *testing.T) {
	p := NewPaths("out").ForCategory("Latin America & Caribbean")
	assert.Equal(t, filepath.Join("out", "latin-america-caribbean"), p.OutputDir)
	assert.Equal(t, filepath.Join("out", "latin-america-caribbean", "changes.csv"), p.ChangesCSV)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	p := NewPaths(dir)
	require.NoError(t, p.EnsureDirectories())
	assert.True(t, FileExists(dir))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Europe", "europe"},
		{"  Sub-Saharan Africa ", "sub-saharan-africa"},
		{"NA", "na"},
		{"Côte", "c-te"},
		{"!!!", "unknown"},
		{"", "unknown"},
		{"2007/Q1", "2007-q1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}
