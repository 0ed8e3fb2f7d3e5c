package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Paths contains every file path a run writes.
// This is the single source of truth for artifact locations.
type Paths struct {
	OutputDir string

	// Well-known artifacts
	CombinedCSV  string
	SummaryCSV   string
	ChangesCSV   string
	LatestCSV    string
	CombinedJSON string
	SummaryJSON  string
	ChangesJSON  string
	LatestJSON   string
	Workbook     string
	Manifest     string
}

// NewPaths lays out the artifacts of one run under outputDir
func NewPaths(outputDir string) *Paths {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	return &Paths{
		OutputDir:    outputDir,
		CombinedCSV:  filepath.Join(outputDir, TableCombined+".csv"),
		SummaryCSV:   filepath.Join(outputDir, TableSummary+".csv"),
		ChangesCSV:   filepath.Join(outputDir, TableChanges+".csv"),
		LatestCSV:    filepath.Join(outputDir, TableLatest+".csv"),
		CombinedJSON: filepath.Join(outputDir, TableCombined+".json"),
		SummaryJSON:  filepath.Join(outputDir, TableSummary+".json"),
		ChangesJSON:  filepath.Join(outputDir, TableChanges+".json"),
		LatestJSON:   filepath.Join(outputDir, TableLatest+".json"),
		Workbook:     filepath.Join(outputDir, WorkbookName),
		Manifest:     filepath.Join(outputDir, ManifestName),
	}
}

// ForCategory returns the artifact layout for one category value of a batch run
func (p *Paths) ForCategory(label string) *Paths {
	return NewPaths(filepath.Join(p.OutputDir, Slug(label)))
}

// TablePath returns the path of a table in the given format
func (p *Paths) TablePath(table, format string) string {
	if format == FormatXLSX {
		return p.Workbook
	}
	return filepath.Join(p.OutputDir, table+"."+format)
}

// EnsureDirectories creates the output directory
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.OutputDir, err)
	}
	return nil
}

// LogPathResolution logs the resolved artifact locations
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved output paths",
		slog.String("output_dir", p.OutputDir),
		slog.String("combined_csv", p.CombinedCSV),
		slog.String("summary_csv", p.SummaryCSV),
		slog.String("changes_csv", p.ChangesCSV),
		slog.String("latest_csv", p.LatestCSV),
		slog.String("workbook", p.Workbook))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Slug turns a category label into a directory name: lowercase ASCII letters
// and digits, other runs collapsed to a single dash.
func Slug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "unknown"
	}
	return slug
}
