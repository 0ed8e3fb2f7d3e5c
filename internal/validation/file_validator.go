package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reportflow/internal/errors"
)

// WorkbookExtensions lists the file extensions accepted as source workbooks
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

// FileValidator checks source and output locations before a run touches them
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ResolveSource returns the workbook to read. A file path is validated as a
// workbook. A directory must contain exactly one workbook.
func (v *FileValidator) ResolveSource(path string) (string, error) {
	if path == "" {
		return "", errors.NewConfigError("no source workbook given", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Source does not exist",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return "", errors.NewSourceNotFoundError(path, err)
	}
	if !info.IsDir() {
		return path, v.ValidateWorkbook(path)
	}

	workbooks, err := v.ListWorkbooks(path)
	if err != nil {
		return "", err
	}
	switch len(workbooks) {
	case 0:
		v.logger.Error("No workbook found in directory", slog.String("directory", path))
		return "", errors.NewSourceNotFoundError(path, fmt.Errorf("no workbook in directory"))
	case 1:
		v.logger.Info("Resolved source workbook",
			slog.String("directory", path),
			slog.String("workbook", workbooks[0]))
		return workbooks[0], nil
	default:
		return "", errors.NewAppValidationError(fmt.Sprintf("directory holds %d workbooks, name one", len(workbooks))).
			WithContext("path", path)
	}
}

// ValidateWorkbook checks that path is a readable workbook file
func (v *FileValidator) ValidateWorkbook(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !isWorkbookExt(ext) {
		v.logger.Error("File is not a workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return errors.NewUnreadableFormatError(path, fmt.Errorf("unsupported extension %q", ext))
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary workbook", slog.String("file", path))
		return errors.NewUnreadableFormatError(path, fmt.Errorf("temporary lock file"))
	}

	return nil
}

// ValidateFile checks that a file exists and can be opened
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("File does not exist",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewSourceNotFoundError(path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return errors.NewSourceNotFoundError(path, fmt.Errorf("is a directory"))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewSourceNotFoundError(path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ListWorkbooks returns the workbooks in dir, sorted, skipping lock files
func (v *FileValidator) ListWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewSourceNotFoundError(dir, err)
	}

	var workbooks []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if isWorkbookExt(strings.ToLower(filepath.Ext(name))) {
			workbooks = append(workbooks, filepath.Join(dir, name))
		}
	}
	sort.Strings(workbooks)

	v.logger.Debug("Workbooks listed",
		slog.String("directory", dir),
		slog.Int("count", len(workbooks)))
	return workbooks, nil
}

// ValidateOutputDirectory ensures the output directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError("failed to create output directory", err).WithContext("path", dir)
	}

	file, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError("output directory is not writable", err).WithContext("path", dir)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func isWorkbookExt(ext string) bool {
	for _, e := range WorkbookExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
