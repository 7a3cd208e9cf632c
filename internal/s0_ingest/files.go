package s0_ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/pkg/logger"
)

// ErrNoValidFiles is returned when a directory holds no readable CSV data
var ErrNoValidFiles = errors.New("no valid CSV files")

// FileLoader reads raw sales exports from a single file or a directory
// ⭐ SSOT: 원천 CSV 적재는 여기서만
type FileLoader struct {
	logger *logger.Logger
}

// NewFileLoader creates a loader
func NewFileLoader(log *logger.Logger) *FileLoader {
	return &FileLoader{logger: log.WithStage(contracts.StageIngest.String())}
}

// Load reads path. A directory combines every non-empty *.csv in name order;
// unreadable files are skipped with an error log.
func (l *FileLoader) Load(path string) (*dataset.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("data path %s: %w", path, err)
	}

	if !info.IsDir() {
		ds, err := readFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.WithFields(map[string]interface{}{"path": path, "rows": ds.Len()}).Info("Data ingested")
		return ds, nil
	}

	files, err := csvFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoValidFiles)
	}

	var parts []*dataset.Dataset
	for _, f := range files {
		ds, err := readFile(f)
		if err != nil {
			l.logger.WithError(err).WithField("file", f).Error("Skipping file")
			continue
		}
		parts = append(parts, ds)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoValidFiles)
	}

	ds := Combine(parts...)
	l.logger.WithFields(map[string]interface{}{
		"path":  path,
		"files": len(parts),
		"rows":  ds.Len(),
	}).Info("Data ingested")
	return ds, nil
}

func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func readFile(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

// Combine concatenates datasets; the schema is the ordered union of columns
func Combine(parts ...*dataset.Dataset) *dataset.Dataset {
	out := dataset.New()
	for _, p := range parts {
		out.AddColumns(p.Columns...)
		out.Records = append(out.Records, p.Records...)
	}
	return out
}
