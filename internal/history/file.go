package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

// MainFile is the name of the processed dataset inside the processed dir
const MainFile = "processed_data.csv"

const backupLayout = "20060102_150405"

// FileStore keeps processed_data.csv plus timestamped backups
type FileStore struct {
	processedDir string
	backupDir    string
	now          func() time.Time
}

// NewFileStore creates a store over the processed and backup directories
func NewFileStore(processedDir, backupDir string) *FileStore {
	return &FileStore{
		processedDir: processedDir,
		backupDir:    backupDir,
		now:          time.Now,
	}
}

// Path returns the main processed file
func (s *FileStore) Path() string {
	return filepath.Join(s.processedDir, MainFile)
}

// BackupPath returns the backup file for a save at t
func (s *FileStore) BackupPath(t time.Time) string {
	return filepath.Join(s.backupDir, fmt.Sprintf("processed_data_%s.csv", t.Format(backupLayout)))
}

// Load reads the main file and keeps rows dated in [from, to)
func (s *FileStore) Load(_ context.Context, from, to time.Time) (*dataset.Dataset, error) {
	f, err := os.Open(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.Path(), contracts.ErrNoHistory)
	}
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", s.Path(), err)
	}
	defer f.Close()

	ds, err := dataset.ReadCSV(f)
	if errors.Is(err, contracts.ErrEmptyDataset) {
		return nil, fmt.Errorf("%s is empty: %w", s.Path(), contracts.ErrNoHistory)
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", s.Path(), err)
	}
	if !ds.Has(dataset.ColDate) {
		return nil, &contracts.SchemaError{Stage: contracts.StageMerge.String(), Missing: []string{dataset.ColDate}}
	}

	return ds.Filter(func(r *dataset.Record) bool {
		return !r.Date.IsZero() && !r.Date.Before(from) && r.Date.Before(to)
	}), nil
}

// Save overwrites the main file and writes a timestamped backup copy
func (s *FileStore) Save(_ context.Context, ds *dataset.Dataset, _ string) (SaveResult, error) {
	for _, dir := range []string{s.processedDir, s.backupDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return SaveResult{}, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	res := SaveResult{
		Location: s.Path(),
		Backup:   s.BackupPath(s.now()),
		Rows:     ds.Len(),
	}

	if err := writeAtomic(res.Location, ds); err != nil {
		return SaveResult{}, err
	}
	if err := writeAtomic(res.Backup, ds); err != nil {
		return SaveResult{}, err
	}
	return res, nil
}

// WriteFile writes ds as CSV to path (prediction output, split files)
func WriteFile(path string, ds *dataset.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	return writeAtomic(path, ds)
}

func writeAtomic(path string, ds *dataset.Dataset) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := dataset.WriteCSV(tmp, ds); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a CSV dataset from path
func ReadFile(path string) (*dataset.Dataset, error) {
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
