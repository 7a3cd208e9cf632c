package mapping

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/wonny/demandprep/internal/contracts"
)

// FileStore keeps one "{feature}_map.csv" per feature with header
// "{feature},{feature}_encoded"
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the mapping file of a feature
func (s *FileStore) Path(feature string) string {
	return filepath.Join(s.dir, feature+"_map.csv")
}

// Load reads the mapping; ErrMappingNotFound when the file does not exist
func (s *FileStore) Load(_ context.Context, feature string) (contracts.Mapping, error) {
	path := s.Path(feature)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, contracts.ErrMappingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open mapping %s: %w", path, err)
	}
	defer f.Close()

	m, err := decode(f, feature)
	if err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	return m, nil
}

func decode(r io.Reader, feature string) (contracts.Mapping, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	rawIdx, codeIdx := -1, -1
	for i, h := range header {
		switch h {
		case feature:
			rawIdx = i
		case feature + "_encoded":
			codeIdx = i
		}
	}
	if rawIdx < 0 || codeIdx < 0 {
		return nil, fmt.Errorf("header must contain %q and %q", feature, feature+"_encoded")
	}

	m := make(contracts.Mapping)
	codes := make(map[int]string)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if rawIdx >= len(row) || codeIdx >= len(row) {
			return nil, fmt.Errorf("short row %v", row)
		}

		code, err := strconv.Atoi(row[codeIdx])
		if err != nil || code <= 0 {
			return nil, fmt.Errorf("invalid code %q for %q", row[codeIdx], row[rawIdx])
		}
		if prev, dup := codes[code]; dup && prev != row[rawIdx] {
			return nil, fmt.Errorf("code %d assigned to both %q and %q", code, prev, row[rawIdx])
		}
		codes[code] = row[rawIdx]
		m[row[rawIdx]] = code
	}
	return m, nil
}

// Save writes the full mapping, ordered by code, via temp file + rename
func (s *FileStore) Save(_ context.Context, feature string, m contracts.Mapping) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create mapping dir %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, feature+"_map.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp mapping: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, feature, m); err != nil {
		tmp.Close()
		return fmt.Errorf("write mapping %s: %w", feature, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp mapping: %w", err)
	}

	path := s.Path(feature)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace mapping %s: %w", path, err)
	}
	return nil
}

func encode(w io.Writer, feature string, m contracts.Mapping) error {
	raws := make([]string, 0, len(m))
	for raw := range m {
		raws = append(raws, raw)
	}
	sort.Slice(raws, func(i, j int) bool { return m[raws[i]] < m[raws[j]] })

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{feature, feature + "_encoded"}); err != nil {
		return err
	}
	for _, raw := range raws {
		if err := cw.Write([]string{raw, strconv.Itoa(m[raw])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
