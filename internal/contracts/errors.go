package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ⭐ SSOT: 파이프라인 공통 에러는 여기서만 정의
var (
	// ErrEmptyDataset is returned before any stage runs when the input has no rows
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrNoHistory means no processed history exists yet
	ErrNoHistory = errors.New("no historical data")

	// ErrMappingNotFound means a feature has no persisted mapping yet
	ErrMappingNotFound = errors.New("mapping not found")

	// ErrLockHeld means another writer holds the mapping lock
	ErrLockHeld = errors.New("lock held by another writer")

	// ErrRunInProgress means the orchestrator is already running
	ErrRunInProgress = errors.New("pipeline run already in progress")
)

// SchemaError lists every column a stage required but did not find
type SchemaError struct {
	Stage   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Stage, strings.Join(e.Missing, ", "))
}

// ValidationError represents an invalid parameter
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsSchemaError reports whether err wraps a *SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
