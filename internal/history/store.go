package history

import (
	"context"
	"time"

	"github.com/wonny/demandprep/internal/dataset"
)

// Store holds processed rows of earlier runs
// ⭐ SSOT: 병합용 과거 데이터는 이 인터페이스로만 접근
type Store interface {
	// Load returns rows dated in [from, to); contracts.ErrNoHistory when nothing was ever saved
	Load(ctx context.Context, from, to time.Time) (*dataset.Dataset, error)

	// Save replaces the stored processed dataset with ds
	Save(ctx context.Context, ds *dataset.Dataset, runID string) (SaveResult, error)
}

// SaveResult describes where a processed dataset was written
type SaveResult struct {
	Location string `json:"location"`
	Backup   string `json:"backup,omitempty"`
	Rows     int    `json:"rows"`
}
