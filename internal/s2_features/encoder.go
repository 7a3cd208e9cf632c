package s2_features

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/pkg/logger"
)

// EncodeResult describes one Encode call
type EncodeResult struct {
	Feature  string `json:"feature"`
	Loaded   int    `json:"loaded"`    // codes read from the store
	NewCodes int    `json:"new_codes"` // codes assigned in this call
	Saved    bool   `json:"saved"`
}

// Encoder maps categorical values to durable positive integer codes
// ⭐ SSOT: 코드 할당 규칙은 여기서만 (max+1, 첫 등장 순서)
type Encoder struct {
	store  contracts.MappingStore
	locker contracts.Locker
	logger *logger.Logger
}

// NewEncoder creates an encoder; locker serialises writers per feature
func NewEncoder(store contracts.MappingStore, locker contracts.Locker, log *logger.Logger) *Encoder {
	return &Encoder{
		store:  store,
		locker: locker,
		logger: log.WithStage(contracts.StageEncode.String()),
	}
}

// Encode adds "{feature}_encoded". Values missing from the stored mapping get
// codes max(existing)+1, +2, … in order of first appearance in ds, and the
// full mapping is saved only when it grew.
func (e *Encoder) Encode(ctx context.Context, ds *dataset.Dataset, feature string) (*dataset.Dataset, EncodeResult, error) {
	res := EncodeResult{Feature: feature}
	if err := ds.Require(contracts.StageEncode.String(), feature); err != nil {
		return nil, res, err
	}

	unlock, err := e.locker.Lock(ctx, feature)
	if err != nil {
		return nil, res, fmt.Errorf("lock mapping %s: %w", feature, err)
	}
	defer unlock()

	mapping := e.load(ctx, feature)
	res.Loaded = len(mapping)

	out := ds.Clone()
	next := mapping.MaxCode()
	for _, r := range out.Records {
		raw := r.Text(feature)
		code, ok := mapping[raw]
		if !ok {
			next++
			code = next
			mapping[raw] = code
			res.NewCodes++
		}
		r.SetCode(feature, code)
	}
	out.AddColumns(dataset.EncodedColumn(feature))

	log := e.logger.WithFields(map[string]interface{}{
		"feature":   feature,
		"loaded":    res.Loaded,
		"new_codes": res.NewCodes,
	})

	if res.NewCodes > 0 {
		if err := e.store.Save(ctx, feature, mapping); err != nil {
			return nil, res, fmt.Errorf("save mapping %s: %w", feature, err)
		}
		res.Saved = true
		log.Info("Mapping extended and saved")
	} else {
		log.Debug("Mapping unchanged")
	}

	return out, res, nil
}

// load never fails: absent → WARN, unreadable → ERROR, both start empty
func (e *Encoder) load(ctx context.Context, feature string) contracts.Mapping {
	m, err := e.store.Load(ctx, feature)
	switch {
	case err == nil:
		return m.Clone()
	case errors.Is(err, contracts.ErrMappingNotFound):
		e.logger.WithField("feature", feature).Warn("No existing mapping found, starting fresh")
	default:
		e.logger.WithError(err).WithField("feature", feature).Error("Error loading mapping, starting fresh")
	}
	return make(contracts.Mapping)
}
