package pipeline

import (
	"context"
	"fmt"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/s0_ingest"
)

// LoadPath reads a raw file or directory into req.Input and runs the pipeline
func (o *Orchestrator) LoadPath(ctx context.Context, path string, req Request) (*Result, error) {
	ds, err := s0_ingest.NewFileLoader(o.logger).Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", contracts.StageIngest.ShortName(), err)
	}
	req.Input = ds
	return o.Run(ctx, req)
}

// Predict flattens a prediction payload and runs the prediction mode
func (o *Orchestrator) Predict(ctx context.Context, payload *s0_ingest.PredictionRequest, outputPath string) (*Result, error) {
	ds, err := payload.Dataset()
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, Request{
		Mode:       contracts.ModePrediction,
		Input:      ds,
		OutputPath: outputPath,
	})
}
