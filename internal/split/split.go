package split

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

// Split is a train/test partition projected onto features and target
// X* hold the feature columns, y* the target only. Records are shared, not copied.
type Split struct {
	XTrain *dataset.Dataset
	YTrain *dataset.Dataset
	XTest  *dataset.Dataset
	YTest  *dataset.Dataset
}

// Splitter partitions a processed dataset along its timeline
type Splitter struct {
	features []string
	target   string
}

// New creates a splitter for the given feature list and target column
func New(features []string, target string) *Splitter {
	return &Splitter{features: features, target: target}
}

// ByDate puts rows dated on or before at into train and later rows into test
func (s *Splitter) ByDate(ds *dataset.Dataset, at time.Time) (*Split, error) {
	sorted, err := s.prepare(ds)
	if err != nil {
		return nil, err
	}

	train := sorted.Filter(func(r *dataset.Record) bool { return !r.Date.After(at) })
	test := sorted.Filter(func(r *dataset.Record) bool { return r.Date.After(at) })
	return s.project(train, test), nil
}

// Halves splits the date-ordered rows at len/2
func (s *Splitter) Halves(ds *dataset.Dataset) (*Split, error) {
	sorted, err := s.prepare(ds)
	if err != nil {
		return nil, err
	}

	mid := sorted.Len() / 2
	train := &dataset.Dataset{Columns: sorted.Columns, Records: sorted.Records[:mid]}
	test := &dataset.Dataset{Columns: sorted.Columns, Records: sorted.Records[mid:]}
	return s.project(train, test), nil
}

func (s *Splitter) prepare(ds *dataset.Dataset) (*dataset.Dataset, error) {
	required := append([]string{dataset.ColDate, s.target}, s.features...)
	if err := ds.Require("split", required...); err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("split: %w", contracts.ErrEmptyDataset)
	}

	out := &dataset.Dataset{
		Columns: ds.Columns,
		Records: append([]*dataset.Record(nil), ds.Records...),
	}
	sort.SliceStable(out.Records, func(i, j int) bool {
		return out.Records[i].Date.Before(out.Records[j].Date)
	})
	return out, nil
}

func (s *Splitter) project(train, test *dataset.Dataset) *Split {
	x := func(ds *dataset.Dataset) *dataset.Dataset {
		return &dataset.Dataset{Columns: append([]string(nil), s.features...), Records: ds.Records}
	}
	y := func(ds *dataset.Dataset) *dataset.Dataset {
		return &dataset.Dataset{Columns: []string{s.target}, Records: ds.Records}
	}
	return &Split{
		XTrain: x(train),
		YTrain: y(train),
		XTest:  x(test),
		YTest:  y(test),
	}
}
