package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/internal/history"
	"github.com/wonny/demandprep/internal/pipelineconfig"
	"github.com/wonny/demandprep/internal/split"
	"github.com/wonny/demandprep/pkg/config"
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "처리된 데이터를 학습/검증 세트로 분할",
	Long: `processed_data.csv 를 날짜 기준으로 학습/검증 세트로 나눕니다.

분할 방식:
  date    - --at 날짜 이하 = train, 이후 = test
  halves  - 날짜 정렬 후 절반 분할

출력: X_train.csv, y_train.csv, X_test.csv, y_test.csv

Example:
  go run ./cmd/demandprep split --by date --at 2024-06-30
  go run ./cmd/demandprep split --by halves --out-dir ./data/split`,
	RunE: runSplit,
}

var (
	splitInput    string
	splitBy       string
	splitAt       string
	splitOutDir   string
	splitFeatures string
)

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVar(&splitInput, "input", "", "processed CSV (default: DATA_PROCESSED_DIR/processed_data.csv)")
	splitCmd.Flags().StringVar(&splitBy, "by", "date", "split method (date|halves)")
	splitCmd.Flags().StringVar(&splitAt, "at", "", "last training date for --by date (YYYY-MM-DD)")
	splitCmd.Flags().StringVar(&splitOutDir, "out-dir", "./data/split", "output directory")
	splitCmd.Flags().StringVar(&splitFeatures, "features", "", "comma-separated feature list (default: pipeline config)")
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pipeCfg, err := pipelineconfig.LoadOrDefault(cfg.PipelineConfig)
	if err != nil {
		return fmt.Errorf("load pipeline config: %w", err)
	}

	input := splitInput
	if input == "" {
		input = history.NewFileStore(cfg.Paths.ProcessedDir, cfg.Paths.BackupDir).Path()
	}
	ds, err := history.ReadFile(input)
	if err != nil {
		return err
	}

	features := pipeCfg.Split.Features
	if splitFeatures != "" {
		features = strings.Split(splitFeatures, ",")
	}
	splitter := split.New(features, pipeCfg.Split.Target)

	var parts *split.Split
	switch splitBy {
	case "date":
		at, ok := dataset.ParseDate(splitAt)
		if !ok {
			return fmt.Errorf("--at must be a date (YYYY-MM-DD), got %q", splitAt)
		}
		parts, err = splitter.ByDate(ds, at)
	case "halves":
		parts, err = splitter.Halves(ds)
	default:
		return fmt.Errorf("--by must be one of: date, halves")
	}
	if err != nil {
		return err
	}

	outputs := []struct {
		name string
		ds   *dataset.Dataset
	}{
		{"X_train.csv", parts.XTrain},
		{"y_train.csv", parts.YTrain},
		{"X_test.csv", parts.XTest},
		{"y_test.csv", parts.YTest},
	}
	for _, out := range outputs {
		if err := history.WriteFile(filepath.Join(splitOutDir, out.name), out.ds); err != nil {
			return fmt.Errorf("write %s: %w", out.name, err)
		}
	}

	PrintSuccess(fmt.Sprintf("train=%d test=%d rows written to %s", parts.XTrain.Len(), parts.XTest.Len(), splitOutDir))
	return nil
}
