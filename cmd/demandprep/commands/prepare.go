package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/demandprep/internal/s0_ingest"
)

// prepareCmd represents the prepare command
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "예측 요청 JSON → 모델 입력 피처",
	Long: `예측 요청(prediction_dates + products)을 읽어 예측일 행에 대한 피처를 생성합니다.

과거 판매는 lag / rolling 계산에만 사용되고 결과에는 예측일 행만 남습니다.
예측 결과는 processed history 에 저장되지 않습니다.

Example:
  go run ./cmd/demandprep prepare --input request.json --output features.csv`,
	RunE: runPrepare,
}

var (
	prepareInput  string
	prepareOutput string
)

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().StringVar(&prepareInput, "input", "", "prediction request JSON")
	prepareCmd.Flags().StringVar(&prepareOutput, "output", "prediction_features.csv", "output CSV")
	_ = prepareCmd.MarkFlagRequired("input")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	f, err := os.Open(prepareInput)
	if err != nil {
		return fmt.Errorf("open prediction request: %w", err)
	}
	defer f.Close()

	payload, err := s0_ingest.DecodePrediction(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.orch.Predict(ctx, payload, prepareOutput)
	if res != nil {
		PrintRunSummary(res.Summary)
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("%d prediction rows written to %s", res.Summary.Rows, prepareOutput))
	return nil
}
