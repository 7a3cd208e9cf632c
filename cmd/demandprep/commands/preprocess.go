package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/pipeline"
)

// preprocessCmd represents the preprocess command
var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "과거 판매 데이터 전처리 (weekly | daily)",
	Long: `원천 CSV 파일(또는 디렉터리)을 읽어 전체 파이프라인을 실행합니다.

이 명령어는:
- 단일 CSV 또는 디렉터리 내 *.csv 파일 결합
- 식별자/카테고리 정규화, 범주형 코드 매핑 (영속)
- 주간→일간 변환, 달력/주기/재고 피처
- 과거 데이터 병합 후 lag / rolling 피처 생성
- processed_data.csv + 타임스탬프 백업 저장

Example:
  go run ./cmd/demandprep preprocess --mode weekly
  go run ./cmd/demandprep preprocess --mode daily --path ./sales.csv --dry-run --output /tmp/out.csv`,
	RunE: runPreprocess,
}

var (
	preprocessMode   string
	preprocessPath   string
	preprocessOutput string
	preprocessDryRun bool
)

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().StringVar(&preprocessMode, "mode", "weekly", "input format (weekly|daily)")
	preprocessCmd.Flags().StringVar(&preprocessPath, "path", "", "CSV file or directory (default: DATA_RAW_DIR)")
	preprocessCmd.Flags().StringVar(&preprocessOutput, "output", "", "additionally write the result to this CSV")
	preprocessCmd.Flags().BoolVar(&preprocessDryRun, "dry-run", false, "do not update processed history")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	mode, err := contracts.ParseMode(preprocessMode)
	if err != nil {
		return err
	}
	if mode == contracts.ModePrediction {
		return fmt.Errorf("prediction mode takes a JSON payload, use the prepare command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	path := preprocessPath
	if path == "" {
		path = a.cfg.Paths.RawDir
	}

	res, err := a.orch.LoadPath(ctx, path, pipeline.Request{
		Mode:        mode,
		OutputPath:  preprocessOutput,
		SkipPersist: preprocessDryRun,
	})
	if res != nil {
		PrintRunSummary(res.Summary)
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("%d rows processed", res.Summary.Rows))
	return nil
}
