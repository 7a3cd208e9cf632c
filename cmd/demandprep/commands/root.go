package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "demandprep",
	Short: "수요 예측 피처 전처리 파이프라인",
	Long: `demandprep Unified CLI

판매 데이터(주간/일간)를 정규화하고 예측 모델용 피처를 생성합니다.
S0 Ingest → S1 Clean → S2 Encode → S3 Features → S4 Merge → S5 TimeSeries → S6 Persist

Usage:
  go run ./cmd/demandprep [command]

Examples:
  go run ./cmd/demandprep preprocess --mode weekly --path ./data/historical/raw
  go run ./cmd/demandprep prepare --input request.json --output features.csv
  go run ./cmd/demandprep split --by halves
  go run ./cmd/demandprep api`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// flags win over .env / environment
		if cmd.Flags().Changed("env") {
			os.Setenv("ENV", env)
		}
		if configFile != "" {
			os.Setenv("PIPELINE_CONFIG", configFile)
		}
		if verbose {
			os.Setenv("LOG_LEVEL", "debug")
			os.Setenv("LOG_FORMAT", "console")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "pipeline parameter YAML (default: PIPELINE_CONFIG or built-in)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
