package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/demandprep/internal/contracts"
)

// mappingsCmd represents the mappings command
var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "범주형 코드 매핑 조회",
}

var mappingsShowCmd = &cobra.Command{
	Use:   "show [feature...]",
	Short: "저장된 매핑 출력 (기본: 설정된 전체 feature)",
	Long: `영속 매핑(raw value → code)을 코드 순서로 출력합니다.

Example:
  go run ./cmd/demandprep mappings show
  go run ./cmd/demandprep mappings show category`,
	RunE: runMappingsShow,
}

func init() {
	rootCmd.AddCommand(mappingsCmd)
	mappingsCmd.AddCommand(mappingsShowCmd)
}

func runMappingsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	features := args
	if len(features) == 0 {
		features = a.pipeCfg.Encoding.Features
	}

	for _, feature := range features {
		m, err := a.mappings.Load(ctx, feature)
		if errors.Is(err, contracts.ErrMappingNotFound) {
			PrintWarning(fmt.Sprintf("%s: no mapping stored yet", feature))
			continue
		}
		if err != nil {
			return err
		}

		values := make([]string, 0, len(m))
		for v := range m {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool { return m[values[i]] < m[values[j]] })

		fmt.Println()
		fmt.Printf("%s (%d codes)\n", feature, len(m))
		widths := []int{6, 40}
		PrintTableHeader([]string{"CODE", "VALUE"}, widths)
		for _, v := range values {
			PrintTableRow([]string{fmt.Sprint(m[v]), v}, widths)
		}
	}
	return nil
}
