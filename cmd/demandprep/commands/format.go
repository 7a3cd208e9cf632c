package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/demandprep/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintRunSummary prints the header and per-stage table of a pipeline run
func PrintRunSummary(s contracts.RunSummary) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Pipeline run (%s)\n", s.Mode)
	PrintSeparator()
	PrintKeyValue("Run ID", s.RunID, 11)
	PrintKeyValue("Config", s.ConfigHash, 11)
	PrintKeyValue("Started", time.Unix(s.StartedAt, 0).Format(time.RFC3339), 11)
	PrintKeyValue("Rows", fmt.Sprintf("%d (%d products)", s.Rows, s.Products), 11)
	PrintKeyValue("History", fmt.Sprintf("merged=%v", s.Merged), 11)
	if s.OutputPath != "" {
		PrintKeyValue("Output", s.OutputPath, 11)
	}
	if s.BackupPath != "" {
		PrintKeyValue("Backup", s.BackupPath, 11)
	}
	PrintSeparator()

	widths := []int{14, 6, 8, 8, 10}
	PrintTableHeader([]string{"STAGE", "OK", "IN", "OUT", "MS"}, widths)
	for _, r := range s.Results {
		ok := "✓"
		if !r.Success {
			ok = "✗"
		}
		PrintTableRow([]string{
			string(r.Stage), ok,
			fmt.Sprint(r.InputCount), fmt.Sprint(r.OutputCount), fmt.Sprint(r.Duration),
		}, widths)
		if r.Error != "" {
			fmt.Printf("   ↳ %s\n", r.Error)
		}
	}
	PrintDoubleSeparator()
}
