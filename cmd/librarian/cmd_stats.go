package main

import (
	"fmt"
	"strconv"

	"github.com/galeep/plugin-librarian/pkg/query"
	"github.com/galeep/plugin-librarian/pkg/report"
)

func cmdStats(args []string) error {
	if hasFlag(args, "help") || hasFlag(args, "-h") || hasFlag(args, "--help") {
		printStatsUsage()
		return nil
	}

	reportPath := parseFlag(args, "--report=")
	if reportPath == "" {
		printStatsUsage()
		return fmt.Errorf("stats: --report is required")
	}

	topN := 10
	if v := parseFlag(args, "--top="); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("stats: invalid --top: %w", err)
		}
		topN = n
	}

	r, err := report.Load(reportPath)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	s := query.GetStats(r, topN)
	fmt.Printf("total files scanned:  %d\n", s.TotalFilesScanned)
	fmt.Printf("unique clusters:      %d\n", s.UniqueClusters)
	fmt.Printf("unique marketplaces:  %d\n", s.UniqueMarketplaces)
	for t, tc := range s.ByType {
		fmt.Printf("  %-18s clusters=%d files=%d\n", t, tc.Clusters, tc.Files)
	}
	fmt.Println("top filenames by cluster occurrence:")
	for _, fo := range s.TopFilenames {
		fmt.Printf("  %-30s %d\n", fo.Filename, fo.ClusterCount)
	}
	return nil
}

func printStatsUsage() {
	fmt.Println(`librarian stats - print report summary statistics

Usage:
  librarian stats --report=FILE [--top=N]`)
}
