package main

import (
	"fmt"

	"github.com/galeep/plugin-librarian/pkg/query"
	"github.com/galeep/plugin-librarian/pkg/report"
)

func cmdImpact(args []string) error {
	if hasFlag(args, "help") || hasFlag(args, "-h") || hasFlag(args, "--help") {
		printImpactUsage()
		return nil
	}

	reportPath := parseFlag(args, "--report=")
	targetCSV := parseFlag(args, "--target=")
	installedCSV := parseFlag(args, "--installed=")
	if reportPath == "" || targetCSV == "" || installedCSV == "" {
		printImpactUsage()
		return fmt.Errorf("impact: --report, --target, and --installed are required")
	}

	r, err := report.Load(reportPath)
	if err != nil {
		return fmt.Errorf("impact: %w", err)
	}

	res := query.Impact(r, parseSelectors(targetCSV), parseSelectors(installedCSV))
	printCompareResult(res, hasFlag(args, "--list"))
	fmt.Printf("novelty ratio: %.2f\n", res.NoveltyRatio())
	return nil
}

func printImpactUsage() {
	fmt.Println(`librarian impact - shorthand for compare against an installed set

Usage:
  librarian impact --report=FILE --target=SELECTORS --installed=SELECTORS [--list]`)
}
