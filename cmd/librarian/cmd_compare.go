package main

import (
	"fmt"
	"strings"

	"github.com/galeep/plugin-librarian/pkg/query"
	"github.com/galeep/plugin-librarian/pkg/report"
)

// parseSelectors parses a comma-separated list of "marketplace" or
// "marketplace/plugin" entries into query.Selector values.
func parseSelectors(csv string) []query.Selector {
	var out []query.Selector
	for _, entry := range strings.Split(csv, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if m, p, found := strings.Cut(entry, "/"); found {
			out = append(out, query.Selector{Marketplace: m, Plugin: p})
		} else {
			out = append(out, query.Selector{Marketplace: entry})
		}
	}
	return out
}

func cmdCompare(args []string) error {
	if hasFlag(args, "help") || hasFlag(args, "-h") || hasFlag(args, "--help") {
		printCompareUsage()
		return nil
	}

	reportPath := parseFlag(args, "--report=")
	targetCSV := parseFlag(args, "--target=")
	referenceCSV := parseFlag(args, "--reference=")
	if reportPath == "" || targetCSV == "" || referenceCSV == "" {
		printCompareUsage()
		return fmt.Errorf("compare: --report, --target, and --reference are required")
	}

	r, err := report.Load(reportPath)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	res := query.Compare(r, parseSelectors(targetCSV), parseSelectors(referenceCSV))
	printCompareResult(res, hasFlag(args, "--list"))
	return nil
}

func printCompareResult(res query.CompareResult, list bool) {
	fmt.Printf("redundant-with-reference: %d\n", res.Counts[query.RedundantWithReference])
	fmt.Printf("redundant-internal:       %d\n", res.Counts[query.RedundantInternal])
	fmt.Printf("novel:                    %d\n", res.Counts[query.Novel])
	if list {
		for _, cf := range res.Classified {
			fmt.Printf("  [%s] %s/%s/%s\n", cf.Classification, cf.File.Marketplace, cf.File.Plugin, cf.File.Path)
		}
	}
}

func printCompareUsage() {
	fmt.Println(`librarian compare - classify a target file set against a reference file set

Usage:
  librarian compare --report=FILE --target=SELECTORS --reference=SELECTORS [--list]

SELECTORS is a comma-separated list of "marketplace" or "marketplace/plugin"
entries. --list prints the per-file classification in addition to the counts.`)
}
