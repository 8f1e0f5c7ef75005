package main

import (
	"fmt"

	"github.com/galeep/plugin-librarian/pkg/query"
	"github.com/galeep/plugin-librarian/pkg/report"
)

func cmdWhere(args []string) error {
	if hasFlag(args, "help") || hasFlag(args, "-h") || hasFlag(args, "--help") {
		printWhereUsage()
		return nil
	}

	reportPath := parseFlag(args, "--report=")
	pattern := ""
	if pos := positional(args); len(pos) > 0 {
		pattern = pos[0]
	}
	if reportPath == "" || pattern == "" {
		printWhereUsage()
		return fmt.Errorf("where: --report and a pattern are required")
	}

	r, err := report.Load(reportPath)
	if err != nil {
		return fmt.Errorf("where: %w", err)
	}

	res := query.Where(r, pattern)
	for _, c := range res.Clusters {
		fmt.Printf("cluster %d (%s, size=%d, official=%v): %s\n", c.ClusterID, c.Type, c.Size, c.HasOfficial, c.Marketplaces)
		for _, loc := range c.Locations {
			fmt.Printf("  %s/%s/%s\n", loc.Marketplace, loc.Plugin, loc.Path)
		}
	}
	for _, f := range res.Unclustered {
		fmt.Printf("unclustered: %s/%s/%s\n", f.Marketplace, f.Plugin, f.Path)
	}
	return nil
}

func printWhereUsage() {
	fmt.Println(`librarian where - find clusters or unclustered files matching a pattern

Usage:
  librarian where --report=FILE PATTERN

PATTERN is a glob (if it contains *, ?, or [) matched against filenames and
paths, otherwise a substring matched against paths and basenames.`)
}
