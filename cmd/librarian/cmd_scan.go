package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/galeep/plugin-librarian/pkg/cache"
	"github.com/galeep/plugin-librarian/pkg/config"
	"github.com/galeep/plugin-librarian/pkg/discover"
	"github.com/galeep/plugin-librarian/pkg/scan"
)

func cmdScan(args []string) error {
	if hasFlag(args, "help") || hasFlag(args, "-h") || hasFlag(args, "--help") {
		printScanUsage()
		return nil
	}

	root := parseFlag(args, "--root=")
	out := parseFlag(args, "--out=")
	if root == "" || out == "" {
		printScanUsage()
		return fmt.Errorf("scan: --root and --out are required")
	}

	fileCfg, err := config.Load(parseFlag(args, "--config="))
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	cfg := fileCfg.ToScanConfig()

	if v := parseFlag(args, "--threshold="); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("scan: invalid --threshold: %w", err)
		}
		cfg.Threshold = f
	}
	if v := parseFlag(args, "--permutations="); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("scan: invalid --permutations: %w", err)
		}
		cfg.NumPermutations = n
	}
	if v := parseFlag(args, "--shingle-size="); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("scan: invalid --shingle-size: %w", err)
		}
		cfg.ShingleSize = n
	}
	if v := parseFlag(args, "--official="); v != "" {
		cfg.OfficialMarketplaces = strings.Split(v, ",")
	}

	if cachePath := parseFlag(args, "--cache="); cachePath != "" {
		c, err := cache.Open(cachePath)
		if err != nil {
			return fmt.Errorf("scan: open cache: %w", err)
		}
		defer c.Close()
		cfg.Cache = c
	}

	src := discover.FSSource{Root: root}

	res, err := scan.Run(context.Background(), src, cfg)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if err := res.Report.Save(out); err != nil {
		return fmt.Errorf("scan: save report: %w", err)
	}

	fmt.Printf("scanned %d files (%d skipped, %d indexed); %d clusters, confidence=%s\n",
		res.FilesSeen, res.FilesSkipped, res.FilesIndexed,
		res.Report.Summary.UniqueClusters, res.Report.Metadata.Confidence)
	for _, w := range res.Report.Metadata.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}

func printScanUsage() {
	fmt.Println(`librarian scan - scan a corpus and write a report

Usage:
  librarian scan --root=DIR --out=FILE [options]

Options:
  --root=DIR            Root directory of marketplace/plugin subtrees (required)
  --out=FILE             Report output path (required)
  --config=FILE          JSON config file overlaid on top of defaults
  --threshold=FLOAT      Similarity threshold, default 0.70
  --permutations=N       MinHash permutation count, default 128
  --shingle-size=N       Shingle width in words, default 3
  --official=a,b,c       Comma-separated marketplace allow-list for is_official
  --cache=FILE           Reuse a persistent signature cache across runs`)
}
