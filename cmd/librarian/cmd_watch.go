package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/galeep/plugin-librarian/pkg/cache"
	"github.com/galeep/plugin-librarian/pkg/config"
	"github.com/galeep/plugin-librarian/pkg/discover"
	"github.com/galeep/plugin-librarian/pkg/scan"
	"github.com/galeep/plugin-librarian/pkg/watch"
)

func cmdWatch(args []string) error {
	if hasFlag(args, "help") || hasFlag(args, "-h") || hasFlag(args, "--help") {
		printWatchUsage()
		return nil
	}

	root := parseFlag(args, "--root=")
	out := parseFlag(args, "--out=")
	if root == "" || out == "" {
		printWatchUsage()
		return fmt.Errorf("watch: --root and --out are required")
	}

	fileCfg, err := config.Load(parseFlag(args, "--config="))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	cfg := fileCfg.ToScanConfig()

	if cachePath := parseFlag(args, "--cache="); cachePath != "" {
		c, err := cache.Open(cachePath)
		if err != nil {
			return fmt.Errorf("watch: open cache: %w", err)
		}
		defer c.Close()
		cfg.Cache = c
	}

	src := discover.FSSource{Root: root}

	rescan := func(changed []string) error {
		res, err := scan.Run(context.Background(), src, cfg)
		if err != nil {
			return err
		}
		if err := res.Report.Save(out); err != nil {
			return err
		}
		fmt.Printf("rescanned after %d change(s): %d clusters, confidence=%s\n",
			len(changed), res.Report.Summary.UniqueClusters, res.Report.Metadata.Confidence)
		return nil
	}

	debounce := watch.DefaultDebounceDelay
	if v := parseFlag(args, "--debounce="); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("watch: invalid --debounce: %w", err)
		}
		debounce = d
	}

	w, err := watch.New(watch.Config{Root: root, DebounceDelay: debounce}, rescan)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	if err := rescan(nil); err != nil {
		return fmt.Errorf("watch: initial scan: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	return w.Stop()
}

func printWatchUsage() {
	fmt.Println(`librarian watch - rescan a corpus whenever its files change

Usage:
  librarian watch --root=DIR --out=FILE [options]

Options:
  --root=DIR            Root directory of marketplace/plugin subtrees (required)
  --out=FILE             Report output path, overwritten on every rescan (required)
  --config=FILE          JSON config file overlaid on top of defaults
  --cache=FILE           Reuse a persistent signature cache across rescans
  --debounce=DURATION    Delay after the first change of a batch before rescanning, default 5s`)
}
