// Package scan orchestrates the full pipeline: tokenize, MinHash, LSH
// index, cluster assembly, sanity check, and report construction.
//
// File discovery itself is an external collaborator — scan consumes
// whatever a Source implementation produces and owns everything from
// there on.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/galeep/plugin-librarian/pkg/cache"
	"github.com/galeep/plugin-librarian/pkg/cluster"
	"github.com/galeep/plugin-librarian/pkg/lsh"
	"github.com/galeep/plugin-librarian/pkg/minhash"
	"github.com/galeep/plugin-librarian/pkg/model"
	"github.com/galeep/plugin-librarian/pkg/report"
	"github.com/galeep/plugin-librarian/pkg/sanity"
	"github.com/galeep/plugin-librarian/pkg/shingle"
)

// SourceFile is one candidate document as produced by a Source.
type SourceFile struct {
	Marketplace string
	Plugin      string
	Path        string // relative to the marketplace root
	Content     []byte
}

// Source discovers scan input. The core never walks a filesystem itself —
// that responsibility, plus anything about how marketplaces/plugins are
// laid out on disk, belongs to the caller.
type Source interface {
	Scan(ctx context.Context) ([]SourceFile, error)
}

// Config configures a scan run. Zero values fall back to the documented
// defaults.
type Config struct {
	ShingleSize      int
	NumPermutations  int
	Seed             int64
	Threshold        float64
	MinContentLength int
	Extensions       []string // e.g. [".md"]; nil means [".md"], a non-nil empty slice allows everything
	// OfficialMarketplaces marks marketplaces whose files get IsOfficial =
	// true. A marketplace matches if it equals an entry, or an entry ends
	// in "/" and the marketplace has that entry as a prefix.
	OfficialMarketplaces []string
	Workers              int

	// Cache, when non-nil, is consulted before tokenizing/MinHashing each
	// file and populated with any signature it had to compute. A nil Cache
	// makes every run cold, which is correct and sufficient for a one-off
	// scan.
	Cache *cache.Cache
}

func (c Config) defaults() Config {
	if c.ShingleSize <= 0 {
		c.ShingleSize = shingle.DefaultSize
	}
	if c.NumPermutations <= 0 {
		c.NumPermutations = minhash.DefaultPermutations
	}
	if c.Threshold <= 0 {
		c.Threshold = 0.70
	}
	if c.MinContentLength <= 0 {
		c.MinContentLength = 100
	}
	if c.Extensions == nil {
		c.Extensions = []string{".md"}
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	return c
}

// Result bundles the produced report with counted scan diagnostics.
type Result struct {
	Report        *report.Report
	FilesSeen     int
	FilesSkipped  int
	FilesIndexed  int
}

// Run executes the full pipeline against every file produced by source.
func Run(ctx context.Context, source Source, cfg Config) (*Result, error) {
	cfg = cfg.defaults()

	raw, err := source.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: source: %w", err)
	}

	eligible := make([]SourceFile, 0, len(raw))
	skipped := 0
	for _, f := range raw {
		if !hasAllowedExtension(f.Path, cfg.Extensions) {
			skipped++
			continue
		}
		if len(f.Content) < cfg.MinContentLength {
			skipped++
			continue
		}
		eligible = append(eligible, f)
	}

	// Canonical order is (marketplace, plugin, path); file_index is
	// assigned only after sorting, so the report is independent of
	// traversal order.
	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Marketplace != b.Marketplace {
			return a.Marketplace < b.Marketplace
		}
		if a.Plugin != b.Plugin {
			return a.Plugin < b.Plugin
		}
		return a.Path < b.Path
	})

	files := make([]model.FileRecord, len(eligible))
	for i, f := range eligible {
		official := isOfficial(f.Marketplace, cfg.OfficialMarketplaces)
		files[i] = model.NewFileRecord(i, f.Marketplace, f.Plugin, f.Path, filepath.Base(f.Path), official)
	}

	sigs, err := computeSignatures(ctx, eligible, cfg, cfg.Cache)
	if err != nil {
		return nil, err
	}

	params := lsh.ChooseParams(cfg.NumPermutations, cfg.Threshold)
	index := lsh.New(params)
	for i := range files {
		if sig, ok := sigs[i]; ok {
			if err := index.Insert(i, sig); err != nil {
				return nil, fmt.Errorf("scan: index insert: %w", err)
			}
		}
	}

	clusters, err := cluster.Build(files, sigs, index, cfg.Threshold)
	if err != nil {
		return nil, fmt.Errorf("scan: cluster build: %w", err)
	}

	san := sanity.Check(sanity.FromReport(files, clusters), sanity.Config{})

	rep := report.Build(files, clusters, cfg.Threshold, cfg.NumPermutations, cfg.ShingleSize, san.Warnings, san.Confidence)

	return &Result{
		Report:       rep,
		FilesSeen:    len(raw),
		FilesSkipped: skipped,
		FilesIndexed: len(files),
	}, nil
}

// computeSignatures tokenizes and MinHashes every file in parallel, with no
// shared mutable state between workers; results are gathered
// deterministically by file_index before indexing.
func computeSignatures(ctx context.Context, eligible []SourceFile, cfg Config, sigCache *cache.Cache) (map[int]minhash.Signature, error) {
	tok := shingle.New(cfg.ShingleSize)
	builder := minhash.New(cfg.NumPermutations, cfg.Seed)

	sigs := make([]minhash.Signature, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i := range eligible {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			digest := contentHash(eligible[i].Content)

			if sigCache != nil {
				if entry, ok := sigCache.Get(digest, cfg.NumPermutations, cfg.Seed); ok {
					sigs[i] = entry.Signature
					return nil
				}
			}

			set := tok.Shingles(string(eligible[i].Content))
			if len(set) == 0 {
				// Shingles never returns an empty set for non-empty input; a
				// file reaching this point with an empty set is a tokenizer
				// contract violation, not a case to pass through silently —
				// a signed-count mismatch downstream is much harder to
				// trace back to its cause than an error here.
				return fmt.Errorf("scan: %s/%s/%s: tokenizer returned empty shingle set for non-empty content",
					eligible[i].Marketplace, eligible[i].Plugin, eligible[i].Path)
			}
			sig := builder.Signature(set)
			sigs[i] = sig

			if sigCache != nil {
				if err := sigCache.Put(digest, sig, cfg.NumPermutations, cfg.Seed); err != nil {
					return fmt.Errorf("scan: cache put: %w", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan: tokenize/minhash: %w", err)
	}

	out := make(map[int]minhash.Signature, len(eligible))
	for i, s := range sigs {
		if s != nil {
			out[i] = s
		}
	}
	return out, nil
}

// contentHash identifies a file's content for cache lookups, independent
// of its path or marketplace — a file moved or renamed between runs with
// unchanged bytes still hits the cache.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func hasAllowedExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	lower := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == lower {
			return true
		}
	}
	return false
}

func isOfficial(marketplace string, allowList []string) bool {
	for _, entry := range allowList {
		if entry == marketplace {
			return true
		}
		if strings.HasSuffix(entry, "/") && strings.HasPrefix(marketplace, entry) {
			return true
		}
	}
	return false
}
