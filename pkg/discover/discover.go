// Package discover implements the on-disk Source the scan pipeline
// consumes: a directory tree laid out as root/marketplace/plugin/... is
// walked and every regular file under it is yielded as one scan.SourceFile.
//
// File discovery is explicitly out of scan's scope; this package is one
// concrete, swappable implementation of it.
package discover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/galeep/plugin-librarian/pkg/scan"
)

// FSSource walks Root, treating its immediate subdirectories as
// marketplaces and each marketplace's immediate subdirectories as plugins.
type FSSource struct {
	Root string
}

// Scan implements scan.Source.
func (s FSSource) Scan(ctx context.Context) ([]scan.SourceFile, error) {
	marketplaceEntries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("discover: read root %s: %w", s.Root, err)
	}

	var out []scan.SourceFile
	for _, me := range marketplaceEntries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if !me.IsDir() {
			continue
		}
		marketplace := me.Name()
		marketplaceRoot := filepath.Join(s.Root, marketplace)

		pluginEntries, err := os.ReadDir(marketplaceRoot)
		if err != nil {
			return nil, fmt.Errorf("discover: read marketplace %s: %w", marketplace, err)
		}
		for _, pe := range pluginEntries {
			if !pe.IsDir() {
				continue
			}
			plugin := pe.Name()
			pluginRoot := filepath.Join(marketplaceRoot, plugin)

			err := filepath.Walk(pluginRoot, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					return nil
				}
				content, readErr := os.ReadFile(path)
				if readErr != nil {
					return fmt.Errorf("discover: read %s: %w", path, readErr)
				}
				rel, relErr := filepath.Rel(marketplaceRoot, path)
				if relErr != nil {
					return relErr
				}
				out = append(out, scan.SourceFile{
					Marketplace: marketplace,
					Plugin:      plugin,
					Path:        filepath.ToSlash(rel),
					Content:     content,
				})
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
