package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ppiankov/ignoromenot/internal/model"
	"golang.org/x/sync/errgroup"
)

// DirectoryAdapter reads a mention index stored as one <protein_id>.tsv file per protein
type DirectoryAdapter struct {
	workers int
}

// NewDirectoryAdapter creates a directory adapter reading up to workers files at once
func NewDirectoryAdapter(workers int) *DirectoryAdapter {
	if workers <= 0 {
		workers = 1
	}
	return &DirectoryAdapter{workers: workers}
}

// Name returns the adapter name
func (a *DirectoryAdapter) Name() string {
	return "directory"
}

// CanHandle accepts directories
func (a *DirectoryAdapter) CanHandle(path string, isDir bool) bool {
	return isDir
}

// LoadMentions reads every .tsv/.csv file in the directory concurrently.
// The file name without extension is the protein ID.
func (a *DirectoryAdapter) LoadMentions(ctx context.Context, path string) (model.MentionIndex, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var (
		mu    sync.Mutex
		index = make(model.MentionIndex, len(entries))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	files := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !hasExt(name, ".tsv", ".csv") || strings.HasPrefix(name, ".") {
			continue
		}
		proteinID := strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name)))
		if other, dup := files[proteinID]; dup {
			_ = g.Wait()
			return nil, fmt.Errorf("%w: files %s and %s both name %s", model.ErrDuplicateProtein, other, name, proteinID)
		}
		files[proteinID] = name
		file := filepath.Join(path, name)

		g.Go(func() error {
			rows, err := readDelimited(gctx, file, requiredMentionColumns)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			table := make([]model.RawMention, 0, len(rows))
			for _, row := range rows {
				table = append(table, mentionFromRow(row.Fields))
			}

			mu.Lock()
			index[proteinID] = table
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return index, nil
}
