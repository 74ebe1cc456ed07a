package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// JSONAdapter reads a mention index stored as a JSON object of protein ID to row arrays
type JSONAdapter struct{}

// NewJSONAdapter creates a new JSON index adapter
func NewJSONAdapter() *JSONAdapter {
	return &JSONAdapter{}
}

// Name returns the adapter name
func (a *JSONAdapter) Name() string {
	return "json"
}

// CanHandle accepts .json files
func (a *JSONAdapter) CanHandle(path string, isDir bool) bool {
	return !isDir && hasExt(path, ".json")
}

// LoadMentions decodes the index. Each row must carry the required mention keys;
// extra keys are ignored.
func (a *JSONAdapter) LoadMentions(ctx context.Context, path string) (model.MentionIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var doc map[string][]map[string]model.Cell
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	index := make(model.MentionIndex, len(doc))
	rawKeys := make(map[string]string, len(doc))
	for proteinID, rows := range doc {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := strings.TrimSpace(proteinID)
		if other, dup := rawKeys[id]; dup {
			return nil, fmt.Errorf("%w: index keys %q and %q both name %s", model.ErrDuplicateProtein, other, proteinID, id)
		}
		rawKeys[id] = proteinID

		table := make([]model.RawMention, 0, len(rows))
		for i, row := range rows {
			canonical := make(map[string]string, len(row))
			keys := make([]string, 0, len(row))
			for key, cell := range row {
				col := canonicalColumn(key)
				canonical[col] = string(cell)
				keys = append(keys, col)
			}
			if err := requireColumns(keys, requiredMentionColumns); err != nil {
				return nil, fmt.Errorf("protein %s row %d: %w", id, i, err)
			}
			table = append(table, mentionFromRow(canonical))
		}
		index[id] = table
	}

	return index, nil
}
