package source

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// ProteinAdapter reads the protein table artifact
type ProteinAdapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can read the artifact at path
	CanHandle(path string, isDir bool) bool

	// LoadProteins returns the rows of the protein table in source order
	LoadProteins(ctx context.Context, path string) ([]RawProtein, error)
}

// MentionAdapter reads the mention index artifact
type MentionAdapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can read the artifact at path
	CanHandle(path string, isDir bool) bool

	// LoadMentions returns the raw mention table of every indexed protein
	LoadMentions(ctx context.Context, path string) (model.MentionIndex, error)
}

// RawProtein is a protein table row as read from the artifact
type RawProtein struct {
	Line   int               `json:"line"`   // Source line of the row; 1-based row position for databases
	Fields map[string]string `json:"fields"` // Cells keyed by canonical column name
}

// Registry manages artifact adapters
type Registry struct {
	proteins []ProteinAdapter
	mentions []MentionAdapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry(loadWorkers int) *Registry {
	registry := &Registry{}

	sqlite := NewSQLiteAdapter()
	registry.RegisterProteins(sqlite)
	registry.RegisterProteins(NewDelimitedAdapter())

	registry.RegisterMentions(sqlite)
	registry.RegisterMentions(NewJSONAdapter())
	registry.RegisterMentions(NewDirectoryAdapter(loadWorkers))

	return registry
}

// RegisterProteins adds a protein table adapter
func (r *Registry) RegisterProteins(adapter ProteinAdapter) {
	r.proteins = append(r.proteins, adapter)
}

// RegisterMentions adds a mention index adapter
func (r *Registry) RegisterMentions(adapter MentionAdapter) {
	r.mentions = append(r.mentions, adapter)
}

// FindProteinAdapter returns the first adapter that can read path
func (r *Registry) FindProteinAdapter(path string, isDir bool) (ProteinAdapter, bool) {
	for _, adapter := range r.proteins {
		if adapter.CanHandle(path, isDir) {
			return adapter, true
		}
	}
	return nil, false
}

// FindMentionAdapter returns the first adapter that can read path
func (r *Registry) FindMentionAdapter(path string, isDir bool) (MentionAdapter, bool) {
	for _, adapter := range r.mentions {
		if adapter.CanHandle(path, isDir) {
			return adapter, true
		}
	}
	return nil, false
}

// hasExt reports whether path ends in one of the extensions (case-insensitive)
func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
