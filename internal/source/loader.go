package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/ignoromenot/internal/cache"
	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/validate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Corpus is the resident, immutable source data of a session
type Corpus struct {
	Proteins []model.Protein
	Index    model.MentionIndex
	Info     model.SourceInfo
}

// ExistenceLevels returns the distinct existence levels of the protein table in
// first-seen order, including labels kept verbatim
func (c *Corpus) ExistenceLevels() []model.ExistenceLevel {
	seen := make(map[model.ExistenceLevel]bool)
	var levels []model.ExistenceLevel
	for _, p := range c.Proteins {
		if !seen[p.ExistenceLevel] {
			seen[p.ExistenceLevel] = true
			levels = append(levels, p.ExistenceLevel)
		}
	}
	return levels
}

// Loader reads, normalizes and caches the two input artifacts
type Loader struct {
	registry   *Registry
	cache      cache.Cache
	classifier *validate.ExistenceClassifier
	ttl        time.Duration
	logger     *zap.Logger
}

// NewLoader creates a loader. A nil cache disables caching; a nil logger discards logs.
func NewLoader(cfg *model.Config, c cache.Cache, logger *zap.Logger) *Loader {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loader{
		registry:   NewRegistry(cfg.Source.LoadWorkers),
		cache:      c,
		classifier: validate.NewExistenceClassifier(&cfg.Existence),
		ttl:        cfg.Cache.DiskTTL,
		logger:     logger,
	}
}

// Load reads both artifacts. Any failure is a *model.SourceLoadError naming the artifact.
func (l *Loader) Load(ctx context.Context, proteinsPath, mentionsPath string) (*Corpus, error) {
	proteinsStamp, err := stamp(proteinsPath)
	if err != nil {
		return nil, &model.SourceLoadError{Path: proteinsPath, Err: err}
	}
	mentionsStamp, err := stamp(mentionsPath)
	if err != nil {
		return nil, &model.SourceLoadError{Path: mentionsPath, Err: err}
	}

	var (
		rows  []RawProtein
		index model.MentionIndex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = l.loadProteins(gctx, proteinsPath, proteinsStamp)
		if err != nil {
			return &model.SourceLoadError{Path: proteinsPath, Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		index, err = l.loadMentions(gctx, mentionsPath, mentionsStamp)
		if err != nil {
			return &model.SourceLoadError{Path: mentionsPath, Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	proteins, err := l.toProteins(rows)
	if err != nil {
		return nil, &model.SourceLoadError{Path: proteinsPath, Err: err}
	}

	orphans := countOrphans(proteins, index)
	if orphans > 0 {
		l.logger.Info("mention index keys without a protein row are ignored",
			zap.Int("orphans", orphans),
			zap.String("path", mentionsPath),
		)
	}

	corpus := &Corpus{
		Proteins: proteins,
		Index:    index,
		Info: model.SourceInfo{
			ProteinsPath: proteinsPath,
			MentionsPath: mentionsPath,
			Fingerprint:  cache.CacheKey(proteinsStamp.key(), mentionsStamp.key()),
			LoadedAt:     time.Now(),
			Proteins:     len(proteins),
			IndexedKeys:  len(index),
			Orphans:      orphans,
		},
	}

	l.logger.Info("source loaded",
		zap.Int("proteins", len(proteins)),
		zap.Int("indexed_keys", len(index)),
	)

	return corpus, nil
}

func (l *Loader) loadProteins(ctx context.Context, path string, s artifactStamp) ([]RawProtein, error) {
	key := cache.CacheKey("protein-rows", s.key())
	if data, ok := l.cache.Get(key); ok {
		var rows []RawProtein
		if err := json.Unmarshal(data, &rows); err == nil {
			l.logger.Debug("protein table cache hit", zap.String("path", path))
			return rows, nil
		}
	}

	adapter, ok := l.registry.FindProteinAdapter(path, s.isDir)
	if !ok {
		return nil, model.ErrUnsupportedFormat
	}
	rows, err := adapter.LoadProteins(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", adapter.Name(), err)
	}

	l.store(key, rows)
	return rows, nil
}

func (l *Loader) loadMentions(ctx context.Context, path string, s artifactStamp) (model.MentionIndex, error) {
	key := cache.CacheKey("mentions", s.key())
	if data, ok := l.cache.Get(key); ok {
		var index model.MentionIndex
		if err := json.Unmarshal(data, &index); err == nil {
			l.logger.Debug("mention index cache hit", zap.String("path", path))
			return index, nil
		}
	}

	adapter, ok := l.registry.FindMentionAdapter(path, s.isDir)
	if !ok {
		return nil, model.ErrUnsupportedFormat
	}
	index, err := adapter.LoadMentions(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", adapter.Name(), err)
	}

	l.store(key, index)
	return index, nil
}

func (l *Loader) store(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := l.cache.Set(key, data, l.ttl); err != nil {
		l.logger.Warn("cache write failed", zap.Error(err))
	}
}

// toProteins converts raw rows into typed proteins in source order
func (l *Loader) toProteins(rows []RawProtein) ([]model.Protein, error) {
	proteins := make([]model.Protein, 0, len(rows))
	seen := make(map[string]int, len(rows))
	unknown := make(map[string]int)

	for _, raw := range rows {
		line, row := raw.Line, raw.Fields

		id := strings.TrimSpace(row[colProteinID])
		if id == "" {
			return nil, fmt.Errorf("line %d: %w: empty %s", line, model.ErrMissingColumn, colProteinID)
		}
		if first, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s on lines %d and %d", model.ErrDuplicateProtein, id, first, line)
		}
		seen[id] = line

		reviewed, err := model.ParseReviewYear(row[colLastReviewed])
		if err != nil {
			return nil, fmt.Errorf("line %d: %s %q: %w", line, colLastReviewed, row[colLastReviewed], err)
		}

		level, known := l.classifier.Classify(row[colExistence])
		if !known {
			unknown[string(level)]++
		}

		p := model.Protein{
			ID:             id,
			ExistenceLevel: level,
			LastReviewed:   reviewed,
			GeneName:       strings.TrimSpace(row[colGeneName]),
			NCBIGene:       strings.TrimSpace(row[colNCBIGene]),
			Description:    strings.TrimSpace(row[colDescription]),
			Aliases:        strings.TrimSpace(row[colAliases]),
		}
		for col, value := range row {
			if knownProteinColumns[col] || value == "" {
				continue
			}
			if p.Extra == nil {
				p.Extra = make(map[string]string)
			}
			p.Extra[col] = value
		}

		proteins = append(proteins, p)
	}

	if len(unknown) > 0 {
		labels := make([]string, 0, len(unknown))
		for label := range unknown {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		l.logger.Warn("unrecognized existence labels kept verbatim", zap.Strings("labels", labels))
	}

	return proteins, nil
}

func countOrphans(proteins []model.Protein, index model.MentionIndex) int {
	ids := make(map[string]struct{}, len(proteins))
	for _, p := range proteins {
		ids[p.ID] = struct{}{}
	}

	orphans := 0
	for key := range index {
		if _, ok := ids[key]; !ok {
			orphans++
		}
	}
	return orphans
}

// artifactStamp identifies one version of an artifact on disk
type artifactStamp struct {
	path    string
	isDir   bool
	size    int64
	modTime time.Time
}

func (s artifactStamp) key() string {
	return s.path + "|" + strconv.FormatInt(s.size, 10) + "|" + strconv.FormatInt(s.modTime.UnixNano(), 10)
}

// stamp fingerprints a file, or for a directory its entry sizes and newest mtime
func stamp(path string) (artifactStamp, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return artifactStamp{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return artifactStamp{}, err
	}

	s := artifactStamp{path: abs, isDir: info.IsDir(), size: info.Size(), modTime: info.ModTime()}
	if !s.isDir {
		return s, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return artifactStamp{}, err
	}
	s.size = 0
	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		s.size += fi.Size()
		if fi.ModTime().After(s.modTime) {
			s.modTime = fi.ModTime()
		}
	}
	return s, nil
}
