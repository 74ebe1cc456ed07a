package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ppiankov/ignoromenot/internal/filter"
	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/source"
	"go.uber.org/zap"
)

// ErrNoSource is returned when a pass is requested before any corpus was loaded
var ErrNoSource = errors.New("no source loaded")

// Session holds one resident corpus and the last consistent snapshot computed from it.
// Apply and Reload are serialized; published snapshots are never modified.
type Session struct {
	mu       sync.Mutex
	pipeline *Pipeline
	loader   *source.Loader
	logger   *zap.Logger

	proteinsPath string
	mentionsPath string

	corpus  *source.Corpus
	current *model.Snapshot
	bounds  model.Bounds
}

// NewSession creates an empty session
func NewSession(p *Pipeline, loader *source.Loader, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		pipeline: p,
		loader:   loader,
		logger:   logger,
	}
}

// Load reads the artifacts and publishes the unfiltered view. A failure leaves the
// session unchanged.
func (s *Session) Load(ctx context.Context, proteinsPath, mentionsPath string) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	corpus, err := s.loader.Load(ctx, proteinsPath, mentionsPath)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.pipeline.Run(ctx, corpus, model.FilterSpec{})
	if err != nil {
		return nil, fmt.Errorf("initial pass: %w", err)
	}

	s.proteinsPath = proteinsPath
	s.mentionsPath = mentionsPath
	s.corpus = corpus
	s.current = snapshot
	s.bounds = filter.ComputeBounds(corpus.Proteins, corpus.Index)

	return snapshot, nil
}

// Apply runs a pass with spec and publishes the result. On failure it returns the
// previous snapshot, or the unfiltered view when none exists, marked as a fallback,
// together with the error.
func (s *Session) Apply(ctx context.Context, spec model.FilterSpec) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.corpus == nil {
		return nil, ErrNoSource
	}

	snapshot, err := s.pipeline.Run(ctx, s.corpus, spec)
	if err == nil {
		s.current = snapshot
		return snapshot, nil
	}

	fallbackTotal.Inc()
	s.logger.Warn("pass failed, returning previous snapshot", zap.Error(err))

	previous := s.current
	if previous == nil {
		unfiltered, uerr := s.pipeline.Run(context.WithoutCancel(ctx), s.corpus, model.FilterSpec{})
		if uerr != nil {
			return nil, errors.Join(err, uerr)
		}
		s.current = unfiltered
		previous = unfiltered
	}

	fallback := *previous
	fallback.Fallback = true
	return &fallback, err
}

// Reload re-reads the artifacts and re-applies the current specification.
// On failure the previous corpus and snapshot stay in place.
func (s *Session) Reload(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.corpus == nil {
		return nil, ErrNoSource
	}

	corpus, err := s.loader.Load(ctx, s.proteinsPath, s.mentionsPath)
	if err != nil {
		reloadTotal.WithLabelValues("error").Inc()
		s.logger.Error("reload failed, keeping previous corpus", zap.Error(err))
		return nil, err
	}

	var spec model.FilterSpec
	if s.current != nil {
		spec = s.current.Spec
	}

	snapshot, err := s.pipeline.Run(ctx, corpus, spec)
	if err != nil {
		reloadTotal.WithLabelValues("error").Inc()
		s.logger.Error("pass after reload failed, keeping previous corpus", zap.Error(err))
		return nil, err
	}

	s.corpus = corpus
	s.current = snapshot
	s.bounds = filter.ComputeBounds(corpus.Proteins, corpus.Index)
	reloadTotal.WithLabelValues("ok").Inc()

	s.logger.Info("source reloaded", zap.String("fingerprint", corpus.Info.Fingerprint))
	return snapshot, nil
}

// Current returns the last published snapshot, or nil before Load
func (s *Session) Current() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Bounds returns the data-derived widget bounds of the resident corpus
func (s *Session) Bounds() (model.Bounds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.corpus == nil {
		return model.Bounds{}, ErrNoSource
	}
	return s.bounds, nil
}

// Paths returns the artifact paths of the resident corpus
func (s *Session) Paths() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proteinsPath, s.mentionsPath
}
