package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/ignoromenot/internal/filter"
	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/source"
	"github.com/ppiankov/ignoromenot/internal/stats"
	"github.com/ppiankov/ignoromenot/internal/validate"
	"github.com/ppiankov/ignoromenot/internal/worker"
	"go.uber.org/zap"
)

// Pipeline runs one recomputation pass over a resident corpus
type Pipeline struct {
	calculator *stats.Calculator
	processor  *worker.MentionProcessor
	renderer   *Renderer
	config     *model.Config
	logger     *zap.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		calculator: stats.NewCalculator(),
		processor:  worker.NewMentionProcessor(cfg.Concurrency.Workers),
		renderer:   NewRenderer(cfg.Output),
		config:     cfg,
		logger:     logger,
	}
}

// Renderer returns the pipeline's output renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Run filters the corpus with spec and returns a consistent snapshot.
// Nothing is published unless every stage completes.
func (p *Pipeline) Run(ctx context.Context, corpus *source.Corpus, spec model.FilterSpec) (*model.Snapshot, error) {
	start := time.Now()

	if corpus == nil {
		return nil, ErrNoSource
	}

	// 0. Validate and freeze the filter selection
	if err := validate.Spec(spec, corpus.ExistenceLevels()...); err != nil {
		passTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	spec = spec.Clone()

	// 1. Protein-level filtering
	rows := filter.Proteins(corpus.Proteins, spec, p.config.Search.Fields)
	survivors := filter.Select(corpus.Proteins, rows)

	p.logger.Debug("protein filter applied",
		zap.Strings("options", filter.ActiveOptions(spec)),
		zap.Int("survivors", len(survivors)),
		zap.Int("proteins", len(corpus.Proteins)),
	)

	// 2. Mention-level filtering per surviving protein
	tables, err := p.filterMentions(ctx, corpus, survivors, spec)
	if err != nil {
		passTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("filter mentions: %w", err)
	}

	// 3. Aggregation
	mentions, warnings := aggregate(survivors, tables)
	for _, w := range warnings {
		p.logger.Warn("mention table skipped", zap.String("protein_id", w.ProteinID), zap.String("error", w.Message))
	}
	rowErrorsTotal.Add(float64(len(warnings)))

	// 4. Summary statistics
	summary := p.calculator.Calculate(survivors)

	snapshot := &model.Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Spec:      spec,
		Proteins:  survivors,
		Mentions:  mentions,
		Summary:   summary,
		Warnings:  warnings,
		Source:    corpus.Info,
	}

	passTotal.WithLabelValues("ok").Inc()
	passDuration.Observe(time.Since(start).Seconds())
	proteinsInView.Set(float64(summary.ProteinsInView))
	mentionsInView.Set(float64(summary.TotalMentions))

	p.logger.Info("pass complete",
		zap.String("snapshot", snapshot.ID),
		zap.Int("proteins", summary.ProteinsInView),
		zap.Int("mentions", summary.TotalMentions),
		zap.Int("warnings", len(warnings)),
		zap.Duration("took", time.Since(start)),
	)

	return snapshot, nil
}

// tableResult is one protein's filtered mentions or the coercion error that voided them
type tableResult struct {
	mentions []model.Mention
	err      error
}

// filterMentions runs coercion, truncation and mention filtering for every survivor,
// in parallel when more than one worker is configured. It returns only once every
// table is done.
func (p *Pipeline) filterMentions(ctx context.Context, corpus *source.Corpus, survivors []model.Protein, spec model.FilterSpec) ([]tableResult, error) {
	out := make([]tableResult, len(survivors))

	if p.config.Concurrency.Workers <= 1 {
		for i, protein := range survivors {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			mentions, err := filter.Table(protein, corpus.Index[protein.ID], spec)
			out[i] = tableResult{mentions: mentions, err: err}
		}
		return out, nil
	}

	jobs := make([]*worker.MentionJob, len(survivors))
	for i, protein := range survivors {
		jobs[i] = &worker.MentionJob{
			Index:   i,
			Protein: protein,
			Raw:     corpus.Index[protein.ID],
			Spec:    spec,
		}
	}

	results, err := p.processor.Process(ctx, jobs)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		if r == nil {
			return nil, fmt.Errorf("missing result for %s", survivors[i].ID)
		}
		out[i] = tableResult{mentions: r.Mentions, err: r.Error}
	}
	return out, nil
}

// aggregate sets each survivor's derived mention count from its filtered table and
// builds the output index with exactly one entry per survivor
func aggregate(survivors []model.Protein, tables []tableResult) (map[string][]model.Mention, []model.RowWarning) {
	mentions := make(map[string][]model.Mention, len(survivors))
	var warnings []model.RowWarning

	for i := range survivors {
		table := tables[i]
		if table.err != nil {
			warnings = append(warnings, model.RowWarning{
				ProteinID: survivors[i].ID,
				Message:   table.err.Error(),
			})
			table.mentions = nil
		}
		if table.mentions == nil {
			table.mentions = []model.Mention{}
		}

		survivors[i].MentionCount = len(table.mentions)
		mentions[survivors[i].ID] = table.mentions
	}

	return mentions, warnings
}
