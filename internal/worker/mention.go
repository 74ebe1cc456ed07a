package worker

import (
	"context"

	"github.com/ppiankov/ignoromenot/internal/filter"
	"github.com/ppiankov/ignoromenot/internal/model"
)

// MentionJob filters one protein's mention table
type MentionJob struct {
	Index   int // position of the protein among the survivors
	Protein model.Protein
	Raw     []model.RawMention
	Spec    model.FilterSpec
}

// Execute runs coercion, truncation and mention-level filtering
func (j *MentionJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &MentionResult{Index: j.Index, ProteinID: j.Protein.ID, Error: err}
	}

	mentions, err := filter.Table(j.Protein, j.Raw, j.Spec)
	return &MentionResult{
		Index:     j.Index,
		ProteinID: j.Protein.ID,
		Mentions:  mentions,
		Error:     err,
	}
}

// MentionResult is the filtered table of one protein
type MentionResult struct {
	Index     int
	ProteinID string
	Mentions  []model.Mention
	Error     error
}

// GetError returns the coercion error, if any
func (r *MentionResult) GetError() error {
	return r.Error
}

// MentionProcessor filters the mention tables of many proteins concurrently
type MentionProcessor struct {
	concurrency int
}

// NewMentionProcessor creates a new processor
func NewMentionProcessor(concurrency int) *MentionProcessor {
	return &MentionProcessor{concurrency: concurrency}
}

// Process filters every job's table and returns the results indexed by MentionJob.Index.
// It returns only after every job has finished.
func (m *MentionProcessor) Process(ctx context.Context, jobs []*MentionJob) ([]*MentionResult, error) {
	out := make([]*MentionResult, len(jobs))
	if len(jobs) == 0 {
		return out, nil
	}

	pool := NewPool(ctx, m.concurrency)
	pool.Start()

	for _, job := range jobs {
		if !pool.Submit(job) {
			break
		}
	}

	for _, result := range pool.Wait() {
		r := result.(*MentionResult)
		if r.Index >= 0 && r.Index < len(out) {
			out[r.Index] = r
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
