// Package batch coordinates multiple fetch operation kinds over a set of
// PubMed identifiers.
//
// Work is grouped by operation kind, not interleaved per identifier, so
// each kind's identifier list can be chunked at its own safe batch size
// and paced with its own inter-chunk delay. Execution is strictly
// sequential: chunks within a kind never overlap and kinds never run in
// parallel, keeping the request stream within the upstream service's rate
// guidance.
//
// Failure policy: a transport failure in any chunk marks every operation
// of that kind as failed with the same message. A kind that raises no
// failure marks all its operations completed, even when individual
// identifiers yielded no data; an empty result is not an error.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/observability"
)

// Fetcher is the set of remote operations the orchestrator dispatches.
// *eutils.Client satisfies it.
type Fetcher interface {
	FetchArticles(ctx context.Context, pmids []string) ([]domain.ArticleRecord, error)
	CitationCounts(ctx context.Context, pmids []string) ([]domain.CitationCountRecord, error)
	Similar(ctx context.Context, pmids []string) (map[string][]string, error)
	FetchRIS(ctx context.Context, pmids []string) (string, error)
	FetchFullText(ctx context.Context, id string) (domain.FullTextRecord, error)
}

// Config holds orchestrator tuning. Zero values fall back to the
// defaults in pacing.go.
type Config struct {
	// ChunkSizes overrides the per-kind identifier chunk sizes.
	ChunkSizes map[domain.OperationKind]int

	// Pacing supplies the inter-chunk delay per kind.
	Pacing PacingPolicy

	// Sleep waits out pacing delays. Replaced in tests.
	Sleep Sleeper
}

// Orchestrator executes every (identifier, operation kind) pair of a
// batch request against a Fetcher. Each Run call owns its operation list
// exclusively; no state is shared between runs.
type Orchestrator struct {
	fetcher    Fetcher
	chunkSizes map[domain.OperationKind]int
	pacing     PacingPolicy
	sleep      Sleeper
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates an orchestrator. metrics may be nil when metrics collection
// is disabled.
func New(fetcher Fetcher, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	sizes := make(map[domain.OperationKind]int, len(defaultChunkSizes))
	for kind, size := range defaultChunkSizes {
		sizes[kind] = size
	}
	for kind, size := range cfg.ChunkSizes {
		if size > 0 {
			sizes[kind] = size
		}
	}
	pacing := cfg.Pacing
	if pacing == nil {
		pacing = DefaultPacing
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	return &Orchestrator{
		fetcher:    fetcher,
		chunkSizes: sizes,
		pacing:     pacing,
		sleep:      sleep,
		logger:     logger.With().Str("component", "batch-orchestrator").Logger(),
		metrics:    metrics,
	}
}

// Run executes every (identifier x kind) pair and returns the aggregated
// result. Identifiers need not be unique; repeated requests produce
// repeated operations. The returned error reports invalid input only;
// remote failures are embedded in the result per the group failure policy.
func (o *Orchestrator) Run(ctx context.Context, pmids []string, kinds []domain.OperationKind) (*domain.BatchResult, error) {
	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, domain.NewValidationError("operations", "unknown operation kind: "+string(kind))
		}
	}

	taskID := uuid.NewString()
	logger := observability.WithBatchContext(o.logger, taskID, len(pmids), len(kinds))
	logger.Info().Msg("batch run starting")

	start := time.Now()
	if o.metrics != nil {
		o.metrics.BatchRunsStarted.Inc()
	}

	// Every (identifier, kind) pair starts pending. Group ranges are kept
	// per kind occurrence, not per kind, so a request repeating a kind
	// tracks each occurrence's operations separately.
	ops := make([]domain.BatchOperation, 0, len(pmids)*len(kinds))
	groupStart := make([]int, 0, len(kinds))
	for _, kind := range kinds {
		groupStart = append(groupStart, len(ops))
		for _, pmid := range pmids {
			ops = append(ops, domain.BatchOperation{
				PMID:   pmid,
				Kind:   kind,
				Status: domain.BatchStatusPending,
			})
		}
	}

	results := domain.BatchResults{}

	for g, kind := range kinds {
		lo := groupStart[g]
		hi := lo + len(pmids)
		for i := lo; i < hi; i++ {
			ops[i].Status = domain.BatchStatusProcessing
		}

		err := o.runKind(ctx, kind, pmids, &results)
		status := domain.BatchStatusCompleted
		var message string
		if err != nil {
			status = domain.BatchStatusError
			message = err.Error()
			logger.Error().Err(err).Str("operation", string(kind)).Msg("operation kind failed")
		}
		for i := lo; i < hi; i++ {
			ops[i].Status = status
			ops[i].Error = message
		}
		if o.metrics != nil {
			o.metrics.BatchOperationsTotal.WithLabelValues(string(kind), string(status)).Add(float64(len(pmids)))
		}
	}

	result := &domain.BatchResult{
		TaskID:     taskID,
		Operations: ops,
		Summary:    domain.Summarize(ops),
		Results:    results,
	}

	if o.metrics != nil {
		o.metrics.BatchRunsCompleted.Inc()
		o.metrics.BatchRunDuration.Observe(time.Since(start).Seconds())
	}
	logger.Info().
		Int("completed", result.Summary.Completed).
		Int("failed", result.Summary.Failed).
		Dur("duration", time.Since(start)).
		Msg("batch run finished")

	return result, nil
}

// runKind dispatches one operation kind over all identifiers, chunked and
// paced. The first transport failure aborts the kind.
func (o *Orchestrator) runKind(ctx context.Context, kind domain.OperationKind, pmids []string, results *domain.BatchResults) error {
	chunks := chunkIDs(pmids, o.chunkSizes[kind])
	logger := observability.WithOperationContext(o.logger, string(kind), len(chunks))

	for i, chunk := range chunks {
		if i > 0 {
			if err := o.sleep(ctx, o.pacing(kind, i)); err != nil {
				return err
			}
		}
		if o.metrics != nil {
			o.metrics.BatchChunksDispatched.WithLabelValues(string(kind)).Inc()
		}
		logger.Debug().Int("chunk", i).Int("ids", len(chunk)).Msg("dispatching chunk")

		if err := o.dispatch(ctx, kind, chunk, results); err != nil {
			return err
		}
	}

	return nil
}

// dispatch executes one chunk of one kind and merges its results into the
// per-kind bucket.
func (o *Orchestrator) dispatch(ctx context.Context, kind domain.OperationKind, chunk []string, results *domain.BatchResults) error {
	switch kind {
	case domain.OperationAbstract:
		records, err := o.fetcher.FetchArticles(ctx, chunk)
		if err != nil {
			return err
		}
		results.Abstracts = append(results.Abstracts, records...)

	case domain.OperationCitations:
		records, err := o.fetcher.CitationCounts(ctx, chunk)
		if err != nil {
			return err
		}
		results.Citations = append(results.Citations, records...)

	case domain.OperationSimilar:
		related, err := o.fetcher.Similar(ctx, chunk)
		if err != nil {
			return err
		}
		if results.Similar == nil {
			results.Similar = make(map[string][]string)
		}
		for pmid, ids := range related {
			results.Similar[pmid] = ids
		}

	case domain.OperationRISExport:
		data, err := o.fetcher.FetchRIS(ctx, chunk)
		if err != nil {
			return err
		}
		results.RISExports = append(results.RISExports, domain.RISExport{PMIDs: chunk, Data: data})

	case domain.OperationFullText:
		for _, id := range chunk {
			record, err := o.fetcher.FetchFullText(ctx, id)
			if err != nil {
				return err
			}
			// A record with no recoverable text is reported as absence,
			// not failure.
			results.FullTexts = append(results.FullTexts, record)
		}
	}

	return nil
}
