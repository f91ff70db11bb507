package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
)

// fakeFetcher records every dispatch and serves canned results or errors.
type fakeFetcher struct {
	articleChunks  [][]string
	citationChunks [][]string
	similarChunks  [][]string
	risChunks      [][]string
	fullTextIDs    []string

	articlesErr  error
	citationsErr error
	similarErr   error
	risErr       error
	fullTextErr  error

	// articlesErrCall limits articlesErr to the nth FetchArticles call,
	// 1-based. Zero fails every call.
	articlesErrCall int
}

func (f *fakeFetcher) FetchArticles(_ context.Context, pmids []string) ([]domain.ArticleRecord, error) {
	f.articleChunks = append(f.articleChunks, pmids)
	if f.articlesErr != nil && (f.articlesErrCall == 0 || f.articlesErrCall == len(f.articleChunks)) {
		return nil, f.articlesErr
	}
	records := make([]domain.ArticleRecord, 0, len(pmids))
	for _, pmid := range pmids {
		records = append(records, domain.ArticleRecord{PMID: pmid, Title: "T " + pmid})
	}
	return records, nil
}

func (f *fakeFetcher) CitationCounts(_ context.Context, pmids []string) ([]domain.CitationCountRecord, error) {
	f.citationChunks = append(f.citationChunks, pmids)
	if f.citationsErr != nil {
		return nil, f.citationsErr
	}
	records := make([]domain.CitationCountRecord, 0, len(pmids))
	for _, pmid := range pmids {
		records = append(records, domain.CitationCountRecord{PMID: pmid, CitingPMIDs: []string{}})
	}
	return records, nil
}

func (f *fakeFetcher) Similar(_ context.Context, pmids []string) (map[string][]string, error) {
	f.similarChunks = append(f.similarChunks, pmids)
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	related := make(map[string][]string, len(pmids))
	for _, pmid := range pmids {
		related[pmid] = []string{pmid + "0"}
	}
	return related, nil
}

func (f *fakeFetcher) FetchRIS(_ context.Context, pmids []string) (string, error) {
	f.risChunks = append(f.risChunks, pmids)
	if f.risErr != nil {
		return "", f.risErr
	}
	return "TY  - JOUR\nER  -\n", nil
}

func (f *fakeFetcher) FetchFullText(_ context.Context, id string) (domain.FullTextRecord, error) {
	f.fullTextIDs = append(f.fullTextIDs, id)
	if f.fullTextErr != nil {
		return domain.FullTextRecord{}, f.fullTextErr
	}
	return domain.FullTextRecord{ID: id}, nil
}

// recordedSleep captures pacing delays instead of waiting them out.
func recordedSleep(delays *[]time.Duration) Sleeper {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func newTestOrchestrator(f Fetcher, cfg Config) *Orchestrator {
	return New(f, cfg, zerolog.Nop(), nil)
}

func pmidRange(n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf("%08d", i+1))
	}
	return ids
}

func TestRunOperationList(t *testing.T) {
	t.Run("builds one operation per identifier and kind", func(t *testing.T) {
		var delays []time.Duration
		o := newTestOrchestrator(&fakeFetcher{}, Config{Sleep: recordedSleep(&delays)})

		kinds := []domain.OperationKind{domain.OperationAbstract, domain.OperationCitations}
		result, err := o.Run(context.Background(), pmidRange(3), kinds)
		require.NoError(t, err)

		assert.Len(t, result.Operations, 6)
		assert.NotEmpty(t, result.TaskID)
		for _, op := range result.Operations {
			assert.Equal(t, domain.BatchStatusCompleted, op.Status)
			assert.Empty(t, op.Error)
		}
		assert.Equal(t, domain.BatchSummary{Total: 6, Completed: 6}, result.Summary)
	})

	t.Run("repeated identifiers produce repeated operations", func(t *testing.T) {
		var delays []time.Duration
		o := newTestOrchestrator(&fakeFetcher{}, Config{Sleep: recordedSleep(&delays)})

		result, err := o.Run(context.Background(), []string{"1", "1"}, []domain.OperationKind{domain.OperationAbstract})
		require.NoError(t, err)
		assert.Len(t, result.Operations, 2)
	})

	t.Run("repeated kinds track each occurrence to a terminal state", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{}
		o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

		kinds := []domain.OperationKind{domain.OperationAbstract, domain.OperationAbstract}
		result, err := o.Run(context.Background(), []string{"1"}, kinds)
		require.NoError(t, err)

		assert.Len(t, f.articleChunks, 2)
		require.Len(t, result.Operations, 2)
		for _, op := range result.Operations {
			assert.True(t, op.Status.IsTerminal())
			assert.Equal(t, domain.BatchStatusCompleted, op.Status)
		}
		assert.Equal(t, domain.BatchSummary{Total: 2, Completed: 2}, result.Summary)
	})

	t.Run("rejects unknown operation kinds", func(t *testing.T) {
		o := newTestOrchestrator(&fakeFetcher{}, Config{})

		_, err := o.Run(context.Background(), []string{"1"}, []domain.OperationKind{"summary"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestRunChunkingAndPacing(t *testing.T) {
	t.Run("25 identifiers at chunk size 20 dispatch two chunks with one delay", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{}
		o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

		_, err := o.Run(context.Background(), pmidRange(25), []domain.OperationKind{domain.OperationAbstract})
		require.NoError(t, err)

		require.Len(t, f.articleChunks, 2)
		assert.Len(t, f.articleChunks[0], 20)
		assert.Len(t, f.articleChunks[1], 5)
		assert.Equal(t, []time.Duration{500 * time.Millisecond}, delays)
	})

	t.Run("no delay before the first chunk of each kind", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{}
		o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

		kinds := []domain.OperationKind{domain.OperationAbstract, domain.OperationSimilar}
		_, err := o.Run(context.Background(), pmidRange(5), kinds)
		require.NoError(t, err)

		// Each kind fits one chunk, so pacing never fires.
		assert.Empty(t, delays)
	})

	t.Run("config chunk sizes override defaults per kind only", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{}
		o := newTestOrchestrator(f, Config{
			ChunkSizes: map[domain.OperationKind]int{domain.OperationAbstract: 2},
			Sleep:      recordedSleep(&delays),
		})

		kinds := []domain.OperationKind{domain.OperationAbstract, domain.OperationCitations}
		_, err := o.Run(context.Background(), pmidRange(4), kinds)
		require.NoError(t, err)

		assert.Len(t, f.articleChunks, 2)
		assert.Len(t, f.citationChunks, 1)
	})

	t.Run("full text dispatches per identifier within a chunk", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{}
		o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

		_, err := o.Run(context.Background(), pmidRange(4), []domain.OperationKind{domain.OperationFullText})
		require.NoError(t, err)

		// Chunk size 3 gives two chunks, but every identifier is fetched
		// individually.
		assert.Len(t, f.fullTextIDs, 4)
		assert.Equal(t, []time.Duration{2 * time.Second}, delays)
	})

	t.Run("sleep error aborts the kind", func(t *testing.T) {
		f := &fakeFetcher{}
		o := newTestOrchestrator(f, Config{
			Sleep: func(ctx context.Context, d time.Duration) error {
				return context.Canceled
			},
		})

		result, err := o.Run(context.Background(), pmidRange(25), []domain.OperationKind{domain.OperationAbstract})
		require.NoError(t, err)

		assert.Len(t, f.articleChunks, 1)
		for _, op := range result.Operations {
			assert.Equal(t, domain.BatchStatusError, op.Status)
		}
	})
}

func TestRunFailurePolicy(t *testing.T) {
	t.Run("one kind failing does not touch the others", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{citationsErr: fmt.Errorf("esummary: status 500")}
		o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

		kinds := []domain.OperationKind{domain.OperationAbstract, domain.OperationCitations}
		result, err := o.Run(context.Background(), pmidRange(2), kinds)
		require.NoError(t, err)

		for _, op := range result.Operations {
			switch op.Kind {
			case domain.OperationAbstract:
				assert.Equal(t, domain.BatchStatusCompleted, op.Status)
				assert.Empty(t, op.Error)
			case domain.OperationCitations:
				assert.Equal(t, domain.BatchStatusError, op.Status)
				assert.Equal(t, "esummary: status 500", op.Error)
			}
		}
		assert.Equal(t, domain.BatchSummary{Total: 4, Completed: 2, Failed: 2}, result.Summary)
		assert.Len(t, result.Results.Abstracts, 2)
		assert.Empty(t, result.Results.Citations)
	})

	t.Run("chunk failure marks every operation of the kind", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{articlesErr: fmt.Errorf("efetch: connection reset")}
		o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

		result, err := o.Run(context.Background(), pmidRange(25), []domain.OperationKind{domain.OperationAbstract})
		require.NoError(t, err)

		// The first chunk fails, so the second is never dispatched.
		assert.Len(t, f.articleChunks, 1)
		require.Len(t, result.Operations, 25)
		for _, op := range result.Operations {
			assert.Equal(t, domain.BatchStatusError, op.Status)
			assert.Equal(t, "efetch: connection reset", op.Error)
		}
	})

	t.Run("second chunk failure retroactively marks the first chunk's operations", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{
			articlesErr:     fmt.Errorf("efetch: status 503"),
			articlesErrCall: 2,
		}
		o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

		kinds := []domain.OperationKind{domain.OperationAbstract, domain.OperationCitations}
		result, err := o.Run(context.Background(), pmidRange(25), kinds)
		require.NoError(t, err)

		// The first abstract chunk of 20 succeeded before the second
		// failed, yet every abstract operation carries the failure.
		require.Len(t, f.articleChunks, 2)
		for _, op := range result.Operations {
			switch op.Kind {
			case domain.OperationAbstract:
				assert.Equal(t, domain.BatchStatusError, op.Status)
				assert.Equal(t, "efetch: status 503", op.Error)
			case domain.OperationCitations:
				assert.Equal(t, domain.BatchStatusCompleted, op.Status)
				assert.Empty(t, op.Error)
			}
		}
		assert.Equal(t, domain.BatchSummary{Total: 50, Completed: 25, Failed: 25}, result.Summary)
	})

	t.Run("zero citation counts complete normally", func(t *testing.T) {
		var delays []time.Duration
		f := &fakeFetcher{}
		o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

		result, err := o.Run(context.Background(), []string{"1"}, []domain.OperationKind{domain.OperationCitations})
		require.NoError(t, err)

		require.Len(t, result.Results.Citations, 1)
		assert.Equal(t, 0, result.Results.Citations[0].CitationCount)
		assert.Equal(t, domain.BatchStatusCompleted, result.Operations[0].Status)
	})
}

func TestRunResults(t *testing.T) {
	var delays []time.Duration
	f := &fakeFetcher{}
	o := newTestOrchestrator(f, Config{Sleep: recordedSleep(&delays)})

	result, err := o.Run(context.Background(), []string{"1", "2"}, domain.OperationKinds)
	require.NoError(t, err)

	assert.Len(t, result.Results.Abstracts, 2)
	assert.Len(t, result.Results.Citations, 2)
	assert.Equal(t, map[string][]string{"1": {"10"}, "2": {"20"}}, result.Results.Similar)
	require.Len(t, result.Results.RISExports, 1)
	assert.Equal(t, []string{"1", "2"}, result.Results.RISExports[0].PMIDs)
	assert.Len(t, result.Results.FullTexts, 2)
}

func TestChunkIDs(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []int
	}{
		{"exact multiple", 20, 10, []int{10, 10}},
		{"remainder", 25, 20, []int{20, 5}},
		{"single chunk", 5, 10, []int{5}},
		{"zero size uses fallback", 15, 0, []int{10, 5}},
		{"empty input", 0, 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkIDs(pmidRange(tt.n), tt.size)
			require.Len(t, chunks, len(tt.want))
			for i, want := range tt.want {
				assert.Len(t, chunks[i], want)
			}
		})
	}
}
