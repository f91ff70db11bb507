package batch

import (
	"context"
	"time"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
)

// Chunk sizes and inter-chunk delays per operation kind. The values track
// what the E-utilities endpoints tolerate per request class; they are not
// derived from a formula.
var (
	defaultChunkSizes = map[domain.OperationKind]int{
		domain.OperationAbstract:  20,
		domain.OperationCitations: 10,
		domain.OperationSimilar:   10,
		domain.OperationRISExport: 50,
		domain.OperationFullText:  3,
	}

	defaultDelays = map[domain.OperationKind]time.Duration{
		domain.OperationAbstract:  500 * time.Millisecond,
		domain.OperationCitations: time.Second,
		domain.OperationSimilar:   time.Second,
		domain.OperationRISExport: 500 * time.Millisecond,
		domain.OperationFullText:  2 * time.Second,
	}
)

// fallbackChunkSize applies to an operation kind with no configured size.
const fallbackChunkSize = 10

// PacingPolicy returns the delay to observe before dispatching the chunk
// at chunkIndex within one operation kind. It is consulted only between
// chunks: never before the first chunk of a kind or after the last.
type PacingPolicy func(kind domain.OperationKind, chunkIndex int) time.Duration

// DefaultPacing is the fixed per-kind delay table used in production.
func DefaultPacing(kind domain.OperationKind, chunkIndex int) time.Duration {
	if d, ok := defaultDelays[kind]; ok {
		return d
	}
	return time.Second
}

// Sleeper waits for a duration, honoring context cancellation. Injected so
// pacing is testable without wall-clock waits.
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepWithContext is the production Sleeper.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// chunkIDs splits ids into consecutive slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = fallbackChunkSize
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
