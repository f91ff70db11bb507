package domain

// OperationKind identifies one kind of batch work.
type OperationKind string

const (
	OperationAbstract  OperationKind = "abstract"
	OperationCitations OperationKind = "citations"
	OperationSimilar   OperationKind = "similar"
	OperationRISExport OperationKind = "ris_export"
	OperationFullText  OperationKind = "full_text"
)

// OperationKinds lists every valid operation kind in dispatch order.
var OperationKinds = []OperationKind{
	OperationAbstract,
	OperationCitations,
	OperationSimilar,
	OperationRISExport,
	OperationFullText,
}

// Valid reports whether k is a member of the closed operation-kind set.
func (k OperationKind) Valid() bool {
	switch k {
	case OperationAbstract, OperationCitations, OperationSimilar, OperationRISExport, OperationFullText:
		return true
	default:
		return false
	}
}

// BatchStatus represents the lifecycle states of a single batch operation.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusError      BatchStatus = "error"
)

// IsTerminal returns true if the status represents a final state.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusError
}

// BatchOperation tracks one (identifier, operation kind) pair through a
// batch run. Transport failures in any chunk of a kind mark every
// operation of that kind with the same error message.
type BatchOperation struct {
	PMID   string        `json:"pmid"`
	Kind   OperationKind `json:"kind"`
	Status BatchStatus   `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// BatchSummary tallies final operation statuses, computed once at the end
// of a batch run.
type BatchSummary struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Processing int `json:"processing"`
}

// BatchResults collects the per-kind result buckets of a batch run. The
// Similar bucket is keyed by originating identifier since related-article
// lookup is one-to-many.
type BatchResults struct {
	Abstracts  []ArticleRecord       `json:"abstracts,omitempty"`
	Citations  []CitationCountRecord `json:"citations,omitempty"`
	Similar    map[string][]string   `json:"similar,omitempty"`
	RISExports []RISExport           `json:"risExports,omitempty"`
	FullTexts  []FullTextRecord      `json:"fullTexts,omitempty"`
}

// BatchResult is the immutable outcome of one batch run.
type BatchResult struct {
	TaskID     string           `json:"task_id"`
	Operations []BatchOperation `json:"operations"`
	Summary    BatchSummary     `json:"summary"`
	Results    BatchResults     `json:"results"`
}

// Summarize recomputes the status tally from the final operation list.
func Summarize(ops []BatchOperation) BatchSummary {
	s := BatchSummary{Total: len(ops)}
	for _, op := range ops {
		switch op.Status {
		case BatchStatusCompleted:
			s.Completed++
		case BatchStatusError:
			s.Failed++
		case BatchStatusProcessing:
			s.Processing++
		}
	}
	return s
}
