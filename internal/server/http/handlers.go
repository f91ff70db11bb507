package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/query"
)

// Request body and validation bounds.
const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
	maxQueryLength     = 10000
)

// searchRequest is the JSON request body for searching PubMed.
type searchRequest struct {
	Query      string `json:"query" validate:"required,min=1"`
	MaxResults int    `json:"max_results" validate:"omitempty,min=1,max=10000"`
	Offset     int    `json:"offset" validate:"omitempty,min=0"`
	// UseMeSH rewrites lay phrases in the query to MeSH headings before
	// searching.
	UseMeSH bool `json:"use_mesh"`
}

// batchRequest is the JSON request body for a batch run.
type batchRequest struct {
	PMIDs      []string `json:"pmids" validate:"required,min=1,dive,required"`
	Operations []string `json:"operations" validate:"required,min=1,dive,oneof=abstract citations similar ris_export full_text"`
}

// searchHandler handles POST /api/v1/search. It resolves the identifier
// window, then fetches full metadata for the window's identifiers.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("query must be at most %d characters", maxQueryLength))
		return
	}

	q := req.Query
	if req.UseMeSH {
		q = query.Rewrite(q)
	}

	result, err := s.fetcher.Search(r.Context(), q, req.MaxResults, req.Offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var articles []domain.ArticleRecord
	if len(result.IDs) > 0 {
		articles, err = s.fetcher.FetchArticles(r.Context(), result.IDs)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, searchResponseFrom(q, result, articles))
}

// getArticle handles GET /api/v1/articles/{pmid}.
func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	pmid, ok := pmidParam(w, r)
	if !ok {
		return
	}

	records, err := s.fetcher.FetchArticles(r.Context(), []string{pmid})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if len(records) == 0 {
		writeDomainError(w, domain.NewNotFoundError("article", pmid))
		return
	}

	writeJSON(w, http.StatusOK, records[0])
}

// getFullText handles GET /api/v1/articles/{id}/fulltext. An article with
// no recoverable text is reported with has_content=false, not an error.
func (s *Server) getFullText(w http.ResponseWriter, r *http.Request) {
	id, ok := pmidParam(w, r)
	if !ok {
		return
	}

	record, err := s.fetcher.FetchFullText(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fullTextResponseFrom(record))
}

// getCitations handles GET /api/v1/articles/{pmid}/citations.
func (s *Server) getCitations(w http.ResponseWriter, r *http.Request) {
	pmid, ok := pmidParam(w, r)
	if !ok {
		return
	}

	records, err := s.fetcher.CitationCounts(r.Context(), []string{pmid})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if len(records) == 0 {
		writeDomainError(w, domain.NewNotFoundError("article", pmid))
		return
	}

	writeJSON(w, http.StatusOK, records[0])
}

// getSimilar handles GET /api/v1/articles/{pmid}/similar.
func (s *Server) getSimilar(w http.ResponseWriter, r *http.Request) {
	pmid, ok := pmidParam(w, r)
	if !ok {
		return
	}

	related, err := s.fetcher.Similar(r.Context(), []string{pmid})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, similarResponse{
		PMID:    pmid,
		Related: related[pmid],
	})
}

// getRIS handles GET /api/v1/articles/{pmid}/ris, returning the
// citation-export text unmodified.
func (s *Server) getRIS(w http.ResponseWriter, r *http.Request) {
	pmid, ok := pmidParam(w, r)
	if !ok {
		return
	}

	data, err := s.fetcher.FetchRIS(r.Context(), []string{pmid})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(data))
}

// batchHandler handles POST /api/v1/batch.
func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if len(req.PMIDs) > s.config.MaxBatchIdentifiers {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("pmids must have at most %d entries", s.config.MaxBatchIdentifiers))
		return
	}

	kinds := make([]domain.OperationKind, 0, len(req.Operations))
	for _, op := range req.Operations {
		kinds = append(kinds, domain.OperationKind(op))
	}

	result, err := s.batch.Run(r.Context(), req.PMIDs, kinds)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// decodeAndValidate reads a bounded JSON body into dst and runs struct
// validation, writing the 400 response itself on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return false
		}
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}

	return true
}

// validationMessage renders the first field failure of a validator error.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("%s failed validation on %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	return "invalid request"
}

// pmidParam extracts and checks the pmid URL parameter.
func pmidParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	pmid := strings.TrimSpace(chi.URLParam(r, "pmid"))
	if pmid == "" {
		writeError(w, http.StatusBadRequest, "pmid is required")
		return "", false
	}
	return pmid, true
}

// writeDomainError maps domain errors to HTTP status codes and writes a
// JSON error response. Upstream transport details are not leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var apiErr *domain.ExternalAPIError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, "upstream service error")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
