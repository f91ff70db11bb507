package httpserver

import (
	"github.com/helixir/pubmed-fetch-service/internal/domain"
)

// Response envelopes for JSON serialization. Domain records carry their
// own JSON tags; these wrappers add the request-level fields handlers
// attach around them.

type searchResponse struct {
	Query    string                 `json:"query"`
	Count    int                    `json:"count"`
	RetStart int                    `json:"ret_start"`
	RetMax   int                    `json:"ret_max"`
	PMIDs    []string               `json:"pmids"`
	Articles []domain.ArticleRecord `json:"articles"`
}

type fullTextResponse struct {
	domain.FullTextRecord
	HasContent bool `json:"has_content"`
}

type similarResponse struct {
	PMID    string   `json:"pmid"`
	Related []string `json:"related_pmids"`
}

func searchResponseFrom(q string, result domain.SearchResult, articles []domain.ArticleRecord) searchResponse {
	if articles == nil {
		articles = []domain.ArticleRecord{}
	}
	return searchResponse{
		Query:    q,
		Count:    result.Count,
		RetStart: result.RetStart,
		RetMax:   result.RetMax,
		PMIDs:    result.IDs,
		Articles: articles,
	}
}

func fullTextResponseFrom(record domain.FullTextRecord) fullTextResponse {
	return fullTextResponse{
		FullTextRecord: record,
		HasContent:     record.HasContent(),
	}
}
