// Package domain provides the domain records produced by the PubMed fetch service.
package domain

// Default values applied when PubMed metadata is missing or unresolvable.
// Normalized records never carry empty titles, journals, dates, or author
// names; absence degrades to these placeholders.
const (
	DefaultTitle   = "No title available"
	DefaultJournal = "Unknown journal"
	DefaultDate    = "Unknown date"
	DefaultAuthor  = "Unknown Author"
)

// Section title sentinels used by full-text reconstruction.
const (
	// SectionTitleContent names the implicit section used for body-level
	// paragraphs that are not wrapped in a titled section.
	SectionTitleContent = "Content"

	// SectionTitleFullArticle names the single fallback section emitted
	// when structured section recovery finds nothing.
	SectionTitleFullArticle = "Full Article Content"
)

// PMCPrefix is the canonical letter prefix of a PMC identifier. Requests to
// the PMC database use the bare numeric form; reported records carry the
// prefixed form.
const PMCPrefix = "PMC"

// MaxCitingIDs caps the number of citing identifiers carried by a
// CitationCountRecord. The count itself is not capped.
const MaxCitingIDs = 100

// SearchResult holds the identifier window returned by an esearch call.
// RetMax echoes the requested window size; it is not a bound on len(IDs).
type SearchResult struct {
	IDs              []string `json:"ids"`
	Count            int      `json:"count"`
	RetMax           int      `json:"ret_max"`
	RetStart         int      `json:"ret_start"`
	QueryTranslation string   `json:"query_translation,omitempty"`
}

// Summary is a normalized esummary DocSum record.
type Summary struct {
	PMID    string   `json:"pmid"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Source  string   `json:"source"`
	PubDate string   `json:"pub_date"`
}

// ArticleRecord is a normalized PubMed article. Title, Journal,
// PublicationDate, and every Authors entry are always non-empty; Abstract,
// DOI, and PMCID are empty when PubMed carries no value.
type ArticleRecord struct {
	PMID            string   `json:"pmid"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Journal         string   `json:"journal"`
	PublicationDate string   `json:"publication_date"`
	Abstract        string   `json:"abstract,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	PMCID           string   `json:"pmcid,omitempty"`
	URL             string   `json:"url"`
}

// Section is a titled block of reconstructed article body text.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FullTextRecord holds the reconstructed full text of a PMC article.
// When Sections is non-empty, FullText is the concatenation of each
// section's title and content in traversal order.
type FullTextRecord struct {
	ID       string    `json:"id"`
	PMCID    string    `json:"pmcid"`
	Title    string    `json:"title"`
	FullText string    `json:"full_text"`
	Sections []Section `json:"sections"`
}

// HasContent reports whether any text was recovered, structured or not.
func (r *FullTextRecord) HasContent() bool {
	return len(r.Sections) > 0 || r.FullText != ""
}

// CitationCountRecord reports how many articles cite a given PMID.
// Error is set instead of a populated count when the lookup failed for
// this identifier; the two are mutually exclusive.
type CitationCountRecord struct {
	PMID          string   `json:"pmid"`
	Title         string   `json:"title"`
	CitationCount int      `json:"citation_count"`
	CitingPMIDs   []string `json:"citing_pmids"`
	Error         string   `json:"error,omitempty"`
}

// LinkSet is one source-identifier bucket from an elink response.
type LinkSet struct {
	SourceID string   `json:"source_id"`
	LinkName string   `json:"link_name"`
	IDs      []string `json:"ids"`
}

// RISExport holds the raw citation-export text for one chunk of
// identifiers. The text is passed through from the upstream service
// unmodified.
type RISExport struct {
	PMIDs []string `json:"pmids"`
	Data  string   `json:"data"`
}
