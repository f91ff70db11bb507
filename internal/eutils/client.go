package eutils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/fulltext"
	"github.com/helixir/pubmed-fetch-service/internal/normalize"
	"github.com/helixir/pubmed-fetch-service/internal/observability"
	"github.com/helixir/pubmed-fetch-service/internal/xmltree"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	DefaultRateLimit = 3.0

	// KeyedRateLimit is the rate limit with an API key (10 requests/second).
	KeyedRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per search.
	DefaultMaxResults = 20

	// MaxResultsLimit is the maximum results allowed per request by the API.
	MaxResultsLimit = 10000

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 10 << 20

	// sourceName is the human-readable name for the upstream service.
	sourceName = "PubMed"
)

// elink link names for the citation graph operations.
const (
	linkNameCitedIn = "pubmed_pubmed_citedin"
	linkNameSimilar = "pubmed_pubmed"
)

// Config holds the configuration for the E-utilities client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits. Optional.
	APIKey string

	// Tool identifies this client to NCBI, sent as the tool parameter.
	Tool string

	// Email is the contact address NCBI asks clients to send.
	Email string

	// Timeout is the request timeout. Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Defaults to
	// DefaultRateLimit, or KeyedRateLimit when an API key is set.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the default maximum results per search.
	MaxResults int
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Tool == "" {
		c.Tool = "pubmed-fetch-service"
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		if c.APIKey != "" {
			c.RateLimit = KeyedRateLimit
		} else {
			c.RateLimit = DefaultRateLimit
		}
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client issues one HTTP GET per logical E-utilities operation and
// normalizes the XML response into domain records.
type Client struct {
	config     Config
	httpClient *HTTPClient
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates a new E-utilities client with the given configuration.
// metrics may be nil when metrics collection is disabled.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpCfg := HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	}

	return &Client{
		config:     cfg,
		httpClient: NewHTTPClient(httpCfg),
		logger:     logger.With().Str("component", "eutils-client").Logger(),
		metrics:    metrics,
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "eutils-client").Logger(),
	}
}

// Search queries PubMed via esearch.fcgi and returns the matching
// identifier window. An empty identifier list is a valid result.
func (c *Client) Search(ctx context.Context, query string, retMax, retStart int) (domain.SearchResult, error) {
	if retMax <= 0 {
		retMax = c.config.MaxResults
	}
	if retMax > MaxResultsLimit {
		retMax = MaxResultsLimit
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "xml")
	params.Set("retmax", strconv.Itoa(retMax))
	if retStart > 0 {
		params.Set("retstart", strconv.Itoa(retStart))
	}

	root, err := c.getXML(ctx, "esearch.fcgi", params)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("esearch failed: %w", err)
	}

	return normalize.SearchResult(root), nil
}

// Summaries retrieves esummary DocSum records for the given PMIDs.
func (c *Client) Summaries(ctx context.Context, pmids []string) ([]domain.Summary, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")

	root, err := c.getXML(ctx, "esummary.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("esummary failed: %w", err)
	}

	return normalize.Summaries(root), nil
}

// FetchArticles retrieves full article metadata for the given PMIDs via
// efetch.fcgi. Identifiers unknown to PubMed are silently absent from the
// result; that is not an error.
func (c *Client) FetchArticles(ctx context.Context, pmids []string) ([]domain.ArticleRecord, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")

	root, err := c.getXML(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	return normalize.Articles(root), nil
}

// FetchFullText retrieves the structured full text of one PMC article.
// The identifier may arrive with or without the PMC prefix; requests use
// the bare numeric form and the returned record carries the prefixed one.
// An article with no recoverable text yields a record with no sections,
// which the caller decides how to treat.
func (c *Client) FetchFullText(ctx context.Context, id string) (domain.FullTextRecord, error) {
	numeric := strings.TrimPrefix(strings.TrimSpace(id), domain.PMCPrefix)

	params := url.Values{}
	params.Set("db", "pmc")
	params.Set("id", numeric)
	params.Set("retmode", "xml")

	root, err := c.getXML(ctx, "efetch.fcgi", params)
	if err != nil {
		return domain.FullTextRecord{}, fmt.Errorf("efetch full text failed: %w", err)
	}

	record := domain.FullTextRecord{
		ID:    id,
		PMCID: domain.PMCPrefix + numeric,
		Title: domain.DefaultTitle,
	}

	article := root.First("article")
	if article == nil {
		// No structured article; report absence, not failure.
		return record, nil
	}

	if title := article.Path("front", "article-meta", "title-group", "article-title").Text(); title != "" {
		record.Title = title
	}
	record.Sections, record.FullText = fulltext.Extract(article)

	return record, nil
}

// Links retrieves the elink neighbor sets named by linkName for the given
// PMIDs. Each identifier is sent as its own id parameter so link sets map
// back to their originating identifier.
func (c *Client) Links(ctx context.Context, pmids []string, linkName string) ([]domain.LinkSet, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("dbfrom", "pubmed")
	params.Set("db", "pubmed")
	params.Set("cmd", "neighbor")
	params.Set("linkname", linkName)
	params["id"] = pmids

	root, err := c.getXML(ctx, "elink.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("elink failed: %w", err)
	}

	return normalize.LinkSets(root), nil
}

// CitationCounts reports how many articles cite each given PMID, pairing
// one elink cited-in call with one esummary call for titles. A PMID with
// zero citing articles yields a populated record with a zero count.
func (c *Client) CitationCounts(ctx context.Context, pmids []string) ([]domain.CitationCountRecord, error) {
	sets, err := c.Links(ctx, pmids, linkNameCitedIn)
	if err != nil {
		return nil, err
	}

	summaries, err := c.Summaries(ctx, pmids)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(summaries))
	for _, s := range summaries {
		titles[s.PMID] = s.Title
	}

	citing := make(map[string][]string, len(sets))
	for _, set := range sets {
		if set.LinkName == "" || set.LinkName == linkNameCitedIn {
			citing[set.SourceID] = set.IDs
		}
	}

	records := make([]domain.CitationCountRecord, 0, len(pmids))
	for _, pmid := range pmids {
		rec := domain.CitationCountRecord{
			PMID:        pmid,
			Title:       domain.DefaultTitle,
			CitingPMIDs: []string{},
		}
		if title, ok := titles[pmid]; ok {
			rec.Title = title
		}
		ids := citing[pmid]
		rec.CitationCount = len(ids)
		if len(ids) > domain.MaxCitingIDs {
			ids = ids[:domain.MaxCitingIDs]
		}
		if ids != nil {
			rec.CitingPMIDs = ids
		}
		records = append(records, rec)
	}

	return records, nil
}

// Similar retrieves related-article identifiers for each given PMID,
// keyed by originating identifier.
func (c *Client) Similar(ctx context.Context, pmids []string) (map[string][]string, error) {
	sets, err := c.Links(ctx, pmids, linkNameSimilar)
	if err != nil {
		return nil, err
	}

	related := make(map[string][]string, len(pmids))
	for _, pmid := range pmids {
		related[pmid] = []string{}
	}
	for _, set := range sets {
		if set.SourceID == "" {
			continue
		}
		related[set.SourceID] = append(related[set.SourceID], set.IDs...)
	}

	return related, nil
}

// FetchRIS retrieves citation-export text for the given PMIDs. The
// response is plain text and passes through unmodified.
func (c *Client) FetchRIS(ctx context.Context, pmids []string) (string, error) {
	if len(pmids) == 0 {
		return "", nil
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("rettype", "ris")
	params.Set("retmode", "text")

	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return "", fmt.Errorf("efetch ris failed: %w", err)
	}

	return string(body), nil
}

// getXML executes a GET against the named endpoint and parses the XML body.
func (c *Client) getXML(ctx context.Context, endpoint string, params url.Values) (*xmltree.Node, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	root, err := xmltree.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", endpoint, err)
	}
	return root, nil
}

// get executes one rate-limited GET against the named endpoint, adding the
// tool, email, and API key parameters. Non-2xx responses become
// ExternalAPIError; response shapes are not inspected here.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.config.BaseURL + "/" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	params.Set("tool", c.config.Tool)
	if c.config.Email != "" {
		params.Set("email", c.config.Email)
	}
	if c.config.APIKey != "" {
		params.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.observeRequest(endpoint, start, err)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		c.countFailure(endpoint)
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("eutils request completed")

	return body, nil
}

func (c *Client) observeRequest(endpoint string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.EutilsRequestsTotal.WithLabelValues(endpoint).Inc()
	c.metrics.EutilsRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.EutilsRequestsFailed.WithLabelValues(endpoint).Inc()
	}
}

func (c *Client) countFailure(endpoint string) {
	if c.metrics == nil {
		return
	}
	c.metrics.EutilsRequestsFailed.WithLabelValues(endpoint).Inc()
}
