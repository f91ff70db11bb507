package normalize

import (
	"fmt"
	"strings"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/xmltree"
)

// pubmedArticleURL is the canonical article URL pattern derived from a PMID.
const pubmedArticleURL = "https://pubmed.ncbi.nlm.nih.gov/%s/"

// Articles normalizes a PubmedArticleSet tree into one ArticleRecord per
// PubmedArticle. Title, journal, publication date, and every author entry
// are filled with placeholder defaults when the source carries no value;
// abstract, DOI, and PMC id stay empty when absent.
func Articles(root *xmltree.Node) []domain.ArticleRecord {
	var records []domain.ArticleRecord

	for _, article := range root.All("PubmedArticle") {
		citation := article.First("MedlineCitation")
		meta := citation.First("Article")
		pmid := citation.ChildText("PMID")

		rec := domain.ArticleRecord{
			PMID:            pmid,
			Title:           articleTitle(meta),
			Authors:         articleAuthors(meta.First("AuthorList")),
			Journal:         journalName(meta.First("Journal")),
			PublicationDate: publicationDate(meta.Path("Journal", "JournalIssue", "PubDate")),
			Abstract:        abstractText(meta.First("Abstract")),
			URL:             fmt.Sprintf(pubmedArticleURL, pmid),
		}

		rec.DOI = articleID(article, "doi")
		rec.PMCID = articleID(article, "pmc")

		records = append(records, rec)
	}

	return records
}

// articleTitle extracts the article title, flattening any inline markup.
func articleTitle(meta *xmltree.Node) string {
	if title := meta.ChildText("ArticleTitle"); title != "" {
		return title
	}
	return domain.DefaultTitle
}

// articleAuthors builds display names from an AuthorList. Personal names
// render as "ForeName LastName"; group authorships use the collective
// name; an author entry with neither resolves to the placeholder.
func articleAuthors(list *xmltree.Node) []string {
	authors := []string{}

	for _, a := range list.All("Author") {
		var name string

		fore := a.ChildText("ForeName")
		last := a.ChildText("LastName")
		switch {
		case fore != "" && last != "":
			name = fore + " " + last
		case last != "":
			name = last
		case fore != "":
			name = fore
		default:
			name = a.ChildText("CollectiveName")
		}

		if name == "" {
			name = domain.DefaultAuthor
		}
		if strings.TrimSpace(name) == "" {
			continue
		}
		authors = append(authors, name)
	}

	return authors
}

// journalName prefers the full journal title over its ISO abbreviation.
func journalName(journal *xmltree.Node) string {
	if title := journal.ChildText("Title"); title != "" {
		return title
	}
	if abbrev := journal.ChildText("ISOAbbreviation"); abbrev != "" {
		return abbrev
	}
	return domain.DefaultJournal
}

// publicationDate joins whichever of the year, month, and day tokens are
// present with single spaces. MedlineDate strings ("2020 Jan-Feb") pass
// through as-is when no discrete tokens exist.
func publicationDate(pubDate *xmltree.Node) string {
	var tokens []string
	for _, name := range []string{"Year", "Month", "Day"} {
		if v := pubDate.ChildText(name); v != "" {
			tokens = append(tokens, v)
		}
	}
	if len(tokens) > 0 {
		return strings.Join(tokens, " ")
	}

	if medline := pubDate.ChildText("MedlineDate"); medline != "" {
		return medline
	}
	return domain.DefaultDate
}

// abstractText joins abstract segments. Structured abstracts render each
// labeled segment as "<Label>: <text>" with blank lines between segments;
// a single unlabeled segment passes through unchanged.
func abstractText(abstract *xmltree.Node) string {
	segments := abstract.All("AbstractText")
	if len(segments) == 0 {
		return ""
	}

	var parts []string
	for _, seg := range segments {
		text := seg.Text()
		if text == "" {
			continue
		}
		if label := seg.Attr("Label"); label != "" {
			parts = append(parts, label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n")
}

// articleID scans the flat ArticleIdList for an identifier of the given
// type. An absent type yields "", never an error.
func articleID(article *xmltree.Node, idType string) string {
	idList := article.Path("PubmedData", "ArticleIdList")
	for _, id := range idList.All("ArticleId") {
		if id.Attr("IdType") == idType {
			return id.Text()
		}
	}
	return ""
}
