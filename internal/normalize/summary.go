package normalize

import (
	"strings"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/xmltree"
)

// Summaries normalizes an eSummaryResult tree into one Summary per DocSum.
// DocSum payloads are flat lists of <Item Name="..." Type="..."> nodes;
// absent items degrade to the usual placeholder defaults.
func Summaries(root *xmltree.Node) []domain.Summary {
	var summaries []domain.Summary

	for _, doc := range root.All("DocSum") {
		s := domain.Summary{
			PMID:    doc.ChildText("Id"),
			Title:   domain.DefaultTitle,
			Authors: []string{},
			Source:  domain.DefaultJournal,
			PubDate: domain.DefaultDate,
		}

		for _, item := range doc.All("Item") {
			switch item.Attr("Name") {
			case "Title":
				if v := item.Text(); v != "" {
					s.Title = v
				}
			case "Source":
				if v := item.Text(); v != "" {
					s.Source = v
				}
			case "PubDate":
				if v := item.Text(); v != "" {
					s.PubDate = v
				}
			case "AuthorList":
				s.Authors = summaryAuthors(item)
			}
		}

		summaries = append(summaries, s)
	}

	return summaries
}

// summaryAuthors extracts author names from a DocSum AuthorList item.
// The list usually carries nested <Item Name="Author"> children, but some
// payloads collapse it to a single comma-separated string value.
func summaryAuthors(item *xmltree.Node) []string {
	authors := []string{}

	for _, a := range item.All("Item") {
		if a.Attr("Name") != "Author" {
			continue
		}
		if v := a.Text(); v != "" {
			authors = append(authors, v)
		}
	}
	if len(authors) > 0 {
		return authors
	}

	for _, part := range strings.Split(item.Text(), ",") {
		if v := strings.TrimSpace(part); v != "" {
			authors = append(authors, v)
		}
	}
	return authors
}
