// Package fulltext reconstructs a title/content section hierarchy from a
// PMC article body tree.
//
// PMC body markup nests <sec> elements arbitrarily deep, with optional
// <title> children and paragraph content at any level. Extraction walks the
// tree recursively, inheriting titles downward, and falls back to a
// whole-article text sweep when no structured sections can be recovered.
package fulltext

import (
	"strings"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/xmltree"
)

// FlattenText recovers all text beneath a node: a text node yields its
// value, an element yields the flattened text of every child joined by
// single spaces, trimmed. This is the one generic flattener; the
// structured section walk and the whole-article fallback both use it,
// differing only in their entry node.
func FlattenText(n *xmltree.Node) string {
	if n == nil {
		return ""
	}
	if n.IsText() {
		return strings.TrimSpace(n.Value)
	}

	var parts []string
	for _, c := range n.Children {
		if text := FlattenText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Extract walks the article's body and returns the recovered sections in
// traversal order together with the flattened full text. The full text is
// the concatenation of "<title>\n<content>\n" per emitted section.
//
// When the body holds no <sec> elements, its direct paragraphs become a
// single section titled with the "Content" sentinel. When structured
// recovery finds nothing at all, the entire article node is swept for text
// and, if any is found, reported as one "Full Article Content" section.
// An article with no recoverable text anywhere yields an empty result,
// which is a valid outcome, not an error.
func Extract(article *xmltree.Node) ([]domain.Section, string) {
	var sections []domain.Section
	var full strings.Builder

	body := article.First("body")
	if secs := body.All("sec"); len(secs) > 0 {
		for _, sec := range secs {
			walkSection(sec, domain.SectionTitleContent, &sections, &full)
		}
	} else if body != nil {
		emitSection(domain.SectionTitleContent, paragraphText(body), &sections, &full)
	}

	if len(sections) == 0 && full.Len() == 0 {
		if text := FlattenText(article); text != "" {
			emitSection(domain.SectionTitleFullArticle, text, &sections, &full)
		}
	}

	return sections, full.String()
}

// walkSection resolves the section's title, inheriting the parent title
// when it has none of its own, then either recurses into nested sections
// or emits this level's paragraph content.
//
// A section that has both nested sections and its own paragraphs keeps
// only the nested sections; the intermediate paragraph text is dropped.
// This mirrors the upstream extraction behavior and is covered by tests.
func walkSection(sec *xmltree.Node, inherited string, sections *[]domain.Section, full *strings.Builder) {
	title := FlattenText(sec.First("title"))
	if title == "" {
		title = inherited
	}

	if nested := sec.All("sec"); len(nested) > 0 {
		for _, sub := range nested {
			walkSection(sub, title, sections, full)
		}
		return
	}

	emitSection(title, paragraphText(sec), sections, full)
}

// paragraphText flattens every <p> child and joins the non-empty results
// with blank lines.
func paragraphText(n *xmltree.Node) string {
	var parts []string
	for _, p := range n.All("p") {
		if text := FlattenText(p); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func emitSection(title, content string, sections *[]domain.Section, full *strings.Builder) {
	if content == "" {
		return
	}
	*sections = append(*sections, domain.Section{Title: title, Content: content})
	full.WriteString(title)
	full.WriteString("\n")
	full.WriteString(content)
	full.WriteString("\n")
}
