// Package normalize maps parsed E-utilities XML trees into typed domain
// records. Every function is pure and deterministic given its input tree:
// missing or oddly shaped fields degrade to documented defaults and never
// produce errors. Only the transport layer reports failures.
package normalize

import (
	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/xmltree"
)

// SearchResult normalizes an eSearchResult tree. RetMax and RetStart echo
// the request window; neither bounds the identifier list.
func SearchResult(root *xmltree.Node) domain.SearchResult {
	result := domain.SearchResult{
		IDs:              []string{},
		Count:            root.ChildInt("Count"),
		RetMax:           root.ChildInt("RetMax"),
		RetStart:         root.ChildInt("RetStart"),
		QueryTranslation: root.ChildText("QueryTranslation"),
	}

	for _, id := range root.First("IdList").All("Id") {
		if v := id.Text(); v != "" {
			result.IDs = append(result.IDs, v)
		}
	}

	return result
}

// LinkSets normalizes an eLinkResult tree into one LinkSet per
// (source identifier, link name) pair. A LinkSetDb with no links yields a
// LinkSet with an empty identifier list, which is a valid outcome and not
// a failure.
func LinkSets(root *xmltree.Node) []domain.LinkSet {
	var sets []domain.LinkSet

	for _, ls := range root.All("LinkSet") {
		sourceID := ls.Path("IdList", "Id").Text()

		dbs := ls.All("LinkSetDb")
		if len(dbs) == 0 {
			// No links of any kind for this identifier.
			if sourceID != "" {
				sets = append(sets, domain.LinkSet{SourceID: sourceID, IDs: []string{}})
			}
			continue
		}

		for _, db := range dbs {
			set := domain.LinkSet{
				SourceID: sourceID,
				LinkName: db.ChildText("LinkName"),
				IDs:      []string{},
			}
			for _, link := range db.All("Link") {
				if id := link.ChildText("Id"); id != "" {
					set.IDs = append(set.IDs, id)
				}
			}
			sets = append(sets, set)
		}
	}

	return sets
}
