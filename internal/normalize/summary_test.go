package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
)

func TestSummaries(t *testing.T) {
	t.Run("nested author items", func(t *testing.T) {
		root := mustParse(t, `<eSummaryResult>
			<DocSum>
				<Id>12345678</Id>
				<Item Name="Title" Type="String">A landmark study</Item>
				<Item Name="Source" Type="String">Lancet</Item>
				<Item Name="PubDate" Type="Date">2021 Jun 1</Item>
				<Item Name="AuthorList" Type="List">
					<Item Name="Author" Type="String">Smith J</Item>
					<Item Name="Author" Type="String">Doe A</Item>
				</Item>
			</DocSum>
		</eSummaryResult>`)

		summaries := Summaries(root)
		require.Len(t, summaries, 1)

		s := summaries[0]
		assert.Equal(t, "12345678", s.PMID)
		assert.Equal(t, "A landmark study", s.Title)
		assert.Equal(t, "Lancet", s.Source)
		assert.Equal(t, "2021 Jun 1", s.PubDate)
		assert.Equal(t, []string{"Smith J", "Doe A"}, s.Authors)
	})

	t.Run("flat comma separated author string", func(t *testing.T) {
		root := mustParse(t, `<eSummaryResult>
			<DocSum>
				<Id>12345678</Id>
				<Item Name="AuthorList" Type="String">Smith J, Doe A</Item>
			</DocSum>
		</eSummaryResult>`)

		summaries := Summaries(root)
		require.Len(t, summaries, 1)
		assert.Equal(t, []string{"Smith J", "Doe A"}, summaries[0].Authors)
	})

	t.Run("missing items fall back to defaults", func(t *testing.T) {
		root := mustParse(t, `<eSummaryResult><DocSum><Id>1</Id></DocSum></eSummaryResult>`)

		summaries := Summaries(root)
		require.Len(t, summaries, 1)

		s := summaries[0]
		assert.Equal(t, domain.DefaultTitle, s.Title)
		assert.Equal(t, domain.DefaultJournal, s.Source)
		assert.Equal(t, domain.DefaultDate, s.PubDate)
		assert.NotNil(t, s.Authors)
		assert.Empty(t, s.Authors)
	})

	t.Run("multiple docsums preserve order", func(t *testing.T) {
		root := mustParse(t, `<eSummaryResult>
			<DocSum><Id>1</Id><Item Name="Title" Type="String">First</Item></DocSum>
			<DocSum><Id>2</Id><Item Name="Title" Type="String">Second</Item></DocSum>
		</eSummaryResult>`)

		summaries := Summaries(root)
		require.Len(t, summaries, 2)
		assert.Equal(t, "First", summaries[0].Title)
		assert.Equal(t, "Second", summaries[1].Title)
	})
}
