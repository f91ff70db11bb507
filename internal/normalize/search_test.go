package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
)

func TestSearchResult(t *testing.T) {
	t.Run("populated result", func(t *testing.T) {
		root := mustParse(t, `<eSearchResult>
			<Count>245</Count>
			<RetMax>20</RetMax>
			<RetStart>0</RetStart>
			<QueryTranslation>"myocardial infarction"[MeSH Terms]</QueryTranslation>
			<IdList>
				<Id>11111111</Id>
				<Id>22222222</Id>
			</IdList>
		</eSearchResult>`)

		result := SearchResult(root)
		assert.Equal(t, 245, result.Count)
		assert.Equal(t, 20, result.RetMax)
		assert.Equal(t, 0, result.RetStart)
		assert.Equal(t, `"myocardial infarction"[MeSH Terms]`, result.QueryTranslation)
		assert.Equal(t, []string{"11111111", "22222222"}, result.IDs)
	})

	t.Run("no matches yields empty slice not nil", func(t *testing.T) {
		root := mustParse(t, `<eSearchResult><Count>0</Count><IdList/></eSearchResult>`)
		result := SearchResult(root)
		assert.NotNil(t, result.IDs)
		assert.Empty(t, result.IDs)
	})

	t.Run("single id still yields a list", func(t *testing.T) {
		root := mustParse(t, `<eSearchResult><Count>1</Count><IdList><Id>33333333</Id></IdList></eSearchResult>`)
		assert.Equal(t, []string{"33333333"}, SearchResult(root).IDs)
	})
}

func TestLinkSets(t *testing.T) {
	t.Run("one set per source and link name", func(t *testing.T) {
		root := mustParse(t, `<eLinkResult>
			<LinkSet>
				<IdList><Id>11111111</Id></IdList>
				<LinkSetDb>
					<LinkName>pubmed_pubmed_citedin</LinkName>
					<Link><Id>44444444</Id></Link>
					<Link><Id>55555555</Id></Link>
				</LinkSetDb>
			</LinkSet>
			<LinkSet>
				<IdList><Id>22222222</Id></IdList>
				<LinkSetDb>
					<LinkName>pubmed_pubmed_citedin</LinkName>
					<Link><Id>66666666</Id></Link>
				</LinkSetDb>
			</LinkSet>
		</eLinkResult>`)

		sets := LinkSets(root)
		require.Len(t, sets, 2)
		assert.Equal(t, domain.LinkSet{
			SourceID: "11111111",
			LinkName: "pubmed_pubmed_citedin",
			IDs:      []string{"44444444", "55555555"},
		}, sets[0])
		assert.Equal(t, []string{"66666666"}, sets[1].IDs)
	})

	t.Run("identifier with no links yields empty set", func(t *testing.T) {
		root := mustParse(t, `<eLinkResult>
			<LinkSet>
				<IdList><Id>11111111</Id></IdList>
			</LinkSet>
		</eLinkResult>`)

		sets := LinkSets(root)
		require.Len(t, sets, 1)
		assert.Equal(t, "11111111", sets[0].SourceID)
		assert.NotNil(t, sets[0].IDs)
		assert.Empty(t, sets[0].IDs)
	})

	t.Run("empty LinkSetDb yields empty id list", func(t *testing.T) {
		root := mustParse(t, `<eLinkResult>
			<LinkSet>
				<IdList><Id>11111111</Id></IdList>
				<LinkSetDb><LinkName>pubmed_pubmed</LinkName></LinkSetDb>
			</LinkSet>
		</eLinkResult>`)

		sets := LinkSets(root)
		require.Len(t, sets, 1)
		assert.Equal(t, "pubmed_pubmed", sets[0].LinkName)
		assert.Empty(t, sets[0].IDs)
	})
}
