package scout

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timkosters/edge-city-finder/internal/model"
)

// fakeProvider returns canned hits keyed by query substring and records
// every query it received.
type fakeProvider struct {
	name    string
	hits    map[string][]Hit
	failOn  string
	queries []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Hit, error) {
	f.queries = append(f.queries, query)
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, eris.New("provider unavailable")
	}
	for key, hits := range f.hits {
		if strings.Contains(query, key) {
			return hits, nil
		}
	}
	return nil, nil
}

func TestFindCandidatesBuildsLeads(t *testing.T) {
	primary := &fakeProvider{
		name: "exa",
		hits: map[string][]Hit{
			"loopnet": {{
				Title:    "Shuttered college campus, 120 acres",
				URL:      "https://www.loopnet.com/listing/42?utm=feed",
				Text:     "Former liberal arts campus in Marfa, TX. Asking $2,500,000. " + strings.Repeat("x", 600),
				ImageURL: "https://img.example.com/42.jpg",
			}},
		},
	}
	engine := New(primary, nil, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	lead := leads[0]
	assert.Equal(t, "Shuttered college campus, 120 acres", lead.Title)
	assert.Equal(t, "https://www.loopnet.com/listing/42?utm=feed", lead.URL)
	assert.Equal(t, "Marfa, TX", lead.Location)
	assert.Equal(t, "$2,500,000", lead.Price)
	assert.True(t, strings.HasSuffix(lead.Description, "..."))
	assert.LessOrEqual(t, len(lead.Description), descriptionLimit+3)
	assert.Equal(t, model.StatusNew, lead.Status)
	assert.Equal(t, 50, lead.Score)
	assert.Equal(t, model.StageDiscovered, lead.FunnelStage)
	assert.True(t, lead.IsNew)
	assert.Equal(t, model.SourceListing, lead.SourceType)
	assert.Equal(t, "exa_loopnet", lead.DiscoveredVia)
	assert.Equal(t, "site:loopnet.com college campus for sale", lead.SearchQuery)
}

func TestFindCandidatesMultibyteDescription(t *testing.T) {
	primary := &fakeProvider{
		name: "exa",
		hits: map[string][]Hit{
			"loopnet": {{
				Title: "Château listing",
				URL:   "https://www.loopnet.com/listing/8",
				Text:  strings.Repeat("é", 600),
			}},
		},
	}
	engine := New(primary, nil, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	desc := leads[0].Description
	assert.True(t, utf8.ValidString(desc))
	assert.True(t, strings.HasSuffix(desc, "..."))
	assert.Equal(t, descriptionLimit+3, utf8.RuneCountInString(desc))
}

func TestFindCandidatesUntitledFallback(t *testing.T) {
	primary := &fakeProvider{
		name: "exa",
		hits: map[string][]Hit{
			"loopnet": {{URL: "https://www.loopnet.com/listing/7", Text: "no title here"}},
		},
	}
	engine := New(primary, nil, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Untitled Property", leads[0].Title)
}

func TestFindCandidatesDedup(t *testing.T) {
	hit := Hit{Title: "Campus", URL: "https://www.loopnet.com/listing/1/", Text: "t"}
	primary := &fakeProvider{
		name: "exa",
		hits: map[string][]Hit{
			// Same listing surfaced by two different queries.
			"loopnet": {hit},
			"crexi":   {{Title: "Campus", URL: "https://www.loopnet.com/listing/1?src=crexi", Text: "t"}},
		},
	}
	engine := New(primary, nil, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	// The first query to surface the URL gets the credit.
	assert.Equal(t, "exa_loopnet", leads[0].DiscoveredVia)
}

func TestFindCandidatesSkipsKnownURLs(t *testing.T) {
	primary := &fakeProvider{
		name: "exa",
		hits: map[string][]Hit{
			"loopnet": {{Title: "Campus", URL: "https://www.loopnet.com/listing/1?utm=x", Text: "t"}},
		},
	}
	engine := New(primary, nil, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{
		KnownURLs: map[string]struct{}{
			"https://www.loopnet.com/listing/1": {},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestFindCandidatesCustomQuery(t *testing.T) {
	primary := &fakeProvider{
		name: "exa",
		hits: map[string][]Hit{
			"ghost town": {{Title: "Ghost town for sale", URL: "https://example.com/ghost", Text: "t"}},
		},
	}
	secondary := &fakeProvider{name: "tavily"}
	engine := New(primary, secondary, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{CustomQuery: "ghost town for sale"})
	require.NoError(t, err)

	require.NotEmpty(t, leads)
	assert.Equal(t, "manual", leads[0].DiscoveredVia)
	assert.Equal(t, "ghost town for sale", primary.queries[0])
	// Custom queries never trigger the secondary pass.
	assert.Empty(t, secondary.queries)
}

func TestFindCandidatesSecondaryPass(t *testing.T) {
	primary := &fakeProvider{name: "exa"}
	secondary := &fakeProvider{
		name: "tavily",
		hits: map[string][]Hit{
			"foreclosure": {{Title: "Resort heads to foreclosure", URL: "https://www.loopnet.com/news/9", Text: "t"}},
		},
	}
	engine := New(primary, secondary, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	assert.Equal(t, "tavily_news", leads[0].DiscoveredVia)
	// Secondary hits are always news regardless of their URL.
	assert.Equal(t, model.SourceNews, leads[0].SourceType)
	assert.Len(t, secondary.queries, len(secondaryQueries))
}

func TestFindCandidatesQueryFailureIsolated(t *testing.T) {
	primary := &fakeProvider{
		name:   "exa",
		failOn: "crexi",
		hits: map[string][]Hit{
			"loopnet": {{Title: "Campus", URL: "https://www.loopnet.com/listing/1", Text: "t"}},
		},
	}
	engine := New(primary, nil, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{})
	require.NoError(t, err)
	// One query failed, the rest of the catalog still ran.
	assert.Len(t, leads, 1)
	assert.Len(t, primary.queries, len(DefaultCatalog()[CategoryPlatforms])+
		len(DefaultCatalog()[CategoryNews])+len(DefaultCatalog()[CategoryDistress]))
}

func TestFindCandidatesNoPrimary(t *testing.T) {
	engine := New(nil, &fakeProvider{name: "tavily"}, WithRateLimit(1000))

	leads, err := engine.FindCandidates(context.Background(), FindRequest{})
	require.NoError(t, err)
	assert.Nil(t, leads)
}

func TestFindCandidatesRunsFileAddedCategories(t *testing.T) {
	catalog := DefaultCatalog()
	catalog["regional"] = []CatalogQuery{
		{Query: "mountain west campus for sale", Channel: "exa_regional"},
	}
	primary := &fakeProvider{name: "exa"}
	engine := New(primary, nil, WithRateLimit(1000), WithCatalog(catalog))

	_, err := engine.FindCandidates(context.Background(), FindRequest{})
	require.NoError(t, err)
	// A default run covers every catalog category, including ones merged
	// in from a catalog file.
	assert.Contains(t, primary.queries, "mountain west campus for sale")
	assert.Equal(t, "mountain west campus for sale", primary.queries[len(primary.queries)-1])
}

func TestFindCandidatesCategoryFilter(t *testing.T) {
	primary := &fakeProvider{name: "exa"}
	engine := New(primary, nil, WithRateLimit(1000))

	_, err := engine.FindCandidates(context.Background(), FindRequest{
		Categories: []Category{CategoryDistress},
	})
	require.NoError(t, err)
	assert.Len(t, primary.queries, len(DefaultCatalog()[CategoryDistress]))
}
