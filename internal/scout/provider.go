package scout

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/timkosters/edge-city-finder/pkg/exa"
	"github.com/timkosters/edge-city-finder/pkg/tavily"
)

// Hit is a single ranked result from a search provider.
type Hit struct {
	Title    string
	URL      string
	Text     string
	ImageURL string
}

// SearchOptions bounds a provider search.
type SearchOptions struct {
	MaxResults     int
	PublishedAfter time.Time
	ExcerptChars   int
}

// Provider wraps an external search backend behind a uniform contract.
// Implementations must fail with an error rather than corrupt partial
// results already obtained from other queries.
type Provider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]Hit, error)
	Name() string
}

// exaProvider adapts the Exa client to the Provider contract.
type exaProvider struct {
	client exa.Client
}

// NewExaProvider wraps an Exa client as a search Provider.
func NewExaProvider(client exa.Client) Provider {
	return &exaProvider{client: client}
}

func (p *exaProvider) Name() string { return "exa" }

func (p *exaProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Hit, error) {
	req := exa.SearchRequest{
		Query:      query,
		NumResults: opts.MaxResults,
	}
	if !opts.PublishedAfter.IsZero() {
		req.StartPublishedDate = opts.PublishedAfter.Format("2006-01-02")
	}
	if opts.ExcerptChars > 0 {
		req.Contents = &exa.Contents{Text: &exa.TextContents{MaxCharacters: opts.ExcerptChars}}
	}

	resp, err := p.client.Search(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "scout: exa search")
	}

	hits := make([]Hit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, Hit{
			Title:    r.Title,
			URL:      r.URL,
			Text:     r.Text,
			ImageURL: r.Image,
		})
	}
	return hits, nil
}

// tavilyProvider adapts the Tavily client to the Provider contract.
type tavilyProvider struct {
	client tavily.Client
}

// NewTavilyProvider wraps a Tavily client as a search Provider.
func NewTavilyProvider(client tavily.Client) Provider {
	return &tavilyProvider{client: client}
}

func (p *tavilyProvider) Name() string { return "tavily" }

func (p *tavilyProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Hit, error) {
	resp, err := p.client.Search(ctx, tavily.SearchRequest{
		Query:       query,
		SearchDepth: "advanced",
		MaxResults:  opts.MaxResults,
	})
	if err != nil {
		return nil, eris.Wrap(err, "scout: tavily search")
	}

	hits := make([]Hit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, Hit{
			Title: r.Title,
			URL:   r.URL,
			Text:  r.Content,
		})
	}
	return hits, nil
}
