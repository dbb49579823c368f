package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/timkosters/edge-city-finder/internal/model"
)

func TestLocation(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		title string
		want  string
	}{
		{
			name: "city_state_in_text",
			text: "A 40-acre ranch outside Marfa, TX with water rights",
			want: "Marfa, TX",
		},
		{
			name:  "city_state_in_title",
			title: "Foreclosed motel in Twin Falls, ID",
			want:  "Twin Falls, ID",
		},
		{
			name: "two_word_city",
			text: "Located near Santa Fe, NM along the highway",
			want: "Santa Fe, NM",
		},
		{
			name: "invalid_state_code_skipped",
			text: "Report from Paris, ZZ about nothing",
			want: LocationUnknown,
		},
		{
			name: "bare_state_fallback",
			text: "rural acreage in WY for sale",
			want: "WY",
		},
		{
			name: "two_states_alphabetical_winner",
			text: "acreage in WY and ranchland in TX for sale",
			want: "TX",
		},
		{
			name: "no_location",
			text: "a property with no usable geography",
			want: LocationUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Location(tt.text, tt.title))
		})
	}
}

func TestLocationStable(t *testing.T) {
	text := "acreage in WY and ranchland in TX for sale"
	want := Location(text, "")
	for i := 0; i < 200; i++ {
		assert.Equal(t, want, Location(text, ""))
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "plain_dollar", text: "priced at $450,000 with owner financing", want: "$450,000"},
		{name: "million_suffix", text: "on the market for $1.2 million", want: "$1.2 million"},
		{name: "asking", text: "the owner is asking $85,000 firm", want: "$85,000"},
		{name: "no_price", text: "price available upon request", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Price(tt.text))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "query_stripped", in: "https://a.com/listing?utm=x", want: "https://a.com/listing"},
		{name: "fragment_stripped", in: "https://a.com/listing#photos", want: "https://a.com/listing"},
		{name: "trailing_slash", in: "https://a.com/listing/", want: "https://a.com/listing"},
		{name: "all_three", in: "https://a.com/listing/?utm=x#top", want: "https://a.com/listing"},
		{name: "already_clean", in: "https://a.com/listing", want: "https://a.com/listing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestClassifySource(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		channel string
		want    model.SourceType
	}{
		{name: "loopnet", url: "https://www.loopnet.com/listing/1", channel: "exa_loopnet", want: model.SourceListing},
		{name: "auction_site", url: "https://www.auction.com/details/2", channel: "exa_platforms", want: model.SourceAuction},
		{name: "news_domain", url: "https://www.smalltown-herald.com/story", channel: "exa_news", want: model.SourceNews},
		{name: "legal_channel", url: "https://courtrecords.example.com/case/9", channel: "exa_legal", want: model.SourceForeclosure},
		{name: "listing_beats_news", url: "https://news.loopnet.com/listing/3", channel: "exa_news", want: model.SourceListing},
		{name: "default_news", url: "https://example.com/page", channel: "manual", want: model.SourceNews},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySource(tt.url, tt.channel))
		})
	}
}
