package analyst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare_object",
			in:   `{"score": 80}`,
			want: `{"score": 80}`,
		},
		{
			name: "json_fence",
			in:   "```json\n{\"score\": 80}\n```",
			want: `{"score": 80}`,
		},
		{
			name: "plain_fence",
			in:   "```\n{\"score\": 80}\n```",
			want: `{"score": 80}`,
		},
		{
			name: "prose_around_object",
			in:   `Here is my verdict: {"score": 80} Hope that helps!`,
			want: `{"score": 80}`,
		},
		{
			name: "nested_braces",
			in:   `{"a": {"b": 1}}`,
			want: `{"a": {"b": 1}}`,
		},
		{
			name: "no_object",
			in:   "I cannot answer that.",
			want: "I cannot answer that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestDecodeVerifyVerdict(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		v, err := decodeVerifyVerdict(`{
			"is_listing": true,
			"is_available": true,
			"property_type": "college campus",
			"classification": "qualified",
			"reason": "active listing",
			"extracted_price": "$2,500,000",
			"extracted_beds": 120,
			"extracted_acreage": 40.5
		}`)
		require.NoError(t, err)
		assert.True(t, v.IsListing)
		assert.True(t, v.IsAvailable)
		assert.Equal(t, "qualified", v.Classification)
		require.NotNil(t, v.ExtractedPrice)
		assert.Equal(t, "$2,500,000", *v.ExtractedPrice)
		require.NotNil(t, v.ExtractedBeds)
		assert.Equal(t, 120, *v.ExtractedBeds)
		require.NotNil(t, v.ExtractedAcreage)
		assert.InDelta(t, 40.5, *v.ExtractedAcreage, 1e-9)
	})

	t.Run("unknown_classification_becomes_interesting", func(t *testing.T) {
		v, err := decodeVerifyVerdict(`{"classification": "maybe-later"}`)
		require.NoError(t, err)
		assert.Equal(t, "interesting", v.Classification)
	})

	t.Run("missing_classification_becomes_interesting", func(t *testing.T) {
		v, err := decodeVerifyVerdict(`{"is_available": false}`)
		require.NoError(t, err)
		assert.Equal(t, "interesting", v.Classification)
	})

	t.Run("no_json_object", func(t *testing.T) {
		_, err := decodeVerifyVerdict("Sorry, I can't classify this page.")
		require.Error(t, err)

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, "Sorry, I can't classify this page.", decodeErr.Raw)
	})

	t.Run("malformed_json", func(t *testing.T) {
		_, err := decodeVerifyVerdict(`{"classification": `)
		require.Error(t, err)

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
	})
}

func TestDecodeAnalyzeVerdict(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		v, err := decodeAnalyzeVerdict("```json\n" + `{
			"score": 85,
			"ai_summary": "Former college campus with intact dorms.",
			"inferred_beds": 200,
			"inferred_acreage": 120
		}` + "\n```")
		require.NoError(t, err)
		require.NotNil(t, v.Score)
		assert.Equal(t, 85, *v.Score)
		assert.Equal(t, "Former college campus with intact dorms.", v.AISummary)
	})

	t.Run("missing_score_stays_nil", func(t *testing.T) {
		v, err := decodeAnalyzeVerdict(`{"ai_summary": "unclear"}`)
		require.NoError(t, err)
		assert.Nil(t, v.Score)
	})

	t.Run("no_json_object", func(t *testing.T) {
		_, err := decodeAnalyzeVerdict("nothing useful")
		require.Error(t, err)
	})
}
