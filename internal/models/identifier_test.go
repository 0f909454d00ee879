package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name string
		kind string
		id   string
		want MediaIdentifier
	}{
		{"movie", "movie", "tt1234567", MediaIdentifier{RawID: "tt1234567", Kind: KindMovie}},
		{"series episode", "series", "tt7654321:2:5", MediaIdentifier{RawID: "tt7654321", Kind: KindSeries, Season: 2, Episode: 5}},
		{"series without episode", "series", "tt7654321", MediaIdentifier{RawID: "tt7654321", Kind: KindSeries}},
		{"series garbage suffix", "series", "tt7654321:x:5", MediaIdentifier{RawID: "tt7654321", Kind: KindSeries}},
		{"movie keeps suffix", "movie", "tt1234567:1:1", MediaIdentifier{RawID: "tt1234567:1:1", Kind: KindMovie}},
		{"kind normalised", " Series ", "tt7654321:1:10", MediaIdentifier{RawID: "tt7654321", Kind: KindSeries, Season: 1, Episode: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIdentifier(tt.kind, tt.id))
		})
	}
}

func TestMediaIdentifierCacheKey(t *testing.T) {
	assert.Equal(t, "title:tt7654321:series:2:5", ParseIdentifier("series", "tt7654321:2:5").CacheKey())
	assert.Equal(t, "title:tt1234567:movie:0:0", ParseIdentifier("movie", "tt1234567").CacheKey())
}

func TestMediaIdentifierString(t *testing.T) {
	assert.Equal(t, "tt7654321:2:5", ParseIdentifier("series", "tt7654321:2:5").String())
	assert.Equal(t, "tt1234567", ParseIdentifier("movie", "tt1234567").String())
}
