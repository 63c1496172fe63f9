package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssessRecentContent(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	fresh := now.AddDate(0, 0, -5).Format("2006-01-02")
	stale := now.AddDate(0, -6, 0).Format("2006-01-02")

	tests := []struct {
		name    string
		sources []SearchSource
		want    bool
	}{
		{name: "no sources", want: false},
		{
			name: "all fresh",
			sources: []SearchSource{
				{PublishedDate: fresh}, {PublishedDate: fresh},
			},
			want: true,
		},
		{
			name: "below the ratio",
			sources: []SearchSource{
				{PublishedDate: fresh}, {PublishedDate: stale},
				{PublishedDate: stale}, {PublishedDate: stale},
			},
			want: false,
		},
		{
			name: "exactly at the ratio",
			sources: []SearchSource{
				{PublishedDate: fresh}, {PublishedDate: fresh},
				{PublishedDate: stale}, {PublishedDate: stale},
				{PublishedDate: stale},
			},
			want: true,
		},
		{
			name: "undated sources count against the ratio",
			sources: []SearchSource{
				{PublishedDate: fresh}, {}, {}, {},
			},
			want: false,
		},
		{
			name: "rfc3339 dates parse too",
			sources: []SearchSource{
				{PublishedDate: now.AddDate(0, 0, -1).Format(time.RFC3339)},
			},
			want: true,
		},
		{
			name: "garbage dates skipped",
			sources: []SearchSource{
				{PublishedDate: "last tuesday"}, {PublishedDate: fresh},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessRecentContent(tt.sources, now))
		})
	}
}

func TestLocation(t *testing.T) {
	var nilLoc *Location
	assert.True(t, nilLoc.IsZero())
	assert.False(t, nilLoc.HasValidCountry())
	assert.Empty(t, nilLoc.Canonical())

	assert.True(t, (&Location{}).IsZero())
	assert.False(t, (&Location{City: "Berlin"}).IsZero())

	assert.True(t, (&Location{Country: "DE"}).HasValidCountry())
	assert.True(t, (&Location{Country: "de"}).HasValidCountry())
	assert.False(t, (&Location{Country: "DEU"}).HasValidCountry())
	assert.False(t, (&Location{Country: "D1"}).HasValidCountry())
	assert.False(t, (&Location{Country: ""}).HasValidCountry())

	a := &Location{City: " Berlin ", Country: "DE"}
	b := &Location{City: "berlin", Country: "de"}
	assert.Equal(t, a.Canonical(), b.Canonical(), "equivalent hints hash equally")
}
