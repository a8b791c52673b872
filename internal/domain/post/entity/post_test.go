package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"draft", "publishing", "scheduled", "published", "failed"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	for _, s := range []string{"", "error", "PUBLISHED", "queued"} {
		_, err := ParseStatus(s)
		assert.ErrorIs(t, err, ErrInvalidStatus, s)
	}
}

func TestMetricsMerge_AbsentFieldsKeepOldValues(t *testing.T) {
	stored := Metrics{Views: 10, Likes: 5}
	views := 20

	got := stored.Merge(MetricsUpdate{Views: &views})

	assert.Equal(t, Metrics{Views: 20, Likes: 5}, got)
}

func TestMetricsMerge_ExplicitZeroIsPresent(t *testing.T) {
	stored := Metrics{Views: 10, Likes: 5, Comments: 2, Shares: 1}
	zero := 0

	got := stored.Merge(MetricsUpdate{Shares: &zero})

	assert.Equal(t, Metrics{Views: 10, Likes: 5, Comments: 2, Shares: 0}, got)
}

func TestMetricsMerge_ClampsNegatives(t *testing.T) {
	neg := -3
	got := Metrics{Views: -1}.Merge(MetricsUpdate{Likes: &neg})
	assert.Equal(t, Metrics{}, got)
}

func TestPostExternalID(t *testing.T) {
	p := &Post{LinkedInPostID: "li-1"}
	assert.Equal(t, "li-1", p.ExternalID())

	p.AyrshareID = "ay-1"
	assert.Equal(t, "ay-1", p.ExternalID())
}

func TestPostDeleteTargetID(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want string
	}{
		{"published uses network id", Post{Status: StatusPublished, LinkedInPostID: "li-1", AyrshareID: "ay-1"}, "li-1"},
		{"published without network id", Post{Status: StatusPublished, AyrshareID: "ay-1"}, ""},
		{"scheduled uses tracking id", Post{Status: StatusScheduled, AyrshareID: "ay-2"}, "ay-2"},
		{"draft has none", Post{Status: StatusDraft, LinkedInPostID: "li-1"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.post.DeleteTargetID())
			assert.Equal(t, tt.want != "", tt.post.HasExternalCopy())
		})
	}
}

func TestPostCanSyncAnalytics(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want bool
	}{
		{"published with tracking id", Post{Status: StatusPublished, AyrshareID: "ay"}, true},
		{"published with network id", Post{Status: StatusPublished, LinkedInPostID: "li"}, true},
		{"published without ids", Post{Status: StatusPublished}, false},
		{"scheduled with tracking id", Post{Status: StatusScheduled, AyrshareID: "ay"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.post.CanSyncAnalytics())
		})
	}
}

func TestPostNormalize(t *testing.T) {
	p := &Post{Status: StatusPublished, ErrorLog: "old failure"}
	p.Normalize()

	assert.Equal(t, PlatformLinkedIn, p.Platform)
	assert.NotNil(t, p.MediaURLs)
	assert.NotNil(t, p.Hashtags)
	assert.NotNil(t, p.GeneratedVariants)
	assert.Empty(t, p.ErrorLog)

	failed := &Post{Status: StatusFailed, ErrorLog: "boom"}
	failed.Normalize()
	assert.Equal(t, "boom", failed.ErrorLog)
}

func TestLinkedInOptions(t *testing.T) {
	assert.NoError(t, LinkedInOptions{}.Validate())
	assert.NoError(t, LinkedInOptions{Visibility: VisibilityConnections}.Validate())
	assert.ErrorIs(t, LinkedInOptions{Visibility: "friends"}.Validate(), ErrInvalidVisibility)

	opts := LinkedInOptions{Targeting: &Targeting{}}.WithDefaults()
	assert.Equal(t, VisibilityPublic, opts.Visibility)
	assert.Nil(t, opts.Targeting)

	opts = LinkedInOptions{Targeting: &Targeting{Countries: []string{"US"}}}.WithDefaults()
	require.NotNil(t, opts.Targeting)
	assert.Equal(t, []string{"US"}, opts.Targeting.Countries)
}
