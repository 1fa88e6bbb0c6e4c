package publish_test

import (
	"testing"

	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/stretchr/testify/require"
)

func TestDiscoverPostType(t *testing.T) {
	t.Parallel()
	cases := []struct {
		props publish.Properties
		want  string
	}{
		{publish.Properties{"content": "hi"}, "note"},
		{publish.Properties{"name": "Title", "content": "Body"}, "article"},
		{publish.Properties{"name": "Hello there", "content": "Hello   there, friend"}, "note"},
		{publish.Properties{"name": "Only a name"}, "article"},
		{publish.Properties{"name": "Hello there", "content": map[string]any{"html": "<p>Hello <em>there</em>, friend</p>"}}, "note"},
		{publish.Properties{"name": "Fish & chips", "content": map[string]any{"html": "<p>Fish &amp; chips tonight</p>"}}, "note"},
		{publish.Properties{"name": "Title", "content": map[string]any{"html": "<p>Body</p>"}}, "article"},
		{publish.Properties{"photo": "a.jpg", "video": "b.mp4"}, "video"},
		{publish.Properties{"like-of": "u", "bookmark-of": "u"}, "like"},
		{publish.Properties{"in-reply-to": "u", "rsvp": "yes"}, "rsvp"},
		{publish.Properties{"checkin": map[string]any{"name": "Cafe"}, "rsvp": "yes"}, "checkin"},
		{publish.Properties{"type": "event", "name": "Meetup"}, "event"},
		{publish.Properties{"photo": []any{}}, "note"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, publish.DiscoverPostType(tc.props), "%v", tc.props)
	}
}

func TestMergePostTypes(t *testing.T) {
	t.Parallel()
	preset := []publish.PostType{
		{Type: "note", Name: "Note", Post: publish.Templates{Path: "_notes/{slug}.md", URL: "notes/{slug}"}},
		{Type: "photo", Name: "Photo", Post: publish.Templates{Path: "_photos/{slug}.md", URL: "photos/{slug}"},
			Media: &publish.Templates{Path: "media/{filename}"}},
	}
	overrides := []publish.PostType{
		{Type: "note", Post: publish.Templates{URL: "n/{slug}"}},
		{Type: "photo", Media: &publish.Templates{URL: "/cdn/{filename}"}},
		{Type: "jam", Name: "Jam", Post: publish.Templates{Path: "_jams/{slug}.md", URL: "jams/{slug}"}},
	}

	merged := publish.MergePostTypes(preset, overrides)
	require.Equal(t, 3, merged.Len())

	note, ok := merged.Get("note")
	require.True(t, ok)
	require.Equal(t, "Note", note.Name)
	require.Equal(t, publish.Templates{Path: "_notes/{slug}.md", URL: "n/{slug}"}, note.Post)

	photo, _ := merged.Get("photo")
	media, ok := photo.MediaTemplates()
	require.True(t, ok)
	require.Equal(t, publish.Templates{Path: "media/{filename}", URL: "/cdn/{filename}"}, media)

	var order []string
	for _, pt := range merged.List() {
		order = append(order, pt.Type)
	}
	require.Equal(t, []string{"note", "photo", "jam"}, order)

	// the preset input stays untouched
	require.Equal(t, "notes/{slug}", preset[0].Post.URL)
	require.Empty(t, preset[1].Media.URL)
}

func TestPostType_Validate(t *testing.T) {
	t.Parallel()
	require.NoError(t, publish.PostType{Type: "note", Post: publish.Templates{Path: "a", URL: "b"}}.Validate())
	require.Error(t, publish.PostType{Post: publish.Templates{Path: "a", URL: "b"}}.Validate())
	require.Error(t, publish.PostType{Type: "note", Post: publish.Templates{Path: "a"}}.Validate())

	_, ok := publish.PostType{Type: "note"}.MediaTemplates()
	require.False(t, ok)
}
