package publish_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/stretchr/testify/require"
)

func TestRenderPath_DateTokens(t *testing.T) {
	t.Parallel()
	props := publish.Properties{"published": "2024-03-15T10:30:05Z", "mp-slug": "hello"}
	rc := publish.RenderContext{Location: time.UTC}

	cases := []struct {
		tmpl, want string
	}{
		{"{yyyy}/{MM}/{dd}/{slug}", "2024/03/15/hello"},
		{"{yy}-{M}-{d}", "24-3-15"},
		{"q{q}", "q1"},
		{"{MMM} {MMMM}", "Mar March"},
		{"{D}/{DDD}", "75/075"},
		{"{w}/{ww}", "11/11"},
		{"{H}:{HH}:{m}:{mm}:{s}:{ss}", "10:10:30:30:5:05"},
		{"{t}", strconv.FormatInt(time.Date(2024, 3, 15, 10, 30, 5, 0, time.UTC).Unix(), 10)},
		{"no placeholders", "no placeholders"},
	}
	for _, tc := range cases {
		got, err := publish.RenderPath(tc.tmpl, props, rc)
		require.NoError(t, err, tc.tmpl)
		require.Equal(t, tc.want, got, tc.tmpl)
	}
}

func TestRenderPath_UsesLocation(t *testing.T) {
	t.Parallel()
	props := publish.Properties{"published": "2024-03-15T02:00:00Z", "mp-slug": "late"}
	zone := time.FixedZone("EST", -5*3600)

	got, err := publish.RenderPath("{yyyy}/{MM}/{dd}/{HH}", props, publish.RenderContext{Location: zone})
	require.NoError(t, err)
	require.Equal(t, "2024/03/14/21", got)

	// A nil location keeps the submitted offset.
	props["published"] = "2024-03-15T02:00:00+09:00"
	got, err = publish.RenderPath("{dd}/{HH}", props, publish.RenderContext{})
	require.NoError(t, err)
	require.Equal(t, "15/02", got)
}

func TestRenderPath_FileTokens(t *testing.T) {
	t.Parallel()
	props := publish.Properties{"filename": "abc.jpg", "media-type": "photo", "post-type": "photo"}

	got, err := publish.RenderPath("{media-type}/{post-type}/{basename}.{ext}/{filename}", props, publish.RenderContext{})
	require.NoError(t, err)
	require.Equal(t, "photo/photo/abc.jpg/abc.jpg", got)
}

func TestRenderPath_MissingValue(t *testing.T) {
	t.Parallel()
	_, err := publish.RenderPath("notes/{slug}", publish.Properties{}, publish.RenderContext{})
	require.Error(t, err)
	require.True(t, publish.IsTemplateResolution(err))

	var tre *publish.TemplateResolutionError
	require.ErrorAs(t, err, &tre)
	require.Equal(t, "slug", tre.Token)

	_, err = publish.RenderPath("{nope}", publish.Properties{"published": "2024-01-01"}, publish.RenderContext{})
	require.True(t, publish.IsTemplateResolution(err))

	_, err = publish.RenderPath("{yyyy}", publish.Properties{"published": "yesterday"}, publish.RenderContext{})
	require.True(t, publish.IsTemplateResolution(err))
}

func TestRenderPath_IsPure(t *testing.T) {
	t.Parallel()
	props := publish.Properties{"published": "2024-03-15T10:30:00Z", "mp-slug": "a"}
	before := props.Clone()
	rc := publish.RenderContext{Location: time.UTC}

	first, err := publish.RenderPath("{yyyy}/{slug}", props, rc)
	require.NoError(t, err)
	second, err := publish.RenderPath("{yyyy}/{slug}", props, rc)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, before, props)
}
