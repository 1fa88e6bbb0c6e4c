package publish_test

import (
	"context"
	"testing"
	"time"

	"github.com/jlrickert/pubkit/pkg/filestore"
	"github.com/jlrickert/pubkit/pkg/index"
	"github.com/jlrickert/pubkit/pkg/internal"
	"github.com/jlrickert/pubkit/pkg/publish"
)

var t0 = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

const me = "https://website.example"

// fixedHasher returns the same digest for every input.
type fixedHasher string

func (h fixedHasher) Hash([]byte) string { return string(h) }

// Fixture bundles the collaborators of the lifecycle managers.
type Fixture struct {
	t *testing.T

	ctx   context.Context
	clock *internal.TestClock
	posts *index.MemoryStore
	media *index.MemoryStore
	files *filestore.MemoryStore

	app publish.Application
	pub *publish.Publication
}

func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	posts := index.NewMemoryStore()
	media := index.NewMemoryStore()
	return &Fixture{
		t:     t,
		ctx:   context.Background(),
		clock: internal.NewTestClock(t0),
		posts: posts,
		media: media,
		files: filestore.NewMemoryStore(),
		app:   publish.Application{TimeZone: "UTC", Posts: posts, Media: media},
		pub:   testPublication(),
	}
}

func testPublication() *publish.Publication {
	return &publish.Publication{
		Me: me,
		PostTypes: publish.NewPostTypes(
			publish.PostType{
				Type: "note",
				Post: publish.Templates{Path: "notes/{yyyy}/{MM}/{dd}/{slug}.md", URL: "notes/{yyyy}/{MM}/{dd}/{slug}"},
			},
			publish.PostType{
				Type: "article",
				Post: publish.Templates{Path: "articles/{slug}.md", URL: "articles/{slug}"},
			},
			publish.PostType{
				Type:  "photo",
				Post:  publish.Templates{Path: "photos/{slug}.md", URL: "photos/{slug}"},
				Media: &publish.Templates{Path: "media/{yyyy}/{filename}"},
			},
			publish.PostType{
				Type:  "video",
				Post:  publish.Templates{Path: "videos/{slug}.md", URL: "videos/{slug}"},
				Media: &publish.Templates{Path: "media/videos/{filename}", URL: "/v/{filename}"},
			},
		),
		SyndicationTargets: []publish.SyndicationTarget{
			{UID: "https://social.example/@me", Name: "Social", Checked: true},
			{UID: "https://other.example", Name: "Other"},
		},
	}
}

func (f *Fixture) PostData() *publish.PostData {
	return publish.NewPostData(f.app, f.pub, publish.WithClock(f.clock))
}

func (f *Fixture) MediaData() *publish.MediaData {
	return publish.NewMediaData(f.app, f.pub,
		publish.WithClock(f.clock),
		publish.WithHasher(fixedHasher("0123456789abcdef")),
	)
}

func (f *Fixture) RenderContext() publish.RenderContext {
	f.t.Helper()
	rc, err := f.app.RenderContext(f.pub)
	if err != nil {
		f.t.Fatalf("render context: %v", err)
	}
	return rc
}

// without returns a copy of props minus keys.
func without(props publish.Properties, keys ...string) publish.Properties {
	out := props.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
