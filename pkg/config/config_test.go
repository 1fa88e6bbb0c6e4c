package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jlrickert/pubkit/pkg/config"
	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pubkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimLeft(body, "\n")), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
publication:
  me: https://website.example
index:
  type: memory
store:
  type: memory
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "UTC", cfg.Application.TimeZone)
	assert.Equal(t, "jekyll", cfg.Publication.Preset)
	assert.Equal(t, "-", cfg.Publication.SlugSeparator)
	assert.Equal(t, "https://website.example", cfg.Publication.Me)
}

func TestLoad_FullFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeConfig(t, `
logging:
  level: debug
  json: true
application:
  time_zone: Europe/London
publication:
  me: https://website.example
  slug_separator: _
  post_types:
    - type: note
      post:
        url: n/{slug}
    - type: recipe
      name: Recipe
      post:
        path: _recipes/{slug}.md
        url: recipes/{slug}
  syndication_targets:
    - uid: https://social.example/@me
      name: Social
      checked: true
index:
  type: sqlite
  sqlite:
    path: `+filepath.Join(dir, "index.db")+`
store:
  type: filesystem
  filesystem:
    root: `+dir+`
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "Europe/London", cfg.Application.TimeZone)
	assert.Equal(t, "_", cfg.Publication.SlugSeparator)
	require.Len(t, cfg.Publication.PostTypes, 2)
	assert.Equal(t, "n/{slug}", cfg.Publication.PostTypes[0].Post.URL)
	require.Len(t, cfg.Publication.SyndicationTargets, 1)
	assert.True(t, cfg.Publication.SyndicationTargets[0].Checked)

	pub, p, err := config.Publication(cfg)
	require.NoError(t, err)
	assert.Equal(t, "jekyll", p.ID())

	note, ok := pub.PostTypes.Get("note")
	require.True(t, ok)
	assert.Equal(t, "n/{slug}", note.Post.URL)
	assert.Equal(t, "_notes/{yyyy}-{MM}-{dd}-{slug}.md", note.Post.Path)

	recipe, ok := pub.PostTypes.Get("recipe")
	require.True(t, ok)
	assert.Equal(t, "Recipe", recipe.Name)

	ctx := context.Background()
	idx, err := config.OpenIndex(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	assert.Equal(t, "sqlite", idx.Posts.Name())
	assert.FileExists(t, filepath.Join(dir, "index.db"))

	app := config.Application(cfg, idx)
	assert.Equal(t, "Europe/London", app.TimeZone)
	assert.Equal(t, idx.Posts, app.Posts)

	store, err := config.OpenFileStore(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "filesystem", store.Name())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	valid := func() *config.Config {
		cfg := &config.Config{}
		cfg.Publication.Me = "https://website.example"
		cfg.Index.Type = "memory"
		cfg.Store.Type = "memory"
		config.ApplyDefaults(cfg)
		return cfg
	}
	require.NoError(t, config.Validate(valid()))

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		want   string
	}{
		{"missing me", func(c *config.Config) { c.Publication.Me = "" }, "Publication.Me"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "Logging.Level"},
		{"bad time zone", func(c *config.Config) { c.Application.TimeZone = "Mars/Olympus" }, "Application.TimeZone"},
		{"unknown index", func(c *config.Config) { c.Index.Type = "mongodb" }, "Index.Type"},
		{"unknown store", func(c *config.Config) { c.Store.Type = "github" }, "Store.Type"},
		{"unknown preset", func(c *config.Config) { c.Publication.Preset = "hugo" }, "publication.preset"},
		{"long separator", func(c *config.Config) { c.Publication.SlugSeparator = "--" }, "SlugSeparator"},
		{"duplicate post type", func(c *config.Config) {
			c.Publication.PostTypes = []publish.PostType{{Type: "note"}, {Type: "note"}}
		}, "duplicate type"},
		{"duplicate target", func(c *config.Config) {
			c.Publication.SyndicationTargets = []publish.SyndicationTarget{{UID: "a"}, {UID: "a"}}
		}, "duplicate uid"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tc.mutate(cfg)
			require.ErrorContains(t, config.Validate(cfg), tc.want)
		})
	}
}

func TestValidate_ClientTimeZone(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Publication.Me = "https://website.example"
	cfg.Application.TimeZone = publish.TimeZoneClient
	config.ApplyDefaults(cfg)
	require.NoError(t, config.Validate(cfg))
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Index.SQLite = map[string]any{"path": "/srv/index.db"}
	cfg.Store.Filesystem = map[string]any{"root": "/srv/site"}
	config.ApplyDefaults(cfg)

	assert.Equal(t, "sqlite", cfg.Index.Type)
	assert.Equal(t, "/srv/index.db", cfg.Index.SQLite["path"])
	assert.Equal(t, "filesystem", cfg.Store.Type)
	assert.Equal(t, "/srv/site", cfg.Store.Filesystem["root"])

	empty := &config.Config{}
	config.ApplyDefaults(empty)
	assert.Equal(t, "index.db", filepath.Base(empty.Index.SQLite["path"].(string)))
	assert.Equal(t, ".", empty.Store.Filesystem["root"])
}

func TestOpenIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	none, err := config.OpenIndex(ctx, &config.Config{Index: config.IndexConfig{Type: "none"}})
	require.NoError(t, err)
	assert.Nil(t, none.Posts)
	assert.NoError(t, none.Close())

	mem, err := config.OpenIndex(ctx, &config.Config{Index: config.IndexConfig{Type: "memory"}})
	require.NoError(t, err)
	assert.Equal(t, "memory", mem.Posts.Name())
	assert.NotSame(t, mem.Posts, mem.Media)

	bdg, err := config.OpenIndex(ctx, &config.Config{Index: config.IndexConfig{
		Type:   "badger",
		Badger: map[string]any{"in_memory": true},
	}})
	require.NoError(t, err)
	assert.Equal(t, "badger", bdg.Media.Name())
	assert.NoError(t, bdg.Close())

	_, err = config.OpenIndex(ctx, &config.Config{Index: config.IndexConfig{Type: "sqlite"}})
	require.ErrorContains(t, err, "index.sqlite")

	_, err = config.OpenIndex(ctx, &config.Config{Index: config.IndexConfig{Type: "redis"}})
	require.ErrorContains(t, err, "unknown index type")
}

func TestOpenFileStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem, err := config.OpenFileStore(ctx, &config.Config{Store: config.StoreConfig{Type: "memory"}})
	require.NoError(t, err)
	assert.Equal(t, "memory", mem.Name())

	_, err = config.OpenFileStore(ctx, &config.Config{Store: config.StoreConfig{
		Type: "s3",
		S3:   map[string]any{"region": "eu-west-2"},
	}})
	require.ErrorContains(t, err, "store.s3")

	_, err = config.OpenFileStore(ctx, &config.Config{Store: config.StoreConfig{Type: "ftp"}})
	require.ErrorContains(t, err, "unknown store type")
}

func TestPublication_RejectsIncompletePostType(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Publication.Me = "https://website.example"
	cfg.Publication.PostTypes = []publish.PostType{{Type: "recipe", Post: publish.Templates{URL: "r/{slug}"}}}
	config.ApplyDefaults(cfg)

	_, _, err := config.Publication(cfg)
	require.ErrorContains(t, err, `post type "recipe"`)
}
