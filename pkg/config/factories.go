package config

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/jlrickert/pubkit/pkg/filestore"
	"github.com/jlrickert/pubkit/pkg/index"
	"github.com/jlrickert/pubkit/pkg/preset"
	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/mitchellh/mapstructure"
)

// SQLiteConfig configures the SQLite record store.
type SQLiteConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// BadgerConfig configures the Badger record store. An empty Dir with
// InMemory set keeps everything in memory.
type BadgerConfig struct {
	Dir      string `mapstructure:"dir" validate:"required_without=InMemory"`
	InMemory bool   `mapstructure:"in_memory"`
}

// FilesystemConfig configures the filesystem file store.
type FilesystemConfig struct {
	Root string `mapstructure:"root" validate:"required"`
}

// Index holds the record stores for posts and media and releases the
// underlying database on Close.
type Index struct {
	Posts publish.RecordStore
	Media publish.RecordStore

	closer func() error
}

// Close releases the database backing the index.
func (i *Index) Close() error {
	if i == nil || i.closer == nil {
		return nil
	}
	return i.closer()
}

// OpenIndex builds the record stores selected by cfg.Index. The "none" type
// returns an index without stores, which disables persistence.
func OpenIndex(ctx context.Context, cfg *Config) (*Index, error) {
	switch cfg.Index.Type {
	case "none":
		return &Index{}, nil
	case "memory":
		return &Index{Posts: index.NewMemoryStore(), Media: index.NewMemoryStore()}, nil
	case "sqlite":
		var sc SQLiteConfig
		if err := decodeSection(cfg.Index.SQLite, &sc); err != nil {
			return nil, fmt.Errorf("index.sqlite: %w", err)
		}
		db, err := index.OpenSQLite(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite index: %w", err)
		}
		return sqliteIndex(ctx, db)
	case "badger":
		var bc BadgerConfig
		if err := decodeSection(cfg.Index.Badger, &bc); err != nil {
			return nil, fmt.Errorf("index.badger: %w", err)
		}
		dir := bc.Dir
		if bc.InMemory {
			dir = ""
		}
		db, err := index.OpenBadger(dir)
		if err != nil {
			return nil, fmt.Errorf("open badger index: %w", err)
		}
		return badgerIndex(db), nil
	}
	return nil, fmt.Errorf("unknown index type %q", cfg.Index.Type)
}

func sqliteIndex(ctx context.Context, db *sql.DB) (*Index, error) {
	posts, err := index.NewSQLiteStore(ctx, db, "posts")
	if err != nil {
		db.Close()
		return nil, err
	}
	media, err := index.NewSQLiteStore(ctx, db, "media")
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Index{Posts: posts, Media: media, closer: db.Close}, nil
}

func badgerIndex(db *badger.DB) *Index {
	return &Index{
		Posts:  index.NewBadgerStore(db, "posts"),
		Media:  index.NewBadgerStore(db, "media"),
		closer: db.Close,
	}
}

// OpenFileStore builds the file store selected by cfg.Store.
func OpenFileStore(ctx context.Context, cfg *Config) (publish.FileStore, error) {
	switch cfg.Store.Type {
	case "memory":
		return filestore.NewMemoryStore(), nil
	case "filesystem":
		var fc FilesystemConfig
		if err := decodeSection(cfg.Store.Filesystem, &fc); err != nil {
			return nil, fmt.Errorf("store.filesystem: %w", err)
		}
		return filestore.NewFsStore(fc.Root), nil
	case "s3":
		var sc filestore.S3Config
		if err := decodeSection(cfg.Store.S3, &sc); err != nil {
			return nil, fmt.Errorf("store.s3: %w", err)
		}
		client, err := filestore.NewS3Client(ctx, sc)
		if err != nil {
			return nil, err
		}
		return filestore.NewS3Store(client, sc.Bucket, sc.KeyPrefix), nil
	}
	return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
}

// Publication resolves the publication configuration, merging the preset's
// post types with the configured overrides.
func Publication(cfg *Config) (*publish.Publication, preset.Preset, error) {
	p, err := preset.Get(cfg.Publication.Preset)
	if err != nil {
		return nil, nil, err
	}
	types := publish.MergePostTypes(p.PostTypes(), cfg.Publication.PostTypes)
	for _, pt := range types.List() {
		if err := pt.Validate(); err != nil {
			return nil, nil, fmt.Errorf("post type %q: %w", pt.Type, err)
		}
	}
	return &publish.Publication{
		Me:                 cfg.Publication.Me,
		PostTypes:          types,
		SyndicationTargets: cfg.Publication.SyndicationTargets,
		SlugSeparator:      cfg.Publication.SlugSeparator,
		PostTemplate:       p.PostTemplate,
	}, p, nil
}

// Application returns the application settings bound to idx.
func Application(cfg *Config, idx *Index) publish.Application {
	app := publish.Application{TimeZone: cfg.Application.TimeZone}
	if idx != nil {
		app.Posts = idx.Posts
		app.Media = idx.Media
	}
	return app
}

// decodeSection decodes a type-specific map section into out and validates
// it.
func decodeSection(section map[string]any, out any) error {
	if section == nil {
		section = map[string]any{}
	}
	if err := mapstructure.Decode(section, out); err != nil {
		return err
	}
	if err := validate.Struct(out); err != nil {
		return formatValidationError(err)
	}
	return nil
}
