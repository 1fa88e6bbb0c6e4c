package publish

import (
	"context"
	"time"

	"github.com/jlrickert/cli-toolkit/mylog"
)

// PostData manages the lifecycle of post records: create, read, update,
// soft delete and undelete. Every mutating call performs exactly one
// persistence call against the configured record store.
type PostData struct {
	app  Application
	pub  *Publication
	deps *Deps
}

// NewPostData returns a PostData bound to app and pub.
func NewPostData(app Application, pub *Publication, opts ...Option) *PostData {
	return &PostData{app: app, pub: pub, deps: applyOptions(opts...)}
}

// Create normalizes props into a new live post record. When draftMode is set
// the record is always a draft.
func (p *PostData) Create(ctx context.Context, props Properties, draftMode bool) (*Record, error) {
	lg := mylog.LoggerFromContext(ctx)
	rc, err := p.app.RenderContext(p.pub)
	if err != nil {
		return nil, err
	}

	n := NewNormalizer(p.pub.SyndicationTargets, p.deps.clock(ctx))
	props, err = n.Normalize(n.SyndicateTo(props), rc)
	if err != nil {
		return nil, err
	}

	postType := DiscoverPostType(props)
	props["post-type"] = postType
	cfg, ok := p.pub.PostTypes.Get(postType)
	if !ok {
		return nil, NewNotImplementedError(postType)
	}

	path, err := p.renderPost(cfg, props, rc)
	if err != nil {
		return nil, err
	}
	props["post-status"] = postStatus(props, draftMode)

	rec := &Record{StoreProperties: StoreProperties{Path: path}, Properties: props}
	if p.app.Posts != nil {
		if err := p.app.Posts.InsertOne(ctx, rec.Clone()); err != nil {
			lg.Error("failed to insert post", "url", rec.URL(), "err", err)
			return nil, wrapStoreError(p.app.Posts, "insertOne", err)
		}
	}
	lg.Debug("post created", "url", rec.URL(), "path", path, "post-type", postType)
	return rec, nil
}

// Read returns the record stored under url.
func (p *PostData) Read(ctx context.Context, url string) (*Record, error) {
	return readRecord(ctx, p.app.Posts, url)
}

// Update applies op to the live record at url. The returned flag is false
// when the operation leaves the properties unchanged, in which case nothing
// is written and the current record is returned.
func (p *PostData) Update(ctx context.Context, url string, op Operation) (*Record, bool, error) {
	lg := mylog.LoggerFromContext(ctx)
	rec, err := p.Read(ctx, url)
	if err != nil {
		return nil, false, err
	}
	if rec.State() == StateDeleted {
		return nil, false, NewInvalidOperationError("update", url, "record is deleted")
	}
	rc, err := p.app.RenderContext(p.pub)
	if err != nil {
		return nil, false, err
	}

	originalPath := rec.StoreProperties.Path
	original := rec.Properties.Clone()

	props, err := op.Apply(rec.Properties)
	if err != nil {
		return nil, false, err
	}
	n := NewNormalizer(p.pub.SyndicationTargets, p.deps.clock(ctx))
	if props, err = n.Normalize(props, rc); err != nil {
		return nil, false, err
	}

	postType := DiscoverPostType(props)
	props["post-type"] = postType
	cfg, ok := p.pub.PostTypes.Get(postType)
	if !ok {
		return nil, false, NewNotImplementedError(postType)
	}
	path, err := p.renderPost(cfg, props, rc)
	if err != nil {
		return nil, false, err
	}

	if props.Equal(original) {
		lg.Debug("post unchanged", "url", url)
		return rec, false, nil
	}

	props["updated"] = p.stamp(ctx, rc)
	updated, err := p.app.Posts.FindOneAndUpdate(ctx, Query{URL: url}, Update{
		Properties:   props,
		Path:         path,
		OriginalPath: originalPath,
	})
	if err != nil {
		lg.Error("failed to update post", "url", url, "err", err)
		return nil, false, wrapStoreError(p.app.Posts, "findOneAndUpdate", err)
	}
	if updated == nil {
		return nil, false, NewNotFoundError(url)
	}
	lg.Debug("post updated", "url", updated.URL(), "path", path, "post-type", postType)
	return updated, true, nil
}

// Delete soft-deletes the live record at url. The full property set is kept
// aside and the live properties are reduced to identity fields.
func (p *PostData) Delete(ctx context.Context, url string) (*Record, error) {
	lg := mylog.LoggerFromContext(ctx)
	rec, err := p.Read(ctx, url)
	if err != nil {
		return nil, err
	}
	if rec.State() == StateDeleted {
		return nil, NewInvalidOperationError("delete", url, "record is already deleted")
	}
	rc, err := p.app.RenderContext(p.pub)
	if err != nil {
		return nil, err
	}

	snapshot := rec.Properties.Clone()
	props := rec.Properties.stripToIdentity()
	props["deleted"] = p.stamp(ctx, rc)

	postType := props.String("post-type")
	if postType == "" {
		postType = DiscoverPostType(snapshot)
	}
	cfg, ok := p.pub.PostTypes.Get(postType)
	if !ok {
		return nil, NewNotImplementedError(postType)
	}
	path, err := RenderPath(cfg.Post.Path, props, rc)
	if err != nil {
		return nil, err
	}

	deleted, err := p.app.Posts.FindOneAndUpdate(ctx, Query{URL: url}, Update{
		Properties:        props,
		Path:              path,
		OriginalPath:      rec.StoreProperties.Path,
		DeletedProperties: snapshot,
	})
	if err != nil {
		lg.Error("failed to delete post", "url", url, "err", err)
		return nil, wrapStoreError(p.app.Posts, "findOneAndUpdate", err)
	}
	if deleted == nil {
		return nil, NewNotFoundError(url)
	}
	lg.Debug("post deleted", "url", url, "path", path, "post-type", postType)
	return deleted, nil
}

// Undelete restores the soft-deleted record at url and recomputes its path.
func (p *PostData) Undelete(ctx context.Context, url string, draftMode bool) (*Record, error) {
	lg := mylog.LoggerFromContext(ctx)
	rec, err := p.Read(ctx, url)
	if err != nil {
		return nil, err
	}
	if rec.State() != StateDeleted {
		return nil, NewInvalidOperationError("undelete", url, "record is not deleted")
	}
	rc, err := p.app.RenderContext(p.pub)
	if err != nil {
		return nil, err
	}

	props := rec.DeletedProperties.Clone()
	postType := props.String("post-type")
	if postType == "" {
		postType = DiscoverPostType(props)
	}
	cfg, ok := p.pub.PostTypes.Get(postType)
	if !ok {
		return nil, NewNotImplementedError(postType)
	}
	path, err := RenderPath(cfg.Post.Path, props, rc)
	if err != nil {
		return nil, err
	}
	props["post-status"] = postStatus(props, draftMode)

	restored, err := p.app.Posts.FindOneAndUpdate(ctx, Query{URL: url}, Update{
		Properties:   props,
		Path:         path,
		OriginalPath: rec.StoreProperties.Path,
		ClearDeleted: true,
	})
	if err != nil {
		lg.Error("failed to undelete post", "url", url, "err", err)
		return nil, wrapStoreError(p.app.Posts, "findOneAndUpdate", err)
	}
	if restored == nil {
		return nil, NewNotFoundError(url)
	}
	lg.Debug("post restored", "url", url, "path", path, "post-type", postType)
	return restored, nil
}

// renderPost renders the storage path and sets the canonical url on props.
func (p *PostData) renderPost(cfg PostType, props Properties, rc RenderContext) (string, error) {
	path, err := RenderPath(cfg.Post.Path, props, rc)
	if err != nil {
		return "", err
	}
	u, err := RenderPath(cfg.Post.URL, props, rc)
	if err != nil {
		return "", err
	}
	props["url"] = CanonicalURL(u, rc.Me)
	return path, nil
}

func (p *PostData) stamp(ctx context.Context, rc RenderContext) string {
	return formatStamp(p.deps.now(ctx), rc)
}

func formatStamp(t time.Time, rc RenderContext) string {
	if rc.Location != nil {
		t = t.In(rc.Location)
	} else {
		t = t.UTC()
	}
	return t.Format(time.RFC3339)
}

func postStatus(props Properties, draftMode bool) string {
	if draftMode {
		return "draft"
	}
	if s := props.String("post-status"); s != "" {
		return s
	}
	return "published"
}

func readRecord(ctx context.Context, store RecordStore, url string) (*Record, error) {
	if store == nil {
		return nil, NewNotFoundError(url)
	}
	rec, err := store.FindOne(ctx, Query{URL: url})
	if err != nil {
		return nil, wrapStoreError(store, "findOne", err)
	}
	if rec == nil {
		return nil, NewNotFoundError(url)
	}
	return rec, nil
}

// wrapStoreError attaches the store identity to errors that do not already
// carry it.
func wrapStoreError(store interface{ Name() string }, op string, err error) error {
	if err == nil || IsStoreError(err) || IsNotFound(err) {
		return err
	}
	return NewStoreError(store.Name(), op, 0, err)
}
