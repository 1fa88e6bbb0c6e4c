package publish

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jlrickert/cli-toolkit/mylog"
)

// Result summarizes a content change for the protocol layer.
type Result struct {
	Location    string `json:"location,omitempty"`
	Status      int    `json:"status"`
	Success     string `json:"success"`
	Description string `json:"success_description"`
}

// PostContent writes the stored files of post records to a file store.
type PostContent struct {
	store FileStore
	pub   *Publication
}

// NewPostContent returns a PostContent writing to store.
func NewPostContent(store FileStore, pub *Publication) *PostContent {
	return &PostContent{store: store, pub: pub}
}

// Create writes the file for a newly created post.
func (c *PostContent) Create(ctx context.Context, rec *Record) (*Result, error) {
	content, err := c.render(rec.Properties)
	if err != nil {
		return nil, err
	}
	url := rec.URL()
	msg := c.message("create", rec)
	if _, err := c.store.CreateFile(ctx, rec.StoreProperties.Path, content, FileOptions{Message: msg}); err != nil {
		return nil, c.fail(ctx, "createFile", rec, err)
	}
	return &Result{
		Location:    url,
		Status:      http.StatusAccepted,
		Success:     "create_pending",
		Description: fmt.Sprintf("Post will be created at %s", url),
	}, nil
}

// Update rewrites the file of an updated post, moving it when the path
// changed.
func (c *PostContent) Update(ctx context.Context, rec *Record) (*Result, error) {
	content, err := c.render(rec.Properties)
	if err != nil {
		return nil, err
	}
	url := rec.URL()
	opts := FileOptions{Message: c.message("update", rec)}
	target := rec.StoreProperties.Path
	if orig := rec.StoreProperties.OriginalPath; orig != "" && orig != target {
		opts.NewPath = target
		target = orig
	}
	if _, err := c.store.UpdateFile(ctx, target, content, opts); err != nil {
		return nil, c.fail(ctx, "updateFile", rec, err)
	}
	return &Result{
		Location:    url,
		Status:      http.StatusOK,
		Success:     "update",
		Description: fmt.Sprintf("Post updated at %s", url),
	}, nil
}

// Delete removes the file of a soft-deleted post.
func (c *PostContent) Delete(ctx context.Context, rec *Record) (*Result, error) {
	target := rec.StoreProperties.Path
	if orig := rec.StoreProperties.OriginalPath; orig != "" {
		target = orig
	}
	if _, err := c.store.DeleteFile(ctx, target, FileOptions{Message: c.message("delete", rec)}); err != nil {
		return nil, c.fail(ctx, "deleteFile", rec, err)
	}
	return &Result{
		Status:      http.StatusOK,
		Success:     "delete",
		Description: fmt.Sprintf("Post deleted from %s", rec.URL()),
	}, nil
}

// Undelete writes the file of a restored post again.
func (c *PostContent) Undelete(ctx context.Context, rec *Record) (*Result, error) {
	content, err := c.render(rec.Properties)
	if err != nil {
		return nil, err
	}
	url := rec.URL()
	msg := c.message("undelete", rec)
	if _, err := c.store.CreateFile(ctx, rec.StoreProperties.Path, content, FileOptions{Message: msg}); err != nil {
		return nil, c.fail(ctx, "createFile", rec, err)
	}
	return &Result{
		Location:    url,
		Status:      http.StatusOK,
		Success:     "delete_undelete",
		Description: fmt.Sprintf("Post restored to %s", url),
	}, nil
}

func (c *PostContent) render(props Properties) ([]byte, error) {
	content, err := c.pub.postTemplate()(props)
	if err != nil {
		return nil, fmt.Errorf("render post template: %w", err)
	}
	return content, nil
}

func (c *PostContent) message(action string, rec *Record) string {
	return c.pub.storeMessage()(action, rec.Properties.String("post-type"), "post")
}

func (c *PostContent) fail(ctx context.Context, op string, rec *Record, err error) error {
	mylog.LoggerFromContext(ctx).Error("file store write failed",
		"store", c.store.Name(), "op", op, "path", rec.StoreProperties.Path, "err", err)
	return wrapStoreError(c.store, op, err)
}

// MediaContent uploads and removes the files of media records.
type MediaContent struct {
	store FileStore
	pub   *Publication
}

// NewMediaContent returns a MediaContent writing to store.
func NewMediaContent(store FileStore, pub *Publication) *MediaContent {
	return &MediaContent{store: store, pub: pub}
}

// Upload stores data at the path of a newly created media record.
func (c *MediaContent) Upload(ctx context.Context, rec *Record, data []byte) (*Result, error) {
	mediaType := rec.Properties.String("media-type")
	msg := c.pub.storeMessage()("upload", mediaType, "file")
	if _, err := c.store.CreateFile(ctx, rec.StoreProperties.Path, data, FileOptions{Message: msg}); err != nil {
		mylog.LoggerFromContext(ctx).Error("media upload failed", "store", c.store.Name(), "path", rec.StoreProperties.Path, "err", err)
		return nil, wrapStoreError(c.store, "createFile", err)
	}
	url := rec.URL()
	return &Result{
		Location:    url,
		Status:      http.StatusCreated,
		Success:     "create",
		Description: fmt.Sprintf("File uploaded to %s", url),
	}, nil
}

// Delete removes the file of a media record.
func (c *MediaContent) Delete(ctx context.Context, rec *Record) (*Result, error) {
	mediaType := rec.Properties.String("media-type")
	msg := c.pub.storeMessage()("delete", mediaType, "file")
	if _, err := c.store.DeleteFile(ctx, rec.StoreProperties.Path, FileOptions{Message: msg}); err != nil {
		mylog.LoggerFromContext(ctx).Error("media delete failed", "store", c.store.Name(), "path", rec.StoreProperties.Path, "err", err)
		return nil, wrapStoreError(c.store, "deleteFile", err)
	}
	return &Result{
		Status:      http.StatusOK,
		Success:     "delete",
		Description: fmt.Sprintf("File deleted from %s", rec.URL()),
	}, nil
}
