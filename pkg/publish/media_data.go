package publish

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jlrickert/cli-toolkit/mylog"
)

// File is an uploaded media file.
type File struct {
	// Filename is the name supplied by the uploader. Only its extension is
	// used, and only when the content type has none.
	Filename string
	Data     []byte
}

// MediaData manages media records. Media has no partial update or undelete
// and Delete removes the record outright.
type MediaData struct {
	app  Application
	pub  *Publication
	deps *Deps
}

// NewMediaData returns a MediaData bound to app and pub.
func NewMediaData(app Application, pub *Publication, opts ...Option) *MediaData {
	return &MediaData{app: app, pub: pub, deps: applyOptions(opts...)}
}

// Create derives the media type from the file content, renders the media
// path and URL and stores a new record. The basename hashes the content
// together with the upload time, so uploading the same bytes again yields a
// new record.
func (m *MediaData) Create(ctx context.Context, file File) (*Record, error) {
	lg := mylog.LoggerFromContext(ctx)
	rc, err := m.app.RenderContext(m.pub)
	if err != nil {
		return nil, err
	}

	mime := mimetype.Detect(file.Data)
	mediaType, err := mediaTypeOf(mime)
	if err != nil {
		return nil, err
	}
	cfg, ok := m.pub.PostTypes.Get(mediaType)
	if !ok {
		return nil, NewNotImplementedError(mediaType)
	}
	tpl, ok := cfg.MediaTemplates()
	if !ok {
		return nil, NewNotImplementedError(mediaType)
	}

	ext := strings.TrimPrefix(mime.Extension(), ".")
	if ext == "" {
		ext = strings.TrimPrefix(path.Ext(file.Filename), ".")
	}
	now := m.deps.now(ctx)
	basename := m.deps.hash(ctx, strconv.AppendInt(bytes.Clone(file.Data), now.UnixNano(), 10))
	if len(basename) > 10 {
		basename = basename[:10]
	}
	filename := basename
	if ext != "" {
		filename += "." + ext
	}

	props := Properties{
		"media-type":   mediaType,
		"content-type": mime.String(),
		"published":    formatStamp(now, rc),
		"basename":     basename,
		"ext":          ext,
		"filename":     filename,
	}
	storePath, err := RenderPath(tpl.Path, props, rc)
	if err != nil {
		return nil, err
	}
	u, err := RenderPath(tpl.URL, props, rc)
	if err != nil {
		return nil, err
	}
	canonical := CanonicalURL(u, rc.Me)
	props["url"] = canonical
	props["filename"], props["basename"] = urlFilename(canonical)

	rec := &Record{StoreProperties: StoreProperties{Path: storePath}, Properties: props}
	if m.app.Media != nil {
		if err := m.app.Media.InsertOne(ctx, rec.Clone()); err != nil {
			lg.Error("failed to insert media", "url", canonical, "err", err)
			return nil, wrapStoreError(m.app.Media, "insertOne", err)
		}
	}
	lg.Debug("media created", "url", canonical, "path", storePath, "media-type", mediaType)
	return rec, nil
}

// Read returns the media record stored under url.
func (m *MediaData) Read(ctx context.Context, url string) (*Record, error) {
	return readRecord(ctx, m.app.Media, url)
}

// Delete removes the media record at url from the index and returns the
// removed record.
func (m *MediaData) Delete(ctx context.Context, url string) (*Record, error) {
	lg := mylog.LoggerFromContext(ctx)
	rec, err := m.Read(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := m.app.Media.Delete(ctx, Query{URL: url}); err != nil {
		lg.Error("failed to delete media", "url", url, "err", err)
		return nil, wrapStoreError(m.app.Media, "delete", err)
	}
	lg.Debug("media deleted", "url", url, "path", rec.StoreProperties.Path)
	return rec, nil
}

func mediaTypeOf(mime *mimetype.MIME) (string, error) {
	for mt := mime; mt != nil; mt = mt.Parent() {
		switch top, _, _ := strings.Cut(mt.String(), "/"); top {
		case "image":
			return "photo", nil
		case "audio":
			return "audio", nil
		case "video":
			return "video", nil
		}
	}
	return "", NewUnsupportedMediaTypeError(mime.String())
}

// urlFilename returns the last path segment of u and its basename, the part
// before the first dot.
func urlFilename(u string) (filename, basename string) {
	p := u
	if parsed, err := url.Parse(u); err == nil {
		p = parsed.Path
	}
	filename = path.Base(p)
	basename, _, _ = strings.Cut(filename, ".")
	return filename, basename
}
