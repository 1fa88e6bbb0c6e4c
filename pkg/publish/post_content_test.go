package publish_test

import (
	"encoding/json"
	"testing"

	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/stretchr/testify/require"
)

func TestPostContent_Lifecycle(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	pd := f.PostData()
	pc := publish.NewPostContent(f.files, f.pub)

	rec, err := pd.Create(f.ctx, publish.Properties{"content": "hello", "mp-slug": "first"}, false)
	require.NoError(t, err)
	res, err := pc.Create(f.ctx, rec)
	require.NoError(t, err)
	require.Equal(t, &publish.Result{
		Location:    rec.URL(),
		Status:      202,
		Success:     "create_pending",
		Description: "Post will be created at " + rec.URL(),
	}, res)

	first := "notes/2024/03/15/first.md"
	raw, err := f.files.ReadFile(f.ctx, first)
	require.NoError(t, err)
	var stored publish.Properties
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.True(t, stored.Equal(rec.Properties))

	updated, changed, err := pd.Update(f.ctx, rec.URL(), publish.Operation{Replace: map[string]any{"mp-slug": "second"}})
	require.NoError(t, err)
	require.True(t, changed)
	res, err = pc.Update(f.ctx, updated)
	require.NoError(t, err)
	require.Equal(t, 200, res.Status)
	require.Equal(t, "update", res.Success)

	second := "notes/2024/03/15/second.md"
	require.Equal(t, []string{second}, f.files.Paths())
	require.Equal(t, []string{"update note post"}, f.files.Messages(second))

	deleted, err := pd.Delete(f.ctx, updated.URL())
	require.NoError(t, err)
	res, err = pc.Delete(f.ctx, deleted)
	require.NoError(t, err)
	require.Equal(t, "delete", res.Success)
	require.Empty(t, f.files.Paths())

	restored, err := pd.Undelete(f.ctx, updated.URL(), false)
	require.NoError(t, err)
	res, err = pc.Undelete(f.ctx, restored)
	require.NoError(t, err)
	require.Equal(t, "delete_undelete", res.Success)
	require.Equal(t, 200, res.Status)
	require.Equal(t, []string{second}, f.files.Paths())
	require.Equal(t,
		[]string{"update note post", "delete note post", "undelete note post"},
		f.files.Messages(second))
}

func TestPostContent_CustomTemplateAndMessage(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	f.pub.PostTemplate = func(props publish.Properties) ([]byte, error) {
		return []byte(props.String("mp-slug")), nil
	}
	f.pub.StoreMessage = func(action, postType, fileType string) string {
		return action + ":" + postType
	}

	rec, err := f.PostData().Create(f.ctx, publish.Properties{"content": "x", "mp-slug": "custom"}, false)
	require.NoError(t, err)
	_, err = publish.NewPostContent(f.files, f.pub).Create(f.ctx, rec)
	require.NoError(t, err)

	raw, err := f.files.ReadFile(f.ctx, rec.StoreProperties.Path)
	require.NoError(t, err)
	require.Equal(t, "custom", string(raw))
	require.Equal(t, []string{"create:note"}, f.files.Messages(rec.StoreProperties.Path))
}

func TestPostContent_StoreFailure(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	pc := publish.NewPostContent(f.files, f.pub)

	rec, err := f.PostData().Create(f.ctx, publish.Properties{"content": "x", "mp-slug": "twice"}, false)
	require.NoError(t, err)
	_, err = pc.Create(f.ctx, rec)
	require.NoError(t, err)

	_, err = pc.Create(f.ctx, rec)
	require.True(t, publish.IsStoreError(err))
	require.Equal(t, 409, publish.StatusCode(err))

	var se *publish.StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "memory", se.Plugin)
}

func TestMediaContent_UploadAndDelete(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	mc := publish.NewMediaContent(f.files, f.pub)

	rec, err := f.MediaData().Create(f.ctx, publish.File{Filename: "a.png", Data: pngBytes})
	require.NoError(t, err)

	res, err := mc.Upload(f.ctx, rec, pngBytes)
	require.NoError(t, err)
	require.Equal(t, 201, res.Status)
	require.Equal(t, "create", res.Success)
	require.Equal(t, rec.URL(), res.Location)

	raw, err := f.files.ReadFile(f.ctx, rec.StoreProperties.Path)
	require.NoError(t, err)
	require.Equal(t, pngBytes, raw)
	require.Equal(t, []string{"upload photo file"}, f.files.Messages(rec.StoreProperties.Path))

	res, err = mc.Delete(f.ctx, rec)
	require.NoError(t, err)
	require.Equal(t, "delete", res.Success)
	require.Empty(t, f.files.Paths())
}
