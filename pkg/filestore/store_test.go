package filestore_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jlrickert/pubkit/pkg/filestore"
	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory stand-in for the bucket operations S3Store uses.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	metadata map[string]map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, metadata: map[string]map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.metadata[key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	return out
}

func fileStores() map[string]func(t *testing.T) publish.FileStore {
	return map[string]func(t *testing.T) publish.FileStore{
		"memory": func(t *testing.T) publish.FileStore {
			return filestore.NewMemoryStore()
		},
		"filesystem": func(t *testing.T) publish.FileStore {
			return filestore.NewFsStore(t.TempDir())
		},
		"s3": func(t *testing.T) publish.FileStore {
			return filestore.NewS3Store(newFakeS3(), "bucket", "site")
		},
	}
}

func TestFileStore_Lifecycle(t *testing.T) {
	t.Parallel()
	for name, factory := range fileStores() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := factory(t)
			require.Equal(t, name, s.Name())

			ok, err := s.CreateFile(ctx, "notes/a.md", []byte("first"), publish.FileOptions{Message: "create"})
			require.NoError(t, err)
			require.True(t, ok)

			_, err = s.CreateFile(ctx, "notes/a.md", []byte("again"), publish.FileOptions{})
			require.Equal(t, 409, publish.StatusCode(err))

			data, err := s.ReadFile(ctx, "notes/a.md")
			require.NoError(t, err)
			require.Equal(t, "first", string(data))

			ok, err = s.UpdateFile(ctx, "notes/a.md", []byte("second"), publish.FileOptions{Message: "update"})
			require.NoError(t, err)
			require.True(t, ok)
			data, err = s.ReadFile(ctx, "notes/a.md")
			require.NoError(t, err)
			require.Equal(t, "second", string(data))

			_, err = s.UpdateFile(ctx, "notes/a.md", []byte("moved"), publish.FileOptions{NewPath: "notes/b.md"})
			require.NoError(t, err)
			_, err = s.ReadFile(ctx, "notes/a.md")
			require.Equal(t, 404, publish.StatusCode(err))
			data, err = s.ReadFile(ctx, "notes/b.md")
			require.NoError(t, err)
			require.Equal(t, "moved", string(data))

			ok, err = s.DeleteFile(ctx, "notes/b.md", publish.FileOptions{Message: "delete"})
			require.NoError(t, err)
			require.True(t, ok)
			_, err = s.DeleteFile(ctx, "notes/b.md", publish.FileOptions{})
			require.Equal(t, 404, publish.StatusCode(err))
			require.ErrorIs(t, err, filestore.ErrFileNotFound)
		})
	}
}

func TestFileStore_RejectsEscapingPaths(t *testing.T) {
	t.Parallel()
	for name, factory := range fileStores() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := factory(t)
			for _, p := range []string{"", "   ", "../secret", "a/../../b"} {
				_, err := s.CreateFile(ctx, p, []byte("x"), publish.FileOptions{})
				assert.Equal(t, 400, publish.StatusCode(err), "path %q", p)
			}
		})
	}
}

func TestMemoryStore_Messages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := filestore.NewMemoryStore()

	_, err := s.CreateFile(ctx, "/b.md", []byte("b"), publish.FileOptions{Message: "create b"})
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "a.md", []byte("a"), publish.FileOptions{Message: "create a"})
	require.NoError(t, err)
	_, err = s.UpdateFile(ctx, "a.md", []byte("aa"), publish.FileOptions{Message: "update a"})
	require.NoError(t, err)
	_, err = s.UpdateFile(ctx, "a.md", []byte("aaa"), publish.FileOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{"a.md", "b.md"}, s.Paths())
	require.Equal(t, []string{"create a", "update a"}, s.Messages("a.md"))
	require.Nil(t, s.Messages("missing.md"))
}

func TestFsStore_WritesUnderRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	s := filestore.NewFsStore(root)

	_, err := s.CreateFile(ctx, "media/2024/photo.jpg", []byte("jpeg"), publish.FileOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "media", "2024", "photo.jpg"))
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "media", "2024"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestS3Store_KeysAndMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fake := newFakeS3()
	s := filestore.NewS3Store(fake, "bucket", "/site/")

	_, err := s.CreateFile(ctx, "notes/a.md", []byte("a"), publish.FileOptions{Message: "create note"})
	require.NoError(t, err)

	require.Equal(t, []string{"bucket/site/notes/a.md"}, fake.keys())
	require.Equal(t, map[string]string{"message": "create note"}, fake.metadata["bucket/site/notes/a.md"])

	_, err = s.ReadFile(ctx, "notes/missing.md")
	require.Equal(t, 404, publish.StatusCode(err))
}
