package publish_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	cases := []struct {
		err  error
		want int
	}{
		{nil, 200},
		{publish.NewNotFoundError("https://a.example"), 404},
		{publish.NewNotImplementedError("like"), 501},
		{publish.NewUnsupportedMediaTypeError("text/plain"), 415},
		{publish.NewTemplateResolutionError("{slug}", "slug"), 400},
		{publish.NewInvalidOperationError("add", "name", "scalar"), 400},
		{publish.NewInvalidPropertyError("content", "bad"), 400},
		{publish.NewStoreError("s3", "createFile", 403, cause), 403},
		{publish.NewStoreError("sqlite", "insertOne", 0, cause), 500},
		{fmt.Errorf("wrapped: %w", publish.NewNotFoundError("x")), 404},
		{cause, 500},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, publish.StatusCode(tc.err), "%v", tc.err)
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection reset")
	err := publish.NewStoreError("s3", "readFile", 0, cause)

	require.ErrorIs(t, err, publish.ErrStore)
	require.ErrorIs(t, err, cause)
	require.True(t, publish.IsStoreError(fmt.Errorf("ctx: %w", err)))
	require.Contains(t, err.Error(), "s3 readFile")
	require.Nil(t, publish.NewStoreError("s3", "readFile", 0, nil))
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, publish.NewNotFoundError("u"), publish.ErrNotFound)
	require.ErrorIs(t, publish.NewNotImplementedError("t"), publish.ErrNotImplemented)
	require.ErrorIs(t, publish.NewUnsupportedMediaTypeError("t"), publish.ErrUnsupportedMediaType)
	require.ErrorIs(t, publish.NewTemplateResolutionError("t", "x"), publish.ErrTemplateResolution)
	require.ErrorIs(t, publish.NewInvalidOperationError("o", "k", "r"), publish.ErrInvalidOperation)
	require.ErrorIs(t, publish.NewInvalidPropertyError("k", "r"), publish.ErrInvalidProperty)

	var nf *publish.NotFoundError
	require.ErrorAs(t, publish.NewNotFoundError("https://a.example/x"), &nf)
	require.Equal(t, "https://a.example/x", nf.URL)
}
