package publish_test

import (
	"testing"

	"github.com/jlrickert/pubkit/pkg/publish"
	"github.com/stretchr/testify/require"
)

func TestOperation_ApplyOrder(t *testing.T) {
	t.Parallel()
	props := publish.Properties{
		"category": []any{"a", "b"},
		"name":     "Old",
		"summary":  "gone soon",
	}
	op := publish.Operation{
		Add:           map[string][]any{"category": {"c"}, "syndication": {"https://s.example/1"}},
		Replace:       map[string]any{"name": "New"},
		Delete:        []string{"summary"},
		DeleteEntries: map[string][]any{"category": {"a", "c"}},
	}

	out, err := op.Apply(props)
	require.NoError(t, err)
	require.Equal(t, publish.Properties{
		"category":    []any{"b"},
		"name":        "New",
		"syndication": []any{"https://s.example/1"},
	}, out)
	require.Equal(t, []any{"a", "b"}, props["category"], "input is untouched")
}

func TestOperation_AddThenDeleteEntriesRoundTrip(t *testing.T) {
	t.Parallel()
	props := publish.Properties{"category": []any{"x", "y"}, "name": "n"}

	added, err := publish.AddProperties(props, map[string][]any{"category": {"y", "z"}})
	require.NoError(t, err)
	require.Equal(t, []any{"x", "y", "y", "z"}, added["category"])

	restored, err := publish.DeleteEntries(added, map[string][]any{"category": {"y", "z"}})
	require.NoError(t, err)
	require.True(t, restored.Equal(props))
}

func TestOperation_DeleteEntriesDropsEmptyProperty(t *testing.T) {
	t.Parallel()
	out, err := publish.DeleteEntries(publish.Properties{"category": []any{"only"}},
		map[string][]any{"category": {"only"}, "missing": {"v"}})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestOperation_ScalarTargetsAreInvalid(t *testing.T) {
	t.Parallel()
	props := publish.Properties{"name": "scalar"}

	_, err := publish.AddProperties(props, map[string][]any{"name": {"more"}})
	require.True(t, publish.IsInvalidOperation(err))

	_, err = publish.DeleteEntries(props, map[string][]any{"name": {"scalar"}})
	require.True(t, publish.IsInvalidOperation(err))
	require.Equal(t, 400, publish.StatusCode(err))
}

func TestOperation_Validate(t *testing.T) {
	t.Parallel()
	require.True(t, publish.Operation{}.Empty())
	require.NoError(t, publish.Operation{Delete: []string{"a"}}.Validate())

	require.Error(t, publish.Operation{Delete: []string{""}}.Validate())
	require.Error(t, publish.Operation{Replace: map[string]any{"": "x"}}.Validate())

	_, err := publish.Operation{Add: map[string][]any{"": {"x"}}}.Apply(publish.Properties{})
	require.True(t, publish.IsInvalidOperation(err))
}
