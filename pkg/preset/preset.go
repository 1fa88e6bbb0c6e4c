package preset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jlrickert/pubkit/pkg/publish"
)

// Preset bundles the built-in post types and file format of a static site
// generator.
type Preset interface {
	// ID returns the short identifier used in configuration, e.g. "jekyll".
	ID() string
	// Name returns a human-readable name.
	Name() string
	// PostTypes returns the built-in post type configuration.
	PostTypes() []publish.PostType
	// PostTemplate renders the stored file for a post.
	PostTemplate(props publish.Properties) ([]byte, error)
	// ParsePost reads a stored file back into properties.
	ParsePost(data []byte) (publish.Properties, error)
}

var registry = map[string]Preset{
	"jekyll": Jekyll{},
}

// Get returns the preset registered under id.
func Get(id string) (Preset, error) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", id, strings.Join(IDs(), ", "))
	}
	return p, nil
}

// IDs lists the registered preset identifiers.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
