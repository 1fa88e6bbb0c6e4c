package publish

import (
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Templates holds the storage path and public URL templates for one kind of
// artifact (post file or media file).
type Templates struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
}

func (t Templates) empty() bool { return t.Path == "" && t.URL == "" }

// PostType configures a named post type.
type PostType struct {
	Type  string     `json:"type" yaml:"type" mapstructure:"type"`
	Name  string     `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Post  Templates  `json:"post" yaml:"post" mapstructure:"post"`
	Media *Templates `json:"media,omitempty" yaml:"media,omitempty" mapstructure:"media"`
}

// Validate checks that the post type is usable for rendering posts.
func (t PostType) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Type, validation.Required),
		validation.Field(&t.Post, validation.By(func(value any) error {
			tpl, _ := value.(Templates)
			return validation.ValidateStruct(&tpl,
				validation.Field(&tpl.Path, validation.Required),
				validation.Field(&tpl.URL, validation.Required),
			)
		})),
	)
}

// MediaTemplates returns the media templates for this type. The URL template
// falls back to the path template.
func (t PostType) MediaTemplates() (Templates, bool) {
	if t.Media == nil || t.Media.Path == "" {
		return Templates{}, false
	}
	tpl := *t.Media
	if tpl.URL == "" {
		tpl.URL = tpl.Path
	}
	return tpl, true
}

// PostTypes is a resolved, read-only set of post type configurations keyed
// by type.
type PostTypes struct {
	byType map[string]PostType
	order  []string
}

// NewPostTypes builds a PostTypes set. Later entries with the same type
// replace earlier ones.
func NewPostTypes(types ...PostType) PostTypes {
	pt := PostTypes{byType: make(map[string]PostType, len(types))}
	for _, t := range types {
		if t.Type == "" {
			continue
		}
		if _, ok := pt.byType[t.Type]; !ok {
			pt.order = append(pt.order, t.Type)
		}
		pt.byType[t.Type] = clonePostType(t)
	}
	return pt
}

// MergePostTypes merges a preset's built-in post types with publication
// overrides. Entries are keyed by type; override fields win, preset fields
// fill in what the override leaves empty. Types only present in one list are
// kept as is.
func MergePostTypes(preset, overrides []PostType) PostTypes {
	merged := NewPostTypes(preset...)
	for _, o := range overrides {
		if o.Type == "" {
			continue
		}
		base, ok := merged.byType[o.Type]
		if !ok {
			merged.order = append(merged.order, o.Type)
			merged.byType[o.Type] = clonePostType(o)
			continue
		}
		merged.byType[o.Type] = mergePostType(base, o)
	}
	return merged
}

func mergePostType(base, o PostType) PostType {
	out := clonePostType(base)
	if o.Name != "" {
		out.Name = o.Name
	}
	out.Post = mergeTemplates(out.Post, o.Post)
	if o.Media != nil && !o.Media.empty() {
		var m Templates
		if out.Media != nil {
			m = *out.Media
		}
		m = mergeTemplates(m, *o.Media)
		out.Media = &m
	}
	return out
}

func mergeTemplates(base, o Templates) Templates {
	if o.Path != "" {
		base.Path = o.Path
	}
	if o.URL != "" {
		base.URL = o.URL
	}
	return base
}

func clonePostType(t PostType) PostType {
	if t.Media != nil {
		m := *t.Media
		t.Media = &m
	}
	return t
}

// Get returns the configuration for typ.
func (pt PostTypes) Get(typ string) (PostType, bool) {
	t, ok := pt.byType[typ]
	if !ok {
		return PostType{}, false
	}
	return clonePostType(t), true
}

// List returns the configured post types in insertion order.
func (pt PostTypes) List() []PostType {
	out := make([]PostType, 0, len(pt.order))
	for _, typ := range pt.order {
		out = append(out, clonePostType(pt.byType[typ]))
	}
	return out
}

// Len returns the number of configured post types.
func (pt PostTypes) Len() int { return len(pt.byType) }

// Supported media types accepted by MediaData.Create.
var supportedMediaTypes = []string{"audio", "photo", "video"}

// postTypeDiscovery lists type-indicating properties in precedence order.
var postTypeDiscovery = []struct {
	postType string
	property string
}{
	{"checkin", "checkin"},
	{"rsvp", "rsvp"},
	{"reply", "in-reply-to"},
	{"repost", "repost-of"},
	{"like", "like-of"},
	{"bookmark", "bookmark-of"},
	{"video", "video"},
	{"photo", "photo"},
	{"audio", "audio"},
}

// DiscoverPostType returns the post type indicated by props. The first
// matching rule wins; no match yields "note".
func DiscoverPostType(props Properties) string {
	for _, rule := range postTypeDiscovery {
		if props.Has(rule.property) {
			return rule.postType
		}
	}
	if props.String("type") == "event" {
		return "event"
	}
	if isArticle(props) {
		return "article"
	}
	return "note"
}

// isArticle reports whether the post has a name that is not just the start
// of its content.
func isArticle(props Properties) bool {
	name := collapseSpace(props.String("name"))
	if name == "" {
		return false
	}
	content := collapseSpace(contentText(props["content"]))
	if content == "" {
		return true
	}
	return !strings.HasPrefix(content, name)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsSupportedMediaType reports whether mediaType may be stored as media.
func IsSupportedMediaType(mediaType string) bool {
	return slices.Contains(supportedMediaTypes, mediaType)
}
