package preset

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/jlrickert/pubkit/pkg/publish"
	"gopkg.in/yaml.v3"
)

// Jekyll stores posts as Markdown files with YAML front matter, one
// collection per post type.
type Jekyll struct{}

var _ Preset = Jekyll{}

func (Jekyll) ID() string   { return "jekyll" }
func (Jekyll) Name() string { return "Jekyll" }

func (Jekyll) PostTypes() []publish.PostType {
	return []publish.PostType{
		{
			Type:  "article",
			Name:  "Article",
			Post:  publish.Templates{Path: "_posts/{yyyy}-{MM}-{dd}-{slug}.md", URL: "{yyyy}/{MM}/{dd}/{slug}"},
			Media: &publish.Templates{Path: "media/{yyyy}/{MM}/{dd}/{filename}"},
		},
		{
			Type: "note",
			Name: "Note",
			Post: publish.Templates{Path: "_notes/{yyyy}-{MM}-{dd}-{slug}.md", URL: "notes/{yyyy}/{MM}/{dd}/{slug}"},
		},
		{
			Type:  "photo",
			Name:  "Photo",
			Post:  publish.Templates{Path: "_photos/{yyyy}-{MM}-{dd}-{slug}.md", URL: "photos/{yyyy}/{MM}/{dd}/{slug}"},
			Media: &publish.Templates{Path: "media/photos/{yyyy}/{MM}/{dd}/{filename}"},
		},
		{
			Type:  "video",
			Name:  "Video",
			Post:  publish.Templates{Path: "_videos/{yyyy}-{MM}-{dd}-{slug}.md", URL: "videos/{yyyy}/{MM}/{dd}/{slug}"},
			Media: &publish.Templates{Path: "media/videos/{yyyy}/{MM}/{dd}/{filename}"},
		},
		{
			Type:  "audio",
			Name:  "Audio",
			Post:  publish.Templates{Path: "_audio/{yyyy}-{MM}-{dd}-{slug}.md", URL: "audio/{yyyy}/{MM}/{dd}/{slug}"},
			Media: &publish.Templates{Path: "media/audio/{yyyy}/{MM}/{dd}/{filename}"},
		},
		{
			Type: "bookmark",
			Name: "Bookmark",
			Post: publish.Templates{Path: "_bookmarks/{yyyy}-{MM}-{dd}-{slug}.md", URL: "bookmarks/{yyyy}/{MM}/{dd}/{slug}"},
		},
		{
			Type: "checkin",
			Name: "Check-in",
			Post: publish.Templates{Path: "_checkins/{yyyy}-{MM}-{dd}-{slug}.md", URL: "checkins/{yyyy}/{MM}/{dd}/{slug}"},
		},
		{
			Type: "event",
			Name: "Event",
			Post: publish.Templates{Path: "_events/{yyyy}-{MM}-{dd}-{slug}.md", URL: "events/{yyyy}/{MM}/{dd}/{slug}"},
		},
		{
			Type: "rsvp",
			Name: "RSVP",
			Post: publish.Templates{Path: "_replies/{yyyy}-{MM}-{dd}-{slug}.md", URL: "replies/{yyyy}/{MM}/{dd}/{slug}"},
		},
		{
			Type: "reply",
			Name: "Reply",
			Post: publish.Templates{Path: "_replies/{yyyy}-{MM}-{dd}-{slug}.md", URL: "replies/{yyyy}/{MM}/{dd}/{slug}"},
		},
		{
			Type: "repost",
			Name: "Repost",
			Post: publish.Templates{Path: "_reposts/{yyyy}-{MM}-{dd}-{slug}.md", URL: "reposts/{yyyy}/{MM}/{dd}/{slug}"},
		},
		{
			Type: "like",
			Name: "Like",
			Post: publish.Templates{Path: "_likes/{yyyy}-{MM}-{dd}-{slug}.md", URL: "likes/{yyyy}/{MM}/{dd}/{slug}"},
		},
	}
}

// frontMatterField maps a front matter key to the property it carries.
type frontMatterField struct {
	key, property string
}

// Front matter keys in output order. published is handled separately since
// it is derived from post-status.
var (
	leadingFields = []frontMatterField{
		{"date", "published"},
		{"updated", "updated"},
		{"deleted", "deleted"},
		{"title", "name"},
		{"excerpt", "summary"},
		{"category", "category"},
		{"start", "start"},
		{"end", "end"},
		{"rsvp", "rsvp"},
		{"location", "location"},
		{"checkin", "checkin"},
		{"audio", "audio"},
		{"photo", "photo"},
		{"video", "video"},
		{"bookmark-of", "bookmark-of"},
		{"like-of", "like-of"},
		{"repost-of", "repost-of"},
		{"in-reply-to", "in-reply-to"},
	}
	trailingFields = []frontMatterField{
		{"visibility", "visibility"},
		{"syndication", "syndication"},
		{"references", "references"},
	}
)

// PostTemplate renders YAML front matter followed by the post content.
func (Jekyll) PostTemplate(props publish.Properties) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value any) error {
		var v yaml.Node
		if err := v.Encode(value); err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &v)
		return nil
	}

	for _, f := range leadingFields {
		if props.Has(f.property) {
			if err := add(f.key, props[f.property]); err != nil {
				return nil, err
			}
		}
	}
	if props.String("post-status") == "draft" {
		if err := add("published", false); err != nil {
			return nil, err
		}
	}
	for _, f := range trailingFields {
		if props.Has(f.property) {
			if err := add(f.key, props[f.property]); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	if len(doc.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}
	buf.WriteString("---\n")
	if content := postBody(props["content"]); content != "" {
		buf.WriteString("\n" + content + "\n")
	}
	return buf.Bytes(), nil
}

func postBody(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case map[string]any:
		if s, ok := c["text"].(string); ok && s != "" {
			return s
		}
		if s, ok := c["html"].(string); ok {
			return s
		}
	}
	return ""
}

// ParsePost reads a file written by PostTemplate back into properties.
// Keys without a known mapping are kept under their front matter name.
func (Jekyll) ParsePost(data []byte) (publish.Properties, error) {
	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	known := make(map[string]string, len(leadingFields)+len(trailingFields))
	for _, f := range leadingFields {
		known[f.key] = f.property
	}
	for _, f := range trailingFields {
		known[f.key] = f.property
	}

	props := publish.Properties{}
	for key, value := range meta {
		if key == "published" {
			if b, ok := value.(bool); ok && !b {
				props["post-status"] = "draft"
			}
			continue
		}
		if value == nil {
			continue
		}
		prop, ok := known[key]
		if !ok {
			prop = key
		}
		props[prop] = fromYAML(value)
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		props["content"] = map[string]any{"text": text}
	}
	return publish.Canonicalize(props)
}

// fromYAML converts decoded YAML values to property values. Timestamps
// become RFC 3339 strings.
func fromYAML(v any) any {
	switch tv := v.(type) {
	case time.Time:
		return tv.Format(time.RFC3339)
	case map[any]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[fmt.Sprint(k)] = fromYAML(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = fromYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = fromYAML(e)
		}
		return out
	}
	return v
}
