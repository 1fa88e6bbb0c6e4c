package publish

import (
	"bytes"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// SyndicationTarget is a configured syndicator a post may be shared to.
type SyndicationTarget struct {
	UID     string `json:"uid" yaml:"uid" mapstructure:"uid" validate:"required"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Checked bool   `json:"checked,omitempty" yaml:"checked,omitempty" mapstructure:"checked"`
}

// Normalizer canonicalizes incoming property sets into the shape the rest of
// the pipeline expects.
type Normalizer struct {
	Targets []SyndicationTarget
	Clock   Clock

	markdown goldmark.Markdown
}

// NewNormalizer returns a Normalizer matching mp-syndicate-to against targets.
// A nil clock uses the wall clock.
func NewNormalizer(targets []SyndicationTarget, clk Clock) *Normalizer {
	if clk == nil {
		clk = RealClock{}
	}
	return &Normalizer{
		Targets:  slices.Clone(targets),
		Clock:    clk,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Normalize returns a canonical copy of props. The input is never mutated.
// Normalizing an already normalized set returns an equal set.
func (n *Normalizer) Normalize(props Properties, rc RenderContext) (Properties, error) {
	out, err := Canonicalize(props)
	if err != nil {
		return nil, err
	}

	published, err := n.published(out, rc)
	if err != nil {
		return nil, err
	}
	out["published"] = published

	if name, ok := out["name"].(string); ok {
		if name = strings.TrimSpace(name); name == "" {
			delete(out, "name")
		} else {
			out["name"] = name
		}
	}

	if v, ok := out["content"]; ok {
		content, err := n.content(v)
		if err != nil {
			return nil, err
		}
		out["content"] = content
	}

	for _, key := range supportedMediaTypes {
		v, ok := out[key]
		if !ok {
			continue
		}
		media, err := mediaProperty(key, v, rc.Me)
		if err != nil {
			return nil, err
		}
		out[key] = media
	}

	if v, ok := out["location"].(string); ok && strings.HasPrefix(v, "geo:") {
		loc, err := geoLocation(v)
		if err != nil {
			return nil, err
		}
		out["location"] = loc
	}

	if v, ok := out["mp-syndicate-to"]; ok {
		targets := n.syndicateTo(v)
		if len(targets) == 0 {
			delete(out, "mp-syndicate-to")
		} else {
			out["mp-syndicate-to"] = targets
		}
	}

	if !out.Has("mp-slug") {
		out["mp-slug"] = generateSlug(out, rc.SlugSeparator)
	}

	return out, nil
}

// SyndicateTo adds the uids of targets checked by default to the
// mp-syndicate-to list of a submitted post.
func (n *Normalizer) SyndicateTo(props Properties) Properties {
	out := props.Clone()
	if out == nil {
		out = Properties{}
	}
	var uids []any
	if v, ok := out["mp-syndicate-to"]; ok {
		uids = toList(v)
	}
	for _, t := range n.Targets {
		if t.Checked && !slices.ContainsFunc(uids, func(u any) bool { return u == t.UID }) {
			uids = append(uids, t.UID)
		}
	}
	if len(uids) > 0 {
		out["mp-syndicate-to"] = uids
	}
	return out
}

func (n *Normalizer) published(props Properties, rc RenderContext) (string, error) {
	raw := props.String("published")
	var ts time.Time
	if raw == "" {
		ts = n.Clock.Now()
		if rc.Location == nil {
			ts = ts.UTC()
		}
	} else {
		parsed, err := parseDate(raw)
		if err != nil {
			return "", NewInvalidPropertyError("published", err.Error())
		}
		ts = parsed
	}
	if rc.Location != nil {
		ts = ts.In(rc.Location)
	}
	return ts.Format(time.RFC3339), nil
}

func (n *Normalizer) content(v any) (map[string]any, error) {
	switch c := v.(type) {
	case string:
		rendered, err := n.renderMarkdown(c)
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": c, "html": rendered}, nil
	case map[string]any:
		out := make(map[string]any, len(c)+1)
		for k, e := range c {
			out[k] = e
		}
		if _, ok := out["html"]; ok {
			return out, nil
		}
		text, ok := out["text"].(string)
		if !ok {
			return nil, NewInvalidPropertyError("content", "expected text or html")
		}
		rendered, err := n.renderMarkdown(text)
		if err != nil {
			return nil, err
		}
		out["html"] = rendered
		return out, nil
	case []any:
		if len(c) == 1 {
			return n.content(c[0])
		}
	}
	return nil, NewInvalidPropertyError("content", fmt.Sprintf("unsupported shape %T", v))
}

func (n *Normalizer) renderMarkdown(text string) (string, error) {
	md := n.markdown
	if md == nil {
		md = goldmark.New(goldmark.WithExtensions(extension.GFM))
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", NewInvalidPropertyError("content", fmt.Sprintf("markdown: %v", err))
	}
	return strings.TrimSpace(buf.String()), nil
}

// syndicateTo keeps configured uids in first-seen order.
func (n *Normalizer) syndicateTo(v any) []any {
	var out []any
	for _, e := range toList(v) {
		uid, ok := e.(string)
		if !ok || slices.Contains(out, any(uid)) {
			continue
		}
		if slices.ContainsFunc(n.Targets, func(t SyndicationTarget) bool { return t.UID == uid }) {
			out = append(out, uid)
		}
	}
	return out
}

// contentText returns the plain text of a content value.
func contentText(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case map[string]any:
		if s, ok := c["text"].(string); ok {
			return s
		}
		if s, ok := c["html"].(string); ok {
			return htmlText(s)
		}
	case []any:
		if len(c) > 0 {
			return contentText(c[0])
		}
	}
	return ""
}

// htmlText returns the text nodes of an HTML fragment with entities
// decoded.
func htmlText(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

func mediaProperty(key string, v any, me string) ([]any, error) {
	items := toList(v)
	out := make([]any, 0, len(items))
	for _, item := range items {
		switch m := item.(type) {
		case string:
			out = append(out, map[string]any{"url": resolveURL(m, me)})
		case map[string]any:
			u, ok := m["url"].(string)
			if !ok || u == "" {
				return nil, NewInvalidPropertyError(key, "missing url")
			}
			entry := map[string]any{"url": resolveURL(u, me)}
			if alt, ok := m["alt"].(string); ok && alt != "" {
				entry["alt"] = alt
			}
			out = append(out, entry)
		default:
			return nil, NewInvalidPropertyError(key, fmt.Sprintf("unsupported value of type %T", item))
		}
	}
	return out, nil
}

func geoLocation(uri string) (map[string]any, error) {
	coords := strings.TrimPrefix(uri, "geo:")
	if i := strings.IndexByte(coords, ';'); i >= 0 {
		coords = coords[:i]
	}
	parts := strings.Split(coords, ",")
	if len(parts) < 2 {
		return nil, NewInvalidPropertyError("location", "malformed geo uri")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, NewInvalidPropertyError("location", "invalid latitude")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, NewInvalidPropertyError("location", "invalid longitude")
	}
	return map[string]any{"type": "geo", "latitude": lat, "longitude": lng}, nil
}

// generateSlug derives an mp-slug from the name, else from a random id.
func generateSlug(props Properties, separator string) string {
	if name := props.String("name"); name != "" {
		if s := slugify(name, separator); s != "" {
			return s
		}
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func slugify(value, separator string) string {
	s, err := slug.Normalize(value)
	if err != nil {
		return ""
	}
	if separator != "" && separator != "-" {
		s = strings.ReplaceAll(s, "-", separator)
	}
	return s
}

func toList(v any) []any {
	switch tv := v.(type) {
	case []any:
		return tv
	case nil:
		return nil
	default:
		return []any{tv}
	}
}

// resolveURL resolves ref against base and lowercases scheme and host.
// Unparseable input is returned unchanged.
func resolveURL(ref, base string) string {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	if base != "" {
		b, err := url.Parse(base)
		if err == nil {
			if !strings.HasSuffix(b.Path, "/") {
				b.Path += "/"
			}
			r = b.ResolveReference(r)
		}
	}
	r.Scheme = strings.ToLower(r.Scheme)
	r.Host = strings.ToLower(r.Host)
	return r.String()
}

// CanonicalURL returns the absolute canonical form of a rendered URL.
func CanonicalURL(rendered, me string) string {
	return resolveURL(rendered, me)
}
