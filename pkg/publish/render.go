package publish

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// RenderContext carries the application-wide values a template needs. It is
// an immutable value threaded explicitly into every render.
type RenderContext struct {
	// Location is the time zone date placeholders are rendered in. A nil
	// Location keeps the offset carried by the timestamp itself.
	Location *time.Location

	// Me is the publication base URL used to canonicalize URLs.
	Me string

	// SlugSeparator joins words of slugs derived from a name.
	SlugSeparator string
}

// RenderPath substitutes the {token} placeholders of tmpl with values from
// props. Date tokens read the "published" timestamp; property tokens read
// slug, filename, basename, ext and the type fields. RenderPath is pure: the
// same inputs always yield the same output.
func RenderPath(tmpl string, props Properties, rc RenderContext) (string, error) {
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			b.WriteString(rest)
			break
		}
		closing += open
		b.WriteString(rest[:open])

		token := rest[open+1 : closing]
		value, err := resolveToken(tmpl, token, props, rc)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
		rest = rest[closing+1:]
	}
	return b.String(), nil
}

func resolveToken(tmpl, token string, props Properties, rc RenderContext) (string, error) {
	switch token {
	case "slug":
		if s := slugProperty(props, rc.SlugSeparator); s != "" {
			return s, nil
		}
		return "", NewTemplateResolutionError(tmpl, token)
	case "filename", "basename", "ext", "post-type", "media-type":
		if s := props.String(token); s != "" {
			return s, nil
		}
		if token == "basename" || token == "ext" {
			if fn := props.String("filename"); fn != "" {
				base, ext := splitFilename(fn)
				if token == "basename" {
					return base, nil
				}
				if ext != "" {
					return ext, nil
				}
			}
		}
		return "", NewTemplateResolutionError(tmpl, token)
	}

	format, ok := dateTokens[token]
	if !ok {
		return "", NewTemplateResolutionError(tmpl, token)
	}
	published := props.String("published")
	if published == "" {
		return "", NewTemplateResolutionError(tmpl, token)
	}
	ts, err := parseDate(published)
	if err != nil {
		return "", NewTemplateResolutionError(tmpl, token)
	}
	if rc.Location != nil {
		ts = ts.In(rc.Location)
	}
	return format(ts), nil
}

// slugProperty returns mp-slug, falling back to a slug derived from the name.
func slugProperty(props Properties, separator string) string {
	if s := props.String("mp-slug"); s != "" {
		return s
	}
	if name := props.String("name"); name != "" {
		return slugify(name, separator)
	}
	return ""
}

func splitFilename(filename string) (base, ext string) {
	ext = path.Ext(filename)
	base = strings.TrimSuffix(filename, ext)
	return base, strings.TrimPrefix(ext, ".")
}

// dateTokens maps placeholder tokens to formatters over the effective
// timestamp.
var dateTokens = map[string]func(time.Time) string{
	"yyyy": func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) },
	"yy":   func(t time.Time) string { return fmt.Sprintf("%02d", t.Year()%100) },
	"y":    func(t time.Time) string { return strconv.Itoa(t.Year()) },
	"q":    func(t time.Time) string { return strconv.Itoa((int(t.Month())-1)/3 + 1) },
	"M":    func(t time.Time) string { return strconv.Itoa(int(t.Month())) },
	"MM":   func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) },
	"MMM":  func(t time.Time) string { return t.Format("Jan") },
	"MMMM": func(t time.Time) string { return t.Format("January") },
	"w": func(t time.Time) string {
		_, w := t.ISOWeek()
		return strconv.Itoa(w)
	},
	"ww": func(t time.Time) string {
		_, w := t.ISOWeek()
		return fmt.Sprintf("%02d", w)
	},
	"d":   func(t time.Time) string { return strconv.Itoa(t.Day()) },
	"dd":  func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) },
	"D":   func(t time.Time) string { return strconv.Itoa(t.YearDay()) },
	"DDD": func(t time.Time) string { return fmt.Sprintf("%03d", t.YearDay()) },
	"H":   func(t time.Time) string { return strconv.Itoa(t.Hour()) },
	"HH":  func(t time.Time) string { return fmt.Sprintf("%02d", t.Hour()) },
	"m":   func(t time.Time) string { return strconv.Itoa(t.Minute()) },
	"mm":  func(t time.Time) string { return fmt.Sprintf("%02d", t.Minute()) },
	"s":   func(t time.Time) string { return strconv.Itoa(t.Second()) },
	"ss":  func(t time.Time) string { return fmt.Sprintf("%02d", t.Second()) },
	"t":   func(t time.Time) string { return strconv.FormatInt(t.Unix(), 10) },
	"T":   func(t time.Time) string { return strconv.FormatInt(t.UnixMilli(), 10) },
}

// Accepted layouts for the published timestamp.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
