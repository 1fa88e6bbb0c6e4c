package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeZoneClient keeps the offset submitted with each post instead of
// converting timestamps to a configured zone.
const TimeZoneClient = "client"

// Application holds the process-wide settings and the record stores the
// lifecycle managers persist to. A nil store disables persistence.
type Application struct {
	// TimeZone is an IANA zone name, "UTC" or "client". Empty means UTC.
	TimeZone string

	Posts RecordStore
	Media RecordStore
}

// Location resolves the configured time zone. The client zone yields nil.
func (a Application) Location() (*time.Location, error) {
	switch tz := strings.TrimSpace(a.TimeZone); tz {
	case "", "UTC":
		return time.UTC, nil
	case TimeZoneClient:
		return nil, nil
	default:
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
		}
		return loc, nil
	}
}

// PostTemplate renders the stored file for a post from its properties.
type PostTemplate func(props Properties) ([]byte, error)

// StoreMessage formats the file store message for a change, e.g.
// "create note post".
type StoreMessage func(action, postType, fileType string) string

// Publication is the resolved, read-only configuration of one website.
type Publication struct {
	// Me is the base URL of the website.
	Me string

	PostTypes          PostTypes
	SyndicationTargets []SyndicationTarget

	// SlugSeparator joins words of slugs derived from a name. Defaults to "-".
	SlugSeparator string

	PostTemplate PostTemplate
	StoreMessage StoreMessage
}

// RenderContext builds the immutable render context for pub under app.
func (a Application) RenderContext(pub *Publication) (RenderContext, error) {
	loc, err := a.Location()
	if err != nil {
		return RenderContext{}, err
	}
	sep := pub.SlugSeparator
	if sep == "" {
		sep = "-"
	}
	return RenderContext{Location: loc, Me: pub.Me, SlugSeparator: sep}, nil
}

func (p *Publication) postTemplate() PostTemplate {
	if p.PostTemplate != nil {
		return p.PostTemplate
	}
	return JSONPostTemplate
}

func (p *Publication) storeMessage() StoreMessage {
	if p.StoreMessage != nil {
		return p.StoreMessage
	}
	return DefaultStoreMessage
}

// JSONPostTemplate stores the properties as an indented JSON document.
func JSONPostTemplate(props Properties) ([]byte, error) {
	out, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// DefaultStoreMessage joins action, post type and file type.
func DefaultStoreMessage(action, postType, fileType string) string {
	return fmt.Sprintf("%s %s %s", action, postType, fileType)
}
