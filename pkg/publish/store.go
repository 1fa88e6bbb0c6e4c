package publish

import (
	"context"
	"encoding/json"
)

// RecordState is the lifecycle state of a persisted record.
type RecordState int

const (
	StateLive RecordState = iota
	StateDeleted
)

func (s RecordState) String() string {
	if s == StateDeleted {
		return "deleted"
	}
	return "live"
}

// StoreProperties describes where the content of a record lives.
type StoreProperties struct {
	Path string `json:"path"`

	// OriginalPath is the path before the latest update, kept so callers can
	// move or remove the old file.
	OriginalPath string `json:"_originalPath,omitempty"`
}

// Record is a post or media record as persisted in the index.
//
// A record is soft-deleted exactly when DeletedProperties is non-nil; its
// live Properties then hold only identity fields and the deletion stamp.
type Record struct {
	StoreProperties   StoreProperties `json:"storeProperties"`
	Properties        Properties      `json:"properties"`
	DeletedProperties Properties      `json:"_deletedProperties,omitempty"`
}

// State reports whether the record is live or soft-deleted.
func (r *Record) State() RecordState {
	if r.DeletedProperties != nil {
		return StateDeleted
	}
	return StateLive
}

// URL returns the canonical URL the record is keyed by.
func (r *Record) URL() string {
	return r.Properties.String("url")
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		StoreProperties:   r.StoreProperties,
		Properties:        r.Properties.Clone(),
		DeletedProperties: r.DeletedProperties.Clone(),
	}
}

// MarshalRecord encodes a record as a JSON document.
func MarshalRecord(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRecord decodes a JSON document produced by MarshalRecord.
func UnmarshalRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Properties == nil {
		r.Properties = Properties{}
	}
	return &r, nil
}

// Query selects a record by exact canonical URL.
type Query struct {
	URL string
}

// Update is the set of field assignments applied by FindOneAndUpdate.
// Zero-valued fields are left untouched, except that ClearDeleted removes
// the deleted-properties snapshot.
type Update struct {
	Properties        Properties
	Path              string
	OriginalPath      string
	DeletedProperties Properties
	ClearDeleted      bool
}

// ApplyUpdate applies u to rec in place. Record store implementations share
// it so every back end assigns fields identically.
func ApplyUpdate(rec *Record, u Update) {
	if u.Properties != nil {
		rec.Properties = u.Properties.Clone()
	}
	if u.Path != "" {
		rec.StoreProperties.Path = u.Path
	}
	if u.OriginalPath != "" {
		rec.StoreProperties.OriginalPath = u.OriginalPath
	}
	if u.DeletedProperties != nil {
		rec.DeletedProperties = u.DeletedProperties.Clone()
	}
	if u.ClearDeleted {
		rec.DeletedProperties = nil
	}
}

// RecordStore is the persisted index of records keyed by URL.
type RecordStore interface {
	// Name identifies the back end in logs and errors.
	Name() string

	InsertOne(ctx context.Context, rec *Record) error

	// FindOne returns (nil, nil) when no record matches.
	FindOne(ctx context.Context, q Query) (*Record, error)

	// FindOneAndUpdate atomically applies u to the matching record and
	// returns the updated document, or (nil, nil) when none matches.
	FindOneAndUpdate(ctx context.Context, q Query, u Update) (*Record, error)

	// Delete removes the matching record. A missing record yields a
	// *NotFoundError.
	Delete(ctx context.Context, q Query) error
}

// FileOptions carries per-call options for file store writes.
type FileOptions struct {
	// Message describes the change, e.g. a commit message.
	Message string

	// NewPath moves the file when set on UpdateFile.
	NewPath string
}

// FileStore persists the bytes of posts and media files.
type FileStore interface {
	Name() string
	CreateFile(ctx context.Context, path string, content []byte, opts FileOptions) (bool, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	UpdateFile(ctx context.Context, path string, content []byte, opts FileOptions) (bool, error)
	DeleteFile(ctx context.Context, path string, opts FileOptions) (bool, error)
}
