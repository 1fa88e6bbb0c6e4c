package publish

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors used for simple equality-style checks. Every typed error
// below unwraps to one of these so callers can rely on errors.Is.
var (
	ErrNotFound             = errors.New("publish: not found")
	ErrNotImplemented       = errors.New("publish: not implemented")
	ErrUnsupportedMediaType = errors.New("publish: unsupported media type")
	ErrTemplateResolution   = errors.New("publish: unresolvable template placeholder")
	ErrInvalidOperation     = errors.New("publish: invalid operation")
	ErrInvalidProperty      = errors.New("publish: invalid property")

	// ErrStore marks failures surfaced by a record store or file store.
	// Prefer returning a typed StoreError that unwraps to this sentinel.
	ErrStore = errors.New("publish: store failure")
)

// NotFoundError reports that no record matches the given URL.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	if e.URL == "" {
		return "no record found"
	}
	return fmt.Sprintf("no record found for %s", e.URL)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *NotFoundError) Unwrap() error        { return ErrNotFound }

// NewNotFoundError constructs a typed NotFoundError.
func NewNotFoundError(url string) error {
	return &NotFoundError{URL: url}
}

// NotImplementedError reports a post or media type without configuration.
type NotImplementedError struct {
	Type string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("no configuration provided for %q post type", e.Type)
}

func (e *NotImplementedError) Is(target error) bool { return target == ErrNotImplemented }
func (e *NotImplementedError) Unwrap() error        { return ErrNotImplemented }

// NewNotImplementedError constructs a typed NotImplementedError.
func NewNotImplementedError(postType string) error {
	return &NotImplementedError{Type: postType}
}

// UnsupportedMediaTypeError reports a media type outside audio, photo and video.
type UnsupportedMediaTypeError struct {
	Type string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported media type %q", e.Type)
}

func (e *UnsupportedMediaTypeError) Is(target error) bool { return target == ErrUnsupportedMediaType }
func (e *UnsupportedMediaTypeError) Unwrap() error        { return ErrUnsupportedMediaType }

// NewUnsupportedMediaTypeError constructs a typed UnsupportedMediaTypeError.
func NewUnsupportedMediaTypeError(mediaType string) error {
	return &UnsupportedMediaTypeError{Type: mediaType}
}

// TemplateResolutionError reports a placeholder that could not be resolved
// from the property set.
type TemplateResolutionError struct {
	Template string
	Token    string
}

func (e *TemplateResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve {%s} in template %q", e.Token, e.Template)
}

func (e *TemplateResolutionError) Is(target error) bool { return target == ErrTemplateResolution }
func (e *TemplateResolutionError) Unwrap() error        { return ErrTemplateResolution }

// NewTemplateResolutionError constructs a typed TemplateResolutionError.
func NewTemplateResolutionError(template, token string) error {
	return &TemplateResolutionError{Template: template, Token: token}
}

// InvalidOperationError reports an operation that is structurally
// incompatible with the current state of a property or record.
type InvalidOperationError struct {
	Op     string // e.g. "add", "delete", "undelete"
	Key    string // property name or record URL
	Reason string
}

func (e *InvalidOperationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s operation on %q", e.Op, e.Key)
	}
	return fmt.Sprintf("invalid %s operation on %q: %s", e.Op, e.Key, e.Reason)
}

func (e *InvalidOperationError) Is(target error) bool { return target == ErrInvalidOperation }
func (e *InvalidOperationError) Unwrap() error        { return ErrInvalidOperation }

// NewInvalidOperationError constructs a typed InvalidOperationError.
func NewInvalidOperationError(op, key, reason string) error {
	return &InvalidOperationError{Op: op, Key: key, Reason: reason}
}

// InvalidPropertyError reports a property value with a shape the normalizer
// does not accept.
type InvalidPropertyError struct {
	Key    string
	Reason string
}

func (e *InvalidPropertyError) Error() string {
	return fmt.Sprintf("invalid property %q: %s", e.Key, e.Reason)
}

func (e *InvalidPropertyError) Is(target error) bool { return target == ErrInvalidProperty }
func (e *InvalidPropertyError) Unwrap() error        { return ErrInvalidProperty }

// NewInvalidPropertyError constructs a typed InvalidPropertyError.
func NewInvalidPropertyError(key, reason string) error {
	return &InvalidPropertyError{Key: key, Reason: reason}
}

// StoreError wraps errors coming from a record store or file store
// implementation (database, git host, object store, filesystem).
type StoreError struct {
	Plugin string // e.g. "sqlite", "s3", "filesystem"
	Op     string // operation, e.g. "createFile", "findOneAndUpdate"
	Status int    // optional provider / HTTP status
	Cause  error
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status=%d: %v", e.Plugin, e.Op, e.Status, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Plugin, e.Op, e.Cause)
}

// Unwrap returns the wrapped cause together with ErrStore.
func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Cause} }

// NewStoreError constructs a *StoreError describing an operation against a
// store plugin. A nil cause yields nil.
func NewStoreError(plugin, op string, status int, cause error) error {
	if cause == nil {
		return nil
	}
	return &StoreError{Plugin: plugin, Op: op, Status: status, Cause: cause}
}

// Convenience predicates

// IsNotFound reports whether err is (or wraps) a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsNotImplemented reports whether err is (or wraps) a missing type configuration.
func IsNotImplemented(err error) bool { return errors.Is(err, ErrNotImplemented) }

// IsUnsupportedMediaType reports whether err is (or wraps) an unsupported media type.
func IsUnsupportedMediaType(err error) bool { return errors.Is(err, ErrUnsupportedMediaType) }

// IsTemplateResolution reports whether err is (or wraps) an unresolvable placeholder.
func IsTemplateResolution(err error) bool { return errors.Is(err, ErrTemplateResolution) }

// IsInvalidOperation reports whether err is (or wraps) an invalid operation.
func IsInvalidOperation(err error) bool { return errors.Is(err, ErrInvalidOperation) }

// IsStoreError reports whether err is (or wraps) a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// StatusCode maps an error to the HTTP-style status code a protocol layer
// would answer with. Unknown errors map to 500.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var se *StoreError
	switch {
	case errors.As(err, &se):
		if se.Status != 0 {
			return se.Status
		}
		return http.StatusInternalServerError
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrTemplateResolution),
		errors.Is(err, ErrInvalidOperation),
		errors.Is(err, ErrInvalidProperty):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
