package publish

import (
	"context"
	"time"

	"github.com/jlrickert/cli-toolkit/clock"
	"github.com/jlrickert/cli-toolkit/toolkit"
)

// Clock allows deterministic time for tests.
type Clock interface {
	Now() time.Time
}

// RealClock uses time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Hasher computes a deterministic short hash for a byte slice.
type Hasher interface {
	Hash(data []byte) string
}

// Deps holds optional collaborators injected into PostData and MediaData.
// Unset collaborators fall back to the ones carried on the context.
type Deps struct {
	Clock  Clock
	Hasher Hasher
}

// Option configures a Deps value.
type Option = func(*Deps)

// WithClock injects the clock used for published, updated and deleted
// stamps.
func WithClock(c Clock) Option {
	return func(d *Deps) {
		d.Clock = c
	}
}

// WithHasher injects the hasher used to name uploaded media files.
func WithHasher(h Hasher) Option {
	return func(d *Deps) {
		d.Hasher = h
	}
}

func applyOptions(opts ...Option) *Deps {
	deps := &Deps{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(deps)
	}
	return deps
}

func (d *Deps) now(ctx context.Context) time.Time {
	if d.Clock != nil {
		return d.Clock.Now()
	}
	return clock.ClockFromContext(ctx).Now()
}

func (d *Deps) clock(ctx context.Context) Clock {
	return ClockFunc(func() time.Time { return d.now(ctx) })
}

func (d *Deps) hash(ctx context.Context, data []byte) string {
	if d.Hasher != nil {
		return d.Hasher.Hash(data)
	}
	return toolkit.HasherFromContext(ctx).Hash(data)
}
