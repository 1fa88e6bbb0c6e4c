package internal

import (
	"io"
	"os"
)

// IsPipe reports whether r is a file fed by a pipe or redirect rather than a
// terminal. Readers that are not files (buffers in tests) count as pipes.
func IsPipe(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}
