package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jlrickert/pubkit/pkg/publish"
)

func renderUserError(err error, deps *Deps) string {
	if err == nil {
		return ""
	}

	var storeErr *publish.StoreError
	if errors.As(err, &storeErr) && !isDebugLogLevel(deps) {
		return fmt.Sprintf("%s store failed to %s (status %d)", storeErr.Plugin, storeErr.Op, publish.StatusCode(err))
	}

	var tmplErr *publish.TemplateResolutionError
	if errors.As(err, &tmplErr) {
		return fmt.Sprintf("post type template %q needs %q, which the post does not provide", tmplErr.Template, tmplErr.Token)
	}

	return err.Error()
}

func isDebugLogLevel(deps *Deps) bool {
	if deps == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(deps.LogLevel), "debug")
}
