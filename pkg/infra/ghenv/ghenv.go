package ghenv

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// File appends KEY=value lines to a CI environment file such as $GITHUB_ENV
type File struct {
	path string
}

// New creates an exporter writing to path
func New(path string) *File {
	return &File{path: path}
}

// Export appends "key=value\n" to the file, creating it if needed
func (f *File) Export(ctx context.Context, key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\r\n") {
		return goerr.New("invalid environment variable name", goerr.V("key", key))
	}
	if strings.ContainsAny(value, "\r\n") {
		return goerr.New("multi-line values are not supported", goerr.V("key", key))
	}

	fd, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return goerr.Wrap(err, "failed to open environment file", goerr.V("path", f.path))
	}
	defer fd.Close()

	if _, err := fmt.Fprintf(fd, "%s=%s\n", key, value); err != nil {
		return goerr.Wrap(err, "failed to write environment file", goerr.V("path", f.path))
	}

	ctxlog.From(ctx).Debug("Exported pipeline variable", "key", key, "value", value, "path", f.path)
	return nil
}
