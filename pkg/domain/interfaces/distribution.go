package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/apkfetch/pkg/domain/model"
)

// DistributionClient defines operations for interacting with the app distribution API
type DistributionClient interface {
	// ListReleases returns all releases of the app, newest first as supplied by the API
	ListReleases(ctx context.Context, app model.AppRef) ([]*model.Release, error)

	// ResolveDownloadURL returns a fresh binary download URL for the named release
	ResolveDownloadURL(ctx context.Context, releaseName string) (string, error)

	// Download streams the binary at url into w and returns the number of bytes written
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// OutputExporter records a key/value pair for downstream pipeline steps
type OutputExporter interface {
	Export(ctx context.Context, key, value string) error
}

// Notifier announces a finished fetch
type Notifier interface {
	NotifyFetch(ctx context.Context, app model.AppRef, result *model.FetchResult) error
}
