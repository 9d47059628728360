package usecase

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/apkfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/apkfetch/pkg/domain/model"
	"github.com/m-mizutani/apkfetch/pkg/domain/types"
)

// OutputKey is the pipeline variable holding the downloaded file path
const OutputKey = "APK_PATH"

type fetchUseCase struct {
	client   interfaces.DistributionClient
	exporter interfaces.OutputExporter
	notifier interfaces.Notifier
}

// FetchOption is a functional option for the fetch use case
type FetchOption func(*fetchUseCase)

// WithExporter sets where the downloaded path is exported for later pipeline steps
func WithExporter(exporter interfaces.OutputExporter) FetchOption {
	return func(uc *fetchUseCase) {
		uc.exporter = exporter
	}
}

// WithNotifier sets a notifier called after a successful download
func WithNotifier(notifier interfaces.Notifier) FetchOption {
	return func(uc *fetchUseCase) {
		uc.notifier = notifier
	}
}

// NewFetch creates a new instance of FetchUseCase
func NewFetch(client interfaces.DistributionClient, opts ...FetchOption) interfaces.FetchUseCase {
	uc := &fetchUseCase{client: client}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Fetch lists the releases of the app, selects one and downloads its binary
func (uc *fetchUseCase) Fetch(ctx context.Context, input *model.FetchInput) (*model.FetchResult, error) {
	logger := ctxlog.From(ctx)

	logger.Info("Listing releases", "app", input.App.ResourceName())

	releases, err := uc.client.ListReleases(ctx, input.App)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list releases", goerr.V("app", input.App.ResourceName()))
	}
	logger.Info("Listed releases", "count", len(releases))

	selected, err := SelectRelease(ctx, releases, input.Selection)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to select release", goerr.V("app", input.App.ResourceName()))
	}

	result := &model.FetchResult{
		Release:  selected.Release,
		Strategy: selected.Strategy,
	}

	logger.Info("Selected release",
		"release", selected.Release.Name,
		"label", selected.Release.Label(),
		"strategy", selected.Strategy,
		"created", selected.Release.CreateTime,
		"notes", selected.Release.Notes,
	)

	if input.DryRun {
		logger.Info("Dry run, skipping download")
		return result, nil
	}

	path := outputPath(input, selected.Release)
	size, err := uc.download(ctx, selected.Release, path)
	if err != nil {
		return nil, err
	}
	result.Path = path
	result.Size = size

	logger.Info("Saved artifact", "path", path, "size_bytes", size)

	if uc.exporter != nil {
		if err := uc.exporter.Export(ctx, OutputKey, path); err != nil {
			return nil, goerr.Wrap(err, "failed to export artifact path", goerr.V("path", path))
		}
	}

	if uc.notifier != nil {
		if err := uc.notifier.NotifyFetch(ctx, input.App, result); err != nil {
			logger.Warn("Failed to send notification", "error", err)
		}
	}

	return result, nil
}

func outputPath(input *model.FetchInput, release *model.Release) string {
	name := release.FileName()
	if input.OutputName != "" {
		name = model.SanitizeFileName(input.OutputName)
	}

	dir := input.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

// download writes the release binary to a temporary file next to path and
// renames it into place once the whole body has been received.
func (uc *fetchUseCase) download(ctx context.Context, release *model.Release, path string) (int64, error) {
	logger := ctxlog.From(ctx)

	url, err := uc.client.ResolveDownloadURL(ctx, release.Name)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to resolve download URL", goerr.V("release", release.Name))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, goerr.Wrap(err, "failed to create output directory",
			goerr.T(types.ErrTagDownload),
			goerr.V("dir", dir),
		)
	}

	tmp, err := os.CreateTemp(dir, ".apkfetch-*")
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create temporary file",
			goerr.T(types.ErrTagDownload),
			goerr.V("dir", dir),
		)
	}
	tmpPath := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpPath)
	}()

	logger.Info("Downloading artifact", "release", release.Name, "path", path)

	pw := &progressWriter{writer: tmp, logger: logger}
	size, err := uc.client.Download(ctx, url, pw)
	if err != nil {
		_ = tmp.Close()
		return 0, goerr.Wrap(err, "failed to download artifact",
			goerr.T(types.ErrTagDownload),
			goerr.V("release", release.Name),
		)
	}

	if err := tmp.Close(); err != nil {
		return 0, goerr.Wrap(err, "failed to close temporary file",
			goerr.T(types.ErrTagDownload),
			goerr.V("path", tmpPath),
		)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return 0, goerr.Wrap(err, "failed to move artifact into place",
			goerr.T(types.ErrTagDownload),
			goerr.V("from", tmpPath),
			goerr.V("to", path),
		)
	}

	return size, nil
}

const progressInterval = 8 << 20

// progressWriter logs a debug line every progressInterval bytes
type progressWriter struct {
	writer  io.Writer
	logger  *slog.Logger
	written int64
	next    int64
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.written >= pw.next {
		pw.logger.Debug("Download progress", "written_bytes", pw.written)
		pw.next = pw.written + progressInterval
	}
	return n, err
}
