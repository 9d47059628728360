package firebase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	appdistribution "google.golang.org/api/firebaseappdistribution/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/m-mizutani/apkfetch/pkg/domain/model"
	"github.com/m-mizutani/apkfetch/pkg/domain/types"
)

// Scope required to read releases and download their binaries
const Scope = "https://www.googleapis.com/auth/cloud-platform"

// config holds internal client configuration
type config struct {
	endpoint   string
	httpClient *http.Client
	pageSize   int64
}

// Option is a functional option for Client configuration
type Option func(*config)

// WithEndpoint overrides the API base URL
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient uses client as is instead of authenticating with the service account key
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithPageSize sets the number of releases requested per page
func WithPageSize(size int64) Option {
	return func(c *config) {
		c.pageSize = size
	}
}

// Client reads releases from Firebase App Distribution
type Client struct {
	service    *appdistribution.Service
	httpClient *http.Client
	pageSize   int64
}

// NewClient creates a new App Distribution client authenticated with a
// service account JSON key
func NewClient(ctx context.Context, serviceAccountKey []byte, opts ...Option) (*Client, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		jwtCfg, err := google.JWTConfigFromJSON(serviceAccountKey, Scope)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to parse service account key", goerr.T(types.ErrTagConfig))
		}
		httpClient = jwtCfg.Client(ctx)
	}

	svcOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(cfg.endpoint))
	}

	service, err := appdistribution.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create App Distribution service")
	}

	return &Client{
		service:    service,
		httpClient: httpClient,
		pageSize:   cfg.pageSize,
	}, nil
}

// ListReleases returns every release of app in the order the API returns them (newest first)
func (c *Client) ListReleases(ctx context.Context, app model.AppRef) ([]*model.Release, error) {
	logger := ctxlog.From(ctx)
	parent := app.ResourceName()

	call := c.service.Projects.Apps.Releases.List(parent)
	if c.pageSize > 0 {
		call = call.PageSize(c.pageSize)
	}

	var releases []*model.Release
	pages := 0
	err := call.Pages(ctx, func(resp *appdistribution.GoogleFirebaseAppdistroV1ListReleasesResponse) error {
		pages++
		for _, r := range resp.Releases {
			releases = append(releases, toRelease(r))
		}
		return nil
	})
	if err != nil {
		return nil, wrapAPIError(err, "failed to list releases", goerr.V("parent", parent))
	}

	logger.Debug("Fetched release pages", "parent", parent, "pages", pages, "releases", len(releases))
	return releases, nil
}

// ResolveDownloadURL fetches the release again to obtain a fresh binary download URL
func (c *Client) ResolveDownloadURL(ctx context.Context, releaseName string) (string, error) {
	r, err := c.service.Projects.Apps.Releases.Get(releaseName).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError(err, "failed to get release", goerr.V("name", releaseName))
	}
	if r.BinaryDownloadUri == "" {
		return "", goerr.New("release has no binary download URL",
			goerr.T(types.ErrTagDownload),
			goerr.V("name", releaseName),
		)
	}
	return r.BinaryDownloadUri, nil
}

// Download streams the binary at url into w using the authenticated HTTP client
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create download request", goerr.T(types.ErrTagDownload))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, wrapAPIError(err, "failed to send download request", goerr.T(types.ErrTagDownload))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		opts := []goerr.Option{
			goerr.T(types.ErrTagDownload),
			goerr.V("status", resp.StatusCode),
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			opts = append(opts, goerr.T(types.ErrTagAuth))
		}
		return 0, goerr.New("unexpected status code for download", opts...)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, goerr.Wrap(err, "failed to read download body",
			goerr.T(types.ErrTagDownload),
			goerr.V("written", n),
		)
	}

	return n, nil
}

// wrapAPIError wraps err and tags it as an authentication failure when the
// token exchange failed or the API refused the credential
func wrapAPIError(err error, msg string, opts ...goerr.Option) error {
	var retrieveErr *oauth2.RetrieveError
	var apiErr *googleapi.Error

	switch {
	case errors.As(err, &retrieveErr):
		opts = append(opts, goerr.T(types.ErrTagAuth))
	case errors.As(err, &apiErr):
		opts = append(opts, goerr.V("status", apiErr.Code))
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			opts = append(opts, goerr.T(types.ErrTagAuth))
		}
	}

	return goerr.Wrap(err, msg, opts...)
}

func toRelease(r *appdistribution.GoogleFirebaseAppdistroV1Release) *model.Release {
	release := &model.Release{
		Name:              r.Name,
		DisplayVersion:    r.DisplayVersion,
		BuildVersion:      r.BuildVersion,
		BinaryDownloadURI: r.BinaryDownloadUri,
		ConsoleURI:        r.FirebaseConsoleUri,
	}
	if r.ReleaseNotes != nil {
		release.Notes = r.ReleaseNotes.Text
	}
	if t, err := time.Parse(time.RFC3339Nano, r.CreateTime); err == nil {
		release.CreateTime = t
	}
	return release
}
