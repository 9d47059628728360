package config

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/apkfetch/pkg/domain/model"
	"github.com/m-mizutani/apkfetch/pkg/domain/types"
	"github.com/m-mizutani/apkfetch/pkg/infra/firebase"
)

// Firebase holds Firebase App Distribution configuration
type Firebase struct {
	ProjectNumber     string
	AppID             string
	ServiceAccountKey string `masq:"secret"`
	Endpoint          string
}

// Flags returns CLI flags for Firebase configuration
func (c *Firebase) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project-number",
			Usage:       "Firebase project number",
			Destination: &c.ProjectNumber,
			Sources:     cli.EnvVars("APKFETCH_PROJECT_NUMBER", "project_number"),
		},
		&cli.StringFlag{
			Name:        "app-id",
			Usage:       "Firebase app ID, e.g. 1:1234567890:android:0a1b2c3d4e5f",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("APKFETCH_APP_ID", "app_id"),
		},
		&cli.StringFlag{
			Name:        "sa-key",
			Usage:       "Service account key JSON",
			Destination: &c.ServiceAccountKey,
			Sources:     cli.EnvVars("APKFETCH_SA_KEY", "sa_key"),
		},
		&cli.StringFlag{
			Name:        "firebase-endpoint",
			Usage:       "Override App Distribution API base URL",
			Hidden:      true,
			Destination: &c.Endpoint,
			Sources:     cli.EnvVars("APKFETCH_FIREBASE_ENDPOINT"),
		},
	}
}

// Validate checks that every required value is present and that the
// service account key is a well-formed service account JSON key
func (c *Firebase) Validate() (*model.ServiceAccountKey, error) {
	var missing []string
	if c.ProjectNumber == "" {
		missing = append(missing, "project-number")
	}
	if c.AppID == "" {
		missing = append(missing, "app-id")
	}
	if c.ServiceAccountKey == "" {
		missing = append(missing, "sa-key")
	}
	if len(missing) > 0 {
		return nil, goerr.New("missing required configuration",
			goerr.T(types.ErrTagConfig),
			goerr.V("missing", missing),
		)
	}

	var key model.ServiceAccountKey
	if err := json.Unmarshal([]byte(c.ServiceAccountKey), &key); err != nil {
		return nil, goerr.Wrap(err, "service account key is not valid JSON", goerr.T(types.ErrTagConfig))
	}
	if key.Type != "service_account" || key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, goerr.New("service account key is incomplete",
			goerr.T(types.ErrTagConfig),
			goerr.V("type", key.Type),
			goerr.V("client_email", key.ClientEmail),
		)
	}

	return &key, nil
}

// App returns the app whose releases are fetched
func (c *Firebase) App() model.AppRef {
	return model.AppRef{
		ProjectNumber: c.ProjectNumber,
		AppID:         c.AppID,
	}
}

// NewClient creates an App Distribution client from the configuration
func (c *Firebase) NewClient(ctx context.Context) (*firebase.Client, error) {
	var opts []firebase.Option
	if c.Endpoint != "" {
		opts = append(opts, firebase.WithEndpoint(c.Endpoint))
	}
	return firebase.NewClient(ctx, []byte(c.ServiceAccountKey), opts...)
}
