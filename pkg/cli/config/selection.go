package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/apkfetch/pkg/domain/model"
)

// Selection holds release selection criteria
type Selection struct {
	Environment    string
	DisplayVersion string
	BuildVersion   string
	StrictBuild    bool
}

// Flags returns CLI flags for release selection
func (c *Selection) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "env",
			Usage:       "Environment tag searched in release notes (case-insensitive)",
			Value:       model.DefaultEnvironment,
			Destination: &c.Environment,
			Sources:     cli.EnvVars("APKFETCH_ENV", "app_env"),
		},
		&cli.StringFlag{
			Name:        "display-version",
			Usage:       "Display version to fetch, used together with --build-version",
			Destination: &c.DisplayVersion,
			Sources:     cli.EnvVars("APKFETCH_DISPLAY_VERSION", "displayVersion"),
		},
		&cli.StringFlag{
			Name:        "build-version",
			Usage:       "Build version to fetch, used together with --display-version",
			Destination: &c.BuildVersion,
			Sources:     cli.EnvVars("APKFETCH_BUILD_VERSION", "buildVersion"),
		},
		&cli.BoolFlag{
			Name:        "strict-build",
			Usage:       "Fail instead of using the newest build when the requested build is missing",
			Destination: &c.StrictBuild,
			Sources:     cli.EnvVars("APKFETCH_STRICT_BUILD"),
		},
	}
}

// Request returns the selection request
func (c *Selection) Request() model.SelectionRequest {
	return model.SelectionRequest{
		DisplayVersion: c.DisplayVersion,
		BuildVersion:   c.BuildVersion,
		Environment:    c.Environment,
		StrictBuild:    c.StrictBuild,
	}
}
