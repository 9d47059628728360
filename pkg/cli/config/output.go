package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/apkfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/apkfetch/pkg/infra/ghenv"
)

// Output holds artifact output configuration
type Output struct {
	Dir       string
	Name      string
	GitHubEnv string
	DryRun    bool
}

// Flags returns CLI flags for output configuration
func (c *Output) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output-dir",
			Aliases:     []string{"d"},
			Usage:       "Directory to save the artifact in",
			Value:       ".",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("APKFETCH_OUTPUT_DIR"),
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "File name of the artifact (default: \"{displayVersion}({buildVersion})\")",
			Destination: &c.Name,
			Sources:     cli.EnvVars("APKFETCH_OUTPUT"),
		},
		&cli.StringFlag{
			Name:        "github-env",
			Usage:       "File to append APK_PATH=<path> to",
			Destination: &c.GitHubEnv,
			Sources:     cli.EnvVars("GITHUB_ENV"),
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Select a release without downloading it",
			Destination: &c.DryRun,
			Sources:     cli.EnvVars("APKFETCH_DRY_RUN"),
		},
	}
}

// Exporter returns the pipeline output exporter, or nil when none is configured
func (c *Output) Exporter() interfaces.OutputExporter {
	if c.GitHubEnv == "" {
		return nil
	}
	return ghenv.New(c.GitHubEnv)
}
