package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/apkfetch/pkg/domain/types"
)

// Profile holds the path of an optional TOML file with per-app defaults
type Profile struct {
	Path string
}

// ProfileFile is the content of a profile file. Values only apply to
// settings not given by flag or environment variable.
//
//	project_number = "1234567890"
//	app_id         = "1:1234567890:android:0a1b2c3d4e5f"
//	environment    = "staging"
//	output_dir     = "artifacts"
type ProfileFile struct {
	ProjectNumber string `toml:"project_number"`
	AppID         string `toml:"app_id"`
	Environment   string `toml:"environment"`
	OutputDir     string `toml:"output_dir"`
}

// Flags returns CLI flags for the profile
func (c *Profile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "profile",
			Aliases:     []string{"p"},
			Usage:       "TOML file with default project-number, app-id, env and output-dir",
			Destination: &c.Path,
			Sources:     cli.EnvVars("APKFETCH_PROFILE"),
		},
	}
}

// Load reads the profile file. It returns nil without error when no path is set.
func (c *Profile) Load() (*ProfileFile, error) {
	if c.Path == "" {
		return nil, nil
	}

	fd, err := os.Open(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open profile",
			goerr.T(types.ErrTagConfig),
			goerr.V("path", c.Path),
		)
	}
	defer fd.Close()

	var file ProfileFile
	if err := toml.NewDecoder(fd).DisallowUnknownFields().Decode(&file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse profile",
			goerr.T(types.ErrTagConfig),
			goerr.V("path", c.Path),
		)
	}
	return &file, nil
}

// Apply loads the profile and fills settings that cmd did not receive
// from a flag or environment variable. out may be nil for commands that
// write no artifact.
func (c *Profile) Apply(cmd *cli.Command, fb *Firebase, sel *Selection, out *Output) error {
	file, err := c.Load()
	if err != nil || file == nil {
		return err
	}

	apply := func(flag, value string, dst *string) {
		if value != "" && !cmd.IsSet(flag) {
			*dst = value
		}
	}

	apply("project-number", file.ProjectNumber, &fb.ProjectNumber)
	apply("app-id", file.AppID, &fb.AppID)
	apply("env", file.Environment, &sel.Environment)
	if out != nil {
		apply("output-dir", file.OutputDir, &out.Dir)
	}

	return nil
}
