package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/apkfetch/pkg/cli/config"
	"github.com/m-mizutani/apkfetch/pkg/domain/model"
	"github.com/m-mizutani/apkfetch/pkg/usecase"
)

func cmdFetch() *cli.Command {
	var (
		firebaseCfg  config.Firebase
		selectionCfg config.Selection
		outputCfg    config.Output
		slackCfg     config.Slack
		profileCfg   config.Profile
		timeout      time.Duration
	)

	var flags []cli.Flag
	flags = append(flags, firebaseCfg.Flags()...)
	flags = append(flags, selectionCfg.Flags()...)
	flags = append(flags, outputCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, profileCfg.Flags()...)
	flags = append(flags, &cli.DurationFlag{
		Name:        "timeout",
		Usage:       "Deadline for authentication, listing and download",
		Value:       10 * time.Minute,
		Destination: &timeout,
		Sources:     cli.EnvVars("APKFETCH_TIMEOUT"),
	})

	return &cli.Command{
		Name:    "fetch",
		Aliases: []string{"f"},
		Usage:   "Select a release and download its binary",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := profileCfg.Apply(c, &firebaseCfg, &selectionCfg, &outputCfg); err != nil {
				return err
			}

			key, err := firebaseCfg.Validate()
			if err != nil {
				return err
			}

			input := &model.FetchInput{
				App:        firebaseCfg.App(),
				Selection:  selectionCfg.Request(),
				OutputDir:  outputCfg.Dir,
				OutputName: outputCfg.Name,
				DryRun:     outputCfg.DryRun,
			}

			logger.Info("Starting fetch",
				"app", input.App.ResourceName(),
				"client_email", key.ClientEmail,
				"environment", input.Selection.EnvironmentTag(),
				"display_version", input.Selection.DisplayVersion,
				"build_version", input.Selection.BuildVersion,
				"dry_run", input.DryRun,
			)

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			client, err := firebaseCfg.NewClient(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to create App Distribution client")
			}

			var opts []usecase.FetchOption
			if exporter := outputCfg.Exporter(); exporter != nil {
				opts = append(opts, usecase.WithExporter(exporter))
			}
			if notifier := slackCfg.Notifier(); notifier != nil {
				opts = append(opts, usecase.WithNotifier(notifier))
			}

			result, err := usecase.NewFetch(client, opts...).Fetch(ctx, input)
			if err != nil {
				return err
			}

			if input.DryRun {
				fmt.Fprintln(c.Root().Writer, result.Release.Label())
				return nil
			}

			fmt.Fprintln(c.Root().Writer, result.Path)
			return nil
		},
	}
}
