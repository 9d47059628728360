package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/apkfetch/pkg/cli/config"
	"github.com/m-mizutani/apkfetch/pkg/domain/model"
	"github.com/m-mizutani/apkfetch/pkg/usecase"
)

func cmdList() *cli.Command {
	var (
		firebaseCfg  config.Firebase
		selectionCfg config.Selection
		profileCfg   config.Profile
		noColor      bool
	)

	var flags []cli.Flag
	flags = append(flags, firebaseCfg.Flags()...)
	flags = append(flags, selectionCfg.Flags()...)
	flags = append(flags, profileCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "no-color",
		Usage:       "Disable colored output",
		Destination: &noColor,
	})

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List releases and mark the one fetch would select",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := profileCfg.Apply(c, &firebaseCfg, &selectionCfg, nil); err != nil {
				return err
			}
			if _, err := firebaseCfg.Validate(); err != nil {
				return err
			}

			client, err := firebaseCfg.NewClient(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to create App Distribution client")
			}

			releases, err := client.ListReleases(ctx, firebaseCfg.App())
			if err != nil {
				return err
			}

			req := selectionCfg.Request()
			result, err := usecase.SelectRelease(ctx, releases, req)
			if err != nil {
				logger.Warn("No release would be selected", "error", err)
			}

			return printReleases(c.Root().Writer, releases, result, req.EnvironmentTag(), noColor)
		},
	}
}

// printReleases renders releases as a table followed by a summary line.
// The selected release is marked with '*', other releases carrying env are
// highlighted. result is nil when nothing would be selected.
func printReleases(w io.Writer, releases []*model.Release, result *model.SelectionResult, env string, noColor bool) error {
	var selected *model.Release
	if result != nil {
		selected = result.Release
	}

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"", "label", "created", "tags", "name"})
	for _, r := range releases {
		mark := ""
		if r == selected {
			mark = "*"
		}
		created := "-"
		if !r.CreateTime.IsZero() {
			created = r.CreateTime.UTC().Format(time.RFC3339)
		}
		tags := strings.Join(r.Tags(), ",")
		if tags == "" {
			tags = "-"
		}
		tw.AppendRow(table.Row{mark, r.Label(), created, tags, r.Name})
	}

	if !noColor {
		tw.SetRowPainter(table.RowPainter(func(row table.Row) text.Colors {
			if row[0] == "*" {
				return text.Colors{text.FgGreen, text.Bold}
			}
			if tags, ok := row[3].(string); ok && hasTag(tags, env) {
				return text.Colors{text.FgCyan}
			}
			return nil
		}))
	}

	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return goerr.Wrap(err, "failed to write releases")
	}

	summary := color.New(color.FgGreen)
	if result == nil {
		summary = color.New(color.FgYellow)
	}
	if noColor {
		summary.DisableColor()
	}

	var err error
	if result == nil {
		_, err = summary.Fprintf(w, "No release matches environment %q\n", env)
	} else {
		_, err = summary.Fprintf(w, "Selected %s by %s\n", selected.Label(), result.Strategy)
	}
	if err != nil {
		return goerr.Wrap(err, "failed to write summary")
	}
	return nil
}

func hasTag(tags, env string) bool {
	for _, tag := range strings.Split(tags, ",") {
		if tag == env {
			return true
		}
	}
	return false
}
