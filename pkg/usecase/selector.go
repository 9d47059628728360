package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/apkfetch/pkg/domain/model"
	"github.com/m-mizutani/apkfetch/pkg/domain/types"
)

// SelectRelease picks exactly one release for req.
//
// releases must be ordered newest first and is never reordered or modified.
// When both display and build version are requested the exact version is
// searched first; otherwise, or when no release has the display version, the
// newest release tagged with the requested environment wins. As the last
// resort the newest release is accepted if it carries the tag.
func SelectRelease(ctx context.Context, releases []*model.Release, req model.SelectionRequest) (*model.SelectionResult, error) {
	if len(releases) == 0 {
		return nil, goerr.New("no releases available",
			goerr.T(types.ErrTagEmptyReleaseList),
			goerr.V("environment", req.EnvironmentTag()),
		)
	}

	if req.HasExactVersion() {
		return selectByVersion(ctx, releases, req)
	}
	return selectByEnvironment(ctx, releases, req)
}

func selectByVersion(ctx context.Context, releases []*model.Release, req model.SelectionRequest) (*model.SelectionResult, error) {
	logger := ctxlog.From(ctx).With(
		"strategy", model.StrategyExactVersion,
		"display_version", req.DisplayVersion,
		"build_version", req.BuildVersion,
	)
	logger.Debug("Searching release by version")

	var candidates []*model.Release
	for _, r := range releases {
		if r.DisplayVersion == req.DisplayVersion {
			candidates = append(candidates, r)
		}
	}

	if len(candidates) == 0 {
		logger.Warn("Display version not found, falling back to environment search",
			"environment", req.EnvironmentTag(),
		)
		return selectByEnvironment(ctx, releases, req)
	}

	for _, r := range candidates {
		if r.BuildVersion == req.BuildVersion {
			logger.Info("Found release with matching build", "release", r.Name, "label", r.Label())
			return &model.SelectionResult{Release: r, Strategy: model.StrategyExactVersion}, nil
		}
	}

	if req.StrictBuild {
		return nil, goerr.New("build not found for display version",
			goerr.T(types.ErrTagBuildNotFound),
			goerr.V("display_version", req.DisplayVersion),
			goerr.V("build_version", req.BuildVersion),
			goerr.V("candidates", len(candidates)),
		)
	}

	newest := candidates[0]
	logger.Warn("Build not found, using newest build of the display version",
		"release", newest.Name,
		"label", newest.Label(),
		"candidates", len(candidates),
	)
	return &model.SelectionResult{Release: newest, Strategy: model.StrategyVersionSubstitute}, nil
}

func selectByEnvironment(ctx context.Context, releases []*model.Release, req model.SelectionRequest) (*model.SelectionResult, error) {
	env := req.EnvironmentTag()
	logger := ctxlog.From(ctx).With("strategy", model.StrategyEnvironment, "environment", env)
	logger.Debug("Searching newest release by environment tag", "release_count", len(releases))

	for _, r := range releases {
		if r.HasTag(env) {
			logger.Info("Found release with environment tag", "release", r.Name, "label", r.Label())
			return &model.SelectionResult{Release: r, Strategy: model.StrategyEnvironment}, nil
		}
	}

	logger.Warn("No release carries the environment tag, checking newest release")
	return selectLatest(ctx, releases, req)
}

func selectLatest(ctx context.Context, releases []*model.Release, req model.SelectionRequest) (*model.SelectionResult, error) {
	env := req.EnvironmentTag()
	newest := releases[0]

	if newest.HasTag(env) {
		ctxlog.From(ctx).Info("Using newest release",
			"strategy", model.StrategyLatest,
			"release", newest.Name,
			"label", newest.Label(),
		)
		return &model.SelectionResult{Release: newest, Strategy: model.StrategyLatest}, nil
	}

	return nil, goerr.New("no release matches the request",
		goerr.T(types.ErrTagNoMatchingRelease),
		goerr.V("environment", env),
		goerr.V("display_version", req.DisplayVersion),
		goerr.V("build_version", req.BuildVersion),
		goerr.V("newest_release", newest.Name),
		goerr.V("newest_tags", newest.Tags()),
		goerr.V("release_count", len(releases)),
	)
}
