package model

import "strings"

// DefaultEnvironment is used when no environment tag is requested
const DefaultEnvironment = "QA"

// SelectionRequest holds the criteria used to pick one release
type SelectionRequest struct {
	DisplayVersion string
	BuildVersion   string
	Environment    string

	// StrictBuild turns a build mismatch within the requested display
	// version into an error instead of substituting the newest build.
	StrictBuild bool
}

// HasExactVersion reports whether both display and build version are requested
func (r SelectionRequest) HasExactVersion() bool {
	return r.DisplayVersion != "" && r.BuildVersion != ""
}

// EnvironmentTag returns the lower-cased environment, falling back to DefaultEnvironment
func (r SelectionRequest) EnvironmentTag() string {
	env := strings.TrimSpace(r.Environment)
	if env == "" {
		env = DefaultEnvironment
	}
	return strings.ToLower(env)
}

// SelectionStrategy names the rule that produced a selection
type SelectionStrategy string

const (
	StrategyExactVersion      SelectionStrategy = "exact_version"
	StrategyVersionSubstitute SelectionStrategy = "version_substitute"
	StrategyEnvironment       SelectionStrategy = "environment"
	StrategyLatest            SelectionStrategy = "latest"
)

// SelectionResult is the single release chosen for a request
type SelectionResult struct {
	Release  *Release
	Strategy SelectionStrategy
}
