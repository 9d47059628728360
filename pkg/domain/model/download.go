package model

// FetchInput is the read-only configuration of one fetch run
type FetchInput struct {
	App       AppRef
	Selection SelectionRequest

	OutputDir  string // Directory the artifact is written to, "." if empty
	OutputName string // Overrides Release.FileName() when set
	DryRun     bool   // Select only, do not download
}

// FetchResult represents the outcome of a fetch run
type FetchResult struct {
	Release  *Release
	Strategy SelectionStrategy
	Path     string // Path of the downloaded file, empty on dry run
	Size     int64  // Bytes written
}
