package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures of a fetch run. Every tagged error is terminal.
var (
	ErrTagConfig            = goerr.NewTag("configuration")
	ErrTagAuth              = goerr.NewTag("authentication")
	ErrTagEmptyReleaseList  = goerr.NewTag("empty_release_list")
	ErrTagNoMatchingRelease = goerr.NewTag("no_matching_release")
	ErrTagBuildNotFound     = goerr.NewTag("build_not_found")
	ErrTagDownload          = goerr.NewTag("download")
)
