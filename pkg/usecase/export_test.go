package usecase

// SelectLatest exposes the last-resort strategy, which SelectRelease only
// reaches after the environment scan has already rejected releases[0].
var SelectLatest = selectLatest
